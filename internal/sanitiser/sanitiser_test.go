package sanitiser

import (
	"bytes"
	"strings"
	"testing"
)

func TestSignatureScannerDetectsMatch(t *testing.T) {
	s := NewSignatureScanner(EICARSignatures())
	clean, category, err := s.Scan([]byte(`X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clean {
		t.Fatal("expected malware signature to be detected")
	}
	if category != "eicar-test-file" {
		t.Errorf("category = %q, want eicar-test-file", category)
	}
}

func TestSignatureScannerAdmitsCleanInput(t *testing.T) {
	s := NewSignatureScanner(EICARSignatures())
	clean, _, err := s.Scan([]byte("just an ordinary document"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !clean {
		t.Fatal("expected clean input to be admitted")
	}
}

func TestNoopScannerAlwaysAdmits(t *testing.T) {
	clean, _, err := NoopScanner{}.Scan([]byte("anything"))
	if err != nil || !clean {
		t.Fatalf("NoopScanner should always admit, got clean=%v err=%v", clean, err)
	}
}

func TestSanitiseRejectsMalware(t *testing.T) {
	s := New(NewSignatureScanner(EICARSignatures()))
	_, err := s.Sanitise([]byte(`X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`), "text/plain", "eicar.txt")
	if err == nil {
		t.Fatal("expected malware rejection")
	}
	if _, ok := err.(*MalwareError); !ok {
		t.Errorf("expected *MalwareError, got %T", err)
	}
}

func TestSanitisePlainTextProducesPDF(t *testing.T) {
	s := New(nil)
	result, err := s.Sanitise([]byte("Hello world.\n\nSecond paragraph."), "text/plain", "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(result.PDF, []byte("%PDF")) {
		t.Error("expected output to start with a PDF header")
	}
	if !strings.HasPrefix(result.Filename, "document_") || !strings.HasSuffix(result.Filename, ".pdf") {
		t.Errorf("unexpected synthetic filename: %s", result.Filename)
	}
}

func TestSanitiseCSVProducesPDF(t *testing.T) {
	s := New(nil)
	result, err := s.Sanitise([]byte("name,age\nAlice,30\nBob,40\n"), "text/csv", "data.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(result.PDF, []byte("%PDF")) {
		t.Error("expected CSV conversion to produce a PDF")
	}
}

func TestStripUnprintableDropsControlBytes(t *testing.T) {
	in := []byte("hello\x00\x01world\n")
	out := stripUnprintable(in)
	if bytes.Contains(out, []byte{0x00}) || bytes.Contains(out, []byte{0x01}) {
		t.Errorf("expected control bytes stripped, got %q", out)
	}
}

func TestExtOf(t *testing.T) {
	cases := map[string]string{
		"report.PDF":     ".PDF",
		"archive.tar.gz": ".gz",
		"noext":          "",
	}
	for in, want := range cases {
		if got := extOf(in); got != want {
			t.Errorf("extOf(%q) = %q, want %q", in, got, want)
		}
	}
}
