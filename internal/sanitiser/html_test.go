package sanitiser

import (
	"bytes"
	"testing"
)

func TestHTMLToPDFExtractsVisibleText(t *testing.T) {
	in := []byte(`<html><head><title>ignored</title><script>var x = 1;</script></head>
<body><h1>Report</h1><p>First paragraph.</p><p>Second paragraph.</p></body></html>`)
	out, err := htmlToPDF(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("expected HTML conversion to produce a PDF")
	}
}

func TestHTMLToPDFRejectsEmptyDocument(t *testing.T) {
	if _, err := htmlToPDF([]byte(`<html><head><script>alert(1)</script></head><body></body></html>`)); err == nil {
		t.Fatal("expected error for HTML with no visible text")
	}
}

func TestSanitiseHTMLProducesPDF(t *testing.T) {
	s := New(nil)
	result, err := s.Sanitise([]byte("<p>hello world from a web page</p>"), "text/html", "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(result.PDF, []byte("%PDF")) {
		t.Error("expected a PDF result for text/html input")
	}
}
