// Package sanitiser converts arbitrary uploaded bytes into a
// metadata-free PDF, rejecting malware up front. No original bytes ever
// leave this package; every success and every fallback path returns PDF
// bytes only.
package sanitiser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
)

var errEmptyHTML = errors.New("html contained no readable text")

// Result is the sanitiser's output: clean PDF bytes and a synthetic
// filename of the form document_<yyyymmdd_HHMMSS>.pdf.
type Result struct {
	PDF      []byte
	Filename string
}

// Sanitiser holds the pluggable malware scanner and runs the per-format
// conversion stages. It has no other state; every method is safe for
// concurrent use.
type Sanitiser struct {
	scanner Scanner
}

func New(scanner Scanner) *Sanitiser {
	if scanner == nil {
		scanner = NoopScanner{}
	}
	return &Sanitiser{scanner: scanner}
}

// MalwareError is returned when the scanner finds a positive match; the
// intake layer maps this to apierr.SecurityRejected.
type MalwareError struct {
	Category string
}

func (e *MalwareError) Error() string {
	return fmt.Sprintf("malware detected: %s", e.Category)
}

// Sanitise runs the scan then the format-specific convert stage, falling
// back to an error PDF on any conversion failure so the intake never
// persists a non-PDF.
func (s *Sanitiser) Sanitise(data []byte, contentType, filename string) (*Result, error) {
	clean, category, err := s.scanner.Scan(data)
	if err != nil {
		// Scanner unavailable: admit. Documented fail-open for availability.
		clean = true
	}
	if !clean {
		return nil, &MalwareError{Category: category}
	}

	synthetic := fmt.Sprintf("document_%s.pdf", time.Now().UTC().Format("20060102_150405"))

	pdfBytes, convErr := s.convert(data, contentType, filename)
	if convErr != nil {
		pdfBytes = errorPDF(filename, convErr)
	}

	return &Result{PDF: pdfBytes, Filename: synthetic}, nil
}

func (s *Sanitiser) convert(data []byte, contentType, filename string) ([]byte, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	ext := strings.ToLower(extOf(filename))

	switch {
	case ct == "application/pdf" || ext == ".pdf":
		return stripPDFMetadata(data)
	case strings.HasPrefix(ct, "image/") || isImageExt(ext):
		return imageToPDF(data)
	case ct == "text/csv" || ext == ".csv":
		return csvToPDF(data)
	case strings.Contains(ct, "spreadsheet") || ext == ".xlsx" || ext == ".xls":
		return xlsxToPDF(data)
	case ct == "text/html" || ext == ".html" || ext == ".htm":
		return htmlToPDF(data)
	case ct == "text/plain" || ext == ".txt" || ext == ".rtf":
		return textToPDF(stripUnprintable(data))
	default:
		// Unknown types: best-effort decode as text.
		return textToPDF(stripUnprintable(data))
	}
}

func extOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return ""
	}
	return filename[i:]
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}

// stripUnprintable drops control bytes that are neither printable ASCII
// nor common whitespace before an unknown input is rendered as text.
func stripUnprintable(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data))
	for _, b := range data {
		if b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127) || b >= 128 {
			buf.WriteByte(b)
		}
	}
	return buf.Bytes()
}
