package sanitiser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	fontFamily = "Helvetica"
	fontSize   = 11.0
	lineHeight = 6.0
)

// textToPDF renders plain text as a PDF, preserving paragraph boundaries
// (blank lines) the same way the spreadsheet/CSV paths preserve row/sheet
// boundaries.
func textToPDF(data []byte) ([]byte, error) {
	text := string(data)
	paragraphs := strings.Split(text, "\n\n")
	return paragraphsToPDF(paragraphs)
}

func paragraphsToPDF(paragraphs []string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", fontSize)

	for _, p := range paragraphs {
		p = strings.TrimRight(p, "\r\n")
		if p == "" {
			pdf.Ln(lineHeight)
			continue
		}
		pdf.MultiCell(0, lineHeight, p, "", "L", false)
		pdf.Ln(lineHeight / 2)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}

// csvToPDF renders each row as a paragraph line, one table boundary per
// row.
func csvToPDF(data []byte) ([]byte, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var paragraphs []string
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		paragraphs = append(paragraphs, strings.Join(record, "  |  "))
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("csv contained no readable rows")
	}
	return paragraphsToPDF(paragraphs)
}

// xlsxToPDF extracts every sheet's rows as text via excelize, one
// paragraph per row with a sheet-name separator.
func xlsxToPDF(data []byte) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var paragraphs []string
	for _, sheet := range f.GetSheetList() {
		paragraphs = append(paragraphs, fmt.Sprintf("--- %s ---", sheet))
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			paragraphs = append(paragraphs, strings.Join(row, "  |  "))
		}
	}
	if len(paragraphs) == 0 {
		return nil, fmt.Errorf("xlsx contained no sheets")
	}
	return paragraphsToPDF(paragraphs)
}

// errorPDF is the conversion-failure fallback: a single-page PDF stating
// the cause, so intake never persists a non-PDF.
func errorPDF(filename string, cause error) []byte {
	paragraphs := []string{
		"Document conversion failed",
		fmt.Sprintf("Original filename: %s", filename),
		fmt.Sprintf("Reason: %s", cause),
	}
	out, err := paragraphsToPDF(paragraphs)
	if err != nil {
		// paragraphsToPDF itself should never fail for plain ASCII
		// strings; if it somehow does there is nothing left to try.
		return []byte("%PDF-1.4\n%% sanitiser: unable to render error PDF\n")
	}
	return out
}
