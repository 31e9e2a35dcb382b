package routes

import (
	"testing"

	"github.com/haqnow/archive/internal/catalog"
)

func TestSourceKindFor(t *testing.T) {
	cases := []struct {
		contentType string
		filename    string
		want        string
	}{
		{"application/pdf", "scan.pdf", catalog.SourceKindScan},
		{"image/jpeg", "photo.jpg", catalog.SourceKindScan},
		{"", "page.PNG", catalog.SourceKindScan},
		{"text/csv", "data.csv", catalog.SourceKindText},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "book.xlsx", catalog.SourceKindText},
		{"text/plain", "notes.txt", catalog.SourceKindText},
		{"", "mystery.bin", catalog.SourceKindText},
	}
	for _, tc := range cases {
		if got := sourceKindFor(tc.contentType, tc.filename); got != tc.want {
			t.Errorf("sourceKindFor(%q, %q) = %q, want %q", tc.contentType, tc.filename, got, tc.want)
		}
	}
}
