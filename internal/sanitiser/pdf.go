package sanitiser

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// stripPDFMetadata rewrites a PDF dropping document-info and XMP
// metadata. The optimizing rewrite prunes unreferenced objects (orphaned
// XMP metadata streams included); document-info properties are removed
// explicitly.
func stripPDFMetadata(data []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()

	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return nil, err
	}

	var stripped bytes.Buffer
	if err := api.RemoveProperties(bytes.NewReader(data), &stripped, nil, conf); err != nil {
		// Some PDFs carry no properties dict at all; fall through with
		// the original bytes and let the optimizing rewrite run.
		stripped.Reset()
		stripped.Write(data)
	}

	var optimised bytes.Buffer
	if err := api.Optimize(bytes.NewReader(stripped.Bytes()), &optimised, conf); err != nil {
		return nil, err
	}
	return optimised.Bytes(), nil
}
