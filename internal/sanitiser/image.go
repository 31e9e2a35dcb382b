package sanitiser

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/go-pdf/fpdf"
)

// imageToPDF decodes then re-encodes the source image, which drops EXIF
// and other embedded metadata as a side effect of re-encoding from
// decoded pixels alone, then embeds the result centred on an A4 page via
// go-pdf/fpdf.
func imageToPDF(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var clean bytes.Buffer
	if err := png.Encode(&clean, img); err != nil {
		return nil, fmt.Errorf("re-encode image: %w", err)
	}

	bounds := img.Bounds()
	pxW, pxH := float64(bounds.Dx()), float64(bounds.Dy())
	if pxW <= 0 || pxH <= 0 {
		return nil, fmt.Errorf("image has zero dimensions")
	}

	const pageW, pageH = 210.0, 297.0 // A4 in mm
	const margin = 10.0
	usableW, usableH := pageW-2*margin, pageH-2*margin

	scale := usableW / pxW
	if h := pxH * scale; h > usableH {
		scale = usableH / pxH
	}
	imgW, imgH := pxW*scale, pxH*scale
	x := (pageW - imgW) / 2
	y := (pageH - imgH) / 2

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.RegisterImageOptionsReader("sanitised-image", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(clean.Bytes()))
	pdf.ImageOptions("sanitised-image", x, y, imgW, imgH, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}
