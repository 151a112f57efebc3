// Package pdfimage converts PDF statements into per-page PNG images for the
// vision model. Pure transformation, no business logic.
package pdfimage

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI balances legibility of small statement print against the
// payload size of the external model call.
const DefaultDPI = 200

// Render rasterizes every page of the PDF in page order.
// It fails only when the input is not a valid PDF structure; callers wrap
// that into their document error taxonomy.
func Render(pdf []byte, dpi float64) ([][]byte, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("pdfimage: opening document: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		png, err := doc.ImagePNG(n, dpi)
		if err != nil {
			return nil, fmt.Errorf("pdfimage: rendering page %d: %w", n+1, err)
		}
		pages = append(pages, png)
	}

	return pages, nil
}
