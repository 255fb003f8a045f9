package loader

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts per-page plain text from a PDF file using a pure-Go
// parser, so ingestion never needs a system Poppler/MuPDF install for the
// common case of a text-layer PDF.
func loadPDF(path string) ([]Page, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer file.Close()

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)
	fonts := make(map[string]*pdf.Font)

	for i := 1; i <= numPages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, Page{PageNumber: i})
			continue
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			// A single unreadable page does not fail the whole document;
			// it is handed to the OCR fallback like any near-empty page.
			pages = append(pages, Page{PageNumber: i})
			continue
		}

		pages = append(pages, Page{Text: text, PageNumber: i})
	}

	return pages, nil
}
