package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
)

// ErrNoPages is returned for a PDF without any page.
var ErrNoPages = errors.New("PDF has no pages")

// PDFLoader turns statement PDFs into the page/table document model.
type PDFLoader struct {
	Log logrus.FieldLogger
}

// NewPDFLoader returns a loader logging to log (standard logger when nil).
func NewPDFLoader(log logrus.FieldLogger) *PDFLoader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PDFLoader{Log: log}
}

// Load reads the PDF at filePath. An unreadable file is the only error a
// statement can fail with; everything inside the pages is best effort.
func (l *PDFLoader) Load(filePath string) (*models.Document, error) {
	f, r, err := openPDF(filePath)
	if err != nil {
		return nil, fmt.Errorf("open PDF %q: %w", filePath, err)
	}
	defer f.Close()

	doc, err := l.read(r)
	if err != nil {
		return nil, fmt.Errorf("read PDF %q: %w", filePath, err)
	}
	return doc, nil
}

// LoadReader reads a PDF held in memory, e.g. an HTTP upload.
func (l *PDFLoader) LoadReader(ra io.ReaderAt, size int64) (doc *models.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return l.read(r)
}

// openPDF wraps pdf.Open, which panics on some malformed files.
func openPDF(filePath string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()
	return pdf.Open(filePath)
}

func (l *PDFLoader) read(r *pdf.Reader) (doc *models.Document, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("PDF library crashed: %v", rec)
		}
	}()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, ErrNoPages
	}

	doc = &models.Document{}
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		p := l.readPage(i, page)
		l.Log.WithFields(logrus.Fields{
			"page":   i,
			"chars":  len(p.Text),
			"tables": len(p.Tables),
		}).Debug("extracted page")
		doc.Pages = append(doc.Pages, p)
	}
	return doc, nil
}

func (l *PDFLoader) readPage(number int, page pdf.Page) models.Page {
	content := page.Content()

	glyphs := make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		glyphs = append(glyphs, glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	rects := make([]rect, 0, len(content.Rect))
	for _, r := range content.Rect {
		rects = append(rects, newRect(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y))
	}

	p := buildPage(number, glyphs, rects)
	if p.Text == "" {
		p.Text = plainText(page)
	}
	return p
}

// plainText is the fallback for pages whose content yields no positioned text.
func plainText(page pdf.Page) string {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
