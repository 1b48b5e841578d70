package models

import "strings"

// Table is a grid of cell texts, rows of columns. A cell may contain
// newlines where the PDF wrapped its content.
type Table [][]string

// Page is the text layer and the ruled tables of one PDF page.
type Page struct {
	Number int
	Text   string
	Tables []Table
}

// Lines returns the page text split into trimmed lines.
func (p Page) Lines() []string {
	raw := strings.Split(p.Text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}

// Document is a statement as seen by the parsers.
type Document struct {
	Pages []Page
}

// Text returns the text of all pages joined by newlines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}
