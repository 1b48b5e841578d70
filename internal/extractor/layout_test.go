package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fontSize = 10.0

// word places s with its baseline at (x, y), half an em per rune.
func word(x, y float64, s string) glyph {
	return glyph{x: x, y: y, w: float64(len([]rune(s))) * fontSize * 0.5, size: fontSize, s: s}
}

// ruledGrid draws thin line rules at the given boundaries.
func ruledGrid(xs, ys []float64) []rect {
	var rects []rect
	top, bottom := ys[0], ys[len(ys)-1]
	left, right := xs[0], xs[len(xs)-1]
	for _, x := range xs {
		rects = append(rects, newRect(x-0.25, bottom, x+0.25, top))
	}
	for _, y := range ys {
		rects = append(rects, newRect(left, y-0.25, right, y+0.25))
	}
	return rects
}

func TestLayoutLines(t *testing.T) {
	glyphs := []glyph{
		word(100, 700, "ЄДРПОУ"),
		word(10, 700, "Клієнт"),
		word(50, 700.6, "ТОВ,"),
		word(10, 680, "Поточний"),
		// no gap: same word split into two glyphs
		word(55, 680, "рах"),
		word(70, 680, "унок"),
	}

	lines := layoutLines(glyphs)

	assert.Equal(t, []string{"Клієнт ТОВ, ЄДРПОУ", "Поточний рахунок"}, lines)
}

func TestLayoutLines_Empty(t *testing.T) {
	assert.Nil(t, layoutLines(nil))
}

func TestCluster(t *testing.T) {
	got := cluster([]float64{10, 50.5, 11, 50, 200})
	require.Len(t, got, 3)
	assert.InDelta(t, 10.5, got[0], 0.001)
	assert.InDelta(t, 50.25, got[1], 0.001)
	assert.InDelta(t, 200, got[2], 0.001)
}

func TestRulings(t *testing.T) {
	vertical, horizontal := rulings([]rect{
		newRect(10, 0, 10.5, 100), // vertical line
		newRect(0, 50, 100, 50.5), // horizontal line
		newRect(0, 0, 20, 30),     // cell box
		newRect(5, 5, 5.5, 5.5),   // dot
		newRect(100, 100, 60, 60), // reversed corners are normalized
	})

	assert.Len(t, vertical, 1+2+2)
	assert.Len(t, horizontal, 1+2+2)
	assert.InDelta(t, 10.25, vertical[0].pos, 0.001)
	assert.InDelta(t, 50.25, horizontal[0].pos, 0.001)
}

func TestBuildPage_Table(t *testing.T) {
	xs := []float64{0, 100, 300}
	ys := []float64{500, 480, 440}
	glyphs := []glyph{
		// header row
		word(5, 485, "Дата"),
		word(105, 485, "Контрагент"),
		// data row with a wrapped cell
		word(5, 465, "05.03.2024"),
		word(105, 465, "ТОВ"),
		word(125, 465, "АКМЕ"),
		word(105, 450, "ЄДРПОУ:"),
		word(145, 450, "12345678"),
		// header text above the table
		word(5, 600, "Виписка"),
	}

	page := buildPage(1, glyphs, ruledGrid(xs, ys))

	assert.Equal(t, 1, page.Number)
	assert.Contains(t, page.Text, "Виписка")
	require.Len(t, page.Tables, 1)

	table := page.Tables[0]
	require.Len(t, table, 2)
	assert.Equal(t, []string{"Дата", "Контрагент"}, table[0])
	assert.Equal(t, []string{"05.03.2024", "ТОВ АКМЕ\nЄДРПОУ: 12345678"}, table[1])
}

func TestBuildPage_SeparateTables(t *testing.T) {
	rects := append(
		ruledGrid([]float64{0, 50, 100}, []float64{700, 680}),
		ruledGrid([]float64{0, 30, 60, 90}, []float64{500, 480, 460})...,
	)
	glyphs := []glyph{
		word(5, 685, "A"),
		word(5, 485, "B"),
		word(65, 465, "C"),
	}

	page := buildPage(2, glyphs, rects)

	require.Len(t, page.Tables, 2)
	assert.Equal(t, [][]string{{"A", ""}}, [][]string(page.Tables[0]))
	assert.Equal(t, [][]string{{"B", "", ""}, {"", "", "C"}}, [][]string(page.Tables[1]))
}

func TestBuildPage_NoRules(t *testing.T) {
	page := buildPage(3, []glyph{word(0, 10, "text")}, nil)

	assert.Equal(t, "text", page.Text)
	assert.Empty(t, page.Tables)
}
