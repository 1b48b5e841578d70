package extractor

import (
	"math"
	"sort"
	"strings"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
)

// glyph is one positioned piece of text. Y grows upwards as in PDF space.
type glyph struct {
	x, y, w, size float64
	s             string
}

func (g glyph) end() float64 {
	if g.w > 0 {
		return g.x + g.w
	}
	// no advance width from the font; assume half an em per rune
	return g.x + float64(len([]rune(g.s)))*g.size*0.5
}

// rect is a filled or stroked rectangle, normalized so x0<=x1 and y0<=y1.
type rect struct {
	x0, y0, x1, y1 float64
}

func newRect(ax, ay, bx, by float64) rect {
	return rect{
		x0: math.Min(ax, bx), y0: math.Min(ay, by),
		x1: math.Max(ax, bx), y1: math.Max(ay, by),
	}
}

// segment is a ruling line: pos is x for vertical and y for horizontal
// rules, [from, to] its extent along the other axis.
type segment struct {
	pos, from, to float64
}

func (s segment) covers(v float64) bool {
	return v >= s.from-snapTolerance && v <= s.to+snapTolerance
}

const (
	// rules thinner than this are lines, thicker ones are cell boxes
	ruleThickness = 2.0
	// ruling positions closer than this are the same grid line
	snapTolerance = 2.0
	// word gap as a fraction of the font size
	wordGap = 0.15
)

// layoutLines groups glyphs into text lines, top to bottom, left to right.
func layoutLines(glyphs []glyph) []string {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].y > sorted[b].y
	})

	var rows [][]glyph
	for _, g := range sorted {
		if n := len(rows); n > 0 {
			base := rows[n-1][0]
			if math.Abs(base.y-g.y) <= math.Max(1.5, base.size*0.5) {
				rows[n-1] = append(rows[n-1], g)
				continue
			}
		}
		rows = append(rows, []glyph{g})
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := joinRow(row); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func joinRow(row []glyph) string {
	sort.SliceStable(row, func(a, b int) bool { return row[a].x < row[b].x })

	var sb strings.Builder
	for i, g := range row {
		if i > 0 {
			prev := row[i-1]
			if g.x-prev.end() > math.Max(prev.size, g.size)*wordGap {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(g.s)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// rulings splits rectangles into vertical and horizontal ruling segments.
func rulings(rects []rect) (vertical, horizontal []segment) {
	for _, r := range rects {
		w, h := r.x1-r.x0, r.y1-r.y0
		switch {
		case w <= ruleThickness && h <= ruleThickness:
			// dot, not a rule
		case w <= ruleThickness:
			vertical = append(vertical, segment{pos: (r.x0 + r.x1) / 2, from: r.y0, to: r.y1})
		case h <= ruleThickness:
			horizontal = append(horizontal, segment{pos: (r.y0 + r.y1) / 2, from: r.x0, to: r.x1})
		default:
			vertical = append(vertical,
				segment{pos: r.x0, from: r.y0, to: r.y1},
				segment{pos: r.x1, from: r.y0, to: r.y1})
			horizontal = append(horizontal,
				segment{pos: r.y0, from: r.x0, to: r.x1},
				segment{pos: r.y1, from: r.x0, to: r.x1})
		}
	}
	return vertical, horizontal
}

// cluster merges nearby positions and returns them in ascending order.
func cluster(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var out []float64
	sum, n, last := sorted[0], 1, sorted[0]
	for _, v := range sorted[1:] {
		if v-last <= snapTolerance {
			sum += v
			n++
		} else {
			out = append(out, sum/float64(n))
			sum, n = v, 1
		}
		last = v
	}
	return append(out, sum/float64(n))
}

// gridTable is one ruled table: row boundaries top to bottom and column
// boundaries left to right.
type gridTable struct {
	ys []float64
	xs []float64
}

// findGrids locates ruled tables. Consecutive row bands crossed by at least
// one vertical rule belong to the same table; an unruled band separates tables.
func findGrids(vertical, horizontal []segment) []gridTable {
	if len(vertical) == 0 || len(horizontal) == 0 {
		return nil
	}
	hpos := make([]float64, 0, len(horizontal))
	for _, s := range horizontal {
		hpos = append(hpos, s.pos)
	}
	ys := cluster(hpos)
	// top to bottom
	for i, j := 0, len(ys)-1; i < j; i, j = i+1, j-1 {
		ys[i], ys[j] = ys[j], ys[i]
	}

	var grids []gridTable
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		if g, ok := buildGrid(ys[start:end+1], vertical); ok {
			grids = append(grids, g)
		}
		start = -1
	}

	for i := 0; i+1 < len(ys); i++ {
		mid := (ys[i] + ys[i+1]) / 2
		if crossed(vertical, mid) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(ys) - 1)
	return grids
}

func crossed(vertical []segment, y float64) bool {
	for _, s := range vertical {
		if s.covers(y) {
			return true
		}
	}
	return false
}

func buildGrid(ys []float64, vertical []segment) (gridTable, bool) {
	if len(ys) < 2 {
		return gridTable{}, false
	}
	var xpos []float64
	for _, s := range vertical {
		for i := 0; i+1 < len(ys); i++ {
			if s.covers((ys[i] + ys[i+1]) / 2) {
				xpos = append(xpos, s.pos)
				break
			}
		}
	}
	xs := cluster(xpos)
	if len(xs) < 2 {
		return gridTable{}, false
	}
	return gridTable{ys: ys, xs: xs}, true
}

// fill assigns glyphs to cells and renders the table. Glyphs outside the
// grid are ignored; multi-line cells keep their line breaks.
func (g gridTable) fill(glyphs []glyph) models.Table {
	rows, cols := len(g.ys)-1, len(g.xs)-1
	cells := make([][][]glyph, rows)
	for r := range cells {
		cells[r] = make([][]glyph, cols)
	}

	for _, gl := range glyphs {
		cx := (gl.x + gl.end()) / 2
		cy := gl.y + gl.size*0.3
		r := g.rowOf(cy)
		c := g.colOf(cx)
		if r < 0 || c < 0 {
			continue
		}
		cells[r][c] = append(cells[r][c], gl)
	}

	table := make(models.Table, rows)
	for r := range cells {
		table[r] = make([]string, cols)
		for c := range cells[r] {
			table[r][c] = strings.Join(layoutLines(cells[r][c]), "\n")
		}
	}
	return table
}

func (g gridTable) rowOf(y float64) int {
	for i := 0; i+1 < len(g.ys); i++ {
		if y <= g.ys[i] && y > g.ys[i+1] {
			return i
		}
	}
	return -1
}

func (g gridTable) colOf(x float64) int {
	for i := 0; i+1 < len(g.xs); i++ {
		if x >= g.xs[i] && x < g.xs[i+1] {
			return i
		}
	}
	return -1
}

// buildPage renders the text layer and ruled tables of one page.
func buildPage(number int, glyphs []glyph, rects []rect) models.Page {
	page := models.Page{
		Number: number,
		Text:   strings.Join(layoutLines(glyphs), "\n"),
	}
	vertical, horizontal := rulings(rects)
	for _, grid := range findGrids(vertical, horizontal) {
		page.Tables = append(page.Tables, grid.fill(glyphs))
	}
	return page
}
