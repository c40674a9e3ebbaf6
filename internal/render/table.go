package render

type align int

const (
	alignLeft align = iota
	alignRight
)

// column describes one table column. Width 0 marks the flexible column,
// which takes whatever the fixed columns leave of the table width.
type column struct {
	header string
	width  float64
	align  align
}

// table is a generic wrapping table. Rows are paginated individually and the
// header row is repeated at the top of every continuation page.
type table struct {
	columns     []column
	headerStyle TextStyle
	bodyStyle   TextStyle
	headerFill  Color
	ruleColor   Color
	padding     float64
}

// resolveWidths fills in the flexible column.
func (t table) resolveWidths(total float64) []float64 {
	widths := make([]float64, len(t.columns))
	fixed := 0.0
	flex := -1
	for i, c := range t.columns {
		if c.width == 0 && flex < 0 {
			flex = i
			continue
		}
		widths[i] = c.width
		fixed += c.width
	}
	if flex >= 0 {
		widths[flex] = max(total-fixed, 0)
	}
	return widths
}

type tableRow struct {
	cells  [][]string
	height float64
}

func (l *layout) layoutRow(t table, widths []float64, cells []string, st TextStyle) tableRow {
	row := tableRow{cells: make([][]string, len(t.columns))}
	maxLines := 1
	for i := range t.columns {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		row.cells[i] = Wrap(l.metrics, text, widths[i]-2*t.padding, st)
		maxLines = max(maxLines, len(row.cells[i]))
	}
	row.height = float64(maxLines)*st.LineHeight() + 2*t.padding
	return row
}

func (l *layout) drawRow(p *Page, t table, widths []float64, row tableRow, top float64, st TextStyle) {
	x := l.geo.Left()
	for i, c := range t.columns {
		y := top + t.padding
		for _, ln := range row.cells[i] {
			if c.align == alignRight {
				l.textRight(p, x+widths[i]-t.padding, y, ln, st)
			} else {
				p.Text(x+t.padding, y, ln, st)
			}
			y += st.LineHeight()
		}
		x += widths[i]
	}
}

func (l *layout) drawTableHeader(c Cursor, t table, widths []float64) Cursor {
	header := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = col.header
	}
	row := l.layoutRow(t, widths, header, t.headerStyle)
	p := l.canvas.page(c)
	p.Rect(l.geo.Left(), c.Y, l.geo.ContentWidth(), row.height, t.headerFill)
	l.drawRow(p, t, widths, row, c.Y, t.headerStyle)
	return c.Advance(row.height)
}

// renderTable draws the header and body rows starting at c. The header is
// kept together with the first body row. A row taller than a page stays
// under the header it follows and overflows.
func (l *layout) renderTable(c Cursor, t table, rows [][]string) (Cursor, error) {
	widths := t.resolveWidths(l.geo.ContentWidth())
	laid := make([]tableRow, len(rows))
	for i, cells := range rows {
		laid[i] = l.layoutRow(t, widths, cells, t.bodyStyle)
	}

	headerH := l.layoutRow(t, widths, nil, t.headerStyle).height
	first := 0.0
	if len(laid) > 0 {
		first = laid[0].height
	}
	c, err := l.canvas.ensure(c, headerH+first)
	if err != nil {
		return c, err
	}
	c = l.drawTableHeader(c, t, widths)

	rowsOnPage := 0
	for _, row := range laid {
		if rowsOnPage > 0 && c.Y+row.height > l.geo.Limit() {
			if c, err = l.canvas.newPage(c); err != nil {
				return c, err
			}
			c = l.drawTableHeader(c, t, widths)
			rowsOnPage = 0
		}
		p := l.canvas.page(c)
		l.drawRow(p, t, widths, row, c.Y, t.bodyStyle)
		c = c.Advance(row.height)
		rowsOnPage++
		p.Line(l.geo.Left(), c.Y, l.geo.Right(), c.Y, 0.5, t.ruleColor)
	}
	return c, nil
}
