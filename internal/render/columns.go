package render

// Columns is wrapped text split into two columns of near-equal length.
type Columns struct {
	Left, Right []string
}

// Balance splits lines at ceil(n/2): the left column holds the first half,
// the right column the rest, in order. The counts differ by at most one.
func Balance(lines []string) Columns {
	split := (len(lines) + 1) / 2
	return Columns{Left: lines[:split:split], Right: lines[split:]}
}

// BalanceText wraps text at the column width and balances the result.
func BalanceText(m Measurer, text string, width float64, st TextStyle) Columns {
	return Balance(Wrap(m, text, width, st))
}

// Rows is the height of the block in lines, i.e. the longer column.
func (c Columns) Rows() int { return len(c.Left) }

// Shorter is the line count of the shorter column.
func (c Columns) Shorter() int { return len(c.Right) }
