package render

import (
	"context"
	"fmt"
	"strings"
)

// section renders one block starting at c and returns the cursor below it.
type section func(ctx context.Context, c Cursor) (Cursor, error)

var (
	bodyStyle    = TextStyle{Size: 9.5, Color: colorText}
	mutedStyle   = TextStyle{Size: 9, Color: colorMuted}
	labelStyle   = TextStyle{Style: "B", Size: 8, Color: colorMuted}
	brandStyle   = TextStyle{Style: "B", Size: 18, Color: colorText}
	titleStyle   = TextStyle{Style: "B", Size: 22, Color: colorText}
	headingStyle = TextStyle{Style: "B", Size: 16, Color: colorText}
	totalStyle   = TextStyle{Style: "B", Size: 12, Color: colorText}
	termsStyle   = TextStyle{Size: 7.5, Color: colorText}
	captionStyle = TextStyle{Style: "I", Size: 8, Color: colorMuted}
)

const (
	sectionGap     = 18
	logoHeight     = 48
	logoMaxWidth   = 180
	brandTextWidth = 250
	metaLabelWidth = 220
	referenceWidth = 140
	totalsWidth    = 230
	bankingGap     = 20
	termsGutter    = 20
	signatureBlock = 80
	signatureWidth = 200
	dateLineWidth  = 150

	termsHeading         = "TERMS & CONDITIONS"
	signatureUnavailable = "(signature unavailable)"
)

// sections is the ordered section list for the record's kind.
func (l *layout) sections() []section {
	s := []section{l.header, l.parties, l.meta, l.items, l.totalsAndBanking}
	if l.profile.sitePlan && l.record.SiteplanImageRef != "" {
		s = append(s, l.sitePlan)
	}
	if l.profile.terms && !l.settings.LegalTerms.Empty() {
		s = append(s, l.terms)
	}
	return s
}

func (l *layout) header(ctx context.Context, c Cursor) (Cursor, error) {
	p := l.canvas.page(c)
	left, right := l.geo.Left(), l.geo.Right()

	var brandH float64
	if img := l.fetch(ctx, roleLogo, l.settings.LogoRef); img != nil {
		w, h := img.Fit(logoMaxWidth, logoHeight)
		p.Image(string(roleLogo), left, c.Y, w, h)
		brandH = h
	} else {
		brandH = drawLines(p, left, c.Y, l.wrapStyled(brandTextWidth, brandStyle.colored(l.accent), l.settings.Company.Name))
	}

	y := c.Y
	l.textRight(p, right, y, Title(l.kind, l.record), titleStyle)
	y += titleStyle.LineHeight()
	p.Line(right-40, y, right, y, 2, l.accent)
	y += 6
	l.textRight(p, right, y, "# "+l.record.ShortID(), mutedStyle)
	y += mutedStyle.LineHeight()

	return c.Advance(max(brandH, y-c.Y) + 24), nil
}

// prefixed returns "" for an empty value so wrapAll drops the line.
func prefixed(prefix, v string) string {
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return prefix + v
}

func (l *layout) partyBlock(width float64, label, heading string, rest ...string) []styledLine {
	lines := []styledLine{{text: label, style: labelStyle}}
	lines = append(lines, l.wrapStyled(width, bodyStyle.bold(), heading)...)
	return append(lines, l.wrapStyled(width, bodyStyle, rest...)...)
}

func (l *layout) parties(_ context.Context, c Cursor) (Cursor, error) {
	colW := l.geo.ContentWidth() * 0.45

	co := l.settings.Company
	from := l.partyBlock(colW, "FROM", co.Name,
		co.Address, prefixed("Tel: ", co.Phone), co.Email, prefixed("VAT No: ", co.VATNumber))

	cp := l.record.Counterparty
	heading, contact := cp.Company, ""
	if heading == "" {
		heading = cp.Name
	} else {
		contact = cp.Name
	}
	to := l.partyBlock(colW, l.profile.partyLabel, heading,
		contact, prefixed("Attn: ", cp.Contact), cp.Address, cp.Phone, cp.Email)

	h := max(linesHeight(from), linesHeight(to))
	c, err := l.canvas.ensure(c, h)
	if err != nil {
		return c, err
	}
	p := l.canvas.page(c)
	drawLines(p, l.geo.Left(), c.Y, from)
	drawLines(p, l.geo.Left()+l.geo.ContentWidth()*0.55, c.Y, to)
	return c.Advance(h + sectionGap), nil
}

func (l *layout) meta(_ context.Context, c Cursor) (Cursor, error) {
	type row struct{ label, value string }
	rows := []row{{"Date", l.fmt.Date(l.record.CreatedDate)}}
	if l.profile.dateOf != nil {
		if d := l.profile.dateOf(l.record); d != nil {
			rows = append(rows, row{l.profile.dateLabel, l.fmt.Date(*d)})
		}
	}
	ref := wrapAll(l.metrics, referenceWidth, bodyStyle, l.record.Reference)

	lh := bodyStyle.LineHeight()
	h := float64(len(rows)+len(ref)) * lh
	c, err := l.canvas.ensure(c, h)
	if err != nil {
		return c, err
	}

	p := l.canvas.page(c)
	labelX, right := l.geo.Right()-metaLabelWidth, l.geo.Right()
	y := c.Y
	for _, r := range rows {
		p.Text(labelX, y, r.label, mutedStyle)
		l.textRight(p, right, y, r.value, bodyStyle)
		y += lh
	}
	// Reference goes last: its height depends on the wrap.
	for i, ln := range ref {
		if i == 0 {
			p.Text(labelX, y, "Reference", mutedStyle)
		}
		l.textRight(p, right, y, ln, bodyStyle)
		y += lh
	}
	return c.Advance(h + sectionGap), nil
}

var itemsTable = table{
	columns: []column{
		{header: "Description"},
		{header: "Qty", width: 60, align: alignRight},
		{header: "Unit Price", width: 90, align: alignRight},
		{header: "Total", width: 90, align: alignRight},
	},
	headerStyle: labelStyle.colored(colorMuted),
	bodyStyle:   bodyStyle,
	headerFill:  colorHeaderFill,
	ruleColor:   colorRule,
	padding:     5,
}

func (l *layout) items(_ context.Context, c Cursor) (Cursor, error) {
	rows := make([][]string, 0, len(l.record.LineItems))
	for _, it := range l.record.LineItems {
		lineTotal := it.LineTotal
		if lineTotal == 0 {
			lineTotal = it.Quantity * it.UnitPrice
		}
		rows = append(rows, []string{
			it.Description,
			l.fmt.Quantity(it.Quantity),
			l.fmt.MoneyFloat(it.UnitPrice),
			l.fmt.MoneyFloat(lineTotal),
		})
	}
	if len(rows) == 0 {
		total := l.fmt.Money(l.totals.Total)
		rows = append(rows, []string{"Total " + l.kind.DisplayName() + " Amount", "1", total, total})
	}

	c, err := l.renderTable(c, itemsTable, rows)
	if err != nil {
		return c, err
	}
	return c.Advance(sectionGap), nil
}

type totalsRow struct {
	label, value string
	style        TextStyle
	divider      bool
	highlight    bool
}

func (r totalsRow) height() float64 {
	switch {
	case r.divider:
		return 8
	case r.highlight:
		return r.style.LineHeight() + 12
	default:
		return r.style.LineHeight() + 6
	}
}

func (l *layout) totalsRows() []totalsRow {
	t := l.totals
	rows := []totalsRow{{label: "Subtotal", value: l.fmt.Money(t.Subtotal), style: bodyStyle}}
	if t.ShowTax() {
		rows = append(rows, totalsRow{label: "VAT (" + l.fmt.Percent(t.TaxRate) + ")", value: l.fmt.Money(t.Tax), style: bodyStyle})
	}
	rows = append(rows,
		totalsRow{divider: true},
		totalsRow{label: "Total", value: l.fmt.Money(t.Total), style: totalStyle.colored(l.accent)},
	)
	if t.HasDeposit {
		rows = append(rows,
			totalsRow{label: "Less Paid", value: l.fmt.Money(t.Deposit.Neg()), style: bodyStyle},
			totalsRow{label: "Balance Due", value: l.fmt.Money(t.BalanceDue), style: totalStyle, highlight: true},
		)
	}
	return rows
}

// bankingReference falls back to the uppercased short id.
func (l *layout) bankingReference() string {
	if ref := strings.TrimSpace(l.settings.Banking.DefaultReference); ref != "" {
		return ref
	}
	return strings.ToUpper(l.record.ShortID())
}

func (l *layout) bankingLines(width float64) []styledLine {
	if !l.profile.banking || l.settings.Banking.Empty() {
		return nil
	}
	b := l.settings.Banking
	lines := []styledLine{{text: "BANKING DETAILS", style: labelStyle}}
	return append(lines, l.wrapStyled(width, bodyStyle,
		prefixed("Bank: ", b.BankName),
		prefixed("Branch Code: ", b.BranchCode),
		prefixed("Account No.: ", b.AccountNumber),
		"Reference: "+l.bankingReference(),
	)...)
}

// totalsAndBanking draws the totals block on the right and the banking
// details on the left, bottom-aligned so both end at the same height.
func (l *layout) totalsAndBanking(_ context.Context, c Cursor) (Cursor, error) {
	rows := l.totalsRows()
	var totalsH float64
	for _, r := range rows {
		totalsH += r.height()
	}
	bank := l.bankingLines(l.geo.ContentWidth() - totalsWidth - bankingGap)
	bankH := linesHeight(bank)

	h := max(totalsH, bankH)
	c, err := l.canvas.ensure(c, h)
	if err != nil {
		return c, err
	}
	p := l.canvas.page(c)

	x0, right := l.geo.Right()-totalsWidth, l.geo.Right()
	y := c.Y + h - totalsH
	for _, r := range rows {
		rh := r.height()
		switch {
		case r.divider:
			p.Line(x0, y+rh/2, right, y+rh/2, 0.75, colorRule)
		case r.highlight:
			p.RoundedRect(x0, y, totalsWidth, rh, 4, l.accent.tint(0.85))
			p.Text(x0+8, y+6, r.label, r.style)
			l.textRight(p, right-8, y+6, r.value, r.style)
		default:
			p.Text(x0+8, y+3, r.label, r.style)
			l.textRight(p, right-8, y+3, r.value, r.style)
		}
		y += rh
	}
	if len(bank) > 0 {
		drawLines(p, l.geo.Left(), c.Y+h-bankH, bank)
	}
	return c.Advance(h + sectionGap), nil
}

// sitePlan fetches before breaking so a failed fetch leaves no blank page.
func (l *layout) sitePlan(ctx context.Context, c Cursor) (Cursor, error) {
	img := l.fetch(ctx, roleSitePlan, l.record.SiteplanImageRef)
	if img == nil {
		return c, nil
	}
	c, err := l.canvas.forceBreak(c)
	if err != nil {
		return c, err
	}
	p := l.canvas.page(c)
	l.textCenter(p, l.geo.Width/2, c.Y, "SITE PLAN", headingStyle)
	c = c.Advance(headingStyle.LineHeight() + 12)

	avail := l.canvas.remaining(c)
	if avail <= 0 {
		return c, fmt.Errorf("%w: no room for site plan on page %d", ErrLayoutInvariant, c.Page)
	}
	w, h := img.Fit(l.geo.ContentWidth(), avail)
	p.Image(string(roleSitePlan), l.geo.Left()+(l.geo.ContentWidth()-w)/2, c.Y, w, h)
	return c.Advance(h), nil
}

// terms renders the legal terms in two balanced columns and then the
// signature block. Terms longer than a page continue on the next one.
func (l *layout) terms(ctx context.Context, c Cursor) (Cursor, error) {
	c, err := l.canvas.forceBreak(c)
	if err != nil {
		return c, err
	}
	colW := (l.geo.ContentWidth() - termsGutter) / 2
	lines := Wrap(l.metrics, l.settings.LegalTerms.Text(), colW, termsStyle)
	lh := termsStyle.LineHeight()

	heading := termsHeading
	for first := true; first || len(lines) > 0; first = false {
		if !first {
			if c, err = l.canvas.newPage(c); err != nil {
				return c, err
			}
			heading = termsHeading + " (continued)"
		}
		p := l.canvas.page(c)
		p.Text(l.geo.Left(), c.Y, heading, headingStyle)
		c = c.Advance(headingStyle.LineHeight() + 10)

		rowsFit := int(l.canvas.remaining(c) / lh)
		if rowsFit < 1 {
			return c, fmt.Errorf("%w: no room for terms on page %d", ErrLayoutInvariant, c.Page)
		}
		n := min(len(lines), 2*rowsFit)
		cols := Balance(lines[:n])
		lines = lines[n:]
		c = l.drawColumns(p, c, colW, cols, lh)
	}
	return l.signature(ctx, c)
}

func (l *layout) drawColumns(p *Page, c Cursor, colW float64, cols Columns, lh float64) Cursor {
	left := l.geo.Left()
	rightX := left + colW + termsGutter
	for i, s := range cols.Left {
		p.Text(left, c.Y+float64(i)*lh, s, termsStyle)
	}
	for i, s := range cols.Right {
		p.Text(rightX, c.Y+float64(i)*lh, s, termsStyle)
	}
	if n := cols.Shorter(); n > 0 {
		x := left + colW + termsGutter/2
		p.Line(x, c.Y, x, c.Y+float64(n)*lh, 0.5, colorRule)
	}
	return c.Advance(float64(cols.Rows())*lh + sectionGap)
}

func (l *layout) signature(ctx context.Context, c Cursor) (Cursor, error) {
	c, err := l.canvas.ensure(c, signatureBlock)
	if err != nil {
		return c, err
	}
	p := l.canvas.page(c)
	left, right := l.geo.Left(), l.geo.Right()
	dateX := right - dateLineWidth

	lineY := c.Y + 50
	p.Line(left, lineY, left+signatureWidth, lineY, 0.75, colorText)
	p.Line(dateX, lineY, right, lineY, 0.75, colorText)
	p.Text(left, lineY+4, "Client Signature", mutedStyle)
	p.Text(dateX, lineY+4, "Date", mutedStyle)
	captionY := lineY + 4 + mutedStyle.LineHeight()

	r := l.record
	if r.SignatureImageRef != "" && r.AcceptedAt != nil {
		if img := l.fetch(ctx, roleSignature, r.SignatureImageRef); img != nil {
			w, h := img.Fit(signatureWidth, 40)
			p.Image(string(roleSignature), left, lineY-h-2, w, h)
			p.Text(dateX, lineY-bodyStyle.LineHeight()-2, l.fmt.Date(*r.AcceptedAt), bodyStyle)
			p.Text(left, captionY, "Accepted electronically on "+l.fmt.DateTime(*r.AcceptedAt), captionStyle.colored(colorSuccess))
		} else {
			p.Text(left, captionY, signatureUnavailable, captionStyle.colored(colorError))
		}
	}
	return c.Advance(signatureBlock), nil
}
