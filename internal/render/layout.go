package render

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"billgen/internal/invoice"
	"billgen/internal/issuer"
	"billgen/pkg/models"
)

// Page geometry in millimetres (A4 portrait).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginX      = 12.0
	contentWidth = pageWidth - 2*marginX

	headerBandHeight = 42.0
	continuationTop  = 22.0
	stripHeight      = 14.0
	footerHeight     = 30.0
	footerGap        = 6.0

	pageCountAlias = "{nb}"
	fontFamily     = "Helvetica"
	utf8FontFamily = "issuer"
)

type rgb struct{ r, g, b int }

var (
	colorDark      = rgb{0x37, 0x41, 0x51}
	colorBlue      = rgb{0x3b, 0x82, 0xf6}
	colorWhite     = rgb{0xff, 0xff, 0xff}
	colorLight     = rgb{0xd1, 0xd5, 0xdb}
	colorMuted     = rgb{0x9c, 0xa3, 0xaf}
	colorCard      = rgb{0xf1, 0xf5, 0xf9}
	colorRowAlt    = rgb{0xf8, 0xfa, 0xfc}
	colorBorder    = rgb{0xe2, 0xe8, 0xf0}
	colorHeading   = rgb{0x1e, 0x29, 0x3b}
	colorBody      = rgb{0x47, 0x55, 0x69}
	colorNote      = rgb{0x64, 0x74, 0x8b}
	colorPaidFill  = rgb{0xdc, 0xfc, 0xe7}
	colorPaidLabel = rgb{0x16, 0x65, 0x34}
)

// Column widths of the items table as fractions of the content width.
var columnShares = [4]float64{0.45, 0.15, 0.20, 0.20}

var columnTitles = [4]string{"DESCRIPTION", "QTY", "UNIT PRICE", "AMOUNT"}

var columnAligns = [4]string{"LM", "CM", "RM", "RM"}

type document struct {
	pdf    *gofpdf.Fpdf
	family string
	utf8   bool
	tr     func(string) string
	issuer issuer.Profile
	bill   models.Bill
	year   int
}

func (d *document) draw() {
	d.pdf.SetHeaderFunc(d.continuationHeader)
	d.pdf.SetFooterFunc(d.footer)
	d.pdf.AddPage()

	d.headerBand()
	d.billTo()
	if d.bill.IsPaid {
		d.paidBadge()
	}
	d.itemsTable()
	d.totalsBox()
	d.paymentMethods()
}

// bottom is the lowest y a block may reach before the footer.
func (d *document) bottom() float64 {
	return pageHeight - footerHeight - footerGap
}

// ensureSpace starts a new page when h millimetres no longer fit.
func (d *document) ensureSpace(h float64) bool {
	if d.pdf.GetY()+h > d.bottom() {
		d.pdf.AddPage()
		return true
	}
	return false
}

func (d *document) fill(c rgb) { d.pdf.SetFillColor(c.r, c.g, c.b) }
func (d *document) textColor(c rgb) { d.pdf.SetTextColor(c.r, c.g, c.b) }
func (d *document) drawColor(c rgb) { d.pdf.SetDrawColor(c.r, c.g, c.b) }

func (d *document) font(style string, size float64, c rgb) {
	d.pdf.SetFont(d.family, style, size)
	d.textColor(c)
}

// split wraps txt to width w in the current font and returns translated lines.
func (d *document) split(txt string, w float64) []string {
	if d.utf8 {
		return d.pdf.SplitText(d.tr(txt), w)
	}
	var lines []string
	for _, line := range d.pdf.SplitLines([]byte(d.tr(txt)), w) {
		lines = append(lines, string(line))
	}
	return lines
}

// cell writes one line of text at (x, y) without moving the flow position.
func (d *document) cell(x, y, w, h float64, txt, align string) {
	d.pdf.SetXY(x, y)
	d.pdf.CellFormat(w, h, d.tr(txt), "", 0, align, false, 0, "")
}

func (d *document) money(v decimal.Decimal) string {
	return invoice.FormatMoney(d.issuer.Currency, v)
}

func (d *document) headerBand() {
	pdf := d.pdf

	d.fill(colorDark)
	pdf.Rect(0, 0, pageWidth, headerBandHeight, "F")

	const logoSize = 24.0
	logoX, logoY := marginX, 9.0
	if kind := imageType(d.issuer.Logo); kind != "" {
		opts := gofpdf.ImageOptions{ImageType: kind}
		pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(d.issuer.Logo))
		pdf.ImageOptions("logo", logoX, logoY, logoSize, logoSize, false, opts, 0, "")
	} else {
		d.fill(colorBlue)
		pdf.RoundedRect(logoX, logoY, logoSize, logoSize, 3, "1234", "F")
		d.font("B", 14, colorWhite)
		d.cell(logoX, logoY, logoSize, logoSize, d.issuer.Monogram(), "CM")
	}

	textX := logoX + logoSize + 4
	textW := 95.0
	d.font("B", 16, colorWhite)
	d.cell(textX, 10, textW, 7, d.issuer.Company, "LM")
	d.font("", 9, colorLight)
	d.cell(textX, 18, textW, 5, d.issuer.Tagline, "LM")
	d.cell(textX, 23, textW, 5, d.issuer.ContactLine(), "LM")
	if d.issuer.Email != "" {
		d.cell(textX, 28, textW, 5, d.issuer.Email, "LM")
	}

	rightW := 60.0
	rightX := pageWidth - marginX - rightW
	d.font("B", 24, colorWhite)
	d.cell(rightX, 8, rightW, 11, "INVOICE", "RM")

	badge := "#" + d.bill.BillNumber
	pdf.SetFont(d.family, "B", 8)
	badgeW := pdf.GetStringWidth(d.tr(badge)) + 8
	badgeX := pageWidth - marginX - badgeW
	d.fill(colorBlue)
	pdf.RoundedRect(badgeX, 21, badgeW, 6, 3, "1234", "F")
	d.textColor(colorWhite)
	d.cell(badgeX, 21, badgeW, 6, badge, "CM")

	d.font("", 9, colorLight)
	d.cell(rightX, 29, rightW, 5, "Date: "+d.bill.Date.String(), "RM")

	pdf.SetY(headerBandHeight + 6)
}

func (d *document) billTo() {
	pdf := d.pdf

	name := d.bill.CustomerName
	if strings.TrimSpace(name) == "" {
		name = "Unknown"
	}

	innerW := contentWidth - 10
	pdf.SetFont(d.family, "", 10)
	var details []string
	for _, s := range []string{d.bill.CustomerEmail, d.bill.CustomerPhone} {
		if strings.TrimSpace(s) != "" {
			details = append(details, d.tr(s))
		}
	}
	if strings.TrimSpace(d.bill.CustomerAddress) != "" {
		details = append(details, d.split(d.bill.CustomerAddress, innerW)...)
	}

	h := 4 + 6 + 7 + 5*float64(len(details)) + 3
	d.ensureSpace(h)
	y := pdf.GetY()

	d.fill(colorCard)
	pdf.RoundedRect(marginX, y, contentWidth, h, 2, "1234", "F")
	d.fill(colorBlue)
	pdf.Rect(marginX, y, 1.2, h, "F")

	x := marginX + 5
	d.font("B", 12, colorHeading)
	d.cell(x, y+4, innerW, 6, "BILL TO", "LM")
	d.font("B", 14, colorHeading)
	d.cell(x, y+10, innerW, 7, name, "LM")

	d.font("", 10, colorBody)
	lineY := y + 17
	for _, s := range details {
		pdf.SetXY(x, lineY)
		pdf.CellFormat(innerW, 5, s, "", 0, "LM", false, 0, "")
		lineY += 5
	}

	pdf.SetY(y + h + 5)
}

func (d *document) paidBadge() {
	pdf := d.pdf

	const w, h = 28.0, 8.0
	d.ensureSpace(h)
	x, y := pageWidth-marginX-w, pdf.GetY()

	d.fill(colorPaidFill)
	pdf.RoundedRect(x, y, w, h, 4, "1234", "F")
	d.font("B", 10, colorPaidLabel)
	d.cell(x, y, w, h, "PAID", "CM")

	pdf.SetY(y + h + 5)
}

func (d *document) columnWidths() [4]float64 {
	var w [4]float64
	for i, share := range columnShares {
		w[i] = contentWidth * share
	}
	return w
}

func (d *document) tableHeader() {
	pdf := d.pdf
	widths := d.columnWidths()

	const h = 8.0
	y := pdf.GetY()
	d.fill(colorDark)
	pdf.Rect(marginX, y, contentWidth, h, "F")

	d.font("B", 9, colorWhite)
	x := marginX
	for i, title := range columnTitles {
		d.cell(x+2, y, widths[i]-4, h, title, columnAligns[i])
		x += widths[i]
	}
	pdf.SetY(y + h)
}

func (d *document) itemsTable() {
	pdf := d.pdf
	widths := d.columnWidths()

	// Title, header and at least one row stay together.
	d.ensureSpace(8 + 8 + 8)
	d.font("B", 12, colorHeading)
	d.cell(marginX, pdf.GetY(), contentWidth, 8, "SERVICES / ITEMS", "LM")
	pdf.SetY(pdf.GetY() + 9)
	d.tableHeader()

	if len(d.bill.Items) == 0 {
		d.font("I", 9, colorNote)
		d.cell(marginX, pdf.GetY(), contentWidth, 8, "No items", "CM")
		pdf.SetY(pdf.GetY() + 8)
		return
	}

	const lineH, padY = 5.0, 3.0
	for i, item := range d.bill.Items {
		pdf.SetFont(d.family, "", 9)
		desc := d.split(itemLabel(item), widths[0]-4)
		if len(desc) == 0 {
			desc = []string{""}
		}
		rowH := float64(len(desc))*lineH + padY

		if d.ensureSpace(rowH) {
			d.tableHeader()
		}
		y := pdf.GetY()

		if i%2 == 0 {
			d.fill(colorWhite)
		} else {
			d.fill(colorRowAlt)
		}
		pdf.Rect(marginX, y, contentWidth, rowH, "F")
		d.drawColor(colorBorder)
		pdf.SetLineWidth(0.2)
		pdf.Line(marginX, y+rowH, marginX+contentWidth, y+rowH)

		d.font("", 9, colorHeading)
		for j, line := range desc {
			pdf.SetXY(marginX+2, y+padY/2+float64(j)*lineH)
			pdf.CellFormat(widths[0]-4, lineH, line, "", 0, "LM", false, 0, "")
		}

		x := marginX + widths[0]
		values := [3]string{
			quantityLabel(item.Quantity),
			d.money(numericValue(item.UnitPrice)),
			d.money(invoice.LineTotal(item)),
		}
		for k, v := range values {
			d.cell(x+2, y, widths[k+1]-4, rowH, v, columnAligns[k+1])
			x += widths[k+1]
		}

		pdf.SetY(y + rowH)
	}
}

func (d *document) totalsBox() {
	pdf := d.pdf

	const w, rowH = 72.0, 8.0
	d.ensureSpace(4 + rowH + 10)
	x := pageWidth - marginX - w
	y := pdf.GetY() + 4

	d.fill(colorRowAlt)
	pdf.Rect(x, y, w, rowH, "F")
	d.font("", 10, colorBody)
	d.cell(x+3, y, w/2, rowH, "Subtotal", "LM")
	d.cell(x+w/2, y, w/2-3, rowH, d.money(invoice.Subtotal(d.bill.Items)), "RM")

	y += rowH
	d.fill(colorDark)
	pdf.Rect(x, y, w, 10, "F")
	d.font("B", 10, colorWhite)
	d.cell(x+3, y, w/2, 10, "TOTAL AMOUNT", "LM")
	d.font("B", 11, colorWhite)
	d.cell(x+w/2, y, w/2-3, 10, d.money(d.bill.Total), "RM")

	pdf.SetY(y + 10 + 8)
}

func (d *document) paymentMethods() {
	pdf := d.pdf
	banks := d.issuer.Banks
	if len(banks) == 0 {
		return
	}

	const cols, gap, cardH = 3, 4.0, 24.0
	cardW := (contentWidth - gap*(cols-1)) / cols
	rows := int(math.Ceil(float64(len(banks)) / cols))
	d.ensureSpace(9 + float64(rows)*(cardH+gap) + 6)

	d.font("B", 12, colorHeading)
	d.cell(marginX, pdf.GetY(), contentWidth, 8, "PAYMENT METHODS", "LM")
	top := pdf.GetY() + 9

	d.drawColor(colorBorder)
	pdf.SetLineWidth(0.3)
	for i, bank := range banks {
		x := marginX + float64(i%cols)*(cardW+gap)
		y := top + float64(i/cols)*(cardH+gap)

		d.fill(colorRowAlt)
		pdf.RoundedRect(x, y, cardW, cardH, 2, "1234", "FD")

		d.font("B", 9, colorHeading)
		d.cell(x+3, y+2, cardW-6, 5, bank.Bank, "LM")
		d.font("B", 10, colorBlue)
		d.cell(x+3, y+8, cardW-6, 5, bank.Number, "LM")
		d.font("", 8, colorBody)
		d.cell(x+3, y+13.5, cardW-6, 4, bank.Holder, "LM")
		d.cell(x+3, y+18, cardW-6, 4, bank.Branch, "LM")
	}

	y := top + float64(rows)*(cardH+gap)
	if d.issuer.PaymentNote != "" {
		d.font("I", 8, colorNote)
		d.cell(marginX, y, contentWidth, 5, d.issuer.PaymentNote, "LM")
		y += 6
	}
	pdf.SetY(y)
}

func (d *document) continuationHeader() {
	pdf := d.pdf
	if pdf.PageNo() <= 1 {
		return
	}

	d.fill(colorDark)
	pdf.Rect(0, 0, pageWidth, stripHeight, "F")
	d.font("B", 10, colorWhite)
	d.cell(marginX, 0, contentWidth/2, stripHeight, d.issuer.Company, "LM")
	d.font("", 9, colorLight)
	label := fmt.Sprintf("Invoice #%s • Page %d of %s", d.bill.BillNumber, pdf.PageNo(), pageCountAlias)
	d.cell(pageWidth/2, 0, contentWidth/2, stripHeight, label, "RM")

	pdf.SetY(continuationTop)
}

func (d *document) footer() {
	pdf := d.pdf
	top := pageHeight - footerHeight

	d.fill(colorDark)
	pdf.Rect(0, top, pageWidth, footerHeight, "F")

	d.font("B", 11, colorWhite)
	d.cell(marginX, top+4, contentWidth, 6, d.issuer.ThankYou, "CM")
	d.font("", 8, colorLight)
	d.cell(marginX, top+10.5, contentWidth, 4.5, d.issuer.ThankYouNote, "CM")
	d.cell(marginX, top+15.5, contentWidth, 4.5, d.issuer.ChannelsLine(), "CM")
	d.font("", 7, colorMuted)
	d.cell(marginX, top+22, contentWidth, 4.5,
		fmt.Sprintf("© %d %s. All rights reserved.", d.year, d.issuer.Company), "CM")
}

func itemLabel(item models.BillItem) string {
	if strings.TrimSpace(item.ServiceName) != "" {
		return item.ServiceName
	}
	return "Service #" + strconv.FormatInt(item.ServiceID, 10)
}

func quantityLabel(q models.Numeric) string {
	if !q.Valid {
		return "0"
	}
	return q.Value.String()
}

func numericValue(n models.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Value
}

// imageType detects the formats gofpdf can embed.
func imageType(b []byte) string {
	switch {
	case bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case bytes.HasPrefix(b, []byte{0xff, 0xd8, 0xff}):
		return "JPG"
	case bytes.HasPrefix(b, []byte("GIF8")):
		return "GIF"
	default:
		return ""
	}
}
