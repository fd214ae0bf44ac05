// Package render draws invoice PDFs with gofpdf.
//
// A document is laid out top to bottom in a fixed order: header band, BILL TO
// card, the PAID badge for settled bills, the items table, the totals box, the
// payment methods and the footer. Long bills flow onto continuation pages; the
// items table repeats its column header there and every page carries the
// footer.
//
// Output is deterministic: the PDF creation and modification dates are pinned
// to the bill date and catalog entries are sorted, so rendering the same bill
// twice in the same year yields identical bytes.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"billgen/internal/invoice"
	"billgen/internal/issuer"
	"billgen/internal/logger"
	"billgen/pkg/models"
)

// Generator renders bills for one issuer. It is safe for concurrent use once
// configured.
type Generator struct {
	Issuer issuer.Profile

	// Clock supplies the current year for the copyright line.
	Clock func() time.Time

	// Compress deflates page streams. Tests turn it off to inspect content.
	Compress bool

	Log zerolog.Logger

	totals *invoice.TotalValidation
}

// NewGenerator creates a generator with compression on and the wall clock.
func NewGenerator(profile issuer.Profile) *Generator {
	return &Generator{
		Issuer:   profile,
		Clock:    time.Now,
		Compress: true,
		Log:      logger.WithComponent("render"),
		totals:   invoice.NewTotalValidation(),
	}
}

// FileName returns the download name for a bill, Invoice-<bill_number>.pdf.
func FileName(billNumber string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(billNumber))
	if name == "" {
		name = "draft"
	}
	return "Invoice-" + name + ".pdf"
}

// Render produces the document in memory.
func (g *Generator) Render(bill models.Bill) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Write(&buf, bill); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the document to w.
func (g *Generator) Write(w io.Writer, bill models.Bill) error {
	const op = "Render"

	start := time.Now()
	totals := g.totals
	if totals == nil {
		totals = invoice.NewTotalValidation()
	}
	// Mismatches are logged by the validation; the bill total is still printed.
	totals.Check(bill)

	pdf := g.newDocument(bill)
	d := &document{
		pdf:    pdf,
		family: fontFamily,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		issuer: g.Issuer,
		bill:   bill,
		year:   g.now().Year(),
	}
	g.useIssuerFonts(d)
	d.draw()

	if err := pdf.Error(); err != nil {
		return &RenderError{Op: op, BillNumber: bill.BillNumber, Err: err}
	}
	if err := pdf.Output(w); err != nil {
		return &RenderError{Op: op, BillNumber: bill.BillNumber, Err: fmt.Errorf("write output: %w", err)}
	}

	g.Log.Debug().
		Str("bill_number", bill.BillNumber).
		Int("pages", pdf.PageCount()).
		Dur("duration", time.Since(start)).
		Msg("Invoice rendered")
	return nil
}

// useIssuerFonts switches d to the issuer's TrueType faces when configured.
// The built-in Helvetica only covers cp1252, so names in Sinhala or Tamil need
// them.
func (g *Generator) useIssuerFonts(d *document) {
	if len(g.Issuer.Fonts) == 0 {
		return
	}
	for _, style := range issuer.FontStyles {
		d.pdf.AddUTF8FontFromBytes(utf8FontFamily, style, g.Issuer.Fonts[style])
	}
	d.family = utf8FontFamily
	d.utf8 = true
	d.tr = basicPlaneOnly
}

// basicPlaneOnly replaces runes the embedded font tables cannot index.
func basicPlaneOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '?'
		}
		return r
	}, s)
}

func (g *Generator) now() time.Time {
	if g.Clock == nil {
		return time.Now()
	}
	return g.Clock()
}

func (g *Generator) newDocument(bill models.Bill) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.Compress)
	pdf.SetCatalogSort(true)

	stamp := bill.Date.Time()
	if stamp.IsZero() {
		stamp = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)

	pdf.SetTitle("Invoice "+bill.BillNumber, true)
	pdf.SetAuthor(g.Issuer.Company, true)
	pdf.SetCreator("billgen", true)

	pdf.SetMargins(marginX, continuationTop, marginX)
	pdf.SetAutoPageBreak(true, footerHeight+footerGap)
	pdf.AliasNbPages(pageCountAlias)
	return pdf
}
