package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billgen/internal/archive"
	"billgen/internal/issuer"
	"billgen/pkg/models"
)

func testGenerator() *Generator {
	g := NewGenerator(issuer.Default())
	g.Compress = false
	g.Clock = func() time.Time { return time.Date(2031, 5, 1, 12, 0, 0, 0, time.UTC) }
	return g
}

func sampleBill(paid bool) models.Bill {
	return models.Bill{
		ID:              7,
		BillNumber:      "INV-24-0007",
		CustomerID:      3,
		CustomerName:    "Nimal Silva",
		CustomerEmail:   "nimal@example.lk",
		CustomerAddress: "12 Lake Road, Polonnaruwa",
		Date:            models.MustParseDate("2024-01-01"),
		IsPaid:          paid,
		Total:           decimal.RequireFromString("2500"),
		Items: []models.BillItem{
			{ServiceID: 1, ServiceName: "Logo design", Quantity: models.NumericFromInt(2), UnitPrice: models.ParseNumeric("500")},
			{ServiceID: 2, ServiceName: "Banner print", Quantity: models.NumericFromInt(1), UnitPrice: models.ParseNumeric("1500")},
		},
	}
}

func pageCount(pdf []byte) int {
	return bytes.Count(pdf, []byte("<</Type /Page\n"))
}

func TestFileName(t *testing.T) {
	testCases := []struct {
		number string
		want   string
	}{
		{"INV-24-0001", "Invoice-INV-24-0001.pdf"},
		{"INV/24/0001", "Invoice-INV-24-0001.pdf"},
		{"  INV-1  ", "Invoice-INV-1.pdf"},
		{"", "Invoice-draft.pdf"},
	}

	for _, tc := range testCases {
		t.Run(tc.number, func(t *testing.T) {
			assert.Equal(t, tc.want, FileName(tc.number))
		})
	}
}

func TestRenderPaidBadge(t *testing.T) {
	g := testGenerator()

	paid, err := g.Render(sampleBill(true))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(paid, []byte("%PDF-")))
	assert.Contains(t, string(paid), "(PAID)")

	unpaid, err := g.Render(sampleBill(false))
	require.NoError(t, err)
	assert.NotContains(t, string(unpaid), "PAID")
}

func TestRenderContent(t *testing.T) {
	out, err := testGenerator().Render(sampleBill(false))
	require.NoError(t, err)
	text := string(out)

	for _, want := range []string{
		"(INVOICE)",
		"(#INV-24-0007)",
		"(Date: 2024-01-01)",
		"(BILL TO)",
		"(Nimal Silva)",
		"(nimal@example.lk)",
		"(SERVICES / ITEMS)",
		"(Logo design)",
		"(Rs. 1000.00)",
		"(Rs. 2500.00)",
		"(TOTAL AMOUNT)",
		"(PAYMENT METHODS)",
		"(BANK OF CEYLON)",
		"(005200170090177)",
		"(NDB BANK)",
		"2031 ABC Graphics. All rights reserved.)",
	} {
		assert.Contains(t, text, want)
	}
	assert.Equal(t, 1, pageCount(out))
}

func TestRenderAuthoritativeTotal(t *testing.T) {
	bill := sampleBill(false)
	bill.Total = decimal.RequireFromString("2600")

	out, err := testGenerator().Render(bill)
	require.NoError(t, err)
	// The subtotal is recomputed, the grand total is the stored one.
	assert.Contains(t, string(out), "(Rs. 2500.00)")
	assert.Contains(t, string(out), "(Rs. 2600.00)")
}

func TestRenderMalformedItems(t *testing.T) {
	bill := sampleBill(false)
	bill.Items = append(bill.Items, models.BillItem{ServiceID: 9, ServiceName: "Broken", Quantity: models.ParseNumeric("abc"), UnitPrice: models.ParseNumeric("100")})

	out, err := testGenerator().Render(bill)
	require.NoError(t, err)
	assert.Contains(t, string(out), "(Rs. 0.00)")
}

func TestRenderEmptyItems(t *testing.T) {
	bill := sampleBill(false)
	bill.Items = nil
	bill.Total = decimal.Zero

	out, err := testGenerator().Render(bill)
	require.NoError(t, err)
	assert.Contains(t, string(out), "(No items)")
	assert.Contains(t, string(out), "(Rs. 0.00)")
}

func TestRenderDeterministic(t *testing.T) {
	g := testGenerator()
	g.Compress = true

	first, err := g.Render(sampleBill(true))
	require.NoError(t, err)
	second, err := g.Render(sampleBill(true))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderMultiPage(t *testing.T) {
	bill := sampleBill(false)
	bill.Items = nil
	for i := 0; i < 70; i++ {
		bill.Items = append(bill.Items, models.BillItem{
			ServiceID:   int64(i + 1),
			ServiceName: fmt.Sprintf("Item %02d", i+1),
			Quantity:    models.NumericFromInt(1),
			UnitPrice:   models.ParseNumeric("10"),
		})
	}
	bill.Total = decimal.RequireFromString("700")

	out, err := testGenerator().Render(bill)
	require.NoError(t, err)
	text := string(out)

	pages := pageCount(out)
	require.Greater(t, pages, 1)
	assert.Contains(t, text, "Page 2 of "+strconv.Itoa(pages))
	assert.NotContains(t, text, pageCountAlias)
	assert.GreaterOrEqual(t, bytes.Count(out, []byte("(DESCRIPTION)")), 2, "table header repeats on continuation pages")
	assert.Equal(t, pages, bytes.Count(out, []byte("All rights reserved.)")), "footer on every page")
	assert.Contains(t, text, "(Item 70)")
	assert.Contains(t, text, "(Rs. 700.00)")
}

func TestRenderLogo(t *testing.T) {
	profile := issuer.Default()
	profile.Logo = []byte("\x89PNG\r\n\x1a\nnot really a png")
	g := NewGenerator(profile)

	_, err := g.Render(sampleBill(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRenderFailed)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "INV-24-0007", renderErr.BillNumber)
}

func TestRenderUnknownLogoFallsBackToMonogram(t *testing.T) {
	profile := issuer.Default()
	profile.Logo = []byte("BM not an image")
	g := NewGenerator(profile)
	g.Compress = false

	out, err := g.Render(sampleBill(false))
	require.NoError(t, err)
	assert.Contains(t, string(out), "(AG)")
}

// gofpdfFont reads a TrueType face bundled with the gofpdf module.
func gofpdfFont(t *testing.T, name string) []byte {
	t.Helper()
	pc := reflect.ValueOf(gofpdf.New).Pointer()
	file, _ := runtime.FuncForPC(pc).FileLine(pc)
	data, err := os.ReadFile(filepath.Join(filepath.Dir(file), "font", name))
	if err != nil {
		t.Skipf("gofpdf font %s not available: %v", name, err)
	}
	return data
}

func TestRenderIssuerFont(t *testing.T) {
	font := gofpdfFont(t, "DejaVuSansCondensed.ttf")

	bill := sampleBill(false)
	bill.CustomerName = "Никола Петров"
	bill.CustomerAddress = "Οδός Ερμού 5, Αθήνα"
	bill.Items[0].ServiceName = "Λογότυπο 🎨"

	profile := issuer.Default()
	profile.Fonts = map[string][]byte{"": font, "B": font, "I": font}
	g := NewGenerator(profile)
	g.Compress = false

	out, err := g.Render(bill)
	require.NoError(t, err)
	assert.Contains(t, string(out), "/Encoding /Identity-H")
	assert.Equal(t, 1, pageCount(out))

	plain, err := testGenerator().Render(bill)
	require.NoError(t, err)
	assert.NotContains(t, string(plain), "/Identity-H")
}

func TestBasicPlaneOnly(t *testing.T) {
	assert.Equal(t, "කොළඹ ?", basicPlaneOnly("කොළඹ 🎨"))
}

type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  string
}

func (s *memorySink) Put(_ context.Context, name string, data []byte) (string, error) {
	if name == s.fail {
		return "", archive.ErrStoreFailed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = data
	return "mem://" + name, nil
}

func TestBatchRun(t *testing.T) {
	var bills []models.Bill
	for i := 1; i <= 9; i++ {
		b := sampleBill(i%2 == 0)
		b.ID = int64(i)
		b.BillNumber = fmt.Sprintf("INV-24-%04d", i)
		bills = append(bills, b)
	}

	sink := &memorySink{fail: "Invoice-INV-24-0004.pdf"}
	batch := NewBatch(testGenerator(), sink, 3)

	var calls int
	batch.OnResult = func(done, total int, _ BatchResult) {
		calls++
		assert.Equal(t, 9, total)
		assert.Equal(t, calls, done)
	}

	results := batch.Run(context.Background(), bills)
	require.Len(t, results, 9)
	assert.Equal(t, 9, calls)
	assert.Equal(t, 1, Failed(results))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, bills[i].BillNumber, r.BillNumber)
		if r.BillNumber == "INV-24-0004" {
			assert.ErrorIs(t, r.Err, archive.ErrStoreFailed)
			continue
		}
		assert.NoError(t, r.Err)
		assert.Equal(t, "mem://"+FileName(r.BillNumber), r.Location)
		assert.Positive(t, r.Size)
	}
	assert.Len(t, sink.files, 8)
}

func TestBatchRunToDirectory(t *testing.T) {
	dir := t.TempDir()
	sink, err := archive.NewDirSink(dir)
	require.NoError(t, err)

	results := NewBatch(testGenerator(), sink, 0).Run(context.Background(), []models.Bill{sampleBill(true)})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	data, err := os.ReadFile(filepath.Join(dir, "Invoice-INV-24-0007.pdf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "(PAID)")
}

func TestBatchRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewBatch(testGenerator(), &memorySink{}, 2).Run(ctx, []models.Bill{sampleBill(false), sampleBill(true)})
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
