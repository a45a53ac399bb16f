// Package export renders supplier reports as downloadable CSV, XLSX and PDF
// documents.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"kaslot/internal/core"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF  = "application/pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Exporter renders a supplier report in one of the supported formats.
type Exporter struct {
	now func() time.Time
}

func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// Formats lists the supported formats in menu order.
func Formats() []string {
	return []string{FormatCSV, FormatXLSX, FormatPDF}
}

// Export returns the document bytes, its download filename and MIME type.
func (e *Exporter) Export(report core.SupplierReport, format string) ([]byte, string, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		data []byte
		mime string
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = e.exportCSV(report)
		mime = mimeCSV
	case FormatXLSX:
		data, err = e.exportXLSX(report)
		mime = mimeXLSX
	case FormatPDF:
		data, err = e.exportPDF(report)
		mime = mimePDF
	default:
		return nil, "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("export %s: %w", format, err)
	}
	return data, e.filename(report.Supplier.Name, format), mime, nil
}

func (e *Exporter) filename(name, ext string) string {
	return fmt.Sprintf("supplier_report_%s_%s.%s", fileSafe(name), e.now().Format("20060102_150405"), ext)
}

// fileSafe keeps ASCII letters and digits; anything else becomes "_".
func fileSafe(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "supplier"
	}
	return out
}

func amount(m core.Money) string {
	return m.Decimal().StringFixed(2)
}

func eventTitle(p core.Payment) string {
	if p.Event == nil {
		return "General"
	}
	if p.Event.Title != "" {
		return p.Event.Title
	}
	return p.Event.ID
}

var (
	eventHeaders   = []string{"Date", "Event", "Location", "Expected Pay", "Currency"}
	paymentHeaders = []string{"Date", "Event", "Method", "Amount", "Currency", "Note"}
	totalHeaders   = []string{"Currency", "Expected", "Paid", "Balance"}
)

func eventRow(ev core.ReportEvent) []string {
	return []string{ev.Date.ISO(), ev.Title, ev.Location, amount(ev.ExpectedPay), ev.Currency.String()}
}

func paymentRow(p core.Payment) []string {
	return []string{p.Date.ISO(), eventTitle(p), string(p.Method), amount(p.Amount), p.Currency.String(), p.Note}
}

// totalRows lists the active currencies, or Shekel zeros for an empty report.
func totalRows(r core.SupplierReport) [][]string {
	active := r.ActiveCurrencies()
	if len(active) == 0 {
		active = []core.Currency{core.Shekel}
	}
	balance := r.Balance()
	rows := make([][]string, 0, len(active))
	for _, c := range active {
		rows = append(rows, []string{
			c.String(),
			amount(r.TotalExpected.Get(c)),
			amount(r.TotalPaid.Get(c)),
			amount(balance.Get(c)),
		})
	}
	return rows
}

func (e *Exporter) exportCSV(r core.SupplierReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"Supplier", r.Supplier.Name},
		{"Role", r.Supplier.Role},
		{"Generated", e.now().Format("2006-01-02 15:04")},
		{},
		{"Totals"},
		totalHeaders,
	}
	records = append(records, totalRows(r)...)
	records = append(records, []string{}, []string{"Events"}, eventHeaders)
	for _, ev := range r.Events {
		records = append(records, eventRow(ev))
	}
	records = append(records, []string{}, []string{"Payments"}, paymentHeaders)
	for _, p := range r.Payments {
		records = append(records, paymentRow(p))
	}

	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Exporter) exportXLSX(r core.SupplierReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, err
	}
	summary := [][]any{
		{"Supplier", r.Supplier.Name},
		{"Role", r.Supplier.Role},
		{"Generated", e.now().Format("2006-01-02 15:04")},
		{},
		toAny(totalHeaders),
	}
	for _, row := range totalRows(r) {
		summary = append(summary, toAny(row))
	}
	if err := writeRows(f, "Summary", summary); err != nil {
		return nil, err
	}

	events := [][]any{toAny(eventHeaders)}
	for _, ev := range r.Events {
		events = append(events, []any{ev.Date.ISO(), ev.Title, ev.Location, ev.ExpectedPay.Float(), ev.Currency.String()})
	}
	if err := addSheet(f, "Events", events); err != nil {
		return nil, err
	}

	payments := [][]any{toAny(paymentHeaders)}
	for _, p := range r.Payments {
		payments = append(payments, []any{p.Date.ISO(), eventTitle(p), string(p.Method), p.Amount.Float(), p.Currency.String(), p.Note})
	}
	if err := addSheet(f, "Payments", payments); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// exportPDF uses the core fonts, which cover Latin-1 only. Other characters
// are replaced by the translator.
func (e *Exporter) exportPDF(r core.SupplierReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, tr("Supplier Report: "+r.Supplier.Name))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr("Role: "+r.Supplier.Role))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Generated: "+e.now().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	table := func(title string, headers []string, widths []float64, rows [][]string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 9)
		for i, h := range headers {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, row := range rows {
			for i, v := range row {
				pdf.CellFormat(widths[i], 6, tr(v), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(6)
	}

	table("Totals", totalHeaders, []float64{40, 45, 45, 45}, totalRows(r))

	events := make([][]string, 0, len(r.Events))
	for _, ev := range r.Events {
		events = append(events, eventRow(ev))
	}
	table("Events", eventHeaders, []float64{25, 60, 45, 30, 25}, events)

	payments := make([][]string, 0, len(r.Payments))
	for _, p := range r.Payments {
		payments = append(payments, paymentRow(p))
	}
	table("Payments", paymentHeaders, []float64{25, 45, 30, 25, 20, 45}, payments)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
