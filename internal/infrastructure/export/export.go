package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/scrapedgit/backend/internal/domain"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"

	// SheetName is the worksheet ranked results are written to
	SheetName = "Products"
)

// Header is the column layout of every export
var Header = []string{
	"Rank",
	"Product Name",
	"Price",
	"Rating",
	"Times Bought",
	"Location",
	"Est. Shipping",
	"Source",
	"Final Score",
	"Product Link",
}

var columnWidths = []float64{6, 50, 15, 8, 14, 15, 15, 12, 12, 60}

var idPrinter = message.NewPrinter(language.Indonesian)

// ParseFormat validates a requested format. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", eris.Wrapf(domain.ErrInvalidRequest, "unsupported export format %q", s)
	}
}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Filename returns base with the format extension, defaulting to a timestamped name
func (f Format) Filename(base string, now time.Time) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = fmt.Sprintf("scrapedgit-results-%d", now.UnixMilli())
	}
	return base + "." + string(f)
}

// Write encodes products in the given format
func Write(w io.Writer, format Format, products []domain.ScoredProduct) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, products)
	case FormatXLSX:
		return WriteXLSX(w, products)
	default:
		return eris.Wrapf(domain.ErrInvalidRequest, "unsupported export format %q", format)
	}
}

// Rows renders products as display strings in Header order
func Rows(products []domain.ScoredProduct) [][]string {
	rows := make([][]string, 0, len(products))
	titler := cases.Title(language.Indonesian)
	for _, p := range products {
		shipping := "N/A"
		if p.EstimatedShipping > 0 {
			shipping = rupiah(p.EstimatedShipping)
		}
		rows = append(rows, []string{
			strconv.Itoa(p.Rank),
			p.Name,
			rupiah(p.Price),
			strconv.FormatFloat(p.Rating, 'f', 1, 64),
			idPrinter.Sprintf("%d", p.SoldCount),
			p.SellerLocation,
			shipping,
			titler.String(p.Source),
			strconv.FormatFloat(p.FinalScore, 'f', 2, 64),
			p.ProductLink,
		})
	}
	return rows
}

// WriteCSV writes a header row followed by one row per product
func WriteCSV(w io.Writer, products []domain.ScoredProduct) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	if err := cw.WriteAll(Rows(products)); err != nil {
		return eris.Wrap(err, "csv: write rows")
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook
func WriteXLSX(w io.Writer, products []domain.ScoredProduct) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, title := range Header {
		header.AddCell().SetString(title)
	}

	for i, row := range Rows(products) {
		r := sheet.AddRow()
		r.AddCell().SetInt(products[i].Rank)
		for _, value := range row[1:] {
			r.AddCell().SetString(value)
		}
	}

	for i, width := range columnWidths {
		if err := sheet.SetColWidth(i, i, width); err != nil {
			return eris.Wrap(err, "xlsx: set column width")
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write workbook")
	}
	return nil
}

func rupiah(amount int64) string {
	return idPrinter.Sprintf("Rp %d", amount)
}
