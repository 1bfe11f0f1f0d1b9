package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/scrapedgit/backend/internal/domain"
)

func sampleProducts() []domain.ScoredProduct {
	return []domain.ScoredProduct{
		{
			RawProduct: domain.RawProduct{
				Name:           "ASUS VivoBook 15",
				Price:          8500000,
				Rating:         4.8,
				SoldCount:      1250,
				SellerLocation: "Jakarta",
				Source:         "tokopedia",
				ProductLink:    "https://www.tokopedia.com/asus/vivobook",
			},
			FinalScore:        87.456,
			EstimatedShipping: 10000,
			Rank:              1,
		},
		{
			RawProduct: domain.RawProduct{
				Name:           "HP 14s",
				Price:          8200000,
				Rating:         4,
				SoldCount:      12,
				SellerLocation: "Medan",
				Source:         "blibli",
				ProductLink:    "https://www.blibli.com/p/hp-14s/1",
			},
			FinalScore: 40,
			Rank:       2,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"xlsx", FormatXLSX, false},
		{" CSV ", FormatCSV, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Filename(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "scrapedgit-results-1700000000123.csv", FormatCSV.Filename("", now))
	assert.Equal(t, "laptops.xlsx", FormatXLSX.Filename("laptops", now))
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
}

func TestRows(t *testing.T) {
	rows := Rows(sampleProducts())
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"1",
		"ASUS VivoBook 15",
		"Rp 8.500.000",
		"4.8",
		"1.250",
		"Jakarta",
		"Rp 10.000",
		"Tokopedia",
		"87.46",
		"https://www.tokopedia.com/asus/vivobook",
	}, rows[0])

	assert.Equal(t, "N/A", rows[1][6])
	assert.Equal(t, "4.0", rows[1][3])
	assert.Equal(t, "Blibli", rows[1][7])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, sampleProducts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "HP 14s", records[2][1])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, sampleProducts()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Product Name", sheet.Rows[0].Cells[1].String())
	assert.Equal(t, "1", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Rp 8.500.000", sheet.Rows[1].Cells[2].String())
}

func TestWrite_EmptyProducts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, nil))
	assert.Equal(t, "Rank,Product Name,Price,Rating,Times Bought,Location,Est. Shipping,Source,Final Score,Product Link\n", buf.String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("pdf"), nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
}
