package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/scrapedgit/backend/internal/domain"
	"github.com/scrapedgit/backend/internal/infrastructure/export"
	"github.com/scrapedgit/backend/internal/usecase"
)

var (
	scoreFile   string
	scoreTo     string
	scoreTop    int
	scoreOutput string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Rank a JSON file of product listings",
	Long: `Read a JSON array of listings (name, price, rating, soldCount, sellerLocation, source,
productLink) and print them ranked for delivery to the given city. With --output the ranked
list is also written as an .xlsx or .csv file.`,
	Example: "  scrapedgit score --file products.json --to Surabaya --output ranked.xlsx",
	RunE:    runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreFile, "file", "f", "", "path to a JSON array of products (required)")
	scoreCmd.Flags().StringVarP(&scoreTo, "to", "t", "", "delivery city (defaults to search.default_location)")
	scoreCmd.Flags().IntVarP(&scoreTop, "top", "n", 20, "number of rows to print")
	scoreCmd.Flags().StringVarP(&scoreOutput, "output", "o", "", "write the ranking to an .xlsx or .csv file")
	_ = scoreCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(scoreFile)
	if err != nil {
		return eris.Wrapf(err, "read %s", scoreFile)
	}

	var products []domain.RawProduct
	if err := json.Unmarshal(data, &products); err != nil {
		return eris.Wrapf(err, "parse %s", scoreFile)
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	out := newUI(cmd.OutOrStdout())
	if len(products) == 0 {
		out.warn("no products in %s", scoreFile)
		return nil
	}

	ranked := a.scoring.Score(products, scoreTo, nil)
	out.results(ranked, scoreTop)
	out.summary(usecase.Summarize(ranked))

	if scoreOutput == "" {
		return nil
	}
	return writeExport(scoreOutput, ranked, out)
}

func writeExport(path string, products []domain.ScoredProduct, out *ui) error {
	format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := export.Write(f, format, products); err != nil {
		return err
	}
	out.success("wrote %d products to %s", len(products), path)
	return nil
}
