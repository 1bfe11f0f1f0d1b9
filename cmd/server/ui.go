package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/scrapedgit/backend/internal/domain"
	"github.com/scrapedgit/backend/internal/usecase"
)

// ui writes colored, human-facing output for the CLI commands
type ui struct {
	out io.Writer
}

func newUI(out io.Writer) *ui {
	if noColor {
		color.NoColor = true
	}
	return &ui{out: out}
}

func (u *ui) assistant(format string, args ...any) {
	color.New(color.FgCyan).Fprintf(u.out, "bot> %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) hint(format string, args ...any) {
	color.New(color.FgHiBlack).Fprintf(u.out, "     %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(u.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) warn(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(u.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// results prints ranked products as an aligned table, at most limit rows
func (u *ui) results(products []domain.ScoredProduct, limit int) {
	if limit <= 0 || limit > len(products) {
		limit = len(products)
	}

	tw := tabwriter.NewWriter(u.out, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintln(tw, bold("#\tPRODUCT\tPRICE\tRATING\tSOLD\tFROM\tSHIPPING\tSOURCE\tSCORE"))
	for _, p := range products[:limit] {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1f\t%d\t%s\t%s\t%s\t%.2f\n",
			p.Rank,
			truncate(p.Name, 48),
			usecase.FormatRupiah(p.Price),
			p.Rating,
			p.SoldCount,
			p.SellerLocation,
			usecase.FormatRupiah(p.EstimatedShipping),
			p.Source,
			p.FinalScore,
		)
	}
	_ = tw.Flush()
}

func (u *ui) summary(s domain.ResultsSummary) {
	u.hint("%d products, average %s, range %s - %s, average rating %.1f",
		s.TotalProducts,
		usecase.FormatRupiah(s.AveragePrice),
		usecase.FormatRupiah(s.PriceRange.Min),
		usecase.FormatRupiah(s.PriceRange.Max),
		s.AverageRating,
	)
	for source, count := range s.Sources {
		u.hint("  %s: %d", source, count)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
