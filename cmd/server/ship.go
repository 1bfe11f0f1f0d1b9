package main

import (
	"github.com/spf13/cobra"

	"github.com/scrapedgit/backend/internal/usecase"
)

var shipWeight float64

var shipCmd = &cobra.Command{
	Use:     "ship FROM TO",
	Short:   "Estimate the shipping fee between two cities",
	Example: "  scrapedgit ship \"Kota Bandung\" Surabaya --weight 2.5",
	Args:    cobra.ExactArgs(2),
	RunE:    runShip,
}

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List the cities with known shipping distances",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		estimator, err := newShipping(cfg.Shipping)
		if err != nil {
			return err
		}
		out := newUI(cmd.OutOrStdout())
		for _, city := range estimator.AvailableCities() {
			out.hint("%s", city)
		}
		return nil
	},
}

func init() {
	shipCmd.Flags().Float64VarP(&shipWeight, "weight", "w", 1, "parcel weight in kg")
	shipCmd.AddCommand(citiesCmd)
	rootCmd.AddCommand(shipCmd)
}

func runShip(cmd *cobra.Command, args []string) error {
	out := newUI(cmd.OutOrStdout())
	if shipWeight <= 0 {
		out.warn("weight must be positive, using 1 kg")
		shipWeight = 1
	}

	estimator, err := newShipping(cfg.Shipping)
	if err != nil {
		return err
	}
	from, to := args[0], args[1]
	fee := estimator.Estimate(from, to, shipWeight)

	out.success("%s -> %s (%.1f kg): %s", from, to, shipWeight, usecase.FormatRupiah(fee))
	out.hint("distance %.0f km, tier %s", estimator.Distance(from, to), usecase.Tier(fee))
	return nil
}
