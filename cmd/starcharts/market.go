package main

import (
	"github.com/spf13/cobra"

	"github.com/vitadek/starcharts/internal/dispatcher"
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Market intelligence: prices, orders, valuation, history",
}

func init() {
	rootCmd.AddCommand(marketCmd)

	add := func(use, short, action string) *cobra.Command {
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				req := marketRequestFromFlags(cmd)
				req.Action = action
				result, err := runtime.Dispatcher.Market(cmd.Context(), req)
				return emit(result, err)
			},
		}
		bindMarketFlags(cmd)
		marketCmd.AddCommand(cmd)
		return cmd
	}

	add("prices", "Pre-aggregated buy/sell quotes for a set of items in a region", "prices")
	add("orders", "Raw-order-derived quotes for a set of items in a region", "orders")
	add("valuation", "Total value of a cargo manifest (free-text or --item/--quantity)", "valuation")
	add("spread", "Buy/sell spread projection for a set of items in a region", "spread")
	add("history", "Recent price history for one item in a region", "history")
	add("find-nearby", "Nearest regions with price data for an item", "find_nearby")
}

func bindMarketFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("region", "", "region name")
	f.StringSlice("items", nil, "comma-separated item names")
	f.String("item", "", "single item name (history, find-nearby)")
	f.String("side", "", "buy or sell (valuation)")
	f.String("text", "", "free-text cargo manifest, e.g. \"Tritanium x1000\" (valuation)")
	f.String("origin", "", "origin system name (find-nearby)")
	f.Int("max-jumps", 0, "maximum jumps (find-nearby)")
	f.Int("limit", 0, "result limit")
}

func marketRequestFromFlags(cmd *cobra.Command) dispatcher.MarketRequest {
	f := cmd.Flags()
	req := dispatcher.MarketRequest{}
	req.Region, _ = f.GetString("region")
	req.Items, _ = f.GetStringSlice("items")
	req.Item, _ = f.GetString("item")
	req.Side, _ = f.GetString("side")
	req.Text, _ = f.GetString("text")
	req.Origin, _ = f.GetString("origin")
	req.MaxJumps, _ = f.GetInt("max-jumps")
	req.Limit, _ = f.GetInt("limit")
	return req
}
