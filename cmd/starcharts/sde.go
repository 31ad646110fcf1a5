package main

import (
	"github.com/spf13/cobra"

	"github.com/vitadek/starcharts/internal/dispatcher"
)

var sdeCmd = &cobra.Command{
	Use:   "sde",
	Short: "Static-data lookups: items and systems",
}

func init() {
	rootCmd.AddCommand(sdeCmd)

	add := func(use, short, action string) *cobra.Command {
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				req := sdeRequestFromFlags(cmd)
				req.Action = action
				result, err := runtime.Dispatcher.SDE(cmd.Context(), req)
				return emit(result, err)
			},
		}
		bindSDEFlags(cmd)
		sdeCmd.AddCommand(cmd)
		return cmd
	}

	add("item", "Look up an item type by name or id", "item")
	add("system", "Look up a system record by name", "system")
	add("search", "Substring search over item names", "search")
}

func bindSDEFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("name", "", "item or system name")
	f.Int32("item-id", 0, "item id (item)")
	f.String("query", "", "substring query (search)")
	f.Int("limit", 0, "result limit (search)")
}

func sdeRequestFromFlags(cmd *cobra.Command) dispatcher.SDERequest {
	f := cmd.Flags()
	req := dispatcher.SDERequest{}
	req.Name, _ = f.GetString("name")
	req.ItemID, _ = f.GetInt32("item-id")
	req.Query, _ = f.GetString("query")
	req.Limit, _ = f.GetInt("limit")
	return req
}
