package main

import (
	"github.com/spf13/cobra"

	"github.com/vitadek/starcharts/internal/dispatcher"
)

func init() {
	cmd := &cobra.Command{
		Use:   "fitting",
		Short: "Compute derived stats for an EFT-format ship fit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fitText, _ := cmd.Flags().GetString("fit-text")
			req := dispatcher.FittingRequest{Action: "calculate_stats", FitText: fitText}
			result, err := runtime.Dispatcher.Fitting(cmd.Context(), req)
			return emit(result, err)
		},
	}
	cmd.Flags().String("fit-text", "", "EFT-format fit text")
	rootCmd.AddCommand(cmd)
}
