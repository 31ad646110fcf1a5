package main

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Cache layer ages, circuit-breaker state, and graph build info",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runtime.Dispatcher.Status(cmd.Context())
			return emit(result, err)
		},
	}
	rootCmd.AddCommand(cmd)
}
