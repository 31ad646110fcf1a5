package main

import (
	"github.com/spf13/cobra"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/bootstrap"
	"github.com/vitadek/starcharts/internal/config"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Bootstrap/build operations (run standalone, outside the full dispatcher runtime)",
}

var bootstrapVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every reference blob's checksum against the manifest and exit 3 on mismatch",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		results, err := bootstrap.Verify(cfg)
		if err != nil {
			return emit(nil, err)
		}
		if !bootstrap.AllOK(results) {
			return emit(results, apperr.New(apperr.IntegrityError, "one or more reference blobs failed verification", map[string]any{"results": results}))
		}
		return emit(results, nil)
	},
}

func init() {
	bootstrapCmd.AddCommand(bootstrapVerifyCmd)
	rootCmd.AddCommand(bootstrapCmd)
}
