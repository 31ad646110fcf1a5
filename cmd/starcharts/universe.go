package main

import (
	"github.com/spf13/cobra"

	"github.com/vitadek/starcharts/internal/dispatcher"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Topology queries: routing, search, loop planning, activity",
}

func init() {
	rootCmd.AddCommand(universeCmd)

	add := func(use, short, action string) *cobra.Command {
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				req := universeRequestFromFlags(cmd)
				req.Action = action
				result, err := runtime.Dispatcher.Universe(cmd.Context(), req)
				return emit(result, err)
			},
		}
		bindUniverseFlags(cmd)
		universeCmd.AddCommand(cmd)
		return cmd
	}

	add("route", "Shortest/safe/unsafe route between two systems", "route")
	add("systems", "List systems by region, or one system's info by origin", "systems")
	add("borders", "Nearest border systems from an origin", "borders")
	add("search", "Filter systems by security, region, border, distance", "search")
	add("loop", "Plan a circular patrol/mining loop through border systems", "loop")
	add("analyze", "Enrich an explicit system sequence into a route report", "analyze")
	add("nearest", "Nearest systems to an origin", "nearest")
	add("activity", "Recent kill/jump activity for a set of systems", "activity")
	add("hotspots", "Highest-activity systems in a region", "hotspots")
	add("gatecamp-risk", "Chokepoint/danger-zone risk along a route", "gatecamp_risk")
	add("fw-frontlines", "Faction-warfare contested status for a set of systems", "fw_frontlines")
	add("local-area", "Composed center info plus nearby systems/activity", "local_area")
}

func bindUniverseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("origin", "", "origin system name")
	f.String("destination", "", "destination system name")
	f.String("mode", "", "route mode: shortest, safe, or unsafe")
	f.Int("limit", 0, "result limit")
	f.Int("max-jumps", 0, "maximum jumps")
	f.Int("target-jumps", 0, "approximate target jump count for loop planning")
	f.Int("min-borders", 0, "minimum border systems to visit")
	f.Int("max-borders", 0, "maximum border systems to visit")
	f.Float64("security-min", 0, "minimum security status (inclusive)")
	f.Float64("security-max", 0, "maximum security status (inclusive)")
	f.String("region", "", "region name")
	f.Bool("border-only", false, "restrict to border systems only")
	f.StringSlice("systems", nil, "comma-separated system names")
}

func universeRequestFromFlags(cmd *cobra.Command) dispatcher.UniverseRequest {
	f := cmd.Flags()
	req := dispatcher.UniverseRequest{}
	req.Origin, _ = f.GetString("origin")
	req.Destination, _ = f.GetString("destination")
	req.Mode, _ = f.GetString("mode")
	req.Limit, _ = f.GetInt("limit")
	req.MaxJumps, _ = f.GetInt("max-jumps")
	req.TargetJumps, _ = f.GetInt("target-jumps")
	req.MinBorders, _ = f.GetInt("min-borders")
	req.MaxBorders, _ = f.GetInt("max-borders")
	req.Region, _ = f.GetString("region")
	req.BorderOnly, _ = f.GetBool("border-only")
	req.Systems, _ = f.GetStringSlice("systems")
	if f.Changed("security-min") {
		v, _ := f.GetFloat64("security-min")
		req.SecurityMin = &v
	}
	if f.Changed("security-max") {
		v, _ := f.GetFloat64("security-max")
		req.SecurityMax = &v
	}
	return req
}
