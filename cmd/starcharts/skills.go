package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitadek/starcharts/internal/apperr"
	"github.com/vitadek/starcharts/internal/dispatcher"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Skill training time and multi-skill plan totals",
}

func init() {
	rootCmd.AddCommand(skillsCmd)

	trainingTimeCmd := &cobra.Command{
		Use:   "training-time",
		Short: "Time required to train a single skill between two levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			req := dispatcher.SkillsRequest{Action: "training_time"}
			req.Name, _ = f.GetString("name")
			req.FromLevel, _ = f.GetInt("from-level")
			req.ToLevel, _ = f.GetInt("to-level")
			req.PrimaryAttr, _ = f.GetInt("primary-attr")
			req.SecondaryAttr, _ = f.GetInt("secondary-attr")
			result, err := runtime.Dispatcher.Skills(cmd.Context(), req)
			return emit(result, err)
		},
	}
	trainingTimeCmd.Flags().String("name", "", "skill name")
	trainingTimeCmd.Flags().Int("from-level", 0, "current trained level")
	trainingTimeCmd.Flags().Int("to-level", 0, "target level")
	trainingTimeCmd.Flags().Int("primary-attr", 0, "primary attribute value (default 20)")
	trainingTimeCmd.Flags().Int("secondary-attr", 0, "secondary attribute value (default 20)")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Total training time for an ordered list of skills, each from level 0",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			raw, _ := f.GetStringArray("skill")
			entries, err := parseSkillEntries(raw)
			if err != nil {
				return emit(nil, err)
			}
			req := dispatcher.SkillsRequest{Action: "plan", Skills: entries}
			req.PrimaryAttr, _ = f.GetInt("primary-attr")
			req.SecondaryAttr, _ = f.GetInt("secondary-attr")
			result, err := runtime.Dispatcher.Skills(cmd.Context(), req)
			return emit(result, err)
		},
	}
	planCmd.Flags().StringArray("skill", nil, `one "Name:ToLevel" entry, repeatable (e.g. --skill "Gunnery:5")`)
	planCmd.Flags().Int("primary-attr", 0, "primary attribute value (default 20)")
	planCmd.Flags().Int("secondary-attr", 0, "secondary attribute value (default 20)")

	skillsCmd.AddCommand(trainingTimeCmd, planCmd)
}

func parseSkillEntries(raw []string) ([]dispatcher.SkillPlanEntryReq, error) {
	entries := make([]dispatcher.SkillPlanEntryReq, 0, len(raw))
	for _, s := range raw {
		name, levelStr, ok := strings.Cut(s, ":")
		if !ok {
			return nil, apperr.Invalid("skill", `must be in the form "Name:ToLevel"`)
		}
		level, err := strconv.Atoi(levelStr)
		if err != nil {
			return nil, apperr.Invalid("skill", "to_level must be an integer")
		}
		entries = append(entries, dispatcher.SkillPlanEntryReq{Name: name, ToLevel: level})
	}
	return entries, nil
}
