package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/export"
	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/pipeline"
	"github.com/KaramelBytes/agsloom/internal/profile"
)

var (
	profGIU    string
	profSheet  string
	profMatch  string
	profGroups []string
	profOut    string
)

var profileCmd = &cobra.Command{
	Use:   "profile <ags files...>",
	Short: "Build a continuous depth-interval profile per borehole",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := effectiveConfig()
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		strategy, err := resolveStrategy(profMatch)
		if err != nil {
			return err
		}
		parsed, err := pipeline.ParseAll(cmd.Context(), pipeline.Inputs(files...), pipeline.Options{
			Workers:     c.Workers,
			DetectLines: c.DetectLines,
		}, logger)
		if err != nil {
			return err
		}
		reg := ags.Combine(parsed)

		var intervals []lithology.Interval
		giu, err := loadGIU(profGIU, profSheet)
		if err != nil {
			return err
		}
		if giu != nil {
			intervals, err = lithology.PrepareGIU(giu, c.NumberFormat())
			if err != nil {
				return err
			}
		}

		groups := profGroups
		if len(groups) == 0 {
			groups = c.ProfileGroups
		}
		prof, err := profile.Build(reg, intervals, profile.Options{Groups: groups, Strategy: strategy})
		if err != nil {
			return err
		}
		if profOut == "" {
			return export.WriteCSV(cmd.OutOrStdout(), prof)
		}
		if err := export.WriteCSVFile(profOut, prof); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d intervals to %s\n", prof.Len(), profOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVar(&profGIU, "giu", "", "GIU table (CSV/TSV/XLSX) supplying LITH")
	profileCmd.Flags().StringVar(&profSheet, "sheet", "", "XLSX: GIU sheet name")
	profileCmd.Flags().StringVar(&profMatch, "match", "", "hole matching strategy: exact|suffix (overrides config)")
	profileCmd.Flags().StringSliceVar(&profGroups, "groups", nil, "groups to profile (default config profile_groups)")
	profileCmd.Flags().StringVarP(&profOut, "out", "o", "", "CSV output path (default stdout)")
}
