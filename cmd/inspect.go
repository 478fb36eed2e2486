package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/run"
	"github.com/KaramelBytes/agsloom/internal/utils"
)

var (
	inspJSON  bool
	inspQuiet bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <ags files...>",
	Short: "Report dialect, groups and parse diagnostics for AGS files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		opts := ags.Options{DetectLines: effectiveConfig().DetectLines, Logger: logger}
		m := run.NewManifest("")
		total := len(files)
		for i, path := range files {
			if !inspQuiet && !inspJSON {
				fmt.Fprintf(w, "[%d/%d] Inspecting %s...\n", i+1, total, filepath.Base(path))
			}
			f, err := ags.ParseFile(path, opts)
			if err != nil {
				return err
			}
			m.AddFile(f, path)
			if inspJSON {
				continue
			}
			fmt.Fprintf(w, "  dialect: %s (LOCA=%t, HOLE=%t)\n", f.Flags.Dialect(), f.Flags.HasLOCA, f.Flags.HasHOLE)
			for _, g := range f.Groups.Names() {
				t := f.Groups[g]
				fmt.Fprintf(w, "  • %s: %d rows, %d columns\n", g, t.Len(), len(t.Columns))
			}
			if f.Unparsed > 0 {
				fmt.Fprintf(w, "  unparsed lines: %d\n", f.Unparsed)
			}
			for _, d := range f.Diagnostics {
				fmt.Fprintf(w, "  ⚠ %s\n", d)
			}
		}
		if inspJSON {
			b, err := utils.PrettyJSON(m.Files)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspJSON, "json", false, "print per-file results as JSON")
	inspectCmd.Flags().BoolVar(&inspQuiet, "quiet", false, "suppress progress lines")
}
