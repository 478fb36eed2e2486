package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/agsloom/internal/export"
	"github.com/KaramelBytes/agsloom/internal/pipeline"
	"github.com/KaramelBytes/agsloom/internal/report"
	"github.com/KaramelBytes/agsloom/internal/run"
	"github.com/KaramelBytes/agsloom/internal/store"
	"github.com/KaramelBytes/agsloom/internal/utils"
)

var (
	procGIU        string
	procSheet      string
	procMatch      string
	procOut        string
	procDB         string
	procWorkers    int
	procGroupBy    []string
	procQuiet      bool
)

var processCmd = &cobra.Command{
	Use:   "process <ags files...>",
	Short: "Parse AGS files and build the reconciled triaxial specimen table",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := effectiveConfig()
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		strategy, err := resolveStrategy(procMatch)
		if err != nil {
			return err
		}
		giu, err := loadGIU(procGIU, procSheet)
		if err != nil {
			return err
		}
		workers := c.Workers
		if cmd.Flags().Changed("workers") {
			workers = procWorkers
		}

		inputs := pipeline.Inputs(files...)
		res, err := pipeline.Run(cmd.Context(), inputs, giu, pipeline.Options{
			Workers:       workers,
			DetectLines:   c.DetectLines,
			Strategy:      strategy,
			NumberFormat:  c.NumberFormat(),
			DedupDecimals: &c.DedupDecimals,
		}, logger)
		if err != nil {
			return err
		}
		if res.LithologyErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: lithology not assigned: %v\n", res.LithologyErr)
		}

		out := procOut
		if out == "" {
			out = c.OutputDir
		}
		m := run.FromResult(out, res, inputs, procGIU, strategy.Name())

		opt := report.DefaultOptions()
		if len(procGroupBy) > 0 {
			opt.GroupBy = procGroupBy
		}
		rep := report.Summarize(res.Specimens, opt)
		rep.Strength = res.Strength
		rep.Run = m
		md := rep.Markdown()
		if err := writeOutputs(out, res, md, m); err != nil {
			return err
		}

		dbPath := procDB
		if dbPath == "" {
			dbPath = c.DBPath
		}
		if dbPath != "" {
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SaveRun(cmd.Context(), m, res.Specimens, res.Groups); err != nil {
				return fmt.Errorf("store run: %w", err)
			}
		}

		w := cmd.OutOrStdout()
		if !procQuiet {
			fmt.Fprintln(w, md)
		}
		fmt.Fprintf(w, "✓ Wrote %d specimens to %s (run %s)\n", res.Specimens.Len(), out, m.ID)
		return nil
	},
}

// writeOutputs lays out a run directory: specimens as CSV and JSON, one CSV per
// raw group, the Markdown summary and the manifest.
func writeOutputs(dir string, res *pipeline.Result, md string, m *run.Manifest) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	if err := export.WriteCSVFile(filepath.Join(dir, "specimens.csv"), res.Specimens); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, res.Specimens); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(filepath.Join(dir, "specimens.json"), buf.Bytes()); err != nil {
		return err
	}
	if _, err := export.WriteGroups(filepath.Join(dir, "groups"), res.Groups); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(filepath.Join(dir, "summary.md"), []byte(md)); err != nil {
		return err
	}
	return m.Save()
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&procGIU, "giu", "", "GIU table (CSV/TSV/XLSX) with HOLE_ID, DEPTH_FROM, DEPTH_TO, LITH")
	processCmd.Flags().StringVar(&procSheet, "sheet", "", "XLSX: GIU sheet name (default first sheet or config giu_sheet)")
	processCmd.Flags().StringVar(&procMatch, "match", "", "hole matching strategy: exact|suffix (overrides config)")
	processCmd.Flags().StringVarP(&procOut, "out", "o", "", "output directory (overrides config output_dir)")
	processCmd.Flags().StringVar(&procDB, "db", "", "SQLite database to record the run (overrides config db_path)")
	processCmd.Flags().IntVar(&procWorkers, "workers", 0, "parallel file parses (0 = one per CPU)")
	processCmd.Flags().StringSliceVar(&procGroupBy, "group-by", nil, "summary group-by columns (default LITHOLOGY)")
	processCmd.Flags().BoolVar(&procQuiet, "quiet", false, "suppress the summary, print only the result line")
}
