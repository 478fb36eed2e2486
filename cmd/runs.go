package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/agsloom/internal/report"
	"github.com/KaramelBytes/agsloom/internal/store"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
)

var runsDB string

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Browse runs recorded in the SQLite store",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		runs, err := st.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(w, "(no runs)")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s  %s  files=%d specimens=%d match=%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Files, r.Specimens, r.MatchStrategy)
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Summarise a stored run and its specimen table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		m, err := st.LoadManifest(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		t, err := st.LoadSpecimens(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		rep := report.Summarize(t, report.DefaultOptions())
		rep.Run = m
		rep.Strength = m.Strength
		if len(rep.Strength) == 0 {
			rep.Strength = append(rep.Strength, triaxial.EstimateStrength(t))
		}
		fmt.Fprintln(cmd.OutOrStdout(), rep.Markdown())
		return nil
	},
}

func openStore() (*store.Store, error) {
	path := runsDB
	if path == "" {
		path = effectiveConfig().DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no database configured (use --db or config set db_path)")
	}
	return store.Open(path)
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.PersistentFlags().StringVar(&runsDB, "db", "", "SQLite database (overrides config db_path)")
}
