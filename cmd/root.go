package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/agsloom/internal/config"
	"github.com/KaramelBytes/agsloom/internal/logging"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLogFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// logger is built in PersistentPreRunE; commands never see it nil.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "agsloom",
	Short: "agsloom: reconcile AGS3/AGS4 triaxial data into one specimen table",
	Long: `agsloom parses AGS3 and AGS4 geotechnical data files, reconciles triaxial
test results with their samples, tags each specimen with lithology from a
ground-investigation-unit table and derives stress-path values (t, s).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, format := "info", "console"
		if cfg != nil {
			level, format = cfg.LogLevel, cfg.LogFormat
		}
		if flagLogFormat != "" {
			format = flagLogFormat
		}
		l, err := logging.New(logging.Options{Level: level, Format: format, Debug: debug})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.agsloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log encoding: console|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// effectiveConfig returns the loaded configuration or the built-in defaults.
func effectiveConfig() *cfgpkg.Global {
	if cfg != nil {
		return cfg
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return &cfgpkg.Global{MatchStrategy: "exact", DetectLines: 50, DedupDecimals: 2, DecimalSeparator: "."}
	}
	cfg = c
	return cfg
}
