package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/profile"
	"github.com/KaramelBytes/agsloom/internal/table"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
)

const dirName = ".agsloom"

// Global configuration structure.
type Global struct {
	MatchStrategy    string `mapstructure:"match_strategy" yaml:"match_strategy"`
	Workers          int    `mapstructure:"workers" yaml:"workers"`
	DetectLines      int    `mapstructure:"detect_lines" yaml:"detect_lines"`
	DedupDecimals    int    `mapstructure:"dedup_decimals" yaml:"dedup_decimals"`
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	GIUSheet         string `mapstructure:"giu_sheet" yaml:"giu_sheet"`
	OutputDir        string `mapstructure:"output_dir" yaml:"output_dir"`
	// DBPath enables the SQLite run store when set.
	DBPath        string   `mapstructure:"db_path" yaml:"db_path"`
	LogLevel      string   `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string   `mapstructure:"log_format" yaml:"log_format"`
	ProfileGroups []string `mapstructure:"profile_groups" yaml:"profile_groups"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"match_strategy", "workers", "detect_lines", "dedup_decimals", "decimal_separator",
	"giu_sheet", "output_dir", "db_path", "log_level", "log_format", "profile_groups",
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.agsloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, dirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("AGSLOOM")
	v.AutomaticEnv()

	v.SetDefault("match_strategy", "exact")
	v.SetDefault("workers", 0)
	v.SetDefault("detect_lines", ags.DefaultDetectLines)
	v.SetDefault("dedup_decimals", triaxial.DefaultDecimals)
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("giu_sheet", "")
	v.SetDefault("output_dir", "./agsloom-out")
	v.SetDefault("db_path", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("profile_groups", profile.DefaultGroups)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set validates val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "match_strategy":
		s, err := lithology.ParseStrategy(val)
		if err != nil {
			return err
		}
		c.MatchStrategy = s.Name()
	case "workers":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for workers: %v", val)
		}
		c.Workers = i
	case "detect_lines":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for detect_lines: %v", val)
		}
		c.DetectLines = i
	case "dedup_decimals":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 || i > 12 {
			return fmt.Errorf("invalid int for dedup_decimals: %v", val)
		}
		c.DedupDecimals = i
	case "decimal_separator":
		if _, ok := table.ParseNumberFormat(val); !ok {
			return fmt.Errorf("invalid decimal_separator: %s (use '.', ',' or auto)", val)
		}
		c.DecimalSeparator = val
	case "giu_sheet":
		c.GIUSheet = val
	case "output_dir":
		c.OutputDir = val
	case "db_path":
		c.DBPath = val
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "console", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
	case "profile_groups":
		var gs []string
		for _, g := range strings.Split(val, ",") {
			if g = strings.ToUpper(strings.TrimSpace(g)); g != "" {
				gs = append(gs, g)
			}
		}
		if len(gs) == 0 {
			return fmt.Errorf("profile_groups needs at least one group")
		}
		c.ProfileGroups = gs
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get renders the value of key for display.
func (c *Global) Get(key string) (string, bool) {
	switch key {
	case "match_strategy":
		return c.MatchStrategy, true
	case "workers":
		return strconv.Itoa(c.Workers), true
	case "detect_lines":
		return strconv.Itoa(c.DetectLines), true
	case "dedup_decimals":
		return strconv.Itoa(c.DedupDecimals), true
	case "decimal_separator":
		return c.DecimalSeparator, true
	case "giu_sheet":
		return c.GIUSheet, true
	case "output_dir":
		return c.OutputDir, true
	case "db_path":
		return c.DBPath, true
	case "log_level":
		return c.LogLevel, true
	case "log_format":
		return c.LogFormat, true
	case "profile_groups":
		return strings.Join(c.ProfileGroups, ","), true
	}
	return "", false
}

// Strategy resolves MatchStrategy, falling back to exact when unset.
func (c *Global) Strategy() (lithology.Strategy, error) {
	return lithology.ParseStrategy(c.MatchStrategy)
}

// NumberFormat resolves the GIU decimal separator. "auto" lets ParseNumber
// guess per value.
func (c *Global) NumberFormat() table.NumberFormat {
	if nf, ok := table.ParseNumberFormat(c.DecimalSeparator); ok {
		return nf
	}
	return table.DefaultNumberFormat()
}

// EffectiveWorkers returns the parse concurrency, resolving 0 to the CPU count.
func (c *Global) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
