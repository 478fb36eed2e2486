package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/table"
	"github.com/KaramelBytes/agsloom/internal/tabular"
)

// expandInputs resolves globs and literal paths, dropping duplicates. The
// result is sorted so runs are reproducible.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// loadGIU reads the GIU table; an empty path means no lithology mapping.
func loadGIU(path, sheet string) (*table.Table, error) {
	if path == "" {
		return nil, nil
	}
	if sheet == "" {
		sheet = effectiveConfig().GIUSheet
	}
	t, err := tabular.ReadFile(path, tabular.Options{Sheet: sheet})
	if err != nil {
		return nil, fmt.Errorf("read GIU table: %w", err)
	}
	return t, nil
}

// resolveStrategy prefers the flag value, then config.
func resolveStrategy(flag string) (lithology.Strategy, error) {
	if flag != "" {
		return lithology.ParseStrategy(flag)
	}
	return effectiveConfig().Strategy()
}
