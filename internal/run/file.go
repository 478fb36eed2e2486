package run

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/agsloom/internal/ags"
)

// FileEntry records what was learned from one input file.
type FileEntry struct {
	ID          string           `json:"id"`
	Path        string           `json:"path,omitempty"`
	Name        string           `json:"name"`
	Dialect     string           `json:"dialect"`
	Flags       ags.Flags        `json:"flags"`
	Groups      map[string]int   `json:"groups"`
	Unparsed    int              `json:"unparsed"`
	Diagnostics []ags.Diagnostic `json:"diagnostics,omitempty"`
	ModifiedAt  *time.Time       `json:"modified_at,omitempty"`
}

// GroupList renders the file's groups with their row counts, e.g.
// "GEOL (2), TRET (1)".
func (f *FileEntry) GroupList() string {
	names := make([]string, 0, len(f.Groups))
	for g := range f.Groups {
		names = append(names, g)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, g := range names {
		parts[i] = fmt.Sprintf("%s (%d)", g, f.Groups[g])
	}
	return strings.Join(parts, ", ")
}
