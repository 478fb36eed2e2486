package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/pipeline"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
	"github.com/KaramelBytes/agsloom/internal/utils"
)

const (
	manifestFileName = "manifest.json"
)

// Manifest describes one processing run persisted on disk.
type Manifest struct {
	ID            string              `json:"id"`
	GIU           string              `json:"giu,omitempty"`
	MatchStrategy string              `json:"match_strategy"`
	Files         []*FileEntry        `json:"files"`
	Counts        Counts              `json:"counts"`
	LithologyErr  string              `json:"lithology_error,omitempty"`
	Strength      []triaxial.Strength `json:"strength,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`

	// Not serialized: output directory holding manifest.json
	rootDir string `json:"-"`
}

// Counts summarises the specimen table.
type Counts struct {
	Groups       int `json:"groups"`
	Specimens    int `json:"specimens"`
	GIUIntervals int `json:"giu_intervals"`
	Matched      int `json:"lithology_matched"`
	Duplicates   int `json:"duplicates_removed"`
}

// NewManifest constructs an empty manifest with a fresh ID. Call Save() to persist.
func NewManifest(rootDir string) *Manifest {
	now := time.Now()
	return &Manifest{
		ID:            uuid.NewString(),
		MatchStrategy: "exact",
		CreatedAt:     now,
		UpdatedAt:     now,
		rootDir:       rootDir,
	}
}

// FromResult builds a manifest for a finished pipeline run.
func FromResult(rootDir string, res *pipeline.Result, inputs []pipeline.Input, giuPath, strategy string) *Manifest {
	m := NewManifest(rootDir)
	m.GIU = giuPath
	if strategy != "" {
		m.MatchStrategy = strategy
	}
	if res == nil {
		return m
	}
	for i, f := range res.Files {
		path := ""
		if i < len(inputs) {
			path = inputs[i].Path
		}
		m.AddFile(f, path)
	}
	m.Counts = Counts{
		Groups:       len(res.Groups),
		Specimens:    res.Specimens.Len(),
		GIUIntervals: res.GIUIntervals,
		Matched:      res.Matched,
		Duplicates:   res.Duplicates,
	}
	if res.LithologyErr != nil {
		m.LithologyErr = res.LithologyErr.Error()
	}
	m.Strength = res.Strength
	return m
}

// LoadManifest loads a manifest.json from the provided directory.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.rootDir = dir
	return &m, nil
}

// RootDir returns the on-disk output directory.
func (m *Manifest) RootDir() string { return m.rootDir }

// Save writes manifest.json using atomic write.
func (m *Manifest) Save() error {
	if m.rootDir == "" {
		return errors.New("manifest root directory not set")
	}
	m.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(m.rootDir, manifestFileName), data)
}

// AddFile records a parsed file. path may be empty for in-memory inputs.
func (m *Manifest) AddFile(f *ags.File, path string) {
	if f == nil {
		return
	}
	e := &FileEntry{
		ID:          uuid.NewString(),
		Path:        path,
		Name:        f.Name,
		Dialect:     f.Flags.Dialect(),
		Flags:       f.Flags,
		Groups:      map[string]int{},
		Unparsed:    f.Unparsed,
		Diagnostics: f.Diagnostics,
	}
	for _, g := range f.Groups.Names() {
		e.Groups[g] = f.Groups[g].Len()
	}
	if path != "" {
		if info, err := os.Stat(path); err == nil {
			mt := info.ModTime()
			e.ModifiedAt = &mt
		}
	}
	m.Files = append(m.Files, e)
	m.UpdatedAt = time.Now()
}
