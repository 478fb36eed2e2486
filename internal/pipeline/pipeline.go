// Package pipeline runs parse, combine, build, lithology mapping, stress and
// deduplication over a batch of AGS files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/agsloom/internal/ags"
	"github.com/KaramelBytes/agsloom/internal/lithology"
	"github.com/KaramelBytes/agsloom/internal/table"
	"github.com/KaramelBytes/agsloom/internal/triaxial"
)

// ErrNoInputs is returned when Run is called without any files.
var ErrNoInputs = errors.New("no input files")

// Input is one AGS file. When Data is nil the file is read from Path.
type Input struct {
	Name string
	Path string
	Data []byte
}

// Options tunes a run. The zero value parses with one worker per CPU and
// matches holes exactly.
type Options struct {
	// Workers bounds concurrent parses; <=0 uses runtime.NumCPU.
	Workers int
	// DetectLines is the dialect prefix scan length.
	DetectLines int
	// Strategy matches GIU holes to specimen holes; nil means exact.
	Strategy lithology.Strategy
	// NumberFormat reads GIU depths.
	NumberFormat table.NumberFormat
	// DedupDecimals rounds numeric dedup keys; nil uses triaxial.DefaultDecimals.
	DedupDecimals *int
}

// Result is everything a run produced.
type Result struct {
	Files     []*ags.File
	Groups    ags.Registry
	Specimens *table.Table
	// LithologyErr is set when the GIU table could not be used. Specimens are
	// still returned, with LITHOLOGY left Null.
	LithologyErr error
	// GIUIntervals counts the usable GIU rows; 0 when no GIU was supplied.
	GIUIntervals int
	Matched      int
	Duplicates   int
	Strength     []triaxial.Strength
	Elapsed      time.Duration
}

// Run parses inputs concurrently, waits for all of them, then reconciles the
// combined registry into the specimen table. Only I/O failures and context
// cancellation abort the run.
func Run(ctx context.Context, inputs []Input, giu *table.Table, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	start := time.Now()

	files, err := ParseAll(ctx, inputs, opts, log)
	if err != nil {
		return nil, err
	}

	res := &Result{Files: files, Groups: ags.Combine(files)}
	specimens, err := triaxial.Build(res.Groups)
	if err != nil {
		return nil, fmt.Errorf("build triaxial table: %w", err)
	}

	var idx *lithology.Index
	if giu != nil {
		ivs, err := lithology.PrepareGIU(giu, opts.NumberFormat)
		if err != nil {
			res.LithologyErr = err
			log.Warn("GIU table rejected, lithology left empty", zap.Error(err))
		} else {
			idx = lithology.NewIndex(ivs, opts.Strategy)
			res.GIUIntervals = len(ivs)
		}
	}
	res.Matched = lithology.Assign(specimens, idx)

	triaxial.ComputeStress(specimens)
	decimals := triaxial.DefaultDecimals
	if opts.DedupDecimals != nil {
		decimals = *opts.DedupDecimals
	}
	specimens, res.Duplicates = triaxial.RemoveDuplicates(specimens, decimals)
	res.Specimens = specimens

	res.Strength = append(res.Strength, triaxial.EstimateStrength(specimens))
	if res.Matched > 0 {
		res.Strength = append(res.Strength, triaxial.EstimateStrengthBy(specimens, lithology.ColLithology)...)
	}

	res.Elapsed = time.Since(start)
	log.Info("run complete",
		zap.Int("files", len(files)),
		zap.Int("groups", len(res.Groups)),
		zap.Int("specimens", specimens.Len()),
		zap.Int("lithology_matched", res.Matched),
		zap.Int("duplicates_removed", res.Duplicates),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// ParseAll fans out one goroutine per input, bounded by Workers, and returns
// once every file is parsed. Results keep input order regardless of
// completion order.
func ParseAll(ctx context.Context, inputs []Input, opts Options, log *zap.Logger) ([]*ags.File, error) {
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	files := make([]*ags.File, len(inputs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, in := range inputs {
		i, in := i, in
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			data := in.Data
			if data == nil {
				b, err := os.ReadFile(in.Path)
				if err != nil {
					return fmt.Errorf("read %s: %w", in.Path, err)
				}
				data = b
			}
			name := in.Name
			if name == "" {
				name = filepath.Base(in.Path)
			}
			files[i] = ags.Parse(name, data, ags.Options{DetectLines: opts.DetectLines, Logger: log})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// Inputs turns file paths into inputs read lazily by the workers.
func Inputs(paths ...string) []Input {
	out := make([]Input, 0, len(paths))
	for _, p := range paths {
		out = append(out, Input{Name: filepath.Base(p), Path: p})
	}
	return out
}
