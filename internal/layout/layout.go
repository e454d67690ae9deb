// Package layout groups sstables by owning shard and ownership run for
// the layout report. It reuses the binary metadata decoder but performs
// no safety analysis.
package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sstsweep/sstsweep/internal/discovery"
	"github.com/sstsweep/sstsweep/internal/metadata"
	"github.com/sstsweep/sstsweep/internal/space"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// SSTable is one sstable's contribution to the layout report.
type SSTable struct {
	Name     string
	Size     int64
	LiveRows int64
	DeadRows float64
}

// Run is a set of sstables sharing one ownership-run identifier.
type Run struct {
	ID       string
	SSTables []SSTable
}

// Size is the summed Data.db size of the run.
func (r *Run) Size() int64 {
	var total int64
	for _, s := range r.SSTables {
		total += s.Size
	}
	return total
}

// LiveRows is the summed live-row estimate of the run.
func (r *Run) LiveRows() int64 {
	var total int64
	for _, s := range r.SSTables {
		total += s.LiveRows
	}
	return total
}

// DeadRows is the summed dead-row estimate of the run.
func (r *Run) DeadRows() float64 {
	var total float64
	for _, s := range r.SSTables {
		total += s.DeadRows
	}
	return total
}

// Shard holds the runs owned by one shard.
type Shard struct {
	ID   int64
	Runs []*Run
}

// Report is the full per-shard layout of one table directory.
type Report struct {
	Shards []*Shard
}

// Build scans tableDir for sstables (keyed off their Scylla.db
// component), assigns each to the shard owning its generation, and
// groups them by ownership run. Runs within a shard come back sorted by
// descending size.
func Build(tableDir string, shards int64) (*Report, error) {
	if shards <= 0 {
		return nil, fmt.Errorf("layout: shard count must be positive, got %d", shards)
	}

	names, err := discovery.ListGroupsByComponent(tableDir, types.ComponentScylla)
	if err != nil {
		return nil, err
	}

	dec := metadata.NewDecoder(tableDir)
	byShard := make(map[int64]map[string]*Run)

	for _, name := range names {
		format, err := types.DetectFormat(name)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		if !format.HasLocalDeletionTimes() {
			return nil, fmt.Errorf("layout: format %s of %s carries no row counts", format, name)
		}

		runID, err := dec.DecodeRunIdentifier(name)
		if err != nil {
			return nil, err
		}

		d, err := dec.Decode(name)
		if err != nil {
			return nil, err
		}

		dataName := types.SiblingComponent(name, types.ComponentScylla, types.ComponentData)
		info, err := os.Stat(filepath.Join(tableDir, dataName))
		if err != nil {
			return nil, fmt.Errorf("layout: unable to read size of %s: %w", dataName, err)
		}

		generation, err := types.GenerationOf(name)
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		shardID := generation % shards

		runs := byShard[shardID]
		if runs == nil {
			runs = make(map[string]*Run)
			byShard[shardID] = runs
		}
		run := runs[runID]
		if run == nil {
			run = &Run{ID: runID}
			runs[runID] = run
		}
		run.SSTables = append(run.SSTables, SSTable{
			Name:     name,
			Size:     info.Size(),
			LiveRows: d.LiveRows,
			DeadRows: d.DeadRows,
		})
	}

	report := &Report{}
	for shardID := int64(0); shardID < shards; shardID++ {
		shard := &Shard{ID: shardID}
		for _, run := range byShard[shardID] {
			shard.Runs = append(shard.Runs, run)
		}
		sort.Slice(shard.Runs, func(i, j int) bool {
			si, sj := shard.Runs[i].Size(), shard.Runs[j].Size()
			if si != sj {
				return si > sj
			}
			return shard.Runs[i].ID < shard.Runs[j].ID
		})
		report.Shards = append(report.Shards, shard)
	}
	return report, nil
}

// Print renders the report in the per-shard, per-run format.
func (r *Report) Print(w io.Writer) {
	for _, shard := range r.Shards {
		fmt.Fprintf(w, "--- SHARD #%d ---\n", shard.ID)
		for _, run := range shard.Runs {
			fmt.Fprintf(w, "[Run %s: size: %s, live: %d, dead: %.0f", run.ID, space.FormatSize(run.Size()), run.LiveRows(), run.DeadRows())
			for _, s := range run.SSTables {
				fmt.Fprintf(w, "\n\t{ %s: size: %s, live: %d, dead: %.0f }", s.Name, space.FormatSize(s.Size), s.LiveRows, s.DeadRows)
			}
			fmt.Fprintf(w, "\n]\n")
		}
	}
}
