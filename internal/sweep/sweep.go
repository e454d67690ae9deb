// Package sweep drives one end-to-end inspection run: discovery,
// decode, validation, expiration classification, blocker resolution,
// space accounting, and the optional quarantine move, archive upload,
// and audit record.
package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sstsweep/sstsweep/internal/archive"
	"github.com/sstsweep/sstsweep/internal/audit"
	"github.com/sstsweep/sstsweep/internal/config"
	"github.com/sstsweep/sstsweep/internal/discovery"
	"github.com/sstsweep/sstsweep/internal/expire"
	"github.com/sstsweep/sstsweep/internal/metadata"
	"github.com/sstsweep/sstsweep/internal/reclaim"
	"github.com/sstsweep/sstsweep/internal/space"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// Report is the outcome of one run, consumed by the CLI for printing.
type Report struct {
	Descriptors []*types.SSTableDescriptor

	Policy         expire.Policy
	Classification expire.Classification
	Resolution     expire.Resolution

	// Sizes in bytes. ReclaimableNow covers the non-blocked expired
	// set, ReclaimableLater the blocked set, ExpiredTotal both.
	ExpiredTotal     int64
	ReclaimableNow   int64
	ReclaimableLater int64

	// Moved lists the file groups transferred to quarantine.
	Moved []string
}

// Sweeper runs the analysis for one table directory.
type Sweeper struct {
	cfg *config.Config

	// now and engineRunning are injectable for tests.
	now           func() time.Time
	engineRunning func() (bool, error)
	uploader      archive.Uploader
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithEngineCheck overrides the storage-engine liveness probe.
func WithEngineCheck(check func() (bool, error)) Option {
	return func(s *Sweeper) { s.engineRunning = check }
}

// WithUploader overrides the archive destination.
func WithUploader(u archive.Uploader) Option {
	return func(s *Sweeper) { s.uploader = u }
}

// New creates a sweeper for a validated configuration.
func New(cfg *config.Config, opts ...Option) *Sweeper {
	s := &Sweeper{
		cfg:           cfg,
		now:           time.Now,
		engineRunning: reclaim.EngineRunning,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the sweep. Any decode failure, sanity violation, or
// inconsistent component set aborts the run: metadata integrity is a
// precondition for a safety decision, so there is no per-file recovery.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	policy := expire.Policy{
		Now:                   s.now().Unix(),
		GCGraceSeconds:        s.cfg.GCGraceSeconds,
		DefaultTTLSeconds:     s.cfg.DefaultTTLSeconds,
		IgnoreMaxDeletionTime: s.cfg.IgnoreMaxDeletionTime,
	}

	log.Printf("sweep: processing table %s...", s.cfg.TableDir)
	names, err := discovery.ListGroups(s.cfg.TableDir)
	if err != nil {
		return nil, err
	}

	dec := metadata.NewDecoder(s.cfg.TableDir)
	descriptors := make([]*types.SSTableDescriptor, 0, len(names))
	for _, name := range names {
		d, err := dec.Decode(name)
		if err != nil {
			return nil, fmt.Errorf("sweep: unable to retrieve metadata from %s: %w", name, err)
		}
		if err := metadata.Validate(d); err != nil {
			return nil, err
		}
		log.Printf("sweep: found %s", d)
		descriptors = append(descriptors, d)
	}

	report := &Report{Descriptors: descriptors, Policy: policy}
	report.Classification = expire.Classify(descriptors, policy)
	report.Resolution = expire.ResolveBlockers(report.Classification.Expired, report.Classification.NonExpired)

	if report.ExpiredTotal, err = space.TotalSize(s.cfg.TableDir, report.Classification.Expired); err != nil {
		return nil, err
	}
	// Sizing the non-blocked set doubles as the consistency check that
	// every component exists before anything is moved.
	if report.ReclaimableNow, err = space.TotalSize(s.cfg.TableDir, report.Resolution.NonBlocked); err != nil {
		return nil, err
	}
	if report.ReclaimableLater, err = space.TotalSize(s.cfg.TableDir, report.Resolution.Blocked); err != nil {
		return nil, err
	}

	if s.cfg.QuarantineDir != "" && len(report.Resolution.NonBlocked) > 0 {
		if err := s.moveAndArchive(ctx, report); err != nil {
			return nil, err
		}
	}

	if s.cfg.AuditDB != "" {
		if err := s.recordAudit(ctx, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (s *Sweeper) moveAndArchive(ctx context.Context, report *Report) error {
	running, err := s.engineRunning()
	if err != nil {
		return fmt.Errorf("sweep: unable to check for a running storage engine: %w", err)
	}
	if running {
		return fmt.Errorf("sweep: running storage engine detected; quarantine moves require the engine to be stopped")
	}

	mover, err := reclaim.NewMover(s.cfg.TableDir, s.cfg.QuarantineDir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(report.Resolution.NonBlocked))
	for _, d := range report.Resolution.NonBlocked {
		names = append(names, d.Name)
	}
	if err := mover.MoveGroups(names); err != nil {
		return err
	}
	report.Moved = names

	if s.cfg.Archive.Bucket != "" {
		uploader := s.uploader
		if uploader == nil {
			uploader, err = archive.NewS3Uploader(ctx, s.cfg.Archive.Bucket, archive.S3Config{
				Region:       s.cfg.Archive.Region,
				Endpoint:     s.cfg.Archive.Endpoint,
				UsePathStyle: s.cfg.Archive.UsePathStyle,
			})
			if err != nil {
				return err
			}
		}
		arch := archive.New(uploader, s.cfg.Archive.Prefix, s.cfg.Archive.Compress)
		if err := arch.ArchiveGroups(ctx, s.cfg.QuarantineDir, names); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sweeper) recordAudit(ctx context.Context, report *Report) error {
	journal, err := audit.Open(s.cfg.AuditDB)
	if err != nil {
		return err
	}
	defer journal.Close()

	substituted := make(map[string]int64, len(report.Classification.Overrides))
	for _, ov := range report.Classification.Overrides {
		substituted[ov.Name] = ov.Substituted
	}
	blocked := make(map[string]bool, len(report.Resolution.Blocked))
	for _, d := range report.Resolution.Blocked {
		blocked[d.Name] = true
	}
	expired := make(map[string]bool, len(report.Classification.Expired))
	for _, d := range report.Classification.Expired {
		expired[d.Name] = true
	}
	moved := make(map[string]bool, len(report.Moved))
	for _, name := range report.Moved {
		moved[name] = true
	}

	records := make([]audit.Record, 0, len(report.Descriptors))
	for _, d := range report.Descriptors {
		r := audit.Record{
			Descriptor: d,
			Expired:    expired[d.Name],
			Blocked:    blocked[d.Name],
			Moved:      moved[d.Name],
			Blockers:   report.Resolution.Blockers[d.Name],
		}
		if v, ok := substituted[d.Name]; ok {
			v := v
			r.SubstitutedDeletionTime = &v
		}
		records = append(records, r)
	}

	info := audit.RunInfo{
		StartedAt:             time.Unix(report.Policy.Now, 0),
		TableDir:              s.cfg.TableDir,
		GCGraceSeconds:        s.cfg.GCGraceSeconds,
		DefaultTTLSeconds:     s.cfg.DefaultTTLSeconds,
		IgnoreMaxDeletionTime: s.cfg.IgnoreMaxDeletionTime,
	}
	if _, err := journal.RecordRun(ctx, info, records); err != nil {
		return err
	}
	return nil
}
