// Package audit persists the decoded metadata and classification of
// every run into a sqlite journal, so reclamation decisions can be
// reviewed after the fact with the exact records they were based on.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sstsweep/sstsweep/internal/errors"
	"github.com/sstsweep/sstsweep/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	table_dir TEXT NOT NULL,
	gc_grace_seconds INTEGER NOT NULL,
	default_ttl_seconds INTEGER NOT NULL,
	ignore_max_deletion_time INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sstables (
	run_id INTEGER NOT NULL REFERENCES runs(run_id),
	name TEXT NOT NULL,
	min_timestamp INTEGER NOT NULL,
	max_timestamp INTEGER NOT NULL,
	max_deletion_time INTEGER NOT NULL,
	first_token INTEGER NOT NULL,
	last_token INTEGER NOT NULL,
	expired INTEGER NOT NULL,
	blocked INTEGER NOT NULL,
	moved INTEGER NOT NULL,
	blockers TEXT NOT NULL,
	substituted_deletion_time INTEGER,
	PRIMARY KEY (run_id, name)
);
`

// Record is one sstable's decoded metadata plus its classification in a
// single run.
type Record struct {
	Descriptor *types.SSTableDescriptor
	Expired    bool
	Blocked    bool
	Moved      bool
	Blockers   []string
	// SubstitutedDeletionTime is set when the never-expires sentinel was
	// overridden for this file.
	SubstitutedDeletionTime *int64
}

// RunInfo describes the policy a run was evaluated under.
type RunInfo struct {
	StartedAt             time.Time
	TableDir              string
	GCGraceSeconds        int64
	DefaultTTLSeconds     int64
	IgnoreMaxDeletionTime bool
}

// Journal is the sqlite-backed audit log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path and ensures the
// schema exists.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed,
			fmt.Sprintf("unable to open audit journal %s", path), err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed,
			"unable to initialize audit schema", err)
	}
	return &Journal{db: db}, nil
}

// RecordRun writes one run and all its sstable records atomically and
// returns the run id.
func (j *Journal) RecordRun(ctx context.Context, info RunInfo, records []Record) (int64, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed, "unable to begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, table_dir, gc_grace_seconds, default_ttl_seconds, ignore_max_deletion_time)
		 VALUES (?, ?, ?, ?, ?)`,
		info.StartedAt.UTC().Format(time.RFC3339), info.TableDir,
		info.GCGraceSeconds, info.DefaultTTLSeconds, boolToInt(info.IgnoreMaxDeletionTime))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed, "unable to insert run", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed, "unable to read run id", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sstables (run_id, name, min_timestamp, max_timestamp, max_deletion_time,
		                       first_token, last_token, expired, blocked, moved, blockers,
		                       substituted_deletion_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed, "unable to prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		d := r.Descriptor
		var substituted interface{}
		if r.SubstitutedDeletionTime != nil {
			substituted = *r.SubstitutedDeletionTime
		}
		if _, err := stmt.ExecContext(ctx, runID, d.Name,
			d.MinTimestamp, d.MaxTimestamp, d.MaxDeletionTime,
			d.FirstToken, d.LastToken,
			boolToInt(r.Expired), boolToInt(r.Blocked), boolToInt(r.Moved),
			strings.Join(r.Blockers, ","), substituted); err != nil {
			return 0, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed,
				fmt.Sprintf("unable to insert record for %s", d.Name), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed, "unable to commit run", err)
	}
	return runID, nil
}

// LoadRecords reads back the sstable records of a run, ordered by name.
func (j *Journal) LoadRecords(ctx context.Context, runID int64) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT name, min_timestamp, max_timestamp, max_deletion_time,
		        first_token, last_token, expired, blocked, moved, blockers,
		        substituted_deletion_time
		 FROM sstables WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed, "unable to query records", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			d           types.SSTableDescriptor
			expired     int
			blocked     int
			moved       int
			blockers    string
			substituted sql.NullInt64
		)
		if err := rows.Scan(&d.Name, &d.MinTimestamp, &d.MaxTimestamp, &d.MaxDeletionTime,
			&d.FirstToken, &d.LastToken, &expired, &blocked, &moved, &blockers, &substituted); err != nil {
			return nil, errors.Wrap(errors.ErrCategoryAudit, errors.CodeJournalFailed, "unable to scan record", err)
		}
		r := Record{
			Descriptor: &d,
			Expired:    expired != 0,
			Blocked:    blocked != 0,
			Moved:      moved != 0,
		}
		if blockers != "" {
			r.Blockers = strings.Split(blockers, ",")
		}
		if substituted.Valid {
			v := substituted.Int64
			r.SubstitutedDeletionTime = &v
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
