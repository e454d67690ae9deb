package sweep

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang/snappy"

	"github.com/sstsweep/sstsweep/internal/audit"
	"github.com/sstsweep/sstsweep/internal/config"
	"github.com/sstsweep/sstsweep/internal/testutil"
	"github.com/sstsweep/sstsweep/pkg/types"
)

const testNow = 1_700_000_000

// fixtures returns three file groups: two expired, one live whose
// write-time window overlaps only the second expired group.
func fixtures() []testutil.Fixture {
	return []testutil.Fixture{
		{
			Base: "mc-1-big-", Format: types.FormatMC,
			FirstKey: []byte("alpha"), LastKey: []byte("omega"),
			MinTimestamp: 1_550_000_000_000_000, MaxTimestamp: 1_560_000_000_000_000,
			MaxDeletionTime: 1_600_000_000,
			RowsCount:       100, TombstoneBins: []float64{5},
			RunIDMSB: 1, RunIDLSB: 1, DataSize: 1024,
		},
		{
			Base: "mc-2-big-", Format: types.FormatMC,
			FirstKey: []byte("alpha"), LastKey: []byte("omega"),
			MinTimestamp: 1_570_000_000_000_000, MaxTimestamp: 1_580_000_000_000_000,
			MaxDeletionTime: 1_610_000_000,
			RowsCount:       200, TombstoneBins: []float64{7},
			RunIDMSB: 2, RunIDLSB: 2, DataSize: 2048,
		},
		{
			Base: "mc-3-big-", Format: types.FormatMC,
			FirstKey: []byte("alpha"), LastKey: []byte("omega"),
			MinTimestamp: 1_575_000_000_000_000, MaxTimestamp: 1_585_000_000_000_000,
			MaxDeletionTime: uint32(types.NeverExpiringDeletionTime),
			RowsCount:       300, TombstoneBins: nil,
			RunIDMSB: 3, RunIDLSB: 3, DataSize: 4096,
		},
	}
}

func writeFixtures(t *testing.T, dir string) []testutil.Fixture {
	t.Helper()
	fs := fixtures()
	for _, f := range fs {
		f.Write(t, dir)
	}
	return fs
}

func newSweeper(t *testing.T, cfg *config.Config, opts ...Option) *Sweeper {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return time.Unix(testNow, 0) }),
		WithEngineCheck(func() (bool, error) { return false, nil }),
	}
	return New(cfg, append(base, opts...)...)
}

func names(descriptors []*types.SSTableDescriptor) []string {
	out := make([]string, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Name
	}
	return out
}

func TestRunClassifiesAndSizes(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	cfg := config.DefaultConfig()
	cfg.TableDir = dir
	cfg.GCGraceSeconds = 0

	report, err := newSweeper(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(report.Descriptors))
	}
	if got := names(report.Classification.Expired); len(got) != 2 ||
		got[0] != "mc-1-big-TOC.txt" || got[1] != "mc-2-big-TOC.txt" {
		t.Fatalf("unexpected expired set: %v", got)
	}
	if got := names(report.Classification.NonExpired); len(got) != 1 || got[0] != "mc-3-big-TOC.txt" {
		t.Fatalf("unexpected non-expired set: %v", got)
	}

	// The live group's timestamps overlap only the second expired group.
	if got := names(report.Resolution.NonBlocked); len(got) != 1 || got[0] != "mc-1-big-TOC.txt" {
		t.Fatalf("unexpected non-blocked set: %v", got)
	}
	if got := names(report.Resolution.Blocked); len(got) != 1 || got[0] != "mc-2-big-TOC.txt" {
		t.Fatalf("unexpected blocked set: %v", got)
	}
	if got := report.Resolution.Blockers["mc-2-big-TOC.txt"]; len(got) != 1 || got[0] != "mc-3-big-TOC.txt" {
		t.Fatalf("unexpected blockers: %v", got)
	}

	if report.ReclaimableNow <= 0 || report.ReclaimableLater <= 0 {
		t.Fatalf("expected positive sizes, got now=%d later=%d",
			report.ReclaimableNow, report.ReclaimableLater)
	}
	if report.ReclaimableNow+report.ReclaimableLater != report.ExpiredTotal {
		t.Fatalf("size partition mismatch: %d + %d != %d",
			report.ReclaimableNow, report.ReclaimableLater, report.ExpiredTotal)
	}
	// The second group's Data.db alone is larger than the first group's.
	if report.ReclaimableLater <= report.ReclaimableNow {
		t.Fatalf("expected later > now: later=%d now=%d", report.ReclaimableLater, report.ReclaimableNow)
	}
	if len(report.Moved) != 0 {
		t.Fatalf("expected no moves without a quarantine directory, got %v", report.Moved)
	}
}

type recordingUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *recordingUploader) Upload(_ context.Context, key string, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = append([]byte(nil), data...)
	return nil
}

func TestRunMovesArchivesAndAudits(t *testing.T) {
	dir := t.TempDir()
	quarantine := t.TempDir()
	writeFixtures(t, dir)

	uploader := &recordingUploader{}

	cfg := config.DefaultConfig()
	cfg.TableDir = dir
	cfg.GCGraceSeconds = 0
	cfg.QuarantineDir = quarantine
	cfg.AuditDB = filepath.Join(t.TempDir(), "audit.db")
	cfg.Archive.Bucket = "reclaimed-sstables"
	cfg.Archive.Compress = true

	report, err := newSweeper(t, cfg, WithUploader(uploader)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Moved) != 1 || report.Moved[0] != "mc-1-big-TOC.txt" {
		t.Fatalf("unexpected moved set: %v", report.Moved)
	}

	// The non-blocked group left the table directory and landed in
	// quarantine; the blocked and live groups stayed put.
	if _, err := os.Stat(filepath.Join(dir, "mc-1-big-Data.db")); !os.IsNotExist(err) {
		t.Fatalf("expected mc-1 data gone from table dir, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(quarantine, "mc-1-big-Data.db")); err != nil {
		t.Fatalf("expected mc-1 data in quarantine: %v", err)
	}
	for _, base := range []string{"mc-2-big-", "mc-3-big-"} {
		if _, err := os.Stat(filepath.Join(dir, base+"Data.db")); err != nil {
			t.Fatalf("expected %sData.db untouched: %v", base, err)
		}
	}

	key := "reclaimed/mc-1-big-Data.db.snappy"
	compressed, ok := uploader.objects[key]
	if !ok {
		t.Fatalf("expected uploaded object %s, have %v", key, len(uploader.objects))
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		t.Fatalf("decoding uploaded object: %v", err)
	}
	if len(data) != 1024 {
		t.Fatalf("expected 1024-byte data payload, got %d", len(data))
	}

	journal, err := audit.Open(cfg.AuditDB)
	if err != nil {
		t.Fatalf("opening audit journal: %v", err)
	}
	defer journal.Close()
	records, err := journal.LoadRecords(context.Background(), 1)
	if err != nil {
		t.Fatalf("loading audit records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 audit records, got %d", len(records))
	}
	byName := make(map[string]audit.Record, len(records))
	for _, r := range records {
		byName[r.Descriptor.Name] = r
	}
	if r := byName["mc-1-big-TOC.txt"]; !r.Expired || r.Blocked || !r.Moved {
		t.Fatalf("unexpected audit record for mc-1: %+v", r)
	}
	if r := byName["mc-2-big-TOC.txt"]; !r.Expired || !r.Blocked || r.Moved {
		t.Fatalf("unexpected audit record for mc-2: %+v", r)
	}
	if r := byName["mc-3-big-TOC.txt"]; r.Expired || r.Blocked || r.Moved {
		t.Fatalf("unexpected audit record for mc-3: %+v", r)
	}
}

func TestRunRefusesMoveWithEngineRunning(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)

	cfg := config.DefaultConfig()
	cfg.TableDir = dir
	cfg.GCGraceSeconds = 0
	cfg.QuarantineDir = t.TempDir()

	s := newSweeper(t, cfg, WithEngineCheck(func() (bool, error) { return true, nil }))
	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("expected an error with the storage engine running")
	}
	if _, err := os.Stat(filepath.Join(dir, "mc-1-big-Data.db")); err != nil {
		t.Fatalf("expected table directory untouched: %v", err)
	}
}

func TestRunAbortsOnCorruptMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	if err := os.WriteFile(filepath.Join(dir, "mc-2-big-Statistics.db"), []byte{0x00}, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.TableDir = dir
	cfg.GCGraceSeconds = 0

	if _, err := newSweeper(t, cfg).Run(context.Background()); err == nil {
		t.Fatal("expected decode failure to abort the run")
	}
}

func TestRunSubstitutesSentinelDeletionTimes(t *testing.T) {
	dir := t.TempDir()
	f := testutil.Fixture{
		Base: "mc-9-big-", Format: types.FormatMC,
		FirstKey: []byte("a"), LastKey: []byte("z"),
		MinTimestamp: 1_550_000_000_000_000, MaxTimestamp: 1_560_000_000_000_000,
		MaxDeletionTime: uint32(types.NeverExpiringDeletionTime),
		RowsCount:       10, DataSize: 64,
	}
	f.Write(t, dir)

	cfg := config.DefaultConfig()
	cfg.TableDir = dir
	cfg.GCGraceSeconds = 0
	cfg.DefaultTTLSeconds = 864_000
	cfg.IgnoreMaxDeletionTime = true

	report, err := newSweeper(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Classification.Overrides) != 1 {
		t.Fatalf("expected one override, got %+v", report.Classification.Overrides)
	}
	// max timestamp 1.56e15 us -> 1.56e9 s, plus the TTL, well before now.
	want := int64(1_560_000_000 + 864_000)
	if got := report.Classification.Overrides[0].Substituted; got != want {
		t.Fatalf("substituted deletion time = %d, want %d", got, want)
	}
	if got := names(report.Classification.Expired); len(got) != 1 || got[0] != "mc-9-big-TOC.txt" {
		t.Fatalf("expected the overridden sstable to expire, got %v", got)
	}
}
