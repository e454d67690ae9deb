// Package testutil builds synthetic sstable component files for tests.
// The encoders mirror the on-disk layouts the metadata decoder walks;
// production code never writes sstable content.
package testutil

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sstsweep/sstsweep/pkg/types"
)

// Fixture describes one synthetic sstable file group.
type Fixture struct {
	// Base is the generation-bearing basename, e.g. "mc-1-big-".
	Base   string
	Format types.Format

	FirstKey []byte
	LastKey  []byte

	MinTimestamp    int64
	MaxTimestamp    int64
	MaxDeletionTime uint32

	RowsCount     int64
	TombstoneBins []float64

	RunIDMSB uint64
	RunIDLSB uint64

	// DataSize is the size of the synthetic Data.db payload.
	DataSize int
}

// Write materializes every component of the fixture under dir.
func (f Fixture) Write(t *testing.T, dir string) {
	t.Helper()

	write := func(component string, data []byte) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, f.Base+component), data, 0644); err != nil {
			t.Fatalf("writing fixture component %s: %v", component, err)
		}
	}

	write(types.ComponentSummary, Summary(f.FirstKey, f.LastKey))
	write(types.ComponentStatistics, Statistics(f))
	write(types.ComponentScylla, Scylla(f.RunIDMSB, f.RunIDLSB))
	write(types.ComponentData, make([]byte, f.DataSize))
	write(types.ComponentIndex, make([]byte, 16))
	write(types.ComponentFilter, make([]byte, 8))
	write(types.ComponentTOC, []byte("Data.db\nIndex.db\nSummary.db\nStatistics.db\n"))
	write(types.ComponentDigest, []byte("0"))
}

// TOCName returns the canonical name identifying the fixture's group.
func (f Fixture) TOCName() string {
	return f.Base + types.ComponentTOC
}

func appendU32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

func appendU64(b []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(b, v)
}

// Summary encodes a Summary.db buffer holding the two partition keys.
func Summary(first, last []byte) []byte {
	const offsetCount = 2
	sample := []byte{0x01, 0x02, 0x03}
	offheapSize := offsetCount*4 + len(sample)

	var b []byte
	b = appendU32(b, 128)
	b = appendU32(b, offsetCount)
	b = appendU64(b, uint64(offheapSize))
	b = appendU32(b, 128)
	b = appendU32(b, uint32(offheapSize))
	for i := 0; i < offsetCount; i++ {
		b = appendU32(b, uint32(i*8))
	}
	b = append(b, sample...)
	b = appendU32(b, uint32(len(first)))
	b = append(b, first...)
	b = appendU32(b, uint32(len(last)))
	b = append(b, last...)
	return b
}

// Statistics encodes a Statistics.db buffer for the fixture's format.
func Statistics(f Fixture) []byte {
	var stats []byte

	for h := 0; h < 2; h++ {
		stats = appendU32(stats, 1)
		stats = appendU64(stats, 1)
		stats = appendU64(stats, 10)
	}

	stats = appendU64(stats, 7) // replay segment id
	stats = appendU32(stats, 0) // replay position

	stats = appendU64(stats, uint64(f.MinTimestamp))
	stats = appendU64(stats, uint64(f.MaxTimestamp))

	if f.Format.HasLocalDeletionTimes() {
		stats = appendU32(stats, 1_600_000_000)
	}
	stats = appendU32(stats, f.MaxDeletionTime)
	if f.Format.HasLocalDeletionTimes() {
		stats = appendU32(stats, 0)
		stats = appendU32(stats, 864_000)
		stats = appendU64(stats, uint64(f.RowsCount))
	}

	stats = appendU64(stats, math.Float64bits(0.5))

	stats = appendU32(stats, 100)
	stats = appendU32(stats, uint32(len(f.TombstoneBins)))
	for i, v := range f.TombstoneBins {
		stats = appendU64(stats, uint64(1_600_000_000+i))
		stats = appendU64(stats, math.Float64bits(v))
	}

	// Directory: the Stats entry (type 2) plus one ignored entry.
	const dirLen = 4 + 2*8
	var b []byte
	b = appendU32(b, 2)
	b = appendU32(b, 1)
	b = appendU32(b, 0)
	b = appendU32(b, 2)
	b = appendU32(b, uint32(dirLen))
	b = append(b, stats...)
	return b
}

// Scylla encodes a Scylla.db buffer whose run identifier holds the two
// UUID halves.
func Scylla(msb, lsb uint64) []byte {
	const dirLen = 4 + 8
	var b []byte
	b = appendU32(b, 1)
	b = appendU32(b, 3)
	b = appendU32(b, uint32(dirLen))
	b = appendU64(b, msb)
	b = appendU64(b, lsb)
	return b
}
