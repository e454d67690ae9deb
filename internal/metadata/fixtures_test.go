package metadata

import (
	"encoding/binary"
	"math"

	"github.com/sstsweep/sstsweep/pkg/types"
)

// Binary fixture builders mirroring the on-disk layouts the decoder
// walks. Tests encode with these and decode with the real code paths.

func appendU32(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

func appendU64(b []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(b, v)
}

// buildSummary encodes a Summary.db buffer holding the given first and
// last partition keys, with a non-trivial offset index and sample block
// in between so the skip arithmetic is exercised.
func buildSummary(first, last []byte) []byte {
	const offsetCount = 3
	sample := []byte{0xca, 0xfe, 0xba, 0xbe, 0x00}
	offheapSize := offsetCount*4 + len(sample)

	var b []byte
	b = appendU32(b, 128)                 // minimum index interval
	b = appendU32(b, offsetCount)         // offset-index count
	b = appendU64(b, uint64(offheapSize)) // off-heap size
	b = appendU32(b, 128)                 // sampling level
	b = appendU32(b, uint32(offheapSize)) // full sampling summary size
	for i := 0; i < offsetCount; i++ {
		b = appendU32(b, uint32(i*16)) // offset index entries
	}
	b = append(b, sample...)
	b = appendU32(b, uint32(len(first)))
	b = append(b, first...)
	b = appendU32(b, uint32(len(last)))
	b = append(b, last...)
	return b
}

// statsFixture is the input to buildStatistics.
type statsFixture struct {
	minTimestamp    int64
	maxTimestamp    int64
	maxDeletionTime uint32
	rowsCount       int64     // newer formats only
	tombstoneBins   []float64 // histogram values; keys are synthetic
}

// buildStatistics encodes a Statistics.db buffer with a directory of
// three entries (Stats second) and a Stats component at the recorded
// offset, following the layout of the given format.
func buildStatistics(f statsFixture, format types.Format) []byte {
	stats := encodeStats(f, format)

	// Directory: three components; Stats (type 2) sits between two
	// entries the decoder must ignore.
	const dirLen = 4 + 3*8
	var b []byte
	b = appendU32(b, 3)
	b = appendU32(b, 1) // validation metadata, ignored
	b = appendU32(b, 0)
	b = appendU32(b, statsComponentType)
	b = appendU32(b, uint32(dirLen))
	b = appendU32(b, 4) // serialization header, ignored
	b = appendU32(b, uint32(dirLen+len(stats)))
	b = append(b, stats...)
	return b
}

func encodeStats(f statsFixture, format types.Format) []byte {
	var b []byte

	// Two estimated histograms with a couple of buckets each.
	for h := 0; h < 2; h++ {
		b = appendU32(b, 2)
		for i := 0; i < 2; i++ {
			b = appendU64(b, uint64(i+1))
			b = appendU64(b, uint64(100*(i+1)))
		}
	}

	// Replay position: segment id + position.
	b = appendU64(b, 0x1122334455667788)
	b = appendU32(b, 42)

	b = appendU64(b, uint64(f.minTimestamp))
	b = appendU64(b, uint64(f.maxTimestamp))

	if format.HasLocalDeletionTimes() {
		b = appendU32(b, 1_600_000_000) // min local deletion time
	}
	b = appendU32(b, f.maxDeletionTime)
	if format.HasLocalDeletionTimes() {
		b = appendU32(b, 0)       // min ttl
		b = appendU32(b, 864_000) // max ttl
		b = appendU64(b, uint64(f.rowsCount))
	}

	b = appendU64(b, math.Float64bits(0.37)) // compression ratio

	b = appendU32(b, 100) // tombstone histogram max bin size
	b = appendU32(b, uint32(len(f.tombstoneBins)))
	for i, v := range f.tombstoneBins {
		b = appendU64(b, uint64(1_600_000_000+i))
		b = appendU64(b, math.Float64bits(v))
	}
	return b
}

// buildScylla encodes a Scylla.db buffer whose run identifier attribute
// holds the given UUID halves.
func buildScylla(msb, lsb uint64) []byte {
	const dirLen = 4 + 2*8
	var b []byte
	b = appendU32(b, 2)
	b = appendU32(b, 1) // sharding metadata, ignored
	b = appendU32(b, 0)
	b = appendU32(b, runIdentifierType)
	b = appendU32(b, uint32(dirLen))
	b = appendU64(b, msb)
	b = appendU64(b, lsb)
	return b
}
