package metadata

import (
	"fmt"

	"github.com/sstsweep/sstsweep/internal/cursor"
	"github.com/sstsweep/sstsweep/internal/errors"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// statsComponentType is the directory tag of the Stats entry inside
// Statistics.db. The directory maps component types to absolute offsets.
const statsComponentType = 2

// StatsMetadata holds the fields this tool extracts from the Stats
// entry of Statistics.db.
type StatsMetadata struct {
	// MinTimestamp and MaxTimestamp are write-time bounds in
	// microseconds since the epoch.
	MinTimestamp int64
	MaxTimestamp int64

	// MaxDeletionTime is the latest tombstone/TTL expiry in seconds
	// since the epoch.
	MaxDeletionTime int64

	// LiveRows is the row-count estimate carried by the newer layouts;
	// zero for ka/la.
	LiveRows int64

	// DeadRows is the summed tombstone-drop-time histogram, the file's
	// estimated dead-row count.
	DeadRows float64
}

// DecodeStatistics decodes a Statistics.db buffer for the given format.
//
// The buffer opens with a directory: a component count followed by
// (type, offset) pairs. Decoding seeks to the Stats entry (type 2) and
// walks its layout: two estimated histograms, the replay position, the
// timestamp bounds, the deletion-time and TTL fields (layout depends on
// the format), the compression ratio, and the tombstone-drop-time
// histogram.
func DecodeStatistics(buf []byte, format types.Format) (StatsMetadata, error) {
	var meta StatsMetadata
	c := cursor.New(buf)

	count, err := c.ReadUint32("component count")
	if err != nil {
		return meta, err
	}

	statsOffset := -1
	for i := uint32(0); i < count; i++ {
		typ, err := c.ReadUint32("component type")
		if err != nil {
			return meta, err
		}
		offset, err := c.ReadUint32("component offset")
		if err != nil {
			return meta, err
		}
		if typ == statsComponentType {
			statsOffset = int(offset)
		}
	}
	if statsOffset < 0 {
		return meta, errors.MissingStatsComponent()
	}
	if err := c.Seek(statsOffset, "Stats component"); err != nil {
		return meta, err
	}

	if err := skipEstimatedHistogram(c, "estimated partition size"); err != nil {
		return meta, err
	}
	if err := skipEstimatedHistogram(c, "estimated cells count"); err != nil {
		return meta, err
	}

	// Replay position: 8-byte segment id plus 4-byte position.
	if err := c.Skip(12, "replay position"); err != nil {
		return meta, err
	}

	if meta.MinTimestamp, err = c.ReadInt64("min timestamp"); err != nil {
		return meta, err
	}
	if meta.MaxTimestamp, err = c.ReadInt64("max timestamp"); err != nil {
		return meta, err
	}

	if format.HasLocalDeletionTimes() {
		if _, err = c.ReadUint32("min local deletion time"); err != nil {
			return meta, err
		}
	}
	maxDeletionTime, err := c.ReadUint32("max local deletion time")
	if err != nil {
		return meta, err
	}
	meta.MaxDeletionTime = int64(maxDeletionTime)

	if format.HasLocalDeletionTimes() {
		if _, err = c.ReadUint32("min ttl"); err != nil {
			return meta, err
		}
		if _, err = c.ReadUint32("max ttl"); err != nil {
			return meta, err
		}
		if meta.LiveRows, err = c.ReadInt64("rows count"); err != nil {
			return meta, err
		}
	}

	if err := c.Skip(8, "compression ratio"); err != nil {
		return meta, err
	}

	if meta.DeadRows, err = sumTombstoneDropHistogram(c); err != nil {
		return meta, err
	}
	return meta, nil
}

// skipEstimatedHistogram skips a variable-length estimated histogram:
// a bucket count followed by 16 bytes per bucket.
func skipEstimatedHistogram(c *cursor.Cursor, what string) error {
	n, err := c.ReadUint32(what + " bucket count")
	if err != nil {
		return err
	}
	return c.Skip(int(n)*16, fmt.Sprintf("%s buckets", what))
}

// sumTombstoneDropHistogram reads the tombstone-drop-time streaming
// histogram and returns the sum of its bin values, the estimated count
// of dead rows in the file.
func sumTombstoneDropHistogram(c *cursor.Cursor) (float64, error) {
	if _, err := c.ReadUint32("tombstone histogram max bin size"); err != nil {
		return 0, err
	}
	n, err := c.ReadUint32("tombstone histogram bin count")
	if err != nil {
		return 0, err
	}

	var dead float64
	for i := uint32(0); i < n; i++ {
		if _, err := c.ReadUint64("tombstone histogram bin key"); err != nil {
			return 0, err
		}
		v, err := c.ReadFloat64("tombstone histogram bin value")
		if err != nil {
			return 0, err
		}
		dead += v
	}
	return dead, nil
}
