// Package metadata decodes the binary metadata components of an sstable
// file group (Summary.db, Statistics.db, Scylla.db) into descriptors and
// gates them through sanity validation before any safety analysis runs.
package metadata

import (
	"github.com/sstsweep/sstsweep/internal/cursor"
	"github.com/sstsweep/sstsweep/internal/token"
)

// summaryKeys decodes the Summary.db layout and returns the raw first
// and last partition keys in sort order.
//
// Layout: minimum index interval (u32), offset-index count (u32),
// off-heap size (i64), sampling level (u32), full-sampling-summary size
// (u32), the offset index (4 bytes per entry), the sample block
// (off-heap size minus the offset index), then the two length-prefixed
// partition keys. The summary layout is shared by every supported
// format.
func summaryKeys(buf []byte) (first, last []byte, err error) {
	c := cursor.New(buf)

	if _, err = c.ReadUint32("minimum index interval"); err != nil {
		return nil, nil, err
	}
	offsetCount, err := c.ReadUint32("offset count")
	if err != nil {
		return nil, nil, err
	}
	offheapSize, err := c.ReadInt64("offheap size")
	if err != nil {
		return nil, nil, err
	}
	if _, err = c.ReadUint32("sampling level"); err != nil {
		return nil, nil, err
	}
	if _, err = c.ReadUint32("full sampling summary size"); err != nil {
		return nil, nil, err
	}

	// Both skip lengths are computed from decoded fields; Skip rejects
	// negative results as corrupt input.
	offsetIndexLen := int(offsetCount) * 4
	if err = c.Skip(offsetIndexLen, "offset index"); err != nil {
		return nil, nil, err
	}
	if err = c.Skip(int(offheapSize)-offsetIndexLen, "sample block"); err != nil {
		return nil, nil, err
	}

	if first, err = c.ReadBytes("first partition key"); err != nil {
		return nil, nil, err
	}
	if last, err = c.ReadBytes("last partition key"); err != nil {
		return nil, nil, err
	}
	return first, last, nil
}

// SummaryTokens decodes a Summary.db buffer and maps its first and last
// partition keys to partitioner tokens.
func SummaryTokens(buf []byte) (firstToken, lastToken int64, err error) {
	first, last, err := summaryKeys(buf)
	if err != nil {
		return 0, 0, err
	}
	return token.Token(first), token.Token(last), nil
}
