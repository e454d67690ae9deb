package metadata

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/sstsweep/sstsweep/internal/cursor"
	"github.com/sstsweep/sstsweep/internal/errors"
)

// runIdentifierType is the directory tag of the run-identifier extension
// attribute inside Scylla.db.
const runIdentifierType = 3

// RunIdentifier decodes the ownership-run identifier from a Scylla.db
// buffer. The component opens with the same directory shape as
// Statistics.db: an attribute count followed by (type, offset) pairs.
// The run identifier entry holds two big-endian 64-bit halves that
// together form a UUID.
func RunIdentifier(buf []byte) (uuid.UUID, error) {
	c := cursor.New(buf)

	count, err := c.ReadUint32("attribute count")
	if err != nil {
		return uuid.Nil, err
	}

	runIDOffset := -1
	for i := uint32(0); i < count; i++ {
		typ, err := c.ReadUint32("attribute type")
		if err != nil {
			return uuid.Nil, err
		}
		offset, err := c.ReadUint32("attribute offset")
		if err != nil {
			return uuid.Nil, err
		}
		if typ == runIdentifierType {
			runIDOffset = int(offset)
		}
	}
	if runIDOffset < 0 {
		return uuid.Nil, errors.New(errors.ErrCategoryDecode, errors.CodeMissingStatsComponent,
			"scylla component has no run identifier attribute")
	}
	if err := c.Seek(runIDOffset, "run identifier"); err != nil {
		return uuid.Nil, err
	}

	msb, err := c.ReadUint64("run identifier msb")
	if err != nil {
		return uuid.Nil, err
	}
	lsb, err := c.ReadUint64("run identifier lsb")
	if err != nil {
		return uuid.Nil, err
	}

	var raw [16]byte
	binary.BigEndian.PutUint64(raw[:8], msb)
	binary.BigEndian.PutUint64(raw[8:], lsb)
	return uuid.FromBytes(raw[:])
}
