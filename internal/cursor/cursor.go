// Package cursor provides a sequential big-endian field reader over an
// in-memory byte buffer. All sstable metadata decoding is built on it.
package cursor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sstsweep/sstsweep/internal/errors"
)

// Cursor wraps a fixed byte buffer with a monotonically advancing read
// position. Methods return a TruncatedInput error when a read or skip
// would pass the end of the buffer; the cursor position is left
// unchanged on failure.
type Cursor struct {
	buf []byte
	pos int
}

// New creates a cursor over buf, positioned at the start.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

func (c *Cursor) need(n int, what string) error {
	if n < 0 {
		return errors.New(errors.ErrCategoryDecode, errors.CodeNegativeSkip,
			fmt.Sprintf("negative length %d reading %s at offset %d", n, what, c.pos))
	}
	if c.pos+n > len(c.buf) {
		return errors.TruncatedInput(
			fmt.Sprintf("need %d bytes for %s at offset %d, have %d", n, what, c.pos, c.Remaining()))
	}
	return nil
}

// ReadUint32 reads a big-endian unsigned 32-bit integer.
func (c *Cursor) ReadUint32(what string) (uint32, error) {
	if err := c.need(4, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func (c *Cursor) ReadInt32(what string) (int32, error) {
	v, err := c.ReadUint32(what)
	return int32(v), err
}

// ReadUint64 reads a big-endian unsigned 64-bit integer.
func (c *Cursor) ReadUint64(what string) (uint64, error) {
	if err := c.need(8, what); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func (c *Cursor) ReadInt64(what string) (int64, error) {
	v, err := c.ReadUint64(what)
	return int64(v), err
}

// ReadFloat64 reads a big-endian IEEE 754 double.
func (c *Cursor) ReadFloat64(what string) (float64, error) {
	v, err := c.ReadUint64(what)
	return math.Float64frombits(v), err
}

// ReadBytes reads a length-prefixed byte string: a 4-byte big-endian
// length followed by that many raw bytes. The returned slice aliases the
// underlying buffer and must not be modified.
func (c *Cursor) ReadBytes(what string) ([]byte, error) {
	n, err := c.ReadUint32(what + " length")
	if err != nil {
		return nil, err
	}
	if err := c.need(int(n), what); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return b, nil
}

// Skip advances the read position by n bytes. A negative n is a decode
// error: the summary layout computes skip lengths arithmetically, and a
// negative result means corrupt input, not a rewind request.
func (c *Cursor) Skip(n int, what string) error {
	if err := c.need(n, what); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// Seek moves the read position to an absolute offset.
func (c *Cursor) Seek(offset int, what string) error {
	if offset < 0 || offset > len(c.buf) {
		return errors.TruncatedInput(
			fmt.Sprintf("seek to %d for %s outside buffer of %d bytes", offset, what, len(c.buf)))
	}
	c.pos = offset
	return nil
}
