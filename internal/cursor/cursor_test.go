package cursor

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/sstsweep/sstsweep/internal/errors"
)

func TestReadFixedWidthFields(t *testing.T) {
	buf := make([]byte, 0, 32)
	buf = binary.BigEndian.AppendUint32(buf, 0xdeadbeef)
	buf = binary.BigEndian.AppendUint64(buf, 0xfedcba9876543210)
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(2.5))

	c := New(buf)

	u32, err := c.ReadUint32("u32")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u32 != 0xdeadbeef {
		t.Errorf("expected 0xdeadbeef, got %#x", u32)
	}

	i64, err := c.ReadInt64("i64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rawU64 := uint64(0xfedcba9876543210)
	if i64 != int64(rawU64) {
		t.Errorf("expected sign-reinterpreted value, got %d", i64)
	}

	f64, err := c.ReadFloat64("f64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f64 != 2.5 {
		t.Errorf("expected 2.5, got %v", f64)
	}

	if c.Remaining() != 0 {
		t.Errorf("expected cursor drained, %d bytes remain", c.Remaining())
	}
}

func TestReadBytesLengthPrefixed(t *testing.T) {
	buf := binary.BigEndian.AppendUint32(nil, 3)
	buf = append(buf, 'k', 'e', 'y')

	c := New(buf)
	b, err := c.ReadBytes("partition key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "key" {
		t.Errorf("expected %q, got %q", "key", b)
	}
}

func TestReadPastEndFailsWithTruncatedInput(t *testing.T) {
	c := New([]byte{0x01, 0x02})

	_, err := c.ReadUint32("short field")
	if err == nil {
		t.Fatal("expected error reading past buffer end")
	}
	if !errors.IsCode(err, errors.CodeTruncatedInput) {
		t.Errorf("expected TRUNCATED_INPUT, got %v", err)
	}
	// Failed read leaves the position untouched.
	if c.Pos() != 0 {
		t.Errorf("expected position 0 after failed read, got %d", c.Pos())
	}
}

func TestReadBytesTruncatedPayload(t *testing.T) {
	// Length prefix says 10 bytes but only 2 follow.
	buf := binary.BigEndian.AppendUint32(nil, 10)
	buf = append(buf, 0xaa, 0xbb)

	c := New(buf)
	if _, err := c.ReadBytes("key"); !errors.IsCode(err, errors.CodeTruncatedInput) {
		t.Errorf("expected TRUNCATED_INPUT, got %v", err)
	}
}

func TestSkipAndSeek(t *testing.T) {
	buf := make([]byte, 16)
	buf[8] = 0x7f
	c := New(buf)

	if err := c.Skip(8, "header"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Pos() != 8 {
		t.Errorf("expected position 8, got %d", c.Pos())
	}

	if err := c.Seek(0, "rewind"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Seek(16, "end"); err != nil {
		t.Fatalf("seek to buffer end must succeed: %v", err)
	}
	if err := c.Seek(17, "past end"); !errors.IsCode(err, errors.CodeTruncatedInput) {
		t.Errorf("expected TRUNCATED_INPUT, got %v", err)
	}
}

func TestNegativeSkipIsDecodeError(t *testing.T) {
	c := New(make([]byte, 8))
	err := c.Skip(-4, "offset index")
	if !errors.IsCode(err, errors.CodeNegativeSkip) {
		t.Errorf("expected NEGATIVE_SKIP, got %v", err)
	}
}
