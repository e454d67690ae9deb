package types

import "fmt"

// InclusiveRange is an immutable closed interval [First, Last].
// Construct it with NewInclusiveRange so First <= Last always holds.
type InclusiveRange struct {
	First int64
	Last  int64
}

// NewInclusiveRange creates a closed interval. It returns an error if
// first > last; degenerate single-point ranges are allowed.
func NewInclusiveRange(first, last int64) (InclusiveRange, error) {
	if first > last {
		return InclusiveRange{}, fmt.Errorf("range: first %d > last %d", first, last)
	}
	return InclusiveRange{First: first, Last: last}, nil
}

// Overlaps reports whether the two closed intervals intersect.
// Touching endpoints count as overlap: [0,10] overlaps [10,20].
func (r InclusiveRange) Overlaps(other InclusiveRange) bool {
	return r.First <= other.Last && other.First <= r.Last
}

// Contains reports whether v lies within the interval.
func (r InclusiveRange) Contains(v int64) bool {
	return r.First <= v && v <= r.Last
}

// String renders the range in the [first, last] form used in reports.
func (r InclusiveRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.First, r.Last)
}
