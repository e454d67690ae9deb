// Package types holds the shared domain types for sstable inspection:
// descriptors decoded from on-disk metadata, inclusive token/timestamp
// ranges, and the component and format vocabulary of the sstable file set.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// NeverExpiringDeletionTime is the max deletion time stored in an sstable
// that contains no tombstones and no TTL'd writes: the maximum 32-bit
// signed second epoch. Sentinel comparisons use this constant, never
// the literal.
const NeverExpiringDeletionTime int64 = 2147483647

// Format identifies a supported on-disk sstable format variant.
// The variant is detected once from the filename and threaded explicitly
// through decoding; it never gets re-detected per field.
type Format string

const (
	// FormatKA is the older "ka" layout.
	FormatKA Format = "ka"
	// FormatLA is the older "la" layout, field-compatible with ka for the
	// statistics fields this tool reads.
	FormatLA Format = "la"
	// FormatMC is the newer "mc" layout, which carries local deletion time
	// and TTL bound fields plus a row-count estimate.
	FormatMC Format = "mc"
	// FormatMD is the newer "md" layout, statistics-compatible with mc.
	FormatMD Format = "md"
)

// HasLocalDeletionTimes reports whether the statistics layout carries the
// extra min-local-deletion-time, TTL bound, and row-count fields.
func (f Format) HasLocalDeletionTimes() bool {
	return f == FormatMC || f == FormatMD
}

// DetectFormat extracts the format tag from an sstable filename.
// The tag is the leading dash-delimited token of the basename; matching
// anywhere else would misfire on component suffixes ("Scylla.db"
// contains "la"). It returns an error for filenames that carry no
// supported tag.
func DetectFormat(filename string) (Format, error) {
	base := filename
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, f := range []Format{FormatKA, FormatLA, FormatMC, FormatMD} {
		if strings.HasPrefix(base, string(f)+"-") {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported sstable format in filename %q (supported: ka, la, mc, md)", filename)
}

// Component names within an sstable file group. Every component of one
// sstable shares a generation-bearing basename and differs only in the
// component suffix.
const (
	ComponentData            = "Data.db"
	ComponentIndex           = "Index.db"
	ComponentSummary         = "Summary.db"
	ComponentFilter          = "Filter.db"
	ComponentScylla          = "Scylla.db"
	ComponentCompressionInfo = "CompressionInfo.db"
	ComponentCRC             = "CRC.db"
	ComponentStatistics      = "Statistics.db"
	ComponentTOC             = "TOC.txt"
	ComponentDigest          = "Digest.crc32"
)

// IdentificationComponent is the component suffix used to identify one
// sstable group per set of files during discovery.
const IdentificationComponent = ComponentTOC

// Components returns all known component suffixes of an sstable group.
func Components() []string {
	return []string{
		ComponentData,
		ComponentIndex,
		ComponentSummary,
		ComponentFilter,
		ComponentScylla,
		ComponentCompressionInfo,
		ComponentCRC,
		ComponentStatistics,
		ComponentTOC,
		ComponentDigest,
	}
}

// OptionalComponent reports whether an sstable group may legitimately
// lack the given component. Everything else is mandatory; a missing
// mandatory component marks the file set as inconsistent.
func OptionalComponent(component string) bool {
	switch component {
	case ComponentCompressionInfo, ComponentCRC, ComponentDigest:
		return true
	}
	return false
}

// ComponentOf returns the component suffix present in filename.
func ComponentOf(filename string) (string, error) {
	for _, c := range Components() {
		if strings.Contains(filename, c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("no known sstable component in filename %q", filename)
}

// SiblingComponent derives the filename of another component of the same
// sstable group by substituting the component suffix in name.
func SiblingComponent(name, from, to string) string {
	return strings.Replace(name, from, to, 1)
}

// GenerationOf extracts the numeric generation from an sstable filename,
// taken as the first all-digit dash-separated token (e.g. 42 in
// "mc-42-big-TOC.txt").
func GenerationOf(filename string) (int64, error) {
	base := filename
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, part := range strings.Split(base, "-") {
		if gen, err := strconv.ParseInt(part, 10, 64); err == nil {
			return gen, nil
		}
	}
	return 0, fmt.Errorf("no generation number in filename %q", filename)
}

// SSTableDescriptor is the decoded metadata of one sstable file group.
// A descriptor is populated in a single decode pass and never mutated
// afterwards; classification results are kept as set membership so the
// decoded record stays intact for audit output.
type SSTableDescriptor struct {
	// Name is the canonical component filename identifying the group.
	// Sibling component names are derived from it by suffix substitution.
	Name string

	// MinTimestamp and MaxTimestamp are the write-time bounds in
	// microseconds since the epoch, MinTimestamp <= MaxTimestamp.
	MinTimestamp int64
	MaxTimestamp int64

	// MaxDeletionTime is the latest second epoch at which any tombstone
	// or TTL'd write in the file expires. NeverExpiringDeletionTime means
	// the file contains no expiring data.
	MaxDeletionTime int64

	// FirstToken and LastToken are the partitioner tokens of the first
	// and last partition keys in sort order.
	FirstToken int64
	LastToken  int64

	// LiveRows and DeadRows are row-count estimates carried by the newer
	// statistics layouts. Zero for the older formats. They feed the
	// layout report only, never the safety analysis.
	LiveRows int64
	DeadRows float64
}

// TokenRange is the inclusive token interval covered by the file.
func (d *SSTableDescriptor) TokenRange() InclusiveRange {
	return InclusiveRange{First: d.FirstToken, Last: d.LastToken}
}

// TimestampRange is the inclusive write-time interval of the file.
func (d *SSTableDescriptor) TimestampRange() InclusiveRange {
	return InclusiveRange{First: d.MinTimestamp, Last: d.MaxTimestamp}
}

// OverlapsInToken reports whether the file's token range intersects r.
func (d *SSTableDescriptor) OverlapsInToken(r InclusiveRange) bool {
	return d.TokenRange().Overlaps(r)
}

// OverlapsInTimestamp reports whether two files' write-time windows
// intersect.
func (d *SSTableDescriptor) OverlapsInTimestamp(other *SSTableDescriptor) bool {
	return d.TimestampRange().Overlaps(other.TimestampRange())
}

// String renders the descriptor the way run logs and audit records
// present it.
func (d *SSTableDescriptor) String() string {
	return fmt.Sprintf("%s: ts: [%d, %d], max deletion ts: %d, token: [%d, %d]",
		d.Name, d.MinTimestamp, d.MaxTimestamp, d.MaxDeletionTime, d.FirstToken, d.LastToken)
}
