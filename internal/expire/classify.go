// Package expire decides which sstables have aged past the retention
// policy and which expired sstables are blocked from reclamation by
// still-live files.
package expire

import (
	"log"
	"math"

	"github.com/sstsweep/sstsweep/pkg/types"
)

// Policy holds the retention parameters of one classification run.
type Policy struct {
	// Now is the wall-clock second epoch the run evaluates against.
	Now int64

	// GCGraceSeconds is the minimum time a tombstone must be retained
	// before it may be purged.
	GCGraceSeconds int64

	// DefaultTTLSeconds is the table's default time-to-live, used only
	// when IgnoreMaxDeletionTime substitutes a deletion time for
	// never-expiring sstables.
	DefaultTTLSeconds int64

	// IgnoreMaxDeletionTime treats a never-expiring sstable as if every
	// write in it carried exactly the default TTL starting at the file's
	// latest write.
	IgnoreMaxDeletionTime bool
}

// GCBefore is the purge horizon: tombstones older than this second epoch
// are eligible for collection.
func (p Policy) GCBefore() int64 {
	return p.Now - p.GCGraceSeconds
}

// Override holds the substituted deletion time of one never-expiring
// sstable classified under IgnoreMaxDeletionTime, kept for reporting.
type Override struct {
	Name        string
	Original    int64
	Substituted int64
}

// Classification partitions a descriptor set by expiration.
type Classification struct {
	Expired    []*types.SSTableDescriptor
	NonExpired []*types.SSTableDescriptor
	// Overrides records each sentinel substitution applied during the
	// run, in input order.
	Overrides []Override
}

// timestampInSeconds converts a microsecond epoch to seconds, rounding
// ties to even.
func timestampInSeconds(micros int64) int64 {
	return int64(math.RoundToEven(float64(micros) / 1e6))
}

// overridesDeletionTime reports whether the policy substitutes the
// deletion time of this descriptor. This is the single comparison point
// for the never-expires sentinel.
func (p Policy) overridesDeletionTime(d *types.SSTableDescriptor) bool {
	return p.IgnoreMaxDeletionTime && d.MaxDeletionTime == types.NeverExpiringDeletionTime
}

// EffectiveDeletionTime returns the deletion time the policy evaluates
// for d: the decoded value, or the default-TTL substitution when the
// never-expires sentinel is overridden.
func (p Policy) EffectiveDeletionTime(d *types.SSTableDescriptor) int64 {
	if p.overridesDeletionTime(d) {
		return timestampInSeconds(d.MaxTimestamp) + p.DefaultTTLSeconds
	}
	return d.MaxDeletionTime
}

// IsExpired reports whether every write in d has aged past the purge
// horizon.
func (p Policy) IsExpired(d *types.SSTableDescriptor) bool {
	return p.EffectiveDeletionTime(d) < p.GCBefore()
}

// Classify partitions descriptors into expired and non-expired sets.
// Descriptors are never mutated; membership in the returned sets is the
// classification result.
func Classify(descriptors []*types.SSTableDescriptor, policy Policy) Classification {
	var c Classification
	for _, d := range descriptors {
		if policy.overridesDeletionTime(d) {
			substituted := policy.EffectiveDeletionTime(d)
			log.Printf("expire: ignoring max deletion time of sstable %s: %d -> %d",
				d.Name, d.MaxDeletionTime, substituted)
			c.Overrides = append(c.Overrides, Override{
				Name:        d.Name,
				Original:    d.MaxDeletionTime,
				Substituted: substituted,
			})
		}
		if policy.IsExpired(d) {
			c.Expired = append(c.Expired, d)
		} else {
			c.NonExpired = append(c.NonExpired, d)
		}
	}
	return c
}
