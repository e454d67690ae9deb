package metadata

import (
	"fmt"

	"github.com/sstsweep/sstsweep/internal/errors"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// Plausibility bounds for decoded metadata. Timestamps are microsecond
// epoch (roughly years 2017 to 2033), deletion times second epoch.
// Anything outside would silently miscompute expiration or overlap, so
// a violation is fatal for the run rather than a per-file skip.
const (
	minSaneDeletionTime = int64(1_500_000_000)
	minSaneTimestamp    = int64(1_500_000_000_000_000)
	maxSaneTimestamp    = int64(2_000_000_000_000_000)
)

// Validate gates a decoded descriptor before it feeds the safety
// analysis. It returns a SanityViolation naming the failing field and
// bound, or nil when every field is plausible.
func Validate(d *types.SSTableDescriptor) error {
	if d.MinTimestamp == 0 {
		return errors.SanityViolation(d.Name, "min_timestamp", "== 0")
	}
	if d.MaxTimestamp == 0 {
		return errors.SanityViolation(d.Name, "max_timestamp", "== 0")
	}
	if d.MaxDeletionTime == 0 {
		return errors.SanityViolation(d.Name, "max_deletion_time", "== 0")
	}
	if d.MaxTimestamp < d.MinTimestamp {
		return errors.SanityViolation(d.Name, "max_timestamp",
			fmt.Sprintf("%d < min_timestamp %d", d.MaxTimestamp, d.MinTimestamp))
	}
	if d.MaxDeletionTime < minSaneDeletionTime || d.MaxDeletionTime > types.NeverExpiringDeletionTime {
		return errors.SanityViolation(d.Name, "max_deletion_time",
			fmt.Sprintf("%d outside [%d, %d]", d.MaxDeletionTime, minSaneDeletionTime, types.NeverExpiringDeletionTime))
	}
	if d.MinTimestamp < minSaneTimestamp || d.MinTimestamp > maxSaneTimestamp {
		return errors.SanityViolation(d.Name, "min_timestamp",
			fmt.Sprintf("%d outside [%d, %d]", d.MinTimestamp, minSaneTimestamp, maxSaneTimestamp))
	}
	if d.MaxTimestamp < minSaneTimestamp || d.MaxTimestamp > maxSaneTimestamp {
		return errors.SanityViolation(d.Name, "max_timestamp",
			fmt.Sprintf("%d outside [%d, %d]", d.MaxTimestamp, minSaneTimestamp, maxSaneTimestamp))
	}
	// The overlap analysis assumes ordered token ranges.
	if _, err := types.NewInclusiveRange(d.FirstToken, d.LastToken); err != nil {
		return errors.SanityViolation(d.Name, "first_token",
			fmt.Sprintf("%d > last_token %d", d.FirstToken, d.LastToken))
	}
	return nil
}
