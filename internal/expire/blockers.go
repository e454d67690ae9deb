package expire

import (
	"log"

	"github.com/sstsweep/sstsweep/pkg/types"
)

// Resolution partitions the expired set by whether a still-live sstable
// blocks reclamation.
type Resolution struct {
	Blocked    []*types.SSTableDescriptor
	NonBlocked []*types.SSTableDescriptor

	// Blockers maps each blocked sstable name to the names of every
	// live candidate whose write-time window overlaps it. Reclamation
	// of a blocked file requires re-running the analysis once these
	// candidates themselves expire.
	Blockers map[string][]string

	// Candidates are the non-expired sstables whose token range
	// intersects the expired set's token envelope.
	Candidates []*types.SSTableDescriptor
}

// unifiedTokenRange is the token envelope of the descriptor set: the
// interval from the smallest first token to the largest last token.
func unifiedTokenRange(descriptors []*types.SSTableDescriptor) types.InclusiveRange {
	first := descriptors[0].FirstToken
	last := descriptors[0].LastToken
	for _, d := range descriptors[1:] {
		if d.FirstToken < first {
			first = d.FirstToken
		}
		if d.LastToken > last {
			last = d.LastToken
		}
	}
	return types.InclusiveRange{First: first, Last: last}
}

// ResolveBlockers decides which expired sstables are safe to reclaim
// now. A live sstable endangers an expired one only when both its token
// range could interleave with the expired set (checked against the
// envelope of all expired files) and its write-time window overlaps the
// expired file's. File-level timestamp ranges over-approximate row
// overlap: false blockers are possible, false non-blockers are not.
func ResolveBlockers(expired, nonExpired []*types.SSTableDescriptor) Resolution {
	res := Resolution{Blockers: make(map[string][]string)}
	if len(expired) == 0 {
		return res
	}

	envelope := unifiedTokenRange(expired)
	for _, d := range nonExpired {
		if d.OverlapsInToken(envelope) {
			log.Printf("expire: sstable %s overlaps with token range %s of expired sstables", d.Name, envelope)
			res.Candidates = append(res.Candidates, d)
		}
	}

	for _, e := range expired {
		var blockers []string
		for _, c := range res.Candidates {
			if e.OverlapsInTimestamp(c) {
				blockers = append(blockers, c.Name)
			}
		}
		if len(blockers) > 0 {
			res.Blocked = append(res.Blocked, e)
			res.Blockers[e.Name] = blockers
		} else {
			res.NonBlocked = append(res.NonBlocked, e)
		}
	}
	return res
}
