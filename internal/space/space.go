// Package space sums the on-disk footprint of sstable file groups for
// reclamation reporting.
package space

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sstsweep/sstsweep/internal/errors"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// TotalSize returns the summed size in bytes of every component of
// every descriptor's file group under tableDir. Missing optional
// components contribute zero; a missing mandatory component means the
// file set is inconsistent and the whole accounting fails.
func TotalSize(tableDir string, descriptors []*types.SSTableDescriptor) (int64, error) {
	var total int64
	for _, d := range descriptors {
		component, err := types.ComponentOf(d.Name)
		if err != nil {
			return 0, errors.UnsupportedFormat(d.Name, err)
		}
		for _, sibling := range types.Components() {
			name := types.SiblingComponent(d.Name, component, sibling)
			info, err := os.Stat(filepath.Join(tableDir, name))
			if err != nil {
				if types.OptionalComponent(sibling) {
					continue
				}
				return 0, errors.InconsistentComponentSet(name, err)
			}
			total += info.Size()
		}
	}
	return total, nil
}

// FormatSize renders a byte count in IEC units for reports.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
