// Package reclaim moves fully expired sstable file groups out of the
// table directory, and gates that move on the storage engine being
// stopped.
package reclaim

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sstsweep/sstsweep/internal/errors"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// Mover transfers sstable file groups from a table directory into a
// quarantine directory.
type Mover struct {
	tableDir       string
	destinationDir string
}

// NewMover creates a mover between the two directories. The destination
// must already exist and sit on the same filesystem as the table
// directory, since the transfer hard-links before unlinking.
func NewMover(tableDir, destinationDir string) (*Mover, error) {
	info, err := os.Stat(destinationDir)
	if err != nil {
		return nil, fmt.Errorf("reclaim: unable to find destination directory %s: %w", destinationDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reclaim: destination %s is not a directory", destinationDir)
	}
	return &Mover{tableDir: tableDir, destinationDir: destinationDir}, nil
}

// MoveGroups transfers every component of each named file group.
//
// Ordering is the safety contract: all components of a group are linked
// into the destination before any component is unlinked from the
// source, so a failure mid-transfer leaves the original files intact
// rather than partially deleted. Missing optional components are
// skipped in both phases.
func (m *Mover) MoveGroups(names []string) error {
	for _, name := range names {
		component, err := types.ComponentOf(name)
		if err != nil {
			return errors.UnsupportedFormat(name, err)
		}

		log.Printf("reclaim: moving all components of sstable %s...", name)
		for _, sibling := range types.Components() {
			f := types.SiblingComponent(name, component, sibling)
			src := filepath.Join(m.tableDir, f)
			dst := filepath.Join(m.destinationDir, f)
			if err := os.Link(src, dst); err != nil {
				if types.OptionalComponent(sibling) && os.IsNotExist(err) {
					continue
				}
				return errors.Wrap(errors.ErrCategoryReclaim, errors.CodeLinkFailed,
					"unable to link sstable component", err).WithFile(f)
			}
		}
		for _, sibling := range types.Components() {
			f := types.SiblingComponent(name, component, sibling)
			if err := os.Remove(filepath.Join(m.tableDir, f)); err != nil {
				if types.OptionalComponent(sibling) && os.IsNotExist(err) {
					continue
				}
				return errors.Wrap(errors.ErrCategoryReclaim, errors.CodeUnlinkFailed,
					"unable to delete sstable component", err).WithFile(f)
			}
		}
	}
	return nil
}
