// Package discovery lists the sstable file groups present in a table
// directory.
package discovery

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sstsweep/sstsweep/pkg/types"
)

// ListGroups scans tableDir and returns the canonical name of every
// sstable file group, identified by its TOC component. Subdirectories
// (upload, staging, snapshots) are ignored. Names come back sorted so
// runs are reproducible.
func ListGroups(tableDir string) ([]string, error) {
	entries, err := os.ReadDir(tableDir)
	if err != nil {
		return nil, fmt.Errorf("discovery: unable to read table directory %s: %w", tableDir, err)
	}

	var groups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), types.IdentificationComponent) {
			continue
		}
		groups = append(groups, entry.Name())
	}
	sort.Strings(groups)
	return groups, nil
}

// ListGroupsByComponent is ListGroups with a different identifying
// component suffix, used by the layout report which keys groups off
// Scylla.db.
func ListGroupsByComponent(tableDir, component string) ([]string, error) {
	entries, err := os.ReadDir(tableDir)
	if err != nil {
		return nil, fmt.Errorf("discovery: unable to read table directory %s: %w", tableDir, err)
	}

	var groups []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), component) {
			continue
		}
		groups = append(groups, entry.Name())
	}
	sort.Strings(groups)
	return groups, nil
}
