// Package archive uploads quarantined sstable components to object
// storage after a successful reclamation move.
package archive

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/sstsweep/sstsweep/internal/errors"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// Uploader abstracts the object store write path. Implementations
// include S3 and an in-memory store for tests.
type Uploader interface {
	// Upload writes data under key.
	Upload(ctx context.Context, key string, data []byte) error
}

// Archiver copies the components of reclaimed sstable groups from the
// quarantine directory into object storage.
type Archiver struct {
	uploader Uploader
	prefix   string
	compress bool
}

// New creates an archiver writing under the given key prefix. When
// compress is set, component payloads are snappy-encoded and keys get a
// ".snappy" suffix.
func New(uploader Uploader, prefix string, compress bool) *Archiver {
	return &Archiver{uploader: uploader, prefix: prefix, compress: compress}
}

// ArchiveGroups uploads every present component of each named file
// group from quarantineDir. Missing optional components are skipped;
// a missing mandatory component here means the preceding move was
// incomplete and is an error.
func (a *Archiver) ArchiveGroups(ctx context.Context, quarantineDir string, names []string) error {
	for _, name := range names {
		component, err := types.ComponentOf(name)
		if err != nil {
			return errors.UnsupportedFormat(name, err)
		}
		for _, sibling := range types.Components() {
			f := types.SiblingComponent(name, component, sibling)
			data, err := os.ReadFile(filepath.Join(quarantineDir, f))
			if err != nil {
				if types.OptionalComponent(sibling) && os.IsNotExist(err) {
					continue
				}
				return errors.Wrap(errors.ErrCategoryArchive, errors.CodeUploadFailed,
					"unable to read quarantined component", err).WithFile(f)
			}

			key := path.Join(a.prefix, f)
			if a.compress {
				data = snappy.Encode(nil, data)
				key += ".snappy"
			}
			if err := a.uploader.Upload(ctx, key, data); err != nil {
				return errors.Wrap(errors.ErrCategoryArchive, errors.CodeUploadFailed,
					fmt.Sprintf("unable to upload %s", key), err).WithFile(f)
			}
		}
		log.Printf("archive: uploaded all components of sstable %s", name)
	}
	return nil
}
