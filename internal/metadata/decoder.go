package metadata

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sstsweep/sstsweep/internal/errors"
	"github.com/sstsweep/sstsweep/pkg/types"
)

// Decoder reads the metadata components of sstable file groups under one
// table directory. It is stateless apart from the directory path; Decode
// may run concurrently for independent file groups.
type Decoder struct {
	tableDir string
}

// NewDecoder creates a decoder for the given table directory.
func NewDecoder(tableDir string) *Decoder {
	return &Decoder{tableDir: tableDir}
}

// Decode builds a descriptor for the file group identified by name (a
// component filename, typically the TOC). It detects the on-disk format
// once from the filename, decodes the Summary and Statistics siblings,
// and returns a fully populated, immutable descriptor. Errors name the
// file the decode failed on.
func (dec *Decoder) Decode(name string) (*types.SSTableDescriptor, error) {
	format, err := types.DetectFormat(name)
	if err != nil {
		return nil, errors.UnsupportedFormat(name, err)
	}
	component, err := types.ComponentOf(name)
	if err != nil {
		return nil, errors.UnsupportedFormat(name, err)
	}

	summaryName := types.SiblingComponent(name, component, types.ComponentSummary)
	summaryBuf, err := dec.readComponent(summaryName)
	if err != nil {
		return nil, err
	}
	firstToken, lastToken, err := SummaryTokens(summaryBuf)
	if err != nil {
		return nil, attach(err, summaryName)
	}

	statsName := types.SiblingComponent(name, component, types.ComponentStatistics)
	statsBuf, err := dec.readComponent(statsName)
	if err != nil {
		return nil, err
	}
	stats, err := DecodeStatistics(statsBuf, format)
	if err != nil {
		return nil, attach(err, statsName)
	}

	return &types.SSTableDescriptor{
		Name:            name,
		MinTimestamp:    stats.MinTimestamp,
		MaxTimestamp:    stats.MaxTimestamp,
		MaxDeletionTime: stats.MaxDeletionTime,
		FirstToken:      firstToken,
		LastToken:       lastToken,
		LiveRows:        stats.LiveRows,
		DeadRows:        stats.DeadRows,
	}, nil
}

// DecodeRunIdentifier reads the ownership-run identifier for the file
// group identified by name, used by the layout report.
func (dec *Decoder) DecodeRunIdentifier(name string) (string, error) {
	component, err := types.ComponentOf(name)
	if err != nil {
		return "", errors.UnsupportedFormat(name, err)
	}
	scyllaName := types.SiblingComponent(name, component, types.ComponentScylla)
	buf, err := dec.readComponent(scyllaName)
	if err != nil {
		return "", err
	}
	id, err := RunIdentifier(buf)
	if err != nil {
		return "", attach(err, scyllaName)
	}
	return id.String(), nil
}

func (dec *Decoder) readComponent(name string) ([]byte, error) {
	buf, err := os.ReadFile(filepath.Join(dec.tableDir, name))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCategoryDecode, errors.CodeTruncatedInput,
			fmt.Sprintf("unable to retrieve metadata from file %s", name), err).WithFile(name)
	}
	return buf, nil
}

// attach names the offending file on a structured decode error, leaving
// other errors untouched apart from wrapping.
func attach(err error, file string) error {
	var se *errors.SweepError
	if stderrors.As(err, &se) {
		return se.WithFile(file)
	}
	return errors.Wrap(errors.ErrCategoryDecode, errors.CodeTruncatedInput,
		fmt.Sprintf("unable to retrieve metadata from file %s", file), err)
}
