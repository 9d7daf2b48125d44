// Package miriad reads and writes MIRIAD radio-astronomy visibility
// dataset directories: a packed big-endian header of small typed values
// plus zero or more large typed or opaque data files ("items").
package miriad

import (
	"github.com/miriadio/miriad/internal/core"
)

// Mode selects whether a Dataset is opened for reading or writing. There
// is no simultaneous read-write mode (spec Open Question 4): the
// interface simply never offers one.
type Mode int

const (
	// ModeRead opens an existing dataset read-only.
	ModeRead Mode = iota
	// ModeWrite opens a dataset for writing (always readable too — a
	// write-only open is never valid, §4.3.1).
	ModeWrite
)

// OpenFlags are combined with bitwise OR and passed to Open.
type OpenFlags uint8

const (
	// FlagCreateOK allows Open to create the dataset directory if it does
	// not already exist.
	FlagCreateOK OpenFlags = 1 << iota
	// FlagExistBad causes Open to fail if the dataset directory already
	// exists (implies FlagCreateOK).
	FlagExistBad
	// FlagTruncate unlinks every file in an existing dataset directory
	// before use.
	FlagTruncate
	// FlagAppend opens an existing dataset without permitting modification
	// of any existing small item.
	FlagAppend
)

// smallItem is one packed header record, held in memory for the life of
// the Dataset.
type smallItem struct {
	name  string
	typ   core.Type // logical type (Text is distinguished from Int8 here)
	nvals int
	data  []byte // raw big-endian on-disk bytes, len == nvals*typ.Size()
}

// Dataset is an open MIRIAD dataset directory.
type Dataset struct {
	dir   string
	mode  Mode
	flags OpenFlags

	items       []*smallItem
	index       map[string]int
	headerDirty bool
}

// small looks up a small item by name, or returns nil.
func (d *Dataset) small(name string) *smallItem {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	return d.items[i]
}

// putSmall inserts or replaces a small item, keeping index in sync.
func (d *Dataset) putSmall(item *smallItem) {
	if i, ok := d.index[item.name]; ok {
		d.items[i] = item
		return
	}
	d.index[item.name] = len(d.items)
	d.items = append(d.items, item)
}

// Writable reports whether the dataset was opened in write mode.
func (d *Dataset) Writable() bool {
	return d.mode == ModeWrite
}

// Append reports whether the dataset was opened in append mode (existing
// small items cannot be modified).
func (d *Dataset) Append() bool {
	return d.flags&FlagAppend != 0
}

// Dir returns the dataset's directory path.
func (d *Dataset) Dir() string {
	return d.dir
}
