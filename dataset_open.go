package miriad

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Open opens a MIRIAD dataset directory at path (§4.3.1). mode must be
// ModeRead or ModeWrite; there is no read-write mode. flags is a bitwise
// OR of OpenFlags.
//
// Whole-dataset writes are always readable too: a write-only open is not
// a distinct mode. FlagExistBad implies FlagCreateOK and fails if the
// directory already exists. On any error during Open, the partial
// Dataset is closed and freed before the error is returned.
func Open(path string, mode Mode, flags OpenFlags) (ds *Dataset, err error) {
	if flags&FlagExistBad != 0 {
		flags |= FlagCreateOK
	}

	d := &Dataset{
		dir:   path,
		mode:  mode,
		flags: flags,
		index: make(map[string]int),
	}
	defer func() {
		if err != nil {
			_ = d.Close()
			ds = nil
		}
	}()

	created := false
	if flags&FlagCreateOK != 0 {
		if mode != ModeWrite {
			return nil, wrapError("open", errors.New("FlagCreateOK requires ModeWrite"))
		}
		mkErr := os.Mkdir(path, 0755)
		switch {
		case mkErr == nil:
			created = true
		case errors.Is(mkErr, os.ErrExist):
			if flags&FlagExistBad != 0 {
				return nil, wrapError("open", fmt.Errorf("dataset %q already exists", path))
			}
		default:
			return nil, wrapError("open", mkErr)
		}
	} else {
		fi, statErr := os.Stat(path)
		if statErr != nil {
			return nil, wrapError("open", statErr)
		}
		if !fi.IsDir() {
			return nil, wrapError("open", fmt.Errorf("%q is not a directory", path))
		}
	}

	if created {
		d.headerDirty = true
		return d, nil
	}

	if mode == ModeWrite && flags&FlagTruncate != 0 {
		if err := truncateDir(path); err != nil {
			return nil, wrapError("open", err)
		}
		d.headerDirty = true
		return d, nil
	}

	if err := d.parseHeader(); err != nil {
		return nil, err
	}
	return d, nil
}

// truncateDir unlinks every file directly under dir (used by ModeWrite |
// FlagTruncate to reset an existing dataset, §4.3.1).
func truncateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes a dirty header (writing it if necessary), then frees the
// dataset's in-memory state. Safe to call on a nil *Dataset and safe to
// call more than once.
func (d *Dataset) Close() error {
	if d == nil {
		return nil
	}
	var err error
	if d.headerDirty && d.mode == ModeWrite {
		err = d.writeHeader()
	}
	d.items = nil
	d.index = nil
	return err
}

// HasItem reports whether name exists, either as a small item or as a
// large item file.
func (d *Dataset) HasItem(name string) bool {
	if d.small(name) != nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(d.dir, name)); err == nil {
		return true
	}
	return false
}
