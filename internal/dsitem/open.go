package dsitem

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteOpts controls how OpenForWrite opens a large item file (§4.3.7).
// Exactly one of Truncate or Append must be set.
type WriteOpts struct {
	Truncate bool
	Append   bool
	CreateOK bool // O_CREAT: used by the atomic-replace path and by fresh items
	ExistBad bool // O_EXCL: fail if the file already exists
}

// OpenForRead opens name under dir for buffered reading (O_RDONLY).
func OpenForRead(dir, name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, name), rawRDONLY, 0)
}

// OpenForWrite opens name under dir for buffered writing, deriving the
// real open flags from opts. Exactly one of Truncate/Append must be set;
// violating that is a programmer error and returns an error rather than
// silently picking one.
func OpenForWrite(dir, name string, opts WriteOpts) (*os.File, error) {
	if opts.Truncate == opts.Append {
		return nil, fmt.Errorf("miriad: exactly one of truncate or append must be set for item %q", name)
	}

	flags := rawWRONLY
	if opts.CreateOK {
		flags |= rawCREAT
	}
	if opts.ExistBad {
		flags |= rawEXCL
	}
	if opts.Truncate {
		flags |= rawTRUNC
	}
	if opts.Append {
		flags |= rawAPPEND
	}

	//nolint:gosec // G304: item name is validated by the caller before reaching here
	return os.OpenFile(filepath.Join(dir, name), flags, 0644)
}
