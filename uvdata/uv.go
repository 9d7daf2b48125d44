package uvdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/miriadio/miriad"
	"github.com/miriadio/miriad/internal/iostream"
)

// vartableItemName and visdataItemName are the two large items a UV
// codec instance manages on top of a Dataset.
const (
	vartableItemName = "vartable"
	visdataItemName  = "visdata"
)

// UV is a streaming UV-data codec bound to one Dataset, read xor write
// (§4.4.5).
type UV struct {
	ds   *miriad.Dataset
	mode miriad.Mode

	vars *varTable

	st *iostream.Stream // visdata stream, read or write mode
	vw *miriad.ItemWriter
	vr *miriad.ItemReader
}

// Alloc constructs an unopened UV codec value. Open must be called
// before use; Alloc exists only to mirror the allocate-then-open split
// other handles in this library use.
func Alloc() *UV {
	return &UV{}
}

// Open binds uv to ds's vartable and visdata items (§4.4.5). ModeWrite
// needs a writable ds; ModeRead works on a dataset opened in either
// mode. The vartable is read for ModeRead, or for
// ModeWrite with an existing visdata item (append); a write+truncate
// open, or a fresh write dataset with no prior visdata, starts with an
// empty variable set.
func Open(ds *miriad.Dataset, mode miriad.Mode, flags miriad.OpenFlags) (uv *UV, err error) {
	uv = &UV{ds: ds, mode: mode}
	defer func() {
		if err != nil {
			_ = uv.Close()
			uv = nil
		}
	}()

	switch mode {
	case miriad.ModeRead:
		uv.vars, err = uv.loadVartable()
		if err != nil {
			return nil, err
		}
		uv.vr, err = ds.OpenItemRead(visdataItemName)
		if err != nil {
			return nil, fmt.Errorf("miriad: opening visdata: %w", err)
		}
		uv.st = uv.vr.Stream

	case miriad.ModeWrite:
		truncate := flags&miriad.FlagTruncate != 0 || !ds.HasItem(visdataItemName)
		if truncate {
			uv.vars = newVarTable()
		} else {
			uv.vars, err = uv.loadVartable()
			if err != nil {
				return nil, err
			}
			// The new stream aligns records relative to its own start, so
			// zero-pad the existing item out to a VisdataAlign boundary.
			if fi, serr := os.Stat(filepath.Join(ds.Dir(), visdataItemName)); serr == nil && fi.Size()%VisdataAlign != 0 {
				pw, perr := ds.OpenItemWrite(visdataItemName, false)
				if perr == nil {
					perr = pw.WriteRaw(make([]byte, VisdataAlign-fi.Size()%VisdataAlign))
					if cerr := pw.Close(); perr == nil {
						perr = cerr
					}
				}
				if perr != nil {
					return nil, fmt.Errorf("miriad: padding visdata for append: %w", perr)
				}
			}
		}
		uv.vw, err = ds.OpenItemWrite(visdataItemName, truncate)
		if err != nil {
			return nil, fmt.Errorf("miriad: opening visdata: %w", err)
		}
		uv.st = uv.vw.Stream

	default:
		return nil, fmt.Errorf("miriad: unknown UV mode %d", mode)
	}

	return uv, nil
}

// loadVartable reads the vartable item if it exists, or returns an
// empty table (a dataset that has never held UV data has no vartable
// item yet, which is not a format error).
func (uv *UV) loadVartable() (*varTable, error) {
	if !uv.ds.HasItem(vartableItemName) {
		return newVarTable(), nil
	}
	r, err := uv.ds.OpenItemRead(vartableItemName)
	if err != nil {
		if os.IsNotExist(err) {
			return newVarTable(), nil
		}
		return nil, fmt.Errorf("miriad: opening vartable: %w", err)
	}
	defer r.Close()
	return readVartable(r.Stream)
}

// ListVars returns every variable in ident order.
func (uv *UV) ListVars() []*Variable {
	return uv.vars.List()
}

// QueryVar looks up a variable by name, or returns nil.
func (uv *UV) QueryVar(name string) *Variable {
	return uv.vars.byName(name)
}

// Close flushes a dirty vartable (§4.4.4), closes the visdata stream,
// and frees the variable cache. Safe to call on a nil *UV, and safe to
// call more than once.
func (uv *UV) Close() error {
	if uv == nil {
		return nil
	}
	var err error
	if uv.vars != nil && uv.vars.dirty && uv.mode == miriad.ModeWrite {
		err = uv.UpdateVartable()
	}
	switch {
	case uv.vw != nil:
		if cerr := uv.vw.Close(); err == nil {
			err = cerr
		}
		uv.vw = nil
	case uv.vr != nil:
		if cerr := uv.vr.Close(); err == nil {
			err = cerr
		}
		uv.vr = nil
	}
	uv.st = nil
	uv.vars = nil
	return err
}
