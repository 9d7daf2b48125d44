package miriad

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/miriadio/miriad/internal/core"
	"github.com/miriadio/miriad/internal/dsitem"
	"github.com/miriadio/miriad/internal/iostream"
	"github.com/miriadio/miriad/internal/mask"
)

// ItemKind distinguishes a small (header-resident) item from a large
// (separate-file) item in ListItems' results.
type ItemKind int

const (
	// ItemSmall is a packed header record.
	ItemSmall ItemKind = iota
	// ItemLarge is a separate file under the dataset directory.
	ItemLarge
)

// ItemInfo describes one entry returned by ListItems.
type ItemInfo struct {
	Name string
	Kind ItemKind
}

// ListItems enumerates every item in the dataset: small items in the
// order they appear in the in-memory header, followed by large item
// files (§4.3.5). The header's reserved name and any in-flight
// replacement files are never listed. A directory entry that collides
// with a small-item name violates the "at most one of small_items[N]
// or file N" invariant (§3) and is a format error, not a silent
// shadow or a duplicate listing.
func (d *Dataset) ListItems() ([]ItemInfo, error) {
	out := make([]ItemInfo, 0, len(d.items))
	for _, it := range d.items {
		out = append(out, ItemInfo{Name: it.name, Kind: ItemSmall})
	}
	large, err := dsitem.ListDirEntries(d.dir)
	if err != nil {
		return nil, wrapError("list items", err)
	}
	for _, name := range large {
		if len(name) <= dsitem.MaxNameLen {
			if _, ok := d.index[name]; ok {
				return nil, wrapError("list items", fmt.Errorf("%w: item %q exists both as a small item and as a file", core.ErrFormat, name))
			}
		}
		out = append(out, ItemInfo{Name: name, Kind: ItemLarge})
	}
	return out, nil
}

// ProbeItem classifies an item without fully reading it: small items
// report their stored type/nvals directly; large items are sniffed per
// §4.3.6. Returns StatusNonexistent wrapped as an error if name is
// neither a small nor a large item.
func (d *Dataset) ProbeItem(name string) (core.Type, int, error) {
	if it := d.small(name); it != nil {
		return it.typ, it.nvals, nil
	}
	res, err := dsitem.ProbeLargeItem(d.dir, name)
	if err != nil {
		if err == dsitem.ErrNoSuchItem {
			return 0, 0, wrapError("probe item", fmt.Errorf("item %q: %s", name, StatusNonexistent))
		}
		return 0, 0, wrapError("probe item", err)
	}
	return res.Type, res.NVals, nil
}

// ItemReader is a buffered, type-recoding read handle onto a large item.
type ItemReader struct {
	*iostream.Stream
}

// ItemWriter is a buffered, type-recoding write handle onto a large item.
type ItemWriter struct {
	*iostream.Stream
}

// OpenItemRead opens an existing large item for buffered reading.
func (d *Dataset) OpenItemRead(name string) (*ItemReader, error) {
	if err := dsitem.ValidateName(name, false); err != nil {
		return nil, wrapError("open item", err)
	}
	f, err := dsitem.OpenForRead(d.dir, name)
	if err != nil {
		return nil, wrapError("open item", err)
	}
	st, err := iostream.Open(iostream.ModeRead, f, 0, 0)
	if err != nil {
		_ = f.Close()
		return nil, wrapError("open item", err)
	}
	return &ItemReader{st}, nil
}

// OpenItemWrite opens a large item for buffered writing. truncate
// selects O_TRUNC|O_CREAT (fresh or overwritten item); otherwise the
// item is opened for append (§4.3.7) and must already exist.
func (d *Dataset) OpenItemWrite(name string, truncate bool) (*ItemWriter, error) {
	if !d.Writable() {
		return nil, wrapError("open item", fmt.Errorf("dataset is not writable"))
	}
	if err := dsitem.ValidateName(name, false); err != nil {
		return nil, wrapError("open item", err)
	}
	opts := dsitem.WriteOpts{Truncate: truncate, Append: !truncate, CreateOK: truncate}
	f, err := dsitem.OpenForWrite(d.dir, name, opts)
	if err != nil {
		return nil, wrapError("open item", err)
	}
	st, err := iostream.Open(iostream.ModeWrite, f, 0, 0)
	if err != nil {
		_ = f.Close()
		return nil, wrapError("open item", err)
	}
	return &ItemWriter{st}, nil
}

// OpenItemForReplace opens "<name>+new" for an atomic whole-item rewrite;
// call FinishItemReplace after closing the returned writer to publish it.
func (d *Dataset) OpenItemForReplace(name string) (*ItemWriter, error) {
	if !d.Writable() {
		return nil, wrapError("open item", fmt.Errorf("dataset is not writable"))
	}
	if err := dsitem.ValidateName(name, false); err != nil {
		return nil, wrapError("open item", err)
	}
	f, err := dsitem.OpenForReplace(d.dir, name)
	if err != nil {
		return nil, wrapError("open item", err)
	}
	st, err := iostream.Open(iostream.ModeWrite, f, 0, 0)
	if err != nil {
		_ = f.Close()
		return nil, wrapError("open item", err)
	}
	return &ItemWriter{st}, nil
}

// FinishItemReplace renames "<name>+new" to name, completing the atomic
// rewrite started by OpenItemForReplace. The writer must already be
// closed.
func (d *Dataset) FinishItemReplace(name string) error {
	return wrapError("finish item replace", dsitem.FinishReplace(d.dir, name, true))
}

// RenameItem renames a large item within the dataset directory.
func (d *Dataset) RenameItem(oldName, newName string) error {
	if !d.Writable() {
		return wrapError("rename item", fmt.Errorf("dataset is not writable"))
	}
	return wrapError("rename item", dsitem.Rename(d.dir, oldName, newName))
}

// OpenMask opens name as a mask item, returning a bit-expansion reader
// positioned at its first word (§4.5/§6.1): nothing but a sequence of
// big-endian 32-bit words, read straight off the dataset's buffered
// stream without ever loading the item whole into memory. name must
// already exist as a large item (a mask is always stored as a large
// item, never a small one). Use OpenCompressedMask instead when name is
// known to have been written pre-compressed by an external tool.
func (d *Dataset) OpenMask(name string) (*mask.Reader, error) {
	if err := dsitem.ValidateName(name, false); err != nil {
		return nil, wrapError("open mask", err)
	}
	ir, err := d.OpenItemRead(name)
	if err != nil {
		return nil, err
	}
	return mask.NewReader(ir.Stream), nil
}

// OpenCompressedMask opens name as a mask item the caller already knows
// was written pre-compressed by an external tool (zstd or zlib-wrapped
// flate, dispatched on its magic prefix), transparently decompressing
// it before returning a bit-expansion reader over the result. Unlike
// OpenMask, this always reads the whole item into memory up front,
// since the decompressor needs the complete compressed stream; callers
// must not use it on an ordinary, uncompressed mask item, since a
// legitimate 31-bit payload word can coincidentally match a compression
// magic and OpenCompressedMask never checks that name is actually
// compressed before handing it to the decompressor.
func (d *Dataset) OpenCompressedMask(name string) (*mask.Reader, error) {
	if err := dsitem.ValidateName(name, false); err != nil {
		return nil, wrapError("open compressed mask", err)
	}
	raw, err := os.ReadFile(filepath.Join(d.dir, name)) //nolint:gosec // G304: name validated above
	if err != nil {
		return nil, wrapError("open compressed mask", err)
	}
	dec, err := mask.Decompress(raw)
	if err != nil {
		return nil, wrapError("open compressed mask", err)
	}
	return mask.NewReaderFromBytes(dec), nil
}
