package miriad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/miriadio/miriad/internal/core"
	"github.com/miriadio/miriad/internal/dsitem"
	"github.com/miriadio/miriad/internal/iostream"
)

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// headerRecSize is the alignment every packed header record (plus its
// data) is padded to (§4.3.2, DS_HEADER_RECSIZE).
const headerRecSize = 16

// nameFieldSize is the fixed on-disk width of a header record's name
// field; byte index 8 must be NUL (the name itself lives in bytes 0..7).
const nameFieldSize = 15

// smallItems stores their value bytes already converted to on-disk
// big-endian order; this lets the header writer WriteRaw them directly
// (no double recode) and lets SetSmall/GetI64/etc. convert exactly once,
// at the API boundary, in each direction.

// parseHeader reads every packed record out of the dataset's header item
// into d.items. A missing header file (e.g. a bare directory that has
// never been written) is treated as an empty header, not a format error.
func (d *Dataset) parseHeader() error {
	f, err := dsitem.OpenForRead(d.dir, dsitem.HeaderName)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return wrapError("parse header", err)
	}
	defer f.Close()

	st, err := iostream.Open(iostream.ModeRead, f, 0, 0)
	if err != nil {
		return wrapError("parse header", err)
	}
	defer st.Close()

	for {
		head, err := st.FetchTemp(nameFieldSize + 1)
		if err != nil {
			return wrapError("parse header", err)
		}
		if len(head) == 0 {
			return nil // clean EOF between records
		}
		if len(head) != nameFieldSize+1 {
			return wrapError("parse header", fmt.Errorf("%w: short header record (%d bytes)", core.ErrFormat, len(head)))
		}

		if head[8] != 0 {
			return wrapError("parse header", fmt.Errorf("%w: header name field byte 8 is not NUL", core.ErrFormat))
		}
		name := nulTrimmedName(head[:8])
		alen := int(head[nameFieldSize])
		if alen != 0 && (alen < 5 || alen > 64) {
			return wrapError("parse header", fmt.Errorf("%w: header alen %d out of range", core.ErrFormat, alen))
		}

		item := &smallItem{name: name}
		if alen > 0 {
			codeBytes, err := st.FetchTemp(4)
			if err != nil {
				return wrapError("parse header", err)
			}
			if len(codeBytes) != 4 {
				return wrapError("parse header", fmt.Errorf("%w: short header type code", core.ErrFormat))
			}
			code := int32(binary.BigEndian.Uint32(codeBytes))
			t, err := core.ParseTypeCode(code)
			if err != nil {
				return wrapError("parse header", err)
			}
			if t == core.TypeInt8 {
				// A same-file disambiguation between text and int8 is not
				// possible; text wins for header-loaded small items.
				t = core.TypeText
			}
			align := t.Align()
			dataOffset := core.HeaderDataOffset(align)
			pad := dataOffset - 4
			if pad > 0 {
				padBytes, err := st.FetchTemp(pad)
				if err != nil {
					return wrapError("parse header", err)
				}
				if len(padBytes) != pad {
					return wrapError("parse header", fmt.Errorf("%w: short header padding", core.ErrFormat))
				}
			}
			dataLen := alen - dataOffset
			if dataLen < 0 {
				return wrapError("parse header", fmt.Errorf("%w: header alen %d too small for type %v", core.ErrFormat, alen, t))
			}
			size := t.Size()
			if dataLen%size != 0 {
				return wrapError("parse header", fmt.Errorf("%w: header data length %d not a multiple of element size %d", core.ErrFormat, dataLen, size))
			}
			dataBytes, err := st.FetchTemp(dataLen)
			if err != nil {
				return wrapError("parse header", err)
			}
			if len(dataBytes) != dataLen {
				return wrapError("parse header", fmt.Errorf("%w: short header data", core.ErrFormat))
			}
			item.typ = t
			item.nvals = dataLen / size
			item.data = append([]byte(nil), dataBytes...)
		} else {
			item.typ = core.TypeBinary
			item.nvals = 0
		}

		if err := st.NudgeAlign(headerRecSize); err != nil {
			return wrapError("parse header", err)
		}
		d.putSmall(item)
	}
}

// writeHeader writes every small item out as a packed header, atomically
// replacing the header file (§4.3.3).
func (d *Dataset) writeHeader() error {
	f, err := dsitem.OpenForReplace(d.dir, dsitem.HeaderName)
	if err != nil {
		return wrapError("write header", err)
	}
	st, err := iostream.Open(iostream.ModeWrite, f, 0, 0)
	if err != nil {
		_ = f.Close()
		return wrapError("write header", err)
	}

	for _, item := range d.items {
		if err := st.NudgeAlign(headerRecSize); err != nil {
			_ = st.Close()
			return wrapError("write header", err)
		}

		var nameBuf [nameFieldSize]byte
		copy(nameBuf[:8], item.name)
		if err := st.WriteRaw(nameBuf[:]); err != nil {
			_ = st.Close()
			return wrapError("write header", err)
		}

		diskType := item.typ.DiskCode()
		align := item.typ.Align()
		dataOffset := core.HeaderDataOffset(align)

		var alen byte
		if item.nvals > 0 {
			alen = byte(dataOffset + len(item.data))
		}
		if err := st.WriteRaw([]byte{alen}); err != nil {
			_ = st.Close()
			return wrapError("write header", err)
		}

		if alen > 0 {
			var codeBuf [4]byte
			binary.BigEndian.PutUint32(codeBuf[:], uint32(int32(diskType)))
			if err := st.WriteRaw(codeBuf[:]); err != nil {
				_ = st.Close()
				return wrapError("write header", err)
			}
			if pad := dataOffset - 4; pad > 0 {
				if err := st.WriteRaw(make([]byte, pad)); err != nil {
					_ = st.Close()
					return wrapError("write header", err)
				}
			}
			if err := st.WriteRaw(item.data); err != nil {
				_ = st.Close()
				return wrapError("write header", err)
			}
		}
	}

	if err := st.Close(); err != nil {
		return wrapError("write header", err)
	}
	if err := dsitem.FinishReplace(d.dir, dsitem.HeaderName, false); err != nil {
		return wrapError("write header", err)
	}
	d.headerDirty = false
	return nil
}

// WriteHeader forces an immediate header rewrite, independent of Close.
func (d *Dataset) WriteHeader() error {
	if !d.Writable() {
		return wrapError("write header", fmt.Errorf("dataset is not writable"))
	}
	return d.writeHeader()
}

func nulTrimmedName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
