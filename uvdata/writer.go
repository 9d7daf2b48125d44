package uvdata

import (
	"encoding/binary"
	"fmt"

	"github.com/miriadio/miriad"
	"github.com/miriadio/miriad/internal/core"
	"github.com/miriadio/miriad/internal/dsitem"
)

// WriteVar writes one variable's current value, emitting a SIZE record
// first if its element count has changed since the last write (§4.4.4).
// The variable is created on first use; writing an existing variable
// with a different type is a format error.
func (uv *UV) WriteVar(name string, typ core.Type, nvals int, data []byte) error {
	if uv.mode != miriad.ModeWrite {
		return fmt.Errorf("miriad: WriteVar on a read-mode UV codec")
	}
	if typ == core.TypeBinary {
		return fmt.Errorf("%w: UV variables cannot be binary-typed (%q)", core.ErrFormat, name)
	}
	if len(data) != nvals*typ.Size() {
		return fmt.Errorf("miriad: WriteVar data length %d does not match %d values of %v", len(data), nvals, typ)
	}

	v := uv.vars.byName(name)
	if v == nil {
		if err := dsitem.ValidateName(name, false); err != nil {
			return err
		}
		var err error
		v, err = uv.vars.add(name, typ)
		if err != nil {
			return err
		}
	} else if v.Type != typ {
		return fmt.Errorf("%w: variable %q was declared as %v, write_var called with %v", core.ErrFormat, name, v.Type, typ)
	}

	if err := uv.st.NudgeAlign(VisdataAlign); err != nil {
		return err
	}

	if nvals != v.nvals {
		if err := uv.writeRecordHeader(v.Ident, etypeSize); err != nil {
			return err
		}
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(nvals*typ.Size()))
		if err := uv.st.WriteRaw(lenBuf[:]); err != nil {
			return err
		}
		v.nvals = nvals
	}

	if err := uv.st.NudgeAlign(VisdataAlign); err != nil {
		return err
	}
	if err := uv.writeRecordHeader(v.Ident, etypeData); err != nil {
		return err
	}
	if err := uv.st.NudgeAlign(typ.Align()); err != nil {
		return err
	}
	if err := uv.st.WriteTyped(typ, nvals, data); err != nil {
		return err
	}
	v.cache = append(v.cache[:0], data...)
	return nil
}

// WriteEndRecord aligns to VisdataAlign and writes a single EOR header,
// marking the end of one correlation record.
func (uv *UV) WriteEndRecord() error {
	if uv.mode != miriad.ModeWrite {
		return fmt.Errorf("miriad: WriteEndRecord on a read-mode UV codec")
	}
	if err := uv.st.NudgeAlign(VisdataAlign); err != nil {
		return err
	}
	return uv.writeRecordHeader(0, etypeEOR)
}

// UpdateVartable writes the variable table out via an atomic replace of
// the vartable item and clears the dirty flag.
func (uv *UV) UpdateVartable() error {
	w, err := uv.ds.OpenItemForReplace(vartableItemName)
	if err != nil {
		return fmt.Errorf("miriad: opening vartable for replace: %w", err)
	}
	if err := writeVartable(w.Stream, uv.vars); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := uv.ds.FinishItemReplace(vartableItemName); err != nil {
		return err
	}
	uv.vars.dirty = false
	return nil
}

func (uv *UV) writeRecordHeader(ident, etype int) error {
	return uv.st.WriteRaw([]byte{byte(ident), 0, byte(etype), 0})
}
