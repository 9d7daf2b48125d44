package miriad

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/miriadio/miriad/internal/core"
	"github.com/miriadio/miriad/internal/dsitem"
	"github.com/miriadio/miriad/internal/utils"
)

// maxSmallDataBytes is the largest alen a small item may have: its type
// code, any padding, and its packed values together (§4.3.2).
const maxSmallDataBytes = 64

// SetSmall stores name as a small item of the given type holding nvals
// values, encoded from data (host-order, tightly packed, nvals*t.Size()
// bytes). It returns StatusOK on success, or a closed-enum status
// describing why the write was refused (§6.3, §7) instead of an error —
// callers that want Go's usual error-handling idiom can still treat any
// non-StatusOK return as a failure.
func (d *Dataset) SetSmall(name string, t core.Type, nvals int, data []byte) SmallItemStatus {
	if !d.Writable() {
		return StatusInternalPerms
	}
	if err := dsitem.ValidateName(name, false); err != nil {
		return StatusItemName
	}
	if !t.Valid() {
		return StatusFormat
	}
	if nvals < 0 {
		return StatusFormat
	}
	want, err := utils.SafeMultiply(uint64(nvals), uint64(t.Size()))
	if err != nil || uint64(len(data)) != want {
		return StatusFormat
	}

	align := t.Align()
	dataOffset := core.HeaderDataOffset(align)
	if nvals > 0 && dataOffset+len(data) > maxSmallDataBytes {
		return StatusFormat
	}

	if d.Append() {
		if existing := d.small(name); existing != nil {
			return StatusInternalPerms
		}
	}

	encoded := append([]byte(nil), data...)
	core.InPlaceRecode(encoded, t, nvals)

	d.putSmall(&smallItem{name: name, typ: t, nvals: nvals, data: encoded})
	d.headerDirty = true
	return StatusOK
}

// getSmallBytes returns a copy of a small item's value bytes already
// converted back to host order, failing if it is absent or not of type
// want.
func (d *Dataset) getSmallBytes(name string, want core.Type) ([]byte, int, error) {
	it := d.small(name)
	if it == nil {
		return nil, 0, wrapError("get small item", fmt.Errorf("item %q: %s", name, StatusNonexistent))
	}
	if it.typ != want {
		return nil, 0, wrapError("get small item", fmt.Errorf("item %q has type %v, want %v", name, it.typ, want))
	}
	out := append([]byte(nil), it.data...)
	core.InPlaceRecode(out, it.typ, it.nvals)
	return out, it.nvals, nil
}

// GetI64 returns a small item's single value widened to int64. The item
// must hold exactly one value, and its stored type must be one of the
// integer types.
func (d *Dataset) GetI64(name string) (int64, error) {
	it := d.small(name)
	if it == nil {
		return 0, wrapError("get i64", fmt.Errorf("item %q: %s", name, StatusNonexistent))
	}
	if it.nvals != 1 {
		return 0, wrapError("get i64", fmt.Errorf("item %q has %d values, want 1", name, it.nvals))
	}
	if !core.CanWiden(it.typ, core.TypeInt64) {
		return 0, wrapError("get i64", fmt.Errorf("item %q has non-integer type %v", name, it.typ))
	}
	buf := append([]byte(nil), it.data[:it.typ.Size()]...)
	core.InPlaceRecode(buf, it.typ, 1)
	switch it.typ {
	case core.TypeInt8:
		return int64(int8(buf[0])), nil
	case core.TypeInt16:
		return int64(int16(binary.NativeEndian.Uint16(buf))), nil
	case core.TypeInt32:
		return int64(int32(binary.NativeEndian.Uint32(buf))), nil
	case core.TypeInt64:
		return int64(binary.NativeEndian.Uint64(buf)), nil
	default:
		return 0, wrapError("get i64", fmt.Errorf("item %q has non-integer type %v", name, it.typ))
	}
}

// GetF64 returns a small item's single value widened to float64. The item
// must hold exactly one value, and its stored type must be an integer or
// floating-point type.
func (d *Dataset) GetF64(name string) (float64, error) {
	it := d.small(name)
	if it == nil {
		return 0, wrapError("get f64", fmt.Errorf("item %q: %s", name, StatusNonexistent))
	}
	if it.nvals != 1 {
		return 0, wrapError("get f64", fmt.Errorf("item %q has %d values, want 1", name, it.nvals))
	}
	if !core.CanWiden(it.typ, core.TypeFloat64) {
		return 0, wrapError("get f64", fmt.Errorf("item %q has non-numeric type %v", name, it.typ))
	}
	buf := append([]byte(nil), it.data[:it.typ.Size()]...)
	core.InPlaceRecode(buf, it.typ, 1)
	switch it.typ {
	case core.TypeInt8:
		return float64(int8(buf[0])), nil
	case core.TypeInt16:
		return float64(int16(binary.NativeEndian.Uint16(buf))), nil
	case core.TypeInt32:
		return float64(int32(binary.NativeEndian.Uint32(buf))), nil
	case core.TypeInt64:
		return float64(binary.NativeEndian.Uint64(buf)), nil
	case core.TypeFloat32:
		return float64(math.Float32frombits(binary.NativeEndian.Uint32(buf))), nil
	case core.TypeFloat64:
		return math.Float64frombits(binary.NativeEndian.Uint64(buf)), nil
	default:
		return 0, wrapError("get f64", fmt.Errorf("item %q has non-numeric type %v", name, it.typ))
	}
}

// GetSmallString returns a small text item's value as a string.
func (d *Dataset) GetSmallString(name string) (string, error) {
	data, _, err := d.getSmallBytes(name, core.TypeText)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetI64 stores name as a single int64 small item.
func (d *Dataset) SetI64(name string, v int64) SmallItemStatus {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], uint64(v))
	return d.SetSmall(name, core.TypeInt64, 1, buf[:])
}

// SetF64 stores name as a single float64 small item.
func (d *Dataset) SetF64(name string, v float64) SmallItemStatus {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], math.Float64bits(v))
	return d.SetSmall(name, core.TypeFloat64, 1, buf[:])
}

// SetSmallString stores name as a text small item.
func (d *Dataset) SetSmallString(name, v string) SmallItemStatus {
	return d.SetSmall(name, core.TypeText, len(v), []byte(v))
}
