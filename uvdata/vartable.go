package uvdata

import (
	"fmt"

	"github.com/miriadio/miriad/internal/core"
	"github.com/miriadio/miriad/internal/iostream"
	"github.com/miriadio/miriad/internal/utils"
)

// maxVartableLineLen is "X SP NAME LF" with an 8-byte name: 1+1+8+1.
const maxVartableLineLen = 11

// glyphToType maps a vartable line's leading type letter to a Type. The
// eight letters §4.4.1 names for declared variables are here, plus '?'
// (binary): §8's boundary cases require a line like "? xxxxxxxx\n" to
// parse successfully even though no variable the write path creates is
// ever binary-typed (WriteVar rejects that explicitly) — the parser
// itself is permissive about any of the nine type glyphs from §3.
var glyphToType = map[byte]core.Type{
	'?': core.TypeBinary,
	'b': core.TypeInt8,
	'j': core.TypeInt16,
	'i': core.TypeInt32,
	'l': core.TypeInt64,
	'r': core.TypeFloat32,
	'd': core.TypeFloat64,
	'c': core.TypeComplex,
	'a': core.TypeText,
}

// readVartable reads and parses an entire vartable item off st (positioned
// at its start), returning a populated varTable. A vartable item that
// doesn't exist yet (nil st) yields an empty table.
func readVartable(st *iostream.Stream) (*varTable, error) {
	t := newVarTable()
	if st == nil {
		return t, nil
	}

	var buf []byte
	for {
		chunk, err := st.FetchTemp(st.BufSize())
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		buf = append(buf, chunk...)
		if err := utils.ValidateBufferSize(uint64(len(buf)), utils.MaxVartableBytes, "vartable"); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrFormat, err)
		}
	}

	start := 0
	for start < len(buf) {
		nl := indexByte(buf[start:], '\n')
		var line []byte
		if nl < 0 {
			// A final line with no trailing newline is accepted: EOF acts
			// as the terminator.
			line = buf[start:]
			start = len(buf)
		} else {
			line = buf[start : start+nl]
			start += nl + 1
		}

		if len(line)+1 > maxVartableLineLen {
			return nil, fmt.Errorf("%w: vartable line too long (%d bytes)", core.ErrFormat, len(line)+1)
		}
		if len(line) < 3 || line[1] != ' ' {
			return nil, fmt.Errorf("%w: malformed vartable line %q", core.ErrFormat, line)
		}
		typ, ok := glyphToType[line[0]]
		if !ok {
			return nil, fmt.Errorf("%w: unknown vartable type code %q", core.ErrFormat, line[0])
		}
		name := string(line[2:])
		if len(name) == 0 || len(name) > 8 {
			return nil, fmt.Errorf("%w: vartable name %q must be 1-8 bytes", core.ErrFormat, name)
		}
		if t.byName(name) != nil {
			return nil, fmt.Errorf("%w: duplicate vartable name %q", core.ErrFormat, name)
		}
		if _, err := t.add(name, typ); err != nil {
			return nil, err
		}
	}
	t.dirty = false
	return t, nil
}

// writeVartable serializes t onto st in ident order, one line per
// variable.
func writeVartable(st *iostream.Stream, t *varTable) error {
	for _, v := range t.vars {
		line := fmt.Sprintf("%c %s\n", v.Type.Glyph(), v.Name)
		if err := st.WriteRaw([]byte(line)); err != nil {
			return err
		}
	}
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}
