package uvdata

import (
	"encoding/binary"
	"fmt"

	"github.com/miriadio/miriad/internal/core"
	"github.com/miriadio/miriad/internal/utils"
)

// EventKind classifies one event produced by ReadNext.
type EventKind int

const (
	// EventEOS is the clean end-of-stream pseudo-event (not written on
	// disk; produced by a zero-length fetch of the next record header).
	EventEOS EventKind = iota
	// EventSize is a SIZE record: var's upcoming DATA payload byte length
	// has just been declared.
	EventSize
	// EventData is a DATA record: var's current value has just been read
	// into its cache.
	EventData
	// EventEOR marks the end of one correlation record.
	EventEOR
)

// visdata on-disk record etype codes (§4.4.2).
const (
	etypeSize = 0
	etypeData = 1
	etypeEOR  = 2
)

// Event is one decoded visdata record, as returned by ReadNext.
type Event struct {
	Kind EventKind
	Var  *Variable
}

// ReadNext decodes the next visdata record (§4.4.3). At clean end of
// stream it returns an EventEOS event and a nil error; any on-disk
// violation is returned as an error wrapping core.ErrFormat.
func (uv *UV) ReadNext() (Event, error) {
	if uv.st == nil {
		return Event{}, fmt.Errorf("miriad: ReadNext on a write-mode UV codec")
	}

	head, err := uv.st.FetchTemp(4)
	if err != nil {
		return Event{}, err
	}
	if len(head) == 0 {
		return Event{Kind: EventEOS}, nil
	}
	if len(head) != 4 {
		return Event{}, fmt.Errorf("%w: short visdata record header (%d bytes)", core.ErrFormat, len(head))
	}
	varIdx := int(head[0])
	etype := int(head[2])

	var ev Event
	switch etype {
	case etypeSize:
		v := uv.vars.byIdent(varIdx)
		if varIdx >= MaxVariables || v == nil {
			return Event{}, fmt.Errorf("%w: SIZE record references unknown variable %d", core.ErrFormat, varIdx)
		}
		raw, err := uv.st.FetchTemp(4)
		if err != nil {
			return Event{}, err
		}
		if len(raw) != 4 {
			return Event{}, fmt.Errorf("%w: short SIZE record body", core.ErrFormat)
		}
		nbytes := int32(binary.BigEndian.Uint32(raw))
		size := v.Type.Size()
		if nbytes < 0 || size == 0 || int(nbytes)%size != 0 {
			return Event{}, fmt.Errorf("%w: SIZE record byte count %d not a multiple of element size %d", core.ErrFormat, nbytes, size)
		}
		nvals := int(nbytes) / size
		if nvals > utils.MaxVisRecordElements {
			return Event{}, fmt.Errorf("%w: SIZE record declares %d elements for variable %q, exceeding the sanity bound", core.ErrFormat, nvals, v.Name)
		}
		v.nvals = nvals
		v.cache = make([]byte, nbytes)
		ev = Event{Kind: EventSize, Var: v}

	case etypeData:
		v := uv.vars.byIdent(varIdx)
		if varIdx >= MaxVariables || v == nil {
			return Event{}, fmt.Errorf("%w: DATA record references unknown variable %d", core.ErrFormat, varIdx)
		}
		if v.nvals < 0 {
			return Event{}, fmt.Errorf("%w: DATA record for variable %q with no preceding SIZE record", core.ErrFormat, v.Name)
		}
		if err := uv.st.NudgeAlign(v.Type.Align()); err != nil {
			return Event{}, err
		}
		n, err := uv.st.ReadInto(v.Type, v.nvals, v.cache)
		if err != nil {
			return Event{}, err
		}
		if n != v.nvals {
			return Event{}, fmt.Errorf("%w: short DATA read for variable %q: got %d of %d elements", core.ErrFormat, v.Name, n, v.nvals)
		}
		ev = Event{Kind: EventData, Var: v}

	case etypeEOR:
		ev = Event{Kind: EventEOR}

	default:
		return Event{}, fmt.Errorf("%w: unknown visdata record etype %d", core.ErrFormat, etype)
	}

	if err := uv.st.NudgeAlign(VisdataAlign); err != nil {
		return Event{}, err
	}
	return ev, nil
}
