package dsitem

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/miriadio/miriad/internal/core"
)

// ProbeResult describes a large item's inferred logical type (§4.3.6).
type ProbeResult struct {
	Type   core.Type
	NVals  int
	Inline []byte // not populated by ProbeLargeItem; always nil
}

// ErrNoSuchItem is returned by ProbeLargeItem when the file does not
// exist. Probe treats this as a normal "no such item" signal, not a
// format or I/O error.
var ErrNoSuchItem = errors.New("miriad: no such item")

// ProbeLargeItem inspects the first 4 bytes of a large item file and its
// size to classify it (§4.3.6):
//
//   - If the leading 4 bytes (big-endian int32) name a recognized type
//     code and (size - headerOffset) is an exact multiple of that type's
//     element size, the item is classified as that type.
//   - If the leading 4 bytes are all zero, the item is heterogeneous
//     binary of size-4 bytes.
//   - Otherwise, if all 4 leading bytes are printable ASCII, the item is
//     classified as text spanning the whole file.
//   - Otherwise, the item is reported as binary with zero elements.
func ProbeLargeItem(dir, name string) (ProbeResult, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path) //nolint:gosec // G304: item name validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ProbeResult{}, ErrNoSuchItem
		}
		return ProbeResult{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return ProbeResult{}, err
	}
	size := fi.Size()

	var head [4]byte
	if _, err := io.ReadFull(f, head[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ProbeResult{Type: core.TypeBinary, NVals: 0}, nil
		}
		return ProbeResult{}, err
	}

	code := int32(binary.BigEndian.Uint32(head[:]))
	if t := core.Type(code); t.Valid() {
		elemSize := t.Size()
		dataOffset := int64(core.HeaderDataOffset(t.Align()))
		rest := size - dataOffset
		if rest >= 0 && rest%int64(elemSize) == 0 {
			return ProbeResult{Type: t, NVals: int(rest / int64(elemSize))}, nil
		}
	}

	if head == [4]byte{0, 0, 0, 0} {
		return ProbeResult{Type: core.TypeBinary, NVals: int(size - 4)}, nil
	}

	if isPrintableASCII(head[:]) {
		return ProbeResult{Type: core.TypeText, NVals: int(size)}, nil
	}

	return ProbeResult{Type: core.TypeBinary, NVals: 0}, nil
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
