package core

import (
	"encoding/binary"
	"fmt"
)

// hostIsBigEndian is computed once at package init via encoding/binary's
// native-order codec, avoiding any unsafe pointer games.
var hostIsBigEndian = func() bool {
	var buf [2]byte
	binary.NativeEndian.PutUint16(buf[:], 0x0102)
	return buf[0] == 0x01
}()

// elemSize returns the per-element byte-swap granularity for t. Complex64
// is swapped as two independent 4-byte float32 halves (§4.1).
func elemSize(t Type) int {
	if t == TypeComplex {
		return 4
	}
	return t.Size()
}

// CopyRecode copies n elements of type t from src to dst, converting
// between host order and big-endian (the on-disk order) as it goes. dst
// and src must each be at least n*t.Size() bytes and must not overlap.
// A zero count is always valid and a no-op.
func CopyRecode(dst, src []byte, t Type, n int) error {
	if n == 0 {
		return nil
	}
	size := t.Size()
	if size == 0 {
		return fmt.Errorf("%w: recode of unknown type %v", ErrFormat, t)
	}
	nbytes := n * size
	if len(src) < nbytes || len(dst) < nbytes {
		return fmt.Errorf("miriad: recode buffer too small for %d elements of %v", n, t)
	}
	copy(dst[:nbytes], src[:nbytes])
	return InPlaceRecode(dst[:nbytes], t, n)
}

// InPlaceRecode byte-swaps n elements of type t in place, converting
// between host order and big-endian. For 1-byte types this is a no-op. A
// zero count is always valid and a no-op.
func InPlaceRecode(buf []byte, t Type, n int) error {
	if n == 0 {
		return nil
	}
	size := t.Size()
	if size == 0 {
		return fmt.Errorf("%w: recode of unknown type %v", ErrFormat, t)
	}
	if len(buf) < n*size {
		return fmt.Errorf("miriad: recode buffer too small for %d elements of %v", n, t)
	}
	if !hostIsBigEndian {
		es := elemSize(t)
		if es > 1 {
			swapElements(buf[:n*size], es)
		}
	}
	return nil
}

// swapElements reverses the byte order of every es-byte chunk in buf.
func swapElements(buf []byte, es int) {
	for off := 0; off+es <= len(buf); off += es {
		chunk := buf[off : off+es]
		for i, j := 0, es-1; i < j; i, j = i+1, j-1 {
			chunk[i], chunk[j] = chunk[j], chunk[i]
		}
	}
}
