package mask

import (
	"bufio"
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Recognized compressed-stream magics for a mask item a caller has
// already declared was written pre-compressed by an external tool (see
// Dataset.OpenCompressedMask). A plain §4.5 mask item has no such
// declaration attached to it and is never sniffed against these: its
// words are ordinary 31-bit payloads and a legitimate one can equal
// either magic by coincidence.
var (
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	flateMagic = []byte{0x78, 0x9c} // zlib-wrapped deflate, common default level
)

// Decompress decompresses raw, the complete contents of a mask item the
// caller has already identified as pre-compressed, dispatching on its
// magic prefix. It returns an error if raw's prefix matches neither
// recognized codec.
func Decompress(raw []byte) (io.Reader, error) {
	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("miriad: opening zstd-compressed mask item: %w", err)
		}
		return dec, nil
	case bytes.HasPrefix(raw, flateMagic):
		zr := flate.NewReader(bufio.NewReader(bytes.NewReader(raw[2:])))
		return zr, nil
	default:
		return nil, fmt.Errorf("miriad: compressed mask item has unrecognized magic prefix")
	}
}
