// Package mask implements the bit-expansion reader for MIRIAD mask items:
// a packed bitstream where each big-endian 32-bit word carries 31 payload
// bits (bit 31 is unused).
package mask

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/miriadio/miriad/internal/core"
	"github.com/miriadio/miriad/internal/iostream"
)

// bitsPerWord is the number of payload bits per 32-bit word (spec Open
// Question 2: bit 31 is never used). ReadExpand extracts bits 30..0 of
// each word with a shift; there is no per-bit lookup table.
const bitsPerWord = 31

// wordSource supplies the next raw 4-byte big-endian word of a mask
// bitstream. The normal path reads straight off the dataset's iostream;
// the compressed path (mask_compressed.go) reads off a decompressed
// io.Reader instead.
type wordSource interface {
	fetchWord() ([4]byte, error)
}

// Reader expands a packed mask bitstream into one byte (0 or 1) per bit.
type Reader struct {
	src    wordSource
	closer io.Closer // non-nil when Close should release an owned stream
	word   uint32
	nbits  int // bits remaining in word
}

// NewReader wraps a read-mode stream positioned at the start of a mask
// item. Close closes the underlying stream.
func NewReader(stream *iostream.Stream) *Reader {
	return &Reader{src: streamWordSource{stream}, closer: stream}
}

// NewReaderFromBytes wraps a plain io.Reader (used for a mask item whose
// bytes have already been transparently decompressed; see
// Decompress). Close releases r if it implements io.Closer.
func NewReaderFromBytes(r io.Reader) *Reader {
	closer, _ := r.(io.Closer)
	return &Reader{src: byteWordSource{r}, closer: closer}
}

// Close releases any resource the reader owns (the underlying large-item
// stream for NewReader, or the decompressor for NewReaderFromBytes when
// it is closable). Safe to call on a nil *Reader or a Reader with
// nothing to release.
func (r *Reader) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadExpand pulls nbits payload bits into dst (which must be at least
// nbits bytes), writing 0 or 1 per byte. A short fetch of the underlying
// 4-byte words that is not exactly 4 bytes is a format error.
func (r *Reader) ReadExpand(dst []byte, nbits int) error {
	if len(dst) < nbits {
		return fmt.Errorf("miriad: mask ReadExpand destination too small: need %d, have %d", nbits, len(dst))
	}
	for i := 0; i < nbits; i++ {
		if r.nbits == 0 {
			word, err := r.src.fetchWord()
			if err != nil {
				return err
			}
			r.word = binary.BigEndian.Uint32(word[:])
			r.nbits = bitsPerWord
		}
		bit := (r.word >> (r.nbits - 1)) & 1
		dst[i] = byte(bit)
		r.nbits--
	}
	return nil
}

// streamWordSource reads words directly off a buffered dataset stream.
type streamWordSource struct {
	stream *iostream.Stream
}

func (s streamWordSource) fetchWord() ([4]byte, error) {
	var out [4]byte
	raw, err := s.stream.FetchTemp(4)
	if err != nil {
		return out, err
	}
	if len(raw) != 4 {
		return out, fmt.Errorf("%w: mask word read %d bytes, want 4", core.ErrFormat, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// byteWordSource reads words off a plain io.Reader (the decompressed
// byte stream produced by Decompress).
type byteWordSource struct {
	r io.Reader
}

func (s byteWordSource) fetchWord() ([4]byte, error) {
	var out [4]byte
	n, err := io.ReadFull(s.r, out[:])
	if err != nil {
		if n != 0 || err == io.EOF {
			return out, fmt.Errorf("%w: mask word read %d bytes, want 4", core.ErrFormat, n)
		}
		return out, err
	}
	return out, nil
}
