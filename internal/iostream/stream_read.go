package iostream

import (
	"fmt"
	"io"

	"github.com/miriadio/miriad/internal/core"
)

// FetchTemp returns a borrowed slice of up to n bytes (n must be <=
// BufSize). The slice is valid only until the next read call on this
// stream; callers that must retain the bytes across a subsequent fetch
// copy them into their own storage.
//
// If EOF has already been observed, the returned slice is the lesser of n
// and the bytes remaining in the buffer (possibly empty) — this is never
// an error; EOF is represented by an exhausted, zero-length fetch. If the
// request crosses the current buffer's boundary, the tail is copied into
// the stream's scratch buffer, the main buffer is refilled, and the
// remainder is fetched recursively into the rest of scratch.
func (s *Stream) FetchTemp(n int) ([]byte, error) {
	if s.mode != ModeRead {
		return nil, fmt.Errorf("miriad: FetchTemp on a non-read stream")
	}
	if n > s.bufsz {
		return nil, fmt.Errorf("miriad: FetchTemp request %d exceeds buffer size %d", n, s.bufsz)
	}

	if s.eof {
		avail := s.end - s.cursor
		if avail < 0 {
			avail = 0
		}
		take := n
		if take > avail {
			take = avail
		}
		out := s.buf[s.cursor : s.cursor+take]
		s.cursor += take
		return out, nil
	}

	if s.cursor == s.bufsz {
		if err := s.refill(); err != nil {
			return nil, err
		}
		return s.FetchTemp(n)
	}

	remaining := s.bufsz - s.cursor
	if n <= remaining {
		out := s.buf[s.cursor : s.cursor+n]
		s.cursor += n
		return out, nil
	}

	// Crosses a buffer boundary: stash the tail in scratch, refill, and
	// recursively fetch the remainder into the rest of scratch.
	copy(s.scratch[:remaining], s.buf[s.cursor:s.bufsz])
	s.cursor = s.bufsz
	if err := s.refill(); err != nil {
		return nil, err
	}
	rest, err := s.FetchTemp(n - remaining)
	if err != nil {
		return nil, err
	}
	copy(s.scratch[remaining:remaining+len(rest)], rest)
	return s.scratch[:remaining+len(rest)], nil
}

// FetchTempTyped wraps FetchTemp(nvals*t.Size()) with an in-place recode
// and returns the element count actually fetched (which may be less than
// nvals at EOF). A short read that is not a whole number of elements is a
// format error.
func (s *Stream) FetchTempTyped(t core.Type, nvals int) ([]byte, int, error) {
	size := t.Size()
	if size == 0 {
		return nil, 0, fmt.Errorf("%w: unknown type %v", core.ErrFormat, t)
	}
	raw, err := s.FetchTemp(nvals * size)
	if err != nil {
		return nil, 0, err
	}
	if len(raw)%size != 0 {
		return nil, 0, fmt.Errorf("%w: short typed read of %d bytes is not a multiple of element size %d", core.ErrFormat, len(raw), size)
	}
	count := len(raw) / size
	if err := core.InPlaceRecode(raw, t, count); err != nil {
		return nil, 0, err
	}
	return raw, count, nil
}

// ReadInto decodes nvals elements of type t directly into dst (which must
// be at least nvals*t.Size() bytes), returning the element count actually
// read. It avoids the scratch-buffer indirection FetchTemp uses for
// boundary-crossing reads: whole blocks are read straight into dst, and
// only the unaligned head/tail touch the stream's own buffer. A short
// read whose byte count is not a multiple of t.Size() is a format error.
func (s *Stream) ReadInto(t core.Type, nvals int, dst []byte) (int, error) {
	if s.mode != ModeRead {
		return 0, fmt.Errorf("miriad: ReadInto on a non-read stream")
	}
	size := t.Size()
	if size == 0 {
		return 0, fmt.Errorf("%w: unknown type %v", core.ErrFormat, t)
	}
	need := nvals * size
	if len(dst) < need {
		return 0, fmt.Errorf("miriad: ReadInto destination too small: need %d, have %d", need, len(dst))
	}

	if s.eof {
		avail := s.end - s.cursor
		if avail < 0 {
			avail = 0
		}
		take := need
		if take > avail {
			take = avail
		}
		if take%size != 0 {
			return 0, fmt.Errorf("%w: short read of %d bytes is not a multiple of element size %d", core.ErrFormat, take, size)
		}
		copy(dst[:take], s.buf[s.cursor:s.cursor+take])
		s.cursor += take
		count := take / size
		if err := core.InPlaceRecode(dst[:take], t, count); err != nil {
			return 0, err
		}
		return count, nil
	}

	got := 0
	remaining := need

	// 1. Serve from the main buffer's remaining bytes.
	avail := s.bufsz - s.cursor
	take := remaining
	if take > avail {
		take = avail
	}
	copy(dst[got:got+take], s.buf[s.cursor:s.cursor+take])
	s.cursor += take
	got += take
	remaining -= take

	if remaining == 0 {
		if err := core.InPlaceRecode(dst[:got], t, got/size); err != nil {
			return 0, err
		}
		return got / size, nil
	}

	// 2. Whole blocks read directly into dst, bypassing the buffer.
	for remaining >= s.bufsz {
		n, err := io.ReadFull(s.f, dst[got:got+s.bufsz])
		got += n
		if err != nil {
			s.eof = true
			s.cursor = 0
			s.end = 0
			return finishShortTyped(dst, got, size, t)
		}
		remaining -= s.bufsz
	}

	// 3. Residual tail: refill the main buffer (to preserve alignment for
	// subsequent calls), then copy out of it.
	if remaining > 0 {
		if err := s.refill(); err != nil {
			return 0, err
		}
		avail2 := s.end - s.cursor
		take2 := remaining
		if take2 > avail2 {
			take2 = avail2
		}
		copy(dst[got:got+take2], s.buf[s.cursor:s.cursor+take2])
		s.cursor += take2
		got += take2
	}

	return finishShortTyped(dst, got, size, t)
}

func finishShortTyped(dst []byte, got, size int, t core.Type) (int, error) {
	if got%size != 0 {
		return 0, fmt.Errorf("%w: short read of %d bytes is not a multiple of element size %d", core.ErrFormat, got, size)
	}
	count := got / size
	if err := core.InPlaceRecode(dst[:got], t, count); err != nil {
		return 0, err
	}
	return count, nil
}

// nudgeAlignRead advances the read cursor to the next multiple of align.
// In read mode, once EOF has been observed, it stops at the end of valid
// data rather than reading further. The precondition align <= bufsz
// together with bufsz % align == 0 guarantees this never crosses a buffer
// boundary.
func (s *Stream) nudgeAlignRead(align int) error {
	if align <= 1 {
		return nil
	}
	if align > s.bufsz {
		return fmt.Errorf("miriad: alignment %d exceeds buffer size %d", align, s.bufsz)
	}
	pad := (align - (s.cursor % align)) % align
	if pad == 0 {
		return nil
	}
	if s.cursor+pad > s.bufsz {
		return fmt.Errorf("miriad: alignment %d is not compatible with buffer size %d", align, s.bufsz)
	}
	if s.eof {
		limit := s.end - s.cursor
		if limit < 0 {
			limit = 0
		}
		if pad > limit {
			pad = limit
		}
	}
	s.cursor += pad
	return nil
}
