package iostream

import (
	"fmt"

	"github.com/miriadio/miriad/internal/core"
)

// WriteRaw copies buf into the write buffer, flushing whenever the cursor
// reaches BufSize. A fast path bypasses buffering entirely when writing
// exactly one whole-bufsz block from an aligned (cursor == 0) offset.
func (s *Stream) WriteRaw(buf []byte) error {
	if s.mode != ModeWrite {
		return fmt.Errorf("miriad: WriteRaw on a non-write stream")
	}
	n := len(buf)
	if n == 0 {
		return nil
	}
	if s.cursor == 0 && n == s.bufsz {
		return s.writeFull(buf)
	}

	off := 0
	for off < n {
		space := s.bufsz - s.cursor
		take := n - off
		if take > space {
			take = space
		}
		copy(s.buf[s.cursor:s.cursor+take], buf[off:off+take])
		s.cursor += take
		off += take
		if s.cursor == s.bufsz {
			if err := s.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTyped recodes nvals elements of type t from buf (host order) to
// big-endian while copying them into the write buffer, flushing as
// needed. A chunk is never allowed to split an element across two
// flushes; if a single element cannot fit in the remaining buffer space
// (impossible given the buffer-size invariants, but checked defensively)
// this fails rather than corrupt an element.
func (s *Stream) WriteTyped(t core.Type, nvals int, buf []byte) error {
	if s.mode != ModeWrite {
		return fmt.Errorf("miriad: WriteTyped on a non-write stream")
	}
	size := t.Size()
	if size == 0 {
		return fmt.Errorf("%w: unknown type %v", core.ErrFormat, t)
	}
	need := nvals * size
	if len(buf) < need {
		return fmt.Errorf("miriad: WriteTyped source too small: need %d, have %d", need, len(buf))
	}

	off := 0
	for off < need {
		space := s.bufsz - s.cursor
		take := need - off
		if take > space {
			take = space
		}
		if take%size != 0 {
			take -= take % size
			if take == 0 {
				return fmt.Errorf("miriad: element of size %d cannot fit before a buffer flush (bufsz=%d)", size, s.bufsz)
			}
		}
		count := take / size
		dstRegion := s.buf[s.cursor : s.cursor+take]
		copy(dstRegion, buf[off:off+take])
		if err := core.InPlaceRecode(dstRegion, t, count); err != nil {
			return err
		}
		s.cursor += take
		off += take
		if s.cursor == s.bufsz {
			if err := s.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// nudgeAlignWrite zero-pads the write cursor to the next multiple of
// align. As with read-mode alignment, bufsz % align == 0 guarantees this
// never needs to cross a flush boundary mid-pad.
func (s *Stream) nudgeAlignWrite(align int) error {
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
	zeros := make([]byte, pad)
	return s.WriteRaw(zeros)
}

// NudgeAlign advances (read mode) or zero-pads (write mode) the cursor to
// the next multiple of align.
func (s *Stream) NudgeAlign(align int) error {
	switch s.mode {
	case ModeRead:
		return s.nudgeAlignRead(align)
	case ModeWrite:
		return s.nudgeAlignWrite(align)
	default:
		return fmt.Errorf("miriad: unknown stream mode %d", s.mode)
	}
}
