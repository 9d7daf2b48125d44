package iostream

import "fmt"

// Pipe copies every byte readable from in's underlying file to out's
// underlying file, byte-exact (no recoding). It requires in.bufsz ==
// out.bufsz and in.cursor == out.cursor. It alternates writing the
// currently filled portion of in's buffer directly to out's file and
// refilling in, until in reaches EOF; the final partial block is flushed.
// Writes bypass out's own buffering entirely, so out's cursor is left
// untouched by Pipe.
func Pipe(in, out *Stream) error {
	if in.mode != ModeRead {
		return fmt.Errorf("miriad: Pipe source must be a read stream")
	}
	if out.mode != ModeWrite {
		return fmt.Errorf("miriad: Pipe destination must be a write stream")
	}
	if in.bufsz != out.bufsz {
		return fmt.Errorf("miriad: Pipe requires matching buffer sizes (%d != %d)", in.bufsz, out.bufsz)
	}
	if in.cursor == in.bufsz && !in.eof {
		// A freshly opened read stream starts with its cursor at bufsz to
		// force a fill on the first read; normalize that before checking
		// the matching-cursor precondition against a freshly opened write
		// stream (which starts at cursor 0).
		if err := in.refill(); err != nil {
			return err
		}
	}
	if in.cursor != out.cursor {
		return fmt.Errorf("miriad: Pipe requires matching cursors (%d != %d)", in.cursor, out.cursor)
	}

	for {
		if in.eof {
			tail := in.buf[in.cursor:in.end]
			if len(tail) > 0 {
				if err := out.writeFull(tail); err != nil {
					return err
				}
			}
			return nil
		}

		chunk := in.buf[in.cursor:in.bufsz]
		if len(chunk) > 0 {
			if err := out.writeFull(chunk); err != nil {
				return err
			}
		}
		if err := in.refill(); err != nil {
			return err
		}
	}
}
