//go:build unix

package dsitem

import "golang.org/x/sys/unix"

// These mirror the os.O_* constants but are sourced from the raw POSIX
// values so the large-item open path (§4.3.7) matches O_EXCL/O_APPEND
// semantics exactly rather than relying solely on os.O_* (whose numeric
// values the Go runtime remaps per-GOOS).
const (
	rawRDONLY = unix.O_RDONLY
	rawWRONLY = unix.O_WRONLY
	rawCREAT  = unix.O_CREAT
	rawEXCL   = unix.O_EXCL
	rawTRUNC  = unix.O_TRUNC
	rawAPPEND = unix.O_APPEND
)
