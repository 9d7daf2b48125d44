//go:build !unix

package dsitem

import "os"

// Non-POSIX platforms (the library's directory/rename/open model targets
// POSIX primarily) fall back to the portable os.O_* flags, which the Go
// runtime maps to the platform's native flags.
const (
	rawRDONLY = os.O_RDONLY
	rawWRONLY = os.O_WRONLY
	rawCREAT  = os.O_CREATE
	rawEXCL   = os.O_EXCL
	rawTRUNC  = os.O_TRUNC
	rawAPPEND = os.O_APPEND
)
