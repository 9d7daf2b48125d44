package core

import "errors"

// ErrFormat is wrapped by every on-disk format violation detected while
// parsing a header record, a vartable line, or a visdata record header.
// Callers can test for it with errors.Is.
var ErrFormat = errors.New("miriad: format error")
