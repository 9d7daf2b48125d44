// Package dsitem implements the directory-backed item naming and
// open/replace/rename primitives that the root dataset package builds its
// large-item protocol on.
package dsitem

import (
	"fmt"
)

// HeaderName is the reserved item name for the packed header file.
const HeaderName = "header"

// ReplaceSuffix is appended to an item name while a replacement write is
// in flight; FinishReplace renames it away atomically.
const ReplaceSuffix = "+new"

// MaxNameLen is the longest legal item name, in bytes.
const MaxNameLen = 8

// ValidateName checks an item name against the on-disk naming rules
// (§4.3: 1-8 bytes, lowercase ASCII plus digits, '-', '_'; first
// character must be lowercase; the literal "header" is reserved).
// internalBypass skips the "header" exclusion for the library's own
// header-replacement path.
func ValidateName(name string, internalBypass bool) error {
	if len(name) == 0 || len(name) > MaxNameLen {
		return fmt.Errorf("miriad: item name %q must be 1-%d bytes", name, MaxNameLen)
	}
	if !internalBypass && name == HeaderName {
		return fmt.Errorf("miriad: item name %q is reserved", name)
	}
	first := name[0]
	if first < 'a' || first > 'z' {
		return fmt.Errorf("miriad: item name %q must start with a lowercase letter", name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return fmt.Errorf("miriad: item name %q contains illegal character %q", name, c)
		}
	}
	return nil
}
