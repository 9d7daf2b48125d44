package miriad

import "fmt"

// MiriadError is the rich-error channel: every I/O and format failure
// surfaced by the dataset, stream, and UV layers is wrapped in one of
// these, carrying the operation context alongside the underlying cause.
type MiriadError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *MiriadError) Error() string {
	return fmt.Sprintf("miriad: %s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Is/errors.As.
func (e *MiriadError) Unwrap() error {
	return e.Cause
}

// wrapError returns a *MiriadError, or nil if cause is nil.
func wrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &MiriadError{Context: context, Cause: cause}
}

// SmallItemStatus is the shallow, closed-enum error channel (§6.3, §7)
// used by SetSmall: a small set of enumerable failure reasons that
// callers can switch on without string matching.
type SmallItemStatus int

const (
	// StatusOK indicates the operation succeeded.
	StatusOK SmallItemStatus = iota
	// StatusFormat indicates the requested value would violate the
	// on-disk format (e.g. exceeds the 64-byte small-item budget).
	StatusFormat
	// StatusInternalPerms indicates the operation is not permitted in the
	// dataset's current mode (e.g. modifying an existing item in append
	// mode, or writing to a read-only dataset).
	StatusInternalPerms
	// StatusItemName indicates the item name is not legal.
	StatusItemName
	// StatusNonexistent indicates a required item is absent.
	StatusNonexistent
)

// String returns a human-readable name for the status, used in error
// messages and logs.
func (s SmallItemStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFormat:
		return "format"
	case StatusInternalPerms:
		return "internal-perms"
	case StatusItemName:
		return "item-name"
	case StatusNonexistent:
		return "nonexistent"
	default:
		return fmt.Sprintf("SmallItemStatus(%d)", int(s))
	}
}
