package dsitem

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReplacementName returns the temporary filename used while name is being
// atomically replaced: "<name>+new".
func ReplacementName(name string) string {
	return name + ReplaceSuffix
}

// OpenForReplace opens "<name>+new" under dir for writing, truncating or
// creating it (§4.3.8). This is an internal-permission-bypass path: the
// replacement file's name is never itself validated against ValidateName
// (it always carries the reserved "+new" suffix).
func OpenForReplace(dir, name string) (*os.File, error) {
	return OpenForWrite(dir, ReplacementName(name), WriteOpts{Truncate: true, CreateOK: true})
}

// FinishReplace renames "<name>+new" to name, completing an atomic
// replacement. The rename is atomic within dir (POSIX rename(2)
// semantics), so a reader can never observe a partially written name.
// validateName controls whether the destination name is checked against
// ValidateName — the header replacement path bypasses this since "header"
// is otherwise a reserved name.
func FinishReplace(dir, name string, validateName bool) error {
	if validateName {
		if err := ValidateName(name, false); err != nil {
			return err
		}
	}
	oldPath := filepath.Join(dir, ReplacementName(name))
	newPath := filepath.Join(dir, name)
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("miriad: finishing replace of %q: %w", name, err)
	}
	return nil
}

// Rename renames a large item within dir, validating both names.
func Rename(dir, oldName, newName string) error {
	if err := ValidateName(oldName, false); err != nil {
		return err
	}
	if err := ValidateName(newName, false); err != nil {
		return err
	}
	if err := os.Rename(filepath.Join(dir, oldName), filepath.Join(dir, newName)); err != nil {
		return fmt.Errorf("miriad: renaming item %q to %q: %w", oldName, newName, err)
	}
	return nil
}
