package dsitem

import (
	"os"
	"strings"
)

// ListDirEntries returns the names of every directory entry under dir
// whose name is not HeaderName, skipping subdirectories. Used by
// Dataset.ListItems (§4.3.5) to enumerate large items. Entries still
// carrying the in-flight replacement suffix (left behind by a crash
// mid-replace) are skipped too — they are not yet a real item.
func ListDirEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.Name() == HeaderName {
			continue
		}
		if strings.HasSuffix(e.Name(), ReplaceSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
