// Package pathlist stores an ordered list of filesystem paths in a single
// ";"-delimited field.
package pathlist

import (
	"os"
	"strings"
)

// Separator joins paths inside one record field
const Separator = ";"

// Encode joins paths with the separator. An empty list encodes to "".
func Encode(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return strings.Join(paths, Separator)
}

// Decode splits a field into paths, trimming whitespace and dropping empty
// tokens. It does not touch the filesystem; see Reconcile.
func Decode(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var paths []string
	for _, tok := range strings.Split(s, Separator) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		paths = append(paths, tok)
	}
	return paths
}

// Reconcile returns the paths that still exist on disk, in their original
// order, and the ones that were dropped.
func Reconcile(paths []string) (kept, dropped []string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			dropped = append(dropped, p)
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

// DecodeExisting decodes a field and prunes paths missing from disk
func DecodeExisting(s string) []string {
	kept, _ := Reconcile(Decode(s))
	return kept
}

// Valid reports whether a path can be stored without breaking the record
// layout, which reserves the separator and the field delimiter.
func Valid(path string) bool {
	return path != "" && !strings.ContainsAny(path, Separator+"|\n\r")
}
