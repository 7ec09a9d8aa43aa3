package ormvalues

import (
	"sort"
	"strings"
)

// Removal records one key dropped by the dedup rules.
type Removal struct {
	Path  string // JSON Pointer of the mapping the key was removed from.
	Key   string
	Kind  Kind   // Association kind whose rule removed the key.
	Alias string // Alias of that association.
}

// Pointer returns the JSON Pointer of the removed key itself.
func (r Removal) Pointer() string {
	esc := strings.ReplaceAll(strings.ReplaceAll(r.Key, "~", "~0"), "/", "~1")
	if r.Path == "/" {
		return "/" + esc
	}
	return r.Path + "/" + esc
}

// Removals is the dedup report returned by ExtractDedupReport.
type Removals []Removal

// Pointers returns the sorted pointers of every removed key.
func (rs Removals) Pointers() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Pointer())
	}
	sort.Strings(out)
	return out
}

// ByPath groups removed keys by the mapping they were removed from.
func (rs Removals) ByPath() map[string][]string {
	if len(rs) == 0 {
		return nil
	}
	out := make(map[string][]string, len(rs))
	for _, r := range rs {
		out[r.Path] = append(out[r.Path], r.Key)
	}
	for _, keys := range out {
		sort.Strings(keys)
	}
	return out
}

// Under keeps the removals at or below the given pointer prefix.
func (rs Removals) Under(prefix string) Removals {
	if prefix == "" || prefix == "/" {
		return append(Removals(nil), rs...)
	}
	var out Removals
	for _, r := range rs {
		if r.Path == prefix || strings.HasPrefix(r.Path, prefix+"/") {
			out = append(out, r)
		}
	}
	return out
}
