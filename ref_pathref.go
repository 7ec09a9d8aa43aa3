package ormvalues

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/ormvalues/i18n"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(code string, kv ...any) Issue
}

// Root returns the PathRef of a document root.
func Root() PathRef { return &pathRef{} }

// At parses an existing JSON Pointer into a PathRef.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return Root()
	}
	return &pathRef{parts: strings.Split(strings.TrimPrefix(path, "/"), "/")}
}

type pathRef struct {
	parts []string
}

// Field appends a reference token. An empty name is a valid token ("/a/").
func (p *pathRef) Field(name string) PathRef {
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return &pathRef{parts: append(append([]string{}, p.parts...), esc)}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue creates an Issue at this path. kv are alternating param keys and
// values; string values are also handed to the translator.
func (p *pathRef) Issue(code string, kv ...any) Issue {
	m := map[string]any{}
	data := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		m[k] = kv[i+1]
		if s, ok := kv[i+1].(string); ok {
			data[k] = s
		}
	}
	return Issue{Path: p.Pointer(), Code: code, Message: i18n.T(code, data), Params: m}
}

// Segments splits a JSON Pointer into its unescaped reference tokens. The
// root ("" or "/") has none.
func Segments(pointer string) []string {
	if pointer == "" || pointer == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return out
}
