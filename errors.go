package ormvalues

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	CodeInvalidType = "invalid_type"
	CodeParseError  = "parse_error"
	// Model and association definitions
	CodeUnknownModel       = "unknown_model"
	CodeUnknownField       = "unknown_field"
	CodeUnknownAssociation = "unknown_association"
	CodeDuplicateModel     = "duplicate_model"
	CodeDuplicateAlias     = "duplicate_alias"
	CodeInvalidKind        = "invalid_kind"
	CodeMissingThrough     = "missing_through"
	CodeMissingKey         = "missing_key"
	CodeAmbiguousKey       = "ambiguous_key"
	CodeTargetMismatch     = "target_mismatch"
	// HTTP integration
	CodeInvalidMode = "invalid_mode"
)

// Issue is a single problem found while defining models or building
// instances. Extraction itself never produces issues.
type Issue struct {
	Path    string // JSON Pointer into the offending document (for example: /associations/2/kind).
	Code    string // One of the codes listed above.
	Message string
	Cause   error          // Optional: underlying error.
	Params  map[string]any // Structured parameters (model, alias, key, ...).
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. duplicate_alias at /associations/3
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes the causes so errors.Is can see through Issues.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// HasCode reports whether any issue carries code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ToIssues converts any error into Issues, keeping existing Issues as they are
// and wrapping anything else as a parse_error at the root.
func ToIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err}}
}
