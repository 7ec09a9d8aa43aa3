package ormvalues

import (
	"io"

	json "github.com/goccy/go-json"
)

// Marshal extracts v and encodes the result as JSON.
func Marshal(v any, opts ...ExtractOpt) ([]byte, error) {
	return json.Marshal(Extract(v, opts...))
}

// MarshalDedup extracts v with deduplication and encodes the result as JSON.
func MarshalDedup(v any, opts ...ExtractOpt) ([]byte, error) {
	return json.Marshal(ExtractDedup(v, opts...))
}

// MarshalIndent is Marshal with indentation.
func MarshalIndent(v any, prefix, indent string, opts ...ExtractOpt) ([]byte, error) {
	return json.MarshalIndent(Extract(v, opts...), prefix, indent)
}

// MarshalDedupIndent is MarshalDedup with indentation.
func MarshalDedupIndent(v any, prefix, indent string, opts ...ExtractOpt) ([]byte, error) {
	return json.MarshalIndent(ExtractDedup(v, opts...), prefix, indent)
}

// Encoder writes extracted values as JSON to a stream, one document per call.
type Encoder struct {
	enc   *json.Encoder
	dedup bool
	opt   ExtractOpt
}

// NewEncoder returns an Encoder writing to w. dedup selects ExtractDedup over
// Extract.
func NewEncoder(w io.Writer, dedup bool, opts ...ExtractOpt) *Encoder {
	var opt ExtractOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return &Encoder{enc: json.NewEncoder(w), dedup: dedup, opt: opt}
}

// SetIndent configures indentation like json.Encoder.SetIndent.
func (e *Encoder) SetIndent(prefix, indent string) { e.enc.SetIndent(prefix, indent) }

// Encode extracts v and writes it followed by a newline.
func (e *Encoder) Encode(v any) error {
	if e.dedup {
		return e.enc.Encode(ExtractDedup(v, e.opt))
	}
	return e.enc.Encode(Extract(v, e.opt))
}
