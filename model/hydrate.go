package model

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/reoring/ormvalues"
)

// Hydrate decodes JSON into instances of m. An object yields *Instance, an
// array yields []*Instance. Numbers are kept as json.Number.
//
// Keys that name an association of m become loaded associations: objects (or
// null) for BelongsTo and HasOne, arrays for HasMany and BelongsToMany. Inside
// BelongsToMany items the through alias holds the junction row.
func (m *Model) Hydrate(data []byte) (any, error) {
	return m.HydrateReader(bytes.NewReader(data))
}

// HydrateReader is Hydrate reading from r.
func (m *Model) HydrateReader(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, ormvalues.Issues{{Path: "/", Code: ormvalues.CodeParseError, Message: fmt.Sprintf("decode %s: %v", m.name, err), Cause: err}}
	}
	var iss ormvalues.Issues
	root := ormvalues.Root()
	switch t := v.(type) {
	case map[string]any:
		inst := m.fromMap(t, root, &iss)
		if len(iss) > 0 {
			return nil, iss
		}
		return inst, nil
	case []any:
		out := make([]*Instance, 0, len(t))
		for k, item := range t {
			row, ok := item.(map[string]any)
			if !ok {
				iss = append(iss, root.Index(k).Issue(ormvalues.CodeInvalidType, "model", m.name))
				continue
			}
			out = append(out, m.fromMap(row, root.Index(k), &iss))
		}
		if len(iss) > 0 {
			return nil, iss
		}
		return out, nil
	default:
		return nil, ormvalues.Issues{root.Issue(ormvalues.CodeInvalidType, "model", m.name)}
	}
}

// FromMap builds an instance of m from a nested map, following the same rules
// as Hydrate.
func (m *Model) FromMap(row map[string]any) (*Instance, error) {
	var iss ormvalues.Issues
	inst := m.fromMap(row, ormvalues.Root(), &iss)
	if len(iss) > 0 {
		return nil, iss
	}
	return inst, nil
}

func (m *Model) fromMap(row map[string]any, p ormvalues.PathRef, iss *ormvalues.Issues) *Instance {
	inst := &Instance{model: m, fields: make(map[string]any, len(row))}
	for k, v := range row {
		if _, ok := m.Association(k); ok {
			continue
		}
		if !m.HasField(k) {
			*iss = append(*iss, p.Field(k).Issue(ormvalues.CodeUnknownField, "model", m.name, "field", k))
			continue
		}
		inst.fields[k] = v
	}
	// Associations are attached in declaration order.
	for _, a := range m.Associations() {
		v, ok := row[a.Alias()]
		if !ok {
			continue
		}
		ap := p.Field(a.Alias())
		if l, ok := m.loadedFrom(a, v, ap, iss); ok {
			inst.loaded = append(inst.loaded, l)
		}
	}
	return inst
}

func (m *Model) loadedFrom(a ormvalues.Association, v any, p ormvalues.PathRef, iss *ormvalues.Issues) (ormvalues.Loaded, bool) {
	l := ormvalues.Loaded{Association: a}
	target := targetOf(a)
	if target == nil {
		*iss = append(*iss, p.Issue(ormvalues.CodeUnknownModel, "alias", a.Alias()))
		return l, false
	}
	if !a.Kind().Many() {
		if v == nil {
			return l, true
		}
		row, ok := v.(map[string]any)
		if !ok {
			*iss = append(*iss, p.Issue(ormvalues.CodeInvalidType, "alias", a.Alias()))
			return l, false
		}
		l.One = target.fromMap(row, p, iss)
		return l, true
	}
	items, ok := v.([]any)
	if !ok {
		*iss = append(*iss, p.Issue(ormvalues.CodeInvalidType, "alias", a.Alias()))
		return l, false
	}
	var throughAs string
	var through *Model
	if btm, ok := a.(*ormvalues.BelongsToMany); ok {
		throughAs = btm.ThroughAs
		through, _ = btm.Through.(*Model)
	}
	l.Many = make([]ormvalues.Related, 0, len(items))
	for k, item := range items {
		ip := p.Index(k)
		row, ok := item.(map[string]any)
		if !ok {
			*iss = append(*iss, ip.Issue(ormvalues.CodeInvalidType, "alias", a.Alias()))
			continue
		}
		var r ormvalues.Related
		if throughAs != "" {
			if tv, ok := row[throughAs]; ok {
				row = without(row, throughAs)
				if tv != nil {
					trow, ok := tv.(map[string]any)
					switch {
					case !ok:
						*iss = append(*iss, ip.Field(throughAs).Issue(ormvalues.CodeInvalidType, "alias", throughAs))
					case through == nil:
						*iss = append(*iss, ip.Field(throughAs).Issue(ormvalues.CodeMissingThrough, "alias", a.Alias()))
					default:
						r.Through = through.fromMap(trow, ip.Field(throughAs), iss)
					}
				}
			}
		}
		r.Instance = target.fromMap(row, ip, iss)
		l.Many = append(l.Many, r)
	}
	return l, true
}

// without returns a copy of row lacking key.
func without(row map[string]any, key string) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		if k != key {
			out[k] = v
		}
	}
	return out
}
