package model

import (
	"github.com/reoring/ormvalues"
)

// Instance is a record of a Model with its eagerly attached associations.
// It implements ormvalues.Instance.
type Instance struct {
	model  *Model
	fields map[string]any
	loaded []ormvalues.Loaded
}

var _ ormvalues.Instance = (*Instance)(nil)

// Link is one item of a BelongsToMany association: the target record and its
// junction row.
type Link struct {
	Target  *Instance
	Through *Instance
}

// Build creates an instance of m. fields is copied; nested values are shared.
func (m *Model) Build(fields map[string]any) *Instance {
	f := make(map[string]any, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return &Instance{model: m, fields: f}
}

func (i *Instance) Model() ormvalues.Model { return i.model }

// Fields returns the instance's own column values. The map must not be
// modified; use Set.
func (i *Instance) Fields() map[string]any { return i.fields }

func (i *Instance) Loaded() []ormvalues.Loaded { return i.loaded }

// Get returns a column value.
func (i *Instance) Get(field string) (any, bool) {
	v, ok := i.fields[field]
	return v, ok
}

// Set assigns a column value.
func (i *Instance) Set(field string, v any) { i.fields[field] = v }

// IncludeOne attaches the BelongsTo or HasOne association alias. A nil
// related instance marks the association as loaded but empty.
func (i *Instance) IncludeOne(alias string, related *Instance) error {
	a, err := i.association(alias)
	if err != nil {
		return err
	}
	if a.Kind().Many() {
		return ormvalues.Issues{i.path(alias).Issue(ormvalues.CodeInvalidKind, "alias", alias, "kind", a.Kind().String())}
	}
	l := ormvalues.Loaded{Association: a}
	if related != nil {
		if err := i.checkModel(alias, related, targetOf(a)); err != nil {
			return err
		}
		l.One = related
	}
	i.setLoaded(l)
	return nil
}

// IncludeMany attaches the HasMany association alias. BelongsToMany
// associations are accepted too, with no junction rows.
func (i *Instance) IncludeMany(alias string, related ...*Instance) error {
	links := make([]Link, len(related))
	for k, r := range related {
		links[k] = Link{Target: r}
	}
	return i.include(alias, links, false)
}

// IncludeThrough attaches the BelongsToMany association alias together with
// each item's junction row.
func (i *Instance) IncludeThrough(alias string, links ...Link) error {
	return i.include(alias, links, true)
}

func (i *Instance) include(alias string, links []Link, through bool) error {
	a, err := i.association(alias)
	if err != nil {
		return err
	}
	if !a.Kind().Many() || (through && a.Kind() != ormvalues.KindBelongsToMany) {
		return ormvalues.Issues{i.path(alias).Issue(ormvalues.CodeInvalidKind, "alias", alias, "kind", a.Kind().String())}
	}
	target := targetOf(a)
	var throughModel *Model
	if m, ok := a.(*ormvalues.BelongsToMany); ok {
		throughModel, _ = m.Through.(*Model)
	}
	l := ormvalues.Loaded{Association: a, Many: make([]ormvalues.Related, 0, len(links))}
	for k, ln := range links {
		if ln.Target == nil {
			continue
		}
		if err := i.checkModel(alias, ln.Target, target); err != nil {
			return err
		}
		r := ormvalues.Related{Instance: ln.Target}
		if ln.Through != nil {
			if throughModel == nil || ln.Through.model != throughModel {
				return ormvalues.Issues{i.path(alias).Index(k).Issue(ormvalues.CodeTargetMismatch, "model", ln.Through.model.Name())}
			}
			r.Through = ln.Through
		}
		l.Many = append(l.Many, r)
	}
	i.setLoaded(l)
	return nil
}

// PlainValues is ormvalues.Extract applied to i.
func (i *Instance) PlainValues(opts ...ormvalues.ExtractOpt) map[string]any {
	return ormvalues.ExtractInstance(i, opts...)
}

// PlainValuesDedup is ormvalues.ExtractDedup applied to i.
func (i *Instance) PlainValuesDedup(opts ...ormvalues.ExtractOpt) map[string]any {
	return ormvalues.ExtractInstanceDedup(i, opts...)
}

// MarshalJSON encodes the plain values of i.
func (i *Instance) MarshalJSON() ([]byte, error) {
	return ormvalues.Marshal(i)
}

func (i *Instance) association(alias string) (ormvalues.Association, error) {
	a, ok := i.model.Association(alias)
	if !ok {
		return nil, ormvalues.Issues{i.path(alias).Issue(ormvalues.CodeUnknownAssociation, "alias", alias)}
	}
	return a, nil
}

func (i *Instance) checkModel(alias string, related *Instance, want *Model) error {
	if want != nil && related.model != want {
		return ormvalues.Issues{i.path(alias).Issue(ormvalues.CodeTargetMismatch, "alias", alias, "model", related.model.Name())}
	}
	return nil
}

// setLoaded replaces any association already loaded under the same alias.
func (i *Instance) setLoaded(l ormvalues.Loaded) {
	for k := range i.loaded {
		if i.loaded[k].Association.Alias() == l.Association.Alias() {
			i.loaded[k] = l
			return
		}
	}
	i.loaded = append(i.loaded, l)
}

func (i *Instance) path(alias string) ormvalues.PathRef {
	return ormvalues.Root().Field(i.model.name).Field(alias)
}

func targetOf(a ormvalues.Association) *Model {
	var t ormvalues.Model
	switch a := a.(type) {
	case *ormvalues.BelongsTo:
		t = a.Target
	case *ormvalues.HasOne:
		t = a.Target
	case *ormvalues.HasMany:
		t = a.Target
	case *ormvalues.BelongsToMany:
		t = a.Target
	}
	m, _ := t.(*Model)
	return m
}
