// Package model is an in-memory model system for ormvalues: model
// definitions with named associations, instances with eagerly attached
// associations, JSON hydration and YAML schema files.
//
// Models and associations are declared once, then treated as read-only.
// Instances may be extracted concurrently as long as nobody mutates them.
package model

import (
	"sort"
	"sync"

	"github.com/reoring/ormvalues"
)

// DefaultPrimaryKey is the primary key of models that declare none.
const DefaultPrimaryKey = "id"

// Definition describes a model to register.
type Definition struct {
	Name string
	// Fields lists the model's columns. When set, hydration rejects unknown
	// keys. Primary and foreign keys are added automatically.
	Fields []string
	// PrimaryKeys defaults to DefaultPrimaryKey unless NoPrimaryKey is set.
	PrimaryKeys  []string
	NoPrimaryKey bool
}

// Registry holds model definitions by name.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{models: map[string]*Model{}}
}

// Define registers a model.
func (r *Registry) Define(d Definition) (*Model, error) {
	p := ormvalues.Root()
	if d.Name == "" {
		return nil, ormvalues.Issues{p.Field("name").Issue(ormvalues.CodeMissingKey, "key", "name")}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.models[d.Name]; ok {
		return nil, ormvalues.Issues{p.Field("name").Issue(ormvalues.CodeDuplicateModel, "model", d.Name)}
	}
	var pks []string
	switch {
	case d.NoPrimaryKey:
	case len(d.PrimaryKeys) > 0:
		pks = append(pks, d.PrimaryKeys...)
	default:
		pks = []string{DefaultPrimaryKey}
	}
	m := &Model{
		name:    d.Name,
		pks:     pks,
		byAlias: map[string]ormvalues.Association{},
		reg:     r,
	}
	if len(d.Fields) > 0 {
		m.fieldSet = map[string]struct{}{}
		m.addFields(pks...)
		m.addFields(d.Fields...)
	}
	r.models[d.Name] = m
	r.order = append(r.order, d.Name)
	return m, nil
}

// MustDefine is Define that panics on error. Intended for package-level
// model declarations.
func (r *Registry) MustDefine(d Definition) *Model {
	m, err := r.Define(d)
	if err != nil {
		panic("model.MustDefine: " + err.Error())
	}
	return m
}

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// Models returns the registered models in definition order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Model, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.models[n])
	}
	return out
}

// Model is a registered model. It implements ormvalues.Model.
type Model struct {
	name     string
	pks      []string
	fields   []string
	fieldSet map[string]struct{}
	assocs   []ormvalues.Association
	byAlias  map[string]ormvalues.Association
	reg      *Registry
}

var _ ormvalues.Model = (*Model)(nil)

func (m *Model) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

func (m *Model) PrimaryKeys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.pks...)
}

// Fields returns the declared columns, nil when the model is not strict.
func (m *Model) Fields() []string {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	return append([]string(nil), m.fields...)
}

// Strict reports whether the model declared its columns.
func (m *Model) Strict() bool { return m.fieldSet != nil }

// HasField reports whether name is a declared column. Non-strict models
// accept every name.
func (m *Model) HasField(name string) bool {
	if m.fieldSet == nil {
		return true
	}
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	_, ok := m.fieldSet[name]
	return ok
}

// Association looks up an association by alias.
func (m *Model) Association(alias string) (ormvalues.Association, bool) {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	a, ok := m.byAlias[alias]
	return a, ok
}

// Associations returns the model's associations in declaration order.
func (m *Model) Associations() []ormvalues.Association {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	return append([]ormvalues.Association(nil), m.assocs...)
}

// Aliases returns the sorted association aliases.
func (m *Model) Aliases() []string {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	out := make([]string, 0, len(m.byAlias))
	for k := range m.byAlias {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Model) addFields(names ...string) {
	if m.fieldSet == nil {
		return
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := m.fieldSet[n]; ok {
			continue
		}
		m.fieldSet[n] = struct{}{}
		m.fields = append(m.fields, n)
	}
}
