// Package gormvalues lets ormvalues extract GORM model structs.
//
// GORM has no instance wrapper: a loaded association is simply a non-empty
// relation field. The adapter reads the parsed gorm schema of each struct to
// find its columns and relations and maps them onto ormvalues associations.
//
// Usage:
//
//	ad := gormvalues.NewAdapter(gormvalues.Options{})
//	if err := ad.Register(&User{}, &Task{}); err != nil { ... }
//	body := ad.ValuesDedup(users) // or ormvalues.ExtractDedup(users, ormvalues.ExtractOpt{Adapter: ad})
package gormvalues

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm/schema"

	"github.com/reoring/ormvalues"
)

// Options configures an Adapter.
type Options struct {
	// Namer must match the naming strategy of the gorm.DB the structs are
	// loaded with. Defaults to schema.NamingStrategy{}.
	Namer schema.Namer
	// Logger receives debug events. nil disables logging.
	Logger *zap.Logger
	// AutoDetect treats any struct whose gorm schema has a primary key as a
	// model, registered or not.
	AutoDetect bool
}

// Adapter implements ormvalues.Adapter for GORM structs. It is safe for
// concurrent use.
type Adapter struct {
	opt   Options
	cache *sync.Map

	types  sync.Map // reflect.Type -> *schema.Schema, nil when rejected
	models sync.Map // *schema.Schema -> *gormModel
	assocs sync.Map // *schema.Relationship -> ormvalues.Association, nil when unmapped
}

var _ ormvalues.Adapter = (*Adapter)(nil)

// NewAdapter returns an Adapter with no registered models.
func NewAdapter(opt Options) *Adapter {
	if opt.Namer == nil {
		opt.Namer = schema.NamingStrategy{}
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Adapter{opt: opt, cache: &sync.Map{}}
}

// Register parses the gorm schema of each model (a struct value or pointer)
// and recognizes its values from now on.
func (a *Adapter) Register(models ...any) error {
	for _, m := range models {
		s, err := schema.Parse(m, a.cache, a.opt.Namer)
		if err != nil {
			return fmt.Errorf("gormvalues: parse %T: %w", m, err)
		}
		a.types.Store(s.ModelType, s)
		a.opt.Logger.Debug("model registered",
			zap.String("model", s.Name),
			zap.Int("relations", len(s.Relationships.Relations)))
	}
	return nil
}

// Instance recognizes registered structs, and pointers to them.
func (a *Adapter) Instance(v any) (ormvalues.Instance, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	s, ok := a.schemaOf(rv.Type())
	if !ok {
		return nil, false
	}
	if !rv.CanAddr() {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p.Elem()
	}
	return &instance{a: a, s: s, rv: rv}, true
}

// Values is ormvalues.Extract with this adapter.
func (a *Adapter) Values(v any, opts ...ormvalues.ExtractOpt) any {
	return ormvalues.Extract(v, a.with(opts))
}

// ValuesDedup is ormvalues.ExtractDedup with this adapter.
func (a *Adapter) ValuesDedup(v any, opts ...ormvalues.ExtractOpt) any {
	return ormvalues.ExtractDedup(v, a.with(opts))
}

func (a *Adapter) with(opts []ormvalues.ExtractOpt) ormvalues.ExtractOpt {
	var opt ormvalues.ExtractOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	opt.Adapter = a
	if opt.Logger == nil {
		opt.Logger = a.opt.Logger
	}
	return opt
}

func (a *Adapter) schemaOf(t reflect.Type) (*schema.Schema, bool) {
	if v, ok := a.types.Load(t); ok {
		s, _ := v.(*schema.Schema)
		return s, s != nil
	}
	if !a.opt.AutoDetect {
		return nil, false
	}
	s, err := schema.Parse(reflect.New(t).Interface(), a.cache, a.opt.Namer)
	if err != nil || len(s.PrimaryFields) == 0 {
		a.opt.Logger.Debug("struct is not a model", zap.Stringer("type", t), zap.Error(err))
		a.types.Store(t, (*schema.Schema)(nil))
		return nil, false
	}
	a.types.Store(t, s)
	return s, true
}

func (a *Adapter) modelOf(s *schema.Schema) *gormModel {
	if s == nil {
		return nil
	}
	if v, ok := a.models.Load(s); ok {
		return v.(*gormModel)
	}
	m := &gormModel{s: s}
	for _, f := range s.PrimaryFields {
		m.pks = append(m.pks, keyOf(f))
	}
	v, _ := a.models.LoadOrStore(s, m)
	return v.(*gormModel)
}

// gormModel is the ormvalues view of a gorm schema.
type gormModel struct {
	s   *schema.Schema
	pks []string
}

func (m *gormModel) Name() string          { return m.s.Name }
func (m *gormModel) PrimaryKeys() []string { return append([]string(nil), m.pks...) }

type instance struct {
	a      *Adapter
	s      *schema.Schema
	rv     reflect.Value // addressable struct
	fields map[string]any
}

var (
	_ ormvalues.Instance   = (*instance)(nil)
	_ ormvalues.Identifier = (*instance)(nil)
)

func (i *instance) Model() ormvalues.Model { return i.a.modelOf(i.s) }

func (i *instance) Identity() uintptr { return i.rv.Addr().Pointer() }

// Fields reads the readable column fields. Relation fields have no column and
// are left to Loaded.
func (i *instance) Fields() map[string]any {
	if i.fields != nil {
		return i.fields
	}
	ctx := context.Background()
	out := make(map[string]any, len(i.s.Fields))
	for _, f := range i.s.Fields {
		if f.DBName == "" || !f.Readable {
			continue
		}
		key := keyOf(f)
		if key == "-" {
			continue
		}
		v, _ := f.ValueOf(ctx, i.rv)
		out[key] = v
	}
	i.fields = out
	return out
}

// Loaded lists the relation fields holding data, in relation name order.
func (i *instance) Loaded() []ormvalues.Loaded {
	// gorm also files has-one and has-many relations under the target schema
	// as "_Owner_Name"; those fields live on the owner struct.
	rels := i.s.Relationships.Relations
	names := make([]string, 0, len(rels))
	for n, rel := range rels {
		if n != rel.Name || rel.Field == nil || rel.Field.Schema != i.s {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)

	ctx := context.Background()
	var out []ormvalues.Loaded
	for _, n := range names {
		rel := rels[n]
		fv := rel.Field.ReflectValueOf(ctx, i.rv)
		if !isLoaded(fv) {
			continue
		}
		as := i.a.association(rel)
		if as == nil {
			continue
		}
		l := ormvalues.Loaded{Association: as}
		if !as.Kind().Many() {
			l.One = i.a.wrap(rel.FieldSchema, fv)
		} else {
			for k := 0; k < fv.Len(); k++ {
				if item := i.a.wrap(rel.FieldSchema, fv.Index(k)); item != nil {
					l.Many = append(l.Many, ormvalues.Related{Instance: item})
				}
			}
		}
		out = append(out, l)
	}
	return out
}

// isLoaded reports whether a relation field was populated by a preload.
func isLoaded(fv reflect.Value) bool {
	switch fv.Kind() {
	case reflect.Pointer, reflect.Slice:
		return !fv.IsNil()
	case reflect.Struct:
		return !fv.IsZero()
	}
	return false
}

func (a *Adapter) wrap(s *schema.Schema, rv reflect.Value) ormvalues.Instance {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if !rv.CanAddr() {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		rv = p.Elem()
	}
	return &instance{a: a, s: s, rv: rv}
}
