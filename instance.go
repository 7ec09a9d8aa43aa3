package ormvalues

import "reflect"

// Instance is a materialized model record as seen by the extractor.
type Instance interface {
	Model() Model
	// Fields returns the instance's own column values. Callers must treat the
	// map as read-only.
	Fields() map[string]any
	// Loaded lists the associations eagerly attached to this instance.
	// Associations that were not loaded are not listed.
	Loaded() []Loaded
}

// Loaded is one eagerly attached association. One is used by BelongsTo and
// HasOne (nil means the association was loaded but is empty); Many by HasMany
// and BelongsToMany.
type Loaded struct {
	Association Association
	One         Instance
	Many        []Related
}

// Related is one item of a list association. Through holds the junction row
// of a BelongsToMany item and is nil otherwise.
type Related struct {
	Instance Instance
	Through  Instance
}

// Identifier is implemented by instances that wrap another record and can
// report its address. The extractor uses it to stop at back references.
// Pointer instances and comparable value wrappers are identified without it;
// a non-comparable value wrapper that does not implement it is only stopped
// by a nesting limit.
type Identifier interface {
	Identity() uintptr
}

// Adapter recognizes values of a concrete model system as instances.
type Adapter interface {
	Instance(v any) (Instance, bool)
}

// AdapterFunc adapts a function to the Adapter interface.
type AdapterFunc func(v any) (Instance, bool)

func (f AdapterFunc) Instance(v any) (Instance, bool) { return f(v) }

// IsInstance reports whether v is a model instance, either by implementing
// Instance or by being recognized by the optional adapter.
func IsInstance(v any, a Adapter) bool {
	_, ok := asInstance(v, a)
	return ok
}

func asInstance(v any, a Adapter) (Instance, bool) {
	if v == nil {
		return nil, false
	}
	if inst, ok := v.(Instance); ok {
		if isNilPointer(inst) {
			return nil, false
		}
		return inst, true
	}
	if a != nil {
		return a.Instance(v)
	}
	return nil, false
}

// identityOf returns the key used for cycle detection. Value wrappers are
// keyed by the wrapper itself, so two wrappers of the same record match.
func identityOf(inst Instance) (any, bool) {
	if id, ok := inst.(Identifier); ok {
		if a := id.Identity(); a != 0 {
			return a, true
		}
	}
	rv := reflect.ValueOf(inst)
	if rv.Kind() == reflect.Pointer {
		return rv.Pointer(), true
	}
	if rv.Comparable() {
		return inst, true
	}
	return nil, false
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func:
		return rv.IsNil()
	}
	return false
}
