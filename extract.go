package ormvalues

import (
	"reflect"

	"go.uber.org/zap"
)

// walker performs one extraction call. It is never shared between calls.
type walker struct {
	opt     ExtractOpt
	dedup   bool
	report  bool
	removed Removals
	onPath  map[any]struct{}
}

func newWalker(opts []ExtractOpt, dedup, report bool) *walker {
	return &walker{
		opt:    normalizeOpt(opts),
		dedup:  dedup,
		report: report,
		onPath: map[any]struct{}{},
	}
}

// jsonMarshaler is matched structurally so values with their own JSON form
// are kept as scalars.
type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

// value dispatches on the runtime shape of v.
func (w *walker) value(v any, p PathRef, depth int) any {
	if v == nil {
		return nil
	}
	if inst, ok := v.(Instance); ok && isNilPointer(inst) {
		return nil
	}
	if inst, ok := asInstance(v, w.opt.Adapter); ok {
		return w.instance(inst, p, depth)
	}
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = w.value(vv, w.field(p, k), depth)
		}
		return out
	case []any:
		if t == nil {
			return []any(nil)
		}
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = w.value(vv, w.index(p, i), depth)
		}
		return out
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64, []byte:
		return v
	case jsonMarshaler:
		return v
	}
	return w.reflectValue(v, p, depth)
}

// reflectValue handles typed slices, arrays and string-keyed maps. Anything
// else is a scalar and returned unchanged.
func (w *walker) reflectValue(v any, p PathRef, depth int) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		if rv.IsNil() {
			return []any(nil)
		}
		return w.sequence(rv, p, depth)
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		return w.sequence(rv, p, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		if rv.IsNil() {
			return map[string]any(nil)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			out[k] = w.value(iter.Value().Interface(), w.field(p, k), depth)
		}
		return out
	}
	return v
}

func (w *walker) sequence(rv reflect.Value, p PathRef, depth int) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = w.value(rv.Index(i).Interface(), w.index(p, i), depth)
	}
	return out
}

// instance renders the own fields of inst followed by its loaded
// associations. The returned map is freshly built and owned by the caller.
func (w *walker) instance(inst Instance, p PathRef, depth int) map[string]any {
	fields := inst.Fields()
	loaded := inst.Loaded()
	out := make(map[string]any, len(fields)+len(loaded))
	for k, v := range fields {
		out[k] = w.value(v, w.field(p, k), depth+1)
	}
	if len(loaded) == 0 {
		return out
	}
	if w.opt.MaxDepth > 0 && depth >= w.opt.MaxDepth {
		w.opt.Logger.Debug("associations truncated at max depth",
			zap.String("model", modelName(inst.Model())), zap.Int("depth", depth))
		return out
	}
	if id, ok := identityOf(inst); ok {
		if _, seen := w.onPath[id]; seen {
			w.opt.Logger.Debug("back reference rendered without associations",
				zap.String("model", modelName(inst.Model())), zap.String("path", w.pointer(p)))
			return out
		}
		w.onPath[id] = struct{}{}
		defer delete(w.onPath, id)
	} else if depth >= untrackedDepthLimit {
		w.opt.Logger.Debug("unidentified instance truncated",
			zap.String("model", modelName(inst.Model())), zap.Int("depth", depth))
		return out
	}
	for _, l := range loaded {
		if l.Association == nil {
			continue
		}
		if w.dedup {
			w.dedupe(inst, out, l, p, depth)
		} else {
			w.embed(out, l, p, depth)
		}
	}
	return out
}

// embed attaches a loaded association without removing any keys.
func (w *walker) embed(out map[string]any, l Loaded, p PathRef, depth int) {
	alias := l.Association.Alias()
	ap := w.field(p, alias)
	if !l.Association.Kind().Many() {
		out[alias] = w.one(l.One, ap, depth)
		return
	}
	var throughAs string
	if m, ok := l.Association.(*BelongsToMany); ok {
		throughAs = m.ThroughAs
	}
	items := make([]any, len(l.Many))
	for i, r := range l.Many {
		if absent(r.Instance) {
			continue
		}
		ip := w.index(ap, i)
		item := w.instance(r.Instance, ip, depth+1)
		if throughAs != "" && !absent(r.Through) {
			item[throughAs] = w.instance(r.Through, w.field(ip, throughAs), depth+1)
		}
		items[i] = item
	}
	out[alias] = items
}

func (w *walker) one(inst Instance, p PathRef, depth int) any {
	if absent(inst) {
		return nil
	}
	return w.instance(inst, p, depth+1)
}

// remove deletes key from m and records it when a report was requested.
func (w *walker) remove(m map[string]any, p PathRef, key string, a Association) {
	if _, ok := m[key]; !ok {
		return
	}
	delete(m, key)
	w.record(p, key, a)
}

func (w *walker) record(p PathRef, key string, a Association) {
	if w.report {
		w.removed = append(w.removed, Removal{Path: p.Pointer(), Key: key, Kind: a.Kind(), Alias: a.Alias()})
	}
}

// Paths are only built when a report was requested.

func (w *walker) field(p PathRef, name string) PathRef {
	if !w.report {
		return nil
	}
	return p.Field(name)
}

func (w *walker) index(p PathRef, i int) PathRef {
	if !w.report {
		return nil
	}
	return p.Index(i)
}

func (w *walker) pointer(p PathRef) string {
	if p == nil {
		return ""
	}
	return p.Pointer()
}

func absent(inst Instance) bool { return inst == nil || isNilPointer(inst) }

func modelName(m Model) string {
	if m == nil {
		return ""
	}
	return m.Name()
}
