package ormvalues

import "go.uber.org/zap"

// dedupe attaches a loaded association and drops the keys it makes
// redundant. Only maps built during this call are modified.
func (w *walker) dedupe(src Instance, out map[string]any, l Loaded, p PathRef, depth int) {
	ap := w.field(p, l.Association.Alias())
	switch a := l.Association.(type) {
	case *BelongsTo:
		w.belongsTo(out, a, l.One, p, ap, depth)
	case *HasOne:
		w.hasOne(src, out, a, l.One, ap, depth)
	case *HasMany:
		w.hasMany(src, out, a, l.Many, ap, depth)
	case *BelongsToMany:
		w.belongsToMany(src, out, a, l.Many, ap, depth)
	default:
		w.embed(out, l, p, depth)
	}
}

// belongsTo drops the source's foreign key once the target's key is shown.
func (w *walker) belongsTo(out map[string]any, a *BelongsTo, related Instance, p, ap PathRef, depth int) {
	if absent(related) {
		out[a.As] = nil
		return
	}
	switch {
	case a.ForeignKey == "" || a.TargetKey == "":
		w.skipped(a, "association keys unknown")
	default:
		if _, ok := related.Fields()[a.TargetKey]; ok {
			w.remove(out, p, a.ForeignKey, a)
		} else {
			w.skipped(a, "target key not loaded")
		}
	}
	out[a.As] = w.instance(related, ap, depth+1)
}

// hasOne drops the foreign key from the embedded target, which is implied by
// the nesting.
func (w *walker) hasOne(src Instance, out map[string]any, a *HasOne, related Instance, ap PathRef, depth int) {
	if absent(related) {
		out[a.As] = nil
		return
	}
	item := w.instance(related, ap, depth+1)
	if w.sourceKeyShown(src, a.Source, a, a.ForeignKey) {
		w.remove(item, ap, a.ForeignKey, a)
	}
	out[a.As] = item
}

// hasMany is hasOne applied to every item.
func (w *walker) hasMany(src Instance, out map[string]any, a *HasMany, related []Related, ap PathRef, depth int) {
	drop := w.sourceKeyShown(src, a.Source, a, a.ForeignKey)
	items := make([]any, len(related))
	for i, r := range related {
		if absent(r.Instance) {
			continue
		}
		ip := w.index(ap, i)
		item := w.instance(r.Instance, ip, depth+1)
		if drop {
			w.remove(item, ip, a.ForeignKey, a)
		}
		items[i] = item
	}
	out[a.As] = items
}

// belongsToMany prunes both junction keys from each through record and omits
// the record when nothing else is left in it.
func (w *walker) belongsToMany(src Instance, out map[string]any, a *BelongsToMany, related []Related, ap PathRef, depth int) {
	dropSource := w.sourceKeyShown(src, a.Source, a, a.ForeignKey)
	if a.ThroughAs == "" {
		w.skipped(a, "through alias unknown")
	}
	items := make([]any, len(related))
	for i, r := range related {
		if absent(r.Instance) {
			continue
		}
		ip := w.index(ap, i)
		var through map[string]any
		hadThrough := a.ThroughAs != "" && !absent(r.Through)
		if hadThrough {
			tp := w.field(ip, a.ThroughAs)
			through = w.instance(r.Through, tp, depth+1)
			if dropSource {
				w.remove(through, tp, a.ForeignKey, a)
			}
			if a.OtherKey != "" && w.targetKeyShown(r.Instance, a.Target) {
				w.remove(through, tp, a.OtherKey, a)
			}
		}
		item := w.instance(r.Instance, ip, depth+1)
		if a.ThroughAs != "" {
			if len(through) > 0 {
				item[a.ThroughAs] = through
			} else {
				delete(item, a.ThroughAs)
				if hadThrough {
					w.record(ip, a.ThroughAs, a)
				}
			}
		}
		items[i] = item
	}
	out[a.As] = items
}

// sourceKeyShown reports whether the source model has a single primary key
// and src carries it, which makes fk redundant below src.
func (w *walker) sourceKeyShown(src Instance, m Model, a Association, fk string) bool {
	if fk == "" {
		w.skipped(a, "foreign key unknown")
		return false
	}
	if m == nil {
		m = src.Model()
	}
	pk, ok := SinglePrimaryKey(m)
	if !ok {
		w.skipped(a, "source primary key is composite or absent")
		return false
	}
	if _, ok := src.Fields()[pk]; !ok {
		w.skipped(a, "source primary key not loaded")
		return false
	}
	return true
}

// targetKeyShown reports whether item carries the single primary key of the
// target model.
func (w *walker) targetKeyShown(item Instance, m Model) bool {
	if m == nil {
		m = item.Model()
	}
	pk, ok := SinglePrimaryKey(m)
	if !ok {
		return false
	}
	_, ok = item.Fields()[pk]
	return ok
}

func (w *walker) skipped(a Association, reason string) {
	w.opt.Logger.Debug("dedup rule skipped",
		zap.Stringer("kind", a.Kind()),
		zap.String("alias", a.Alias()),
		zap.String("reason", reason))
}
