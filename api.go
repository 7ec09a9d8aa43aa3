package ormvalues

// Extract returns the raw values of v: model instances become maps of their
// own fields plus their loaded associations, slices and string-keyed maps are
// copied element by element, and everything else is returned unchanged.
// v is never modified.
func Extract(v any, opts ...ExtractOpt) any {
	return newWalker(opts, false, false).value(v, nil, 0)
}

// ExtractDedup is Extract with redundant keys removed: foreign keys whose
// target is embedded next to them, and junction keys of belongs-to-many
// through records. For example {userId: 1, user: {id: 1}} becomes
// {user: {id: 1}}.
func ExtractDedup(v any, opts ...ExtractOpt) any {
	return newWalker(opts, true, false).value(v, nil, 0)
}

// ExtractDedupReport returns the same value as ExtractDedup together with the
// keys the dedup rules removed.
func ExtractDedupReport(v any, opts ...ExtractOpt) (any, Removals) {
	w := newWalker(opts, true, true)
	out := w.value(v, Root(), 0)
	return out, w.removed
}

// ExtractInstance is Extract for a single instance. A nil instance yields a
// nil map.
func ExtractInstance(inst Instance, opts ...ExtractOpt) map[string]any {
	if absent(inst) {
		return nil
	}
	return newWalker(opts, false, false).instance(inst, nil, 0)
}

// ExtractInstanceDedup is ExtractDedup for a single instance.
func ExtractInstanceDedup(inst Instance, opts ...ExtractOpt) map[string]any {
	if absent(inst) {
		return nil
	}
	return newWalker(opts, true, false).instance(inst, nil, 0)
}
