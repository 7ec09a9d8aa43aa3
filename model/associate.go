package model

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jinzhu/inflection"

	"github.com/reoring/ormvalues"
)

// AssocOpt configures BelongsTo, HasOne and HasMany. Empty fields take the
// naming defaults described on each method.
type AssocOpt struct {
	As         string
	ForeignKey string
	// TargetKey is the field on the target that a BelongsTo foreign key points
	// at. Ignored by HasOne and HasMany.
	TargetKey string
}

// ManyOpt configures BelongsToMany.
type ManyOpt struct {
	As        string
	Through   *Model
	ThroughAs string
	// ForeignKey is the through field pointing at the source.
	ForeignKey string
	// OtherKey is the through field pointing at the target.
	OtherKey string
}

// BelongsTo declares that m holds a foreign key to target.
// Defaults: alias is the target name, target key is the target's single
// primary key (or "id"), foreign key is alias + TargetKey with the first
// letter upper-cased ("UserId").
func (m *Model) BelongsTo(target *Model, opt AssocOpt) (*ormvalues.BelongsTo, error) {
	if err := m.checkTarget(target, opt.As); err != nil {
		return nil, err
	}
	a := &ormvalues.BelongsTo{
		As:         firstNonEmpty(opt.As, target.name),
		TargetKey:  firstNonEmpty(opt.TargetKey, keyOf(target)),
		ForeignKey: opt.ForeignKey,
		Source:     m,
		Target:     target,
	}
	if a.ForeignKey == "" {
		a.ForeignKey = a.As + upperFirst(a.TargetKey)
	}
	if err := m.register(a, m, a.ForeignKey); err != nil {
		return nil, err
	}
	return a, nil
}

// HasOne declares that target holds a foreign key to m and at most one target
// exists per m.
// Defaults: alias is the target name, foreign key is m's name + m's primary
// key with the first letter upper-cased ("UserId").
func (m *Model) HasOne(target *Model, opt AssocOpt) (*ormvalues.HasOne, error) {
	if err := m.checkTarget(target, opt.As); err != nil {
		return nil, err
	}
	a := &ormvalues.HasOne{
		As:         firstNonEmpty(opt.As, target.name),
		ForeignKey: firstNonEmpty(opt.ForeignKey, m.name+upperFirst(keyOf(m))),
		Source:     m,
		Target:     target,
	}
	if err := m.register(a, target, a.ForeignKey); err != nil {
		return nil, err
	}
	return a, nil
}

// HasMany is HasOne for any number of targets. The default alias is the
// plural of the target name ("Tasks").
func (m *Model) HasMany(target *Model, opt AssocOpt) (*ormvalues.HasMany, error) {
	if err := m.checkTarget(target, opt.As); err != nil {
		return nil, err
	}
	a := &ormvalues.HasMany{
		As:         firstNonEmpty(opt.As, inflection.Plural(target.name)),
		ForeignKey: firstNonEmpty(opt.ForeignKey, m.name+upperFirst(keyOf(m))),
		Source:     m,
		Target:     target,
	}
	if err := m.register(a, target, a.ForeignKey); err != nil {
		return nil, err
	}
	return a, nil
}

// BelongsToMany declares a many-to-many association through a junction model.
// Defaults: alias is the plural of the target name, ThroughAs is the through
// model's name, ForeignKey is m's name + primary key, OtherKey is the target's
// name + primary key, or the singular alias + primary key for self joins.
func (m *Model) BelongsToMany(target *Model, opt ManyOpt) (*ormvalues.BelongsToMany, error) {
	if err := m.checkTarget(target, opt.As); err != nil {
		return nil, err
	}
	p := ormvalues.Root().Field(m.name).Field(firstNonEmpty(opt.As, target.name))
	if opt.Through == nil {
		return nil, ormvalues.Issues{p.Field("through").Issue(ormvalues.CodeMissingThrough, "model", m.name)}
	}
	if opt.Through.reg != m.reg {
		return nil, ormvalues.Issues{p.Field("through").Issue(ormvalues.CodeTargetMismatch, "model", opt.Through.name)}
	}
	a := &ormvalues.BelongsToMany{
		As:         firstNonEmpty(opt.As, inflection.Plural(target.name)),
		ThroughAs:  firstNonEmpty(opt.ThroughAs, opt.Through.name),
		ForeignKey: firstNonEmpty(opt.ForeignKey, m.name+upperFirst(keyOf(m))),
		OtherKey:   opt.OtherKey,
		Source:     m,
		Target:     target,
		Through:    opt.Through,
	}
	if a.OtherKey == "" {
		if target == m {
			a.OtherKey = inflection.Singular(a.As) + upperFirst(keyOf(target))
		} else {
			a.OtherKey = target.name + upperFirst(keyOf(target))
		}
	}
	if a.OtherKey == a.ForeignKey {
		return nil, ormvalues.Issues{p.Field("otherKey").Issue(ormvalues.CodeAmbiguousKey, "key", a.OtherKey)}
	}
	if err := m.register(a, opt.Through, a.ForeignKey, a.OtherKey); err != nil {
		return nil, err
	}
	return a, nil
}

func (m *Model) checkTarget(target *Model, as string) error {
	if target == nil {
		return ormvalues.Issues{ormvalues.Root().Field(m.name).Field(as).Issue(ormvalues.CodeUnknownModel, "alias", as)}
	}
	if target.reg != m.reg {
		return ormvalues.Issues{ormvalues.Root().Field(m.name).Field(as).Issue(ormvalues.CodeTargetMismatch, "model", target.name)}
	}
	return nil
}

// register adds a to m, rejecting duplicate aliases, and declares the key
// fields the association implies on keyOwner.
func (m *Model) register(a ormvalues.Association, keyOwner *Model, keys ...string) error {
	m.reg.mu.Lock()
	defer m.reg.mu.Unlock()
	alias := a.Alias()
	if _, ok := m.byAlias[alias]; ok {
		return ormvalues.Issues{ormvalues.Root().Field(m.name).Field(alias).Issue(ormvalues.CodeDuplicateAlias, "alias", alias)}
	}
	m.byAlias[alias] = a
	m.assocs = append(m.assocs, a)
	keyOwner.addFields(keys...)
	return nil
}

// keyOf is the model's single primary key, or DefaultPrimaryKey.
func keyOf(m *Model) string {
	if pk, ok := ormvalues.SinglePrimaryKey(m); ok {
		return pk
	}
	return DefaultPrimaryKey
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
