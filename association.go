package ormvalues

import (
	"fmt"
	"strings"
)

// Kind identifies the association variant.
type Kind uint8

const (
	KindBelongsTo Kind = iota
	KindHasOne
	KindHasMany
	KindBelongsToMany
)

func (k Kind) String() string {
	switch k {
	case KindBelongsTo:
		return "BelongsTo"
	case KindHasOne:
		return "HasOne"
	case KindHasMany:
		return "HasMany"
	case KindBelongsToMany:
		return "BelongsToMany"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Many reports whether the association renders as a list.
func (k Kind) Many() bool { return k == KindHasMany || k == KindBelongsToMany }

// ParseKind accepts canonical names ("BelongsToMany") as well as lowerCamel
// and snake spellings ("belongsToMany", "many_to_many").
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	switch norm {
	case "belongsto":
		return KindBelongsTo, nil
	case "hasone":
		return KindHasOne, nil
	case "hasmany":
		return KindHasMany, nil
	case "belongstomany", "manytomany", "many2many":
		return KindBelongsToMany, nil
	}
	return 0, Issues{Root().Issue(CodeInvalidKind, "kind", s)}
}

// Model is the static description of a model type.
type Model interface {
	Name() string
	// PrimaryKeys lists the primary key field names. Dedup rules gated on a
	// primary key only fire when exactly one is listed.
	PrimaryKeys() []string
}

// Association is one edge between two models. The set of implementations is
// closed: *BelongsTo, *HasOne, *HasMany and *BelongsToMany.
//
// Key names left empty are treated as unknown and never deleted.
type Association interface {
	Kind() Kind
	// Alias is the key under which the related data is embedded.
	Alias() string
	association()
}

// BelongsTo: the source holds ForeignKey, which points at TargetKey on the
// target.
type BelongsTo struct {
	As         string
	ForeignKey string
	TargetKey  string
	Source     Model
	Target     Model
}

// HasOne: the target holds ForeignKey, which points at the source's primary
// key.
type HasOne struct {
	As         string
	ForeignKey string
	Source     Model
	Target     Model
}

// HasMany: like HasOne with a list of targets.
type HasMany struct {
	As         string
	ForeignKey string
	Source     Model
	Target     Model
}

// BelongsToMany joins source and target through a junction model. ForeignKey
// is the junction field pointing at the source, OtherKey the one pointing at
// the target. ThroughAs is the key the junction row is embedded under inside
// each target item.
type BelongsToMany struct {
	As         string
	ThroughAs  string
	ForeignKey string
	OtherKey   string
	Source     Model
	Target     Model
	Through    Model
}

func (*BelongsTo) Kind() Kind     { return KindBelongsTo }
func (*HasOne) Kind() Kind        { return KindHasOne }
func (*HasMany) Kind() Kind       { return KindHasMany }
func (*BelongsToMany) Kind() Kind { return KindBelongsToMany }

func (a *BelongsTo) Alias() string     { return a.As }
func (a *HasOne) Alias() string        { return a.As }
func (a *HasMany) Alias() string       { return a.As }
func (a *BelongsToMany) Alias() string { return a.As }

func (*BelongsTo) association()     {}
func (*HasOne) association()        {}
func (*HasMany) association()       {}
func (*BelongsToMany) association() {}

// SinglePrimaryKey returns the primary key field of m when it has exactly one.
func SinglePrimaryKey(m Model) (string, bool) {
	if m == nil {
		return "", false
	}
	pks := m.PrimaryKeys()
	if len(pks) != 1 || pks[0] == "" {
		return "", false
	}
	return pks[0], true
}
