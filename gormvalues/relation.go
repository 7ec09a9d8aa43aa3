package gormvalues

import (
	"go.uber.org/zap"
	"gorm.io/gorm/schema"

	"github.com/reoring/ormvalues"
)

// association maps a gorm relationship onto an ormvalues association. Key
// names are only filled in for single-column references; polymorphic and
// composite references leave them empty so no dedup rule fires.
func (a *Adapter) association(rel *schema.Relationship) ormvalues.Association {
	if v, ok := a.assocs.Load(rel); ok {
		as, _ := v.(ormvalues.Association)
		return as
	}
	as := a.mapRelation(rel)
	if as == nil {
		a.opt.Logger.Debug("relation not mapped",
			zap.String("model", rel.Schema.Name),
			zap.String("relation", rel.Name),
			zap.String("type", string(rel.Type)))
		a.assocs.Store(rel, nil)
		return nil
	}
	v, _ := a.assocs.LoadOrStore(rel, as)
	return v.(ormvalues.Association)
}

func (a *Adapter) mapRelation(rel *schema.Relationship) ormvalues.Association {
	alias := keyOf(rel.Field)
	if alias == "-" {
		return nil
	}
	src, dst := a.modelOf(rel.Schema), a.modelOf(rel.FieldSchema)
	switch rel.Type {
	case schema.BelongsTo:
		as := &ormvalues.BelongsTo{As: alias, Source: src, Target: dst}
		if ref, ok := single(rel.References); ok {
			as.ForeignKey = keyOf(ref.ForeignKey)
			as.TargetKey = keyOf(ref.PrimaryKey)
		}
		return as
	case schema.HasOne:
		as := &ormvalues.HasOne{As: alias, Source: src, Target: dst}
		if ref, ok := single(rel.References); ok {
			as.ForeignKey = keyOf(ref.ForeignKey)
		}
		return as
	case schema.HasMany:
		as := &ormvalues.HasMany{As: alias, Source: src, Target: dst}
		if ref, ok := single(rel.References); ok {
			as.ForeignKey = keyOf(ref.ForeignKey)
		}
		return as
	case schema.Many2Many:
		as := &ormvalues.BelongsToMany{As: alias, Source: src, Target: dst}
		if rel.JoinTable != nil {
			as.Through = a.modelOf(rel.JoinTable)
			as.ThroughAs = rel.JoinTable.Name
		}
		var own, other []*schema.Reference
		for _, ref := range rel.References {
			if ref.OwnPrimaryKey {
				own = append(own, ref)
			} else {
				other = append(other, ref)
			}
		}
		if ref, ok := single(own); ok {
			as.ForeignKey = keyOf(ref.ForeignKey)
		}
		if ref, ok := single(other); ok {
			as.OtherKey = keyOf(ref.ForeignKey)
		}
		return as
	}
	return nil
}

func single(refs []*schema.Reference) (*schema.Reference, bool) {
	if len(refs) != 1 || refs[0].PrimaryKey == nil || refs[0].ForeignKey == nil {
		return nil, false
	}
	return refs[0], true
}

// keyOf is the output key of a struct field: its json name, else the Go
// field name.
func keyOf(f *schema.Field) string {
	return ormvalues.ResolveStructKey(f.StructField)
}
