package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/reoring/ormvalues"
)

// Schema is the YAML form of a set of models and associations:
//
//	models:
//	  - name: User
//	    fields: [name]
//	  - name: UserGroup
//	    primaryKey: [UserId, GroupId]
//	associations:
//	  - {source: User, kind: belongsToMany, target: Group, through: UserGroup}
type Schema struct {
	Models       []ModelSpec       `yaml:"models"`
	Associations []AssociationSpec `yaml:"associations"`
}

// ModelSpec is one entry of Schema.Models.
type ModelSpec struct {
	Name         string   `yaml:"name"`
	Fields       []string `yaml:"fields,omitempty"`
	PrimaryKey   []string `yaml:"primaryKey,omitempty"`
	NoPrimaryKey bool     `yaml:"noPrimaryKey,omitempty"`
}

// AssociationSpec is one entry of Schema.Associations. Kind accepts the
// spellings of ormvalues.ParseKind.
type AssociationSpec struct {
	Source     string `yaml:"source"`
	Kind       string `yaml:"kind"`
	Target     string `yaml:"target"`
	As         string `yaml:"as,omitempty"`
	ForeignKey string `yaml:"foreignKey,omitempty"`
	TargetKey  string `yaml:"targetKey,omitempty"`
	Through    string `yaml:"through,omitempty"`
	ThroughAs  string `yaml:"throughAs,omitempty"`
	OtherKey   string `yaml:"otherKey,omitempty"`
}

// LoadYAML builds a Registry from a YAML schema document.
func LoadYAML(data []byte) (*Registry, error) {
	r := NewRegistry()
	if err := r.LoadYAML(data); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadYAMLReader is LoadYAML reading from rd.
func LoadYAMLReader(rd io.Reader) (*Registry, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("model: read schema: %w", err)
	}
	return LoadYAML(data)
}

// LoadYAML adds the models and associations of a YAML schema document to r.
// Unknown keys are rejected. All problems are reported together as
// ormvalues.Issues whose paths point into the document.
func (r *Registry) LoadYAML(data []byte) error {
	var s Schema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return ormvalues.Issues{{Path: "/", Code: ormvalues.CodeParseError, Message: err.Error(), Cause: err}}
	}
	return r.Apply(s)
}

// Apply registers the models and then the associations of s.
func (r *Registry) Apply(s Schema) error {
	var iss ormvalues.Issues
	root := ormvalues.Root()
	for k, ms := range s.Models {
		_, err := r.Define(Definition{
			Name:         ms.Name,
			Fields:       ms.Fields,
			PrimaryKeys:  ms.PrimaryKey,
			NoPrimaryKey: ms.NoPrimaryKey,
		})
		if err != nil {
			iss = append(iss, rebase(err, root.Field("models").Index(k))...)
		}
	}
	for k, as := range s.Associations {
		if err := r.applyAssociation(as); err != nil {
			iss = append(iss, rebase(err, root.Field("associations").Index(k))...)
		}
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (r *Registry) applyAssociation(as AssociationSpec) error {
	p := ormvalues.Root()
	source, ok := r.Model(as.Source)
	if !ok {
		return ormvalues.Issues{p.Field("source").Issue(ormvalues.CodeUnknownModel, "model", as.Source)}
	}
	target, ok := r.Model(as.Target)
	if !ok {
		return ormvalues.Issues{p.Field("target").Issue(ormvalues.CodeUnknownModel, "model", as.Target)}
	}
	kind, err := ormvalues.ParseKind(as.Kind)
	if err != nil {
		return ormvalues.Issues{p.Field("kind").Issue(ormvalues.CodeInvalidKind, "kind", as.Kind)}
	}
	opt := AssocOpt{As: as.As, ForeignKey: as.ForeignKey, TargetKey: as.TargetKey}
	switch kind {
	case ormvalues.KindBelongsTo:
		_, err = source.BelongsTo(target, opt)
	case ormvalues.KindHasOne:
		_, err = source.HasOne(target, opt)
	case ormvalues.KindHasMany:
		_, err = source.HasMany(target, opt)
	case ormvalues.KindBelongsToMany:
		if as.Through == "" {
			return ormvalues.Issues{p.Field("through").Issue(ormvalues.CodeMissingThrough, "model", as.Source)}
		}
		through, ok := r.Model(as.Through)
		if !ok {
			return ormvalues.Issues{p.Field("through").Issue(ormvalues.CodeUnknownModel, "model", as.Through)}
		}
		_, err = source.BelongsToMany(target, ManyOpt{
			As:         as.As,
			Through:    through,
			ThroughAs:  as.ThroughAs,
			ForeignKey: as.ForeignKey,
			OtherKey:   as.OtherKey,
		})
	}
	if err != nil {
		// declaration issues are keyed by model and alias, not by document
		// position
		iss := ormvalues.ToIssues(err)
		for k := range iss {
			iss[k].Path = "/"
		}
		return iss
	}
	return nil
}

// rebase moves issue paths under base.
func rebase(err error, base ormvalues.PathRef) ormvalues.Issues {
	iss := ormvalues.ToIssues(err)
	out := make(ormvalues.Issues, len(iss))
	for k, it := range iss {
		p := base
		if it.Path != "/" {
			for _, seg := range ormvalues.Segments(it.Path) {
				p = p.Field(seg)
			}
		}
		it.Path = p.Pointer()
		out[k] = it
	}
	return out
}
