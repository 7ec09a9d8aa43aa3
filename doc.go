// Package ormvalues provides:
//
// - Raw-value extraction of ORM model instances, including eagerly loaded
// associations, into plain maps, slices and scalars (Extract)
// - Deduplicated extraction that drops foreign keys and junction keys once the
// related record is embedded (ExtractDedup, ExtractDedupReport)
// - JSON helpers over both (Marshal, MarshalDedup, Encoder)
// - A stable error model via Issues (JSON Pointer, code, message) for model
// definition and hydration problems
//
// Design policy:
// - Keep the extractor in the root package. It consumes the Instance, Model
// and Association contracts and never depends on a concrete model system.
// - Concrete model systems live in subpackages: model/ (in-memory, YAML
// schemas, JSON hydration) and gormvalues/ (GORM structs).
// - HTTP integration lives under middleware/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	task := tasks.Build(map[string]any{"id": 1, "name": "Washing", "UserId": 7})
//	_ = task.IncludeOne("User", users.Build(map[string]any{"id": 7, "name": "John"}))
//
//	v := ormvalues.Extract(task)      // {id, name, UserId, User: {id, name}}
//	d := ormvalues.ExtractDedup(task) // {id, name, User: {id, name}}
//	b, err := ormvalues.MarshalDedup(task)
package ormvalues
