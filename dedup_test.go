package ormvalues_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/ormvalues"
	"github.com/reoring/ormvalues/model"
)

// lowerKeys is a schema with lower camel foreign keys, the way most JSON APIs
// spell them.
type lowerKeys struct {
	User, Task, Group, Party, UserGroup, UserParty *model.Model
}

func newLowerKeys(t *testing.T) *lowerKeys {
	t.Helper()
	r := model.NewRegistry()
	s := &lowerKeys{
		User:      r.MustDefine(model.Definition{Name: "User"}),
		Task:      r.MustDefine(model.Definition{Name: "Task"}),
		Group:     r.MustDefine(model.Definition{Name: "Group"}),
		Party:     r.MustDefine(model.Definition{Name: "Party"}),
		UserGroup: r.MustDefine(model.Definition{Name: "UserGroup", PrimaryKeys: []string{"UserId", "GroupId"}}),
		UserParty: r.MustDefine(model.Definition{Name: "UserParty", PrimaryKeys: []string{"UserId", "PartyId"}}),
	}
	_, err := s.Task.BelongsTo(s.User, model.AssocOpt{ForeignKey: "userId"})
	require.NoError(t, err)
	_, err = s.Task.BelongsTo(s.User, model.AssocOpt{As: "Owner", ForeignKey: "ownerId"})
	require.NoError(t, err)
	_, err = s.User.HasMany(s.Task, model.AssocOpt{ForeignKey: "userId"})
	require.NoError(t, err)
	_, err = s.User.BelongsToMany(s.Group, model.ManyOpt{Through: s.UserGroup})
	require.NoError(t, err)
	_, err = s.User.BelongsToMany(s.Party, model.ManyOpt{Through: s.UserParty})
	require.NoError(t, err)
	return s
}

func (s *lowerKeys) washing() *model.Instance {
	return s.Task.Build(map[string]any{"id": 1, "name": "Washing", "userId": 7, "ownerId": 3})
}

func TestDedup_BelongsTo(t *testing.T) {
	s := newLowerKeys(t)
	task := s.washing()
	require.NoError(t, task.IncludeOne("User", s.User.Build(map[string]any{"id": 7, "name": "John"})))

	assert.Equal(t, map[string]any{
		"id": 1, "name": "Washing", "userId": 7, "ownerId": 3,
		"User": map[string]any{"id": 7, "name": "John"},
	}, ormvalues.Extract(task))

	assert.Equal(t, map[string]any{
		"id": 1, "name": "Washing", "ownerId": 3,
		"User": map[string]any{"id": 7, "name": "John"},
	}, ormvalues.ExtractDedup(task))
}

func TestDedup_BelongsToWithoutTargetKeyKeepsForeignKey(t *testing.T) {
	s := newLowerKeys(t)
	task := s.washing()
	// only some attributes of the user were selected
	require.NoError(t, task.IncludeOne("User", s.User.Build(map[string]any{"name": "John"})))

	got := ormvalues.ExtractDedup(task).(map[string]any)
	assert.Equal(t, 7, got["userId"])
}

func TestDedup_BelongsToEmptyKeepsForeignKey(t *testing.T) {
	s := newLowerKeys(t)
	task := s.washing()
	require.NoError(t, task.IncludeOne("User", nil))

	assert.Equal(t, map[string]any{
		"id": 1, "name": "Washing", "userId": 7, "ownerId": 3, "User": nil,
	}, ormvalues.ExtractDedup(task))
}

func TestDedup_HasMany(t *testing.T) {
	s := newLowerKeys(t)
	user := s.User.Build(map[string]any{"id": 7})
	require.NoError(t, user.IncludeMany("Tasks", s.Task.Build(map[string]any{"id": 1, "name": "Washing", "userId": 7})))

	got := ormvalues.ExtractDedup(user).(map[string]any)
	assert.Equal(t, []any{map[string]any{"id": 1, "name": "Washing"}}, got["Tasks"])

	plain := ormvalues.Extract(user).(map[string]any)
	assert.Equal(t, []any{map[string]any{"id": 1, "name": "Washing", "userId": 7}}, plain["Tasks"])
}

func TestDedup_HasManySourceKeyNotLoaded(t *testing.T) {
	s := newLowerKeys(t)
	user := s.User.Build(map[string]any{"name": "John"})
	require.NoError(t, user.IncludeMany("Tasks", s.Task.Build(map[string]any{"id": 1, "userId": 7})))

	got := ormvalues.ExtractDedup(user).(map[string]any)
	assert.Equal(t, []any{map[string]any{"id": 1, "userId": 7}}, got["Tasks"])
}

func TestDedup_BelongsToManyEmptyThroughOmitted(t *testing.T) {
	s := newLowerKeys(t)
	user := s.User.Build(map[string]any{"id": 3})
	require.NoError(t, user.IncludeThrough("Groups", model.Link{
		Target:  s.Group.Build(map[string]any{"id": 9, "name": "Admin"}),
		Through: s.UserGroup.Build(map[string]any{"UserId": 3, "GroupId": 9}),
	}))

	got := ormvalues.ExtractDedup(user).(map[string]any)
	assert.Equal(t, []any{map[string]any{"id": 9, "name": "Admin"}}, got["Groups"])
}

func TestDedup_BelongsToManyThroughFieldsKept(t *testing.T) {
	s := newLowerKeys(t)
	user := s.User.Build(map[string]any{"id": 3})
	require.NoError(t, user.IncludeThrough("Parties", model.Link{
		Target:  s.Party.Build(map[string]any{"id": 9, "name": "Wild"}),
		Through: s.UserParty.Build(map[string]any{"UserId": 3, "PartyId": 9, "status": "OK"}),
	}))

	got := ormvalues.ExtractDedup(user).(map[string]any)
	assert.Equal(t, []any{map[string]any{
		"id": 9, "name": "Wild",
		"UserParty": map[string]any{"status": "OK"},
	}}, got["Parties"])
}

func TestDedup_BelongsToManyTargetKeyNotLoaded(t *testing.T) {
	s := newLowerKeys(t)
	user := s.User.Build(map[string]any{"id": 3})
	require.NoError(t, user.IncludeThrough("Groups", model.Link{
		Target:  s.Group.Build(map[string]any{"name": "Admin"}),
		Through: s.UserGroup.Build(map[string]any{"UserId": 3, "GroupId": 9}),
	}))

	got := ormvalues.ExtractDedup(user).(map[string]any)
	assert.Equal(t, []any{map[string]any{
		"name":      "Admin",
		"UserGroup": map[string]any{"GroupId": 9},
	}}, got["Groups"])
}

func TestDedup_CompositeOrAbsentSourceKey(t *testing.T) {
	r := model.NewRegistry()
	account := r.MustDefine(model.Definition{Name: "Account", PrimaryKeys: []string{"tenant", "id"}})
	entry := r.MustDefine(model.Definition{Name: "Entry"})
	audit := r.MustDefine(model.Definition{Name: "Audit", NoPrimaryKey: true})
	detail := r.MustDefine(model.Definition{Name: "Detail"})
	role := r.MustDefine(model.Definition{Name: "Role"})
	grant := r.MustDefine(model.Definition{Name: "Grant", NoPrimaryKey: true})

	_, err := account.HasMany(entry, model.AssocOpt{ForeignKey: "accountId"})
	require.NoError(t, err)
	_, err = account.HasOne(detail, model.AssocOpt{ForeignKey: "accountId"})
	require.NoError(t, err)
	_, err = audit.HasOne(detail, model.AssocOpt{As: "AuditDetail", ForeignKey: "auditId"})
	require.NoError(t, err)
	_, err = account.BelongsToMany(role, model.ManyOpt{Through: grant, ForeignKey: "accountId", OtherKey: "roleId"})
	require.NoError(t, err)

	acc := account.Build(map[string]any{"tenant": "t1", "id": 1})
	require.NoError(t, acc.IncludeMany("Entries", entry.Build(map[string]any{"id": 10, "accountId": 1})))
	require.NoError(t, acc.IncludeOne("Detail", detail.Build(map[string]any{"id": 20, "accountId": 1})))
	require.NoError(t, acc.IncludeThrough("Roles", model.Link{
		Target:  role.Build(map[string]any{"id": 5}),
		Through: grant.Build(map[string]any{"accountId": 1, "roleId": 5}),
	}))

	assert.Equal(t, map[string]any{
		"tenant": "t1", "id": 1,
		"Entries": []any{map[string]any{"id": 10, "accountId": 1}},
		"Detail":  map[string]any{"id": 20, "accountId": 1},
		// the target key is single, so only the source side is kept
		"Roles": []any{map[string]any{"id": 5, "Grant": map[string]any{"accountId": 1}}},
	}, ormvalues.ExtractDedup(acc))

	a := audit.Build(map[string]any{"at": "now"})
	require.NoError(t, a.IncludeOne("AuditDetail", detail.Build(map[string]any{"id": 30, "auditId": 1})))
	assert.Equal(t, map[string]any{
		"at":          "now",
		"AuditDetail": map[string]any{"id": 30, "auditId": 1},
	}, ormvalues.ExtractDedup(a))
}

// Dedup rules look at the instance's own fields, so a rule that removes a key
// shared with the primary key does not change what later rules see.
func TestDedup_SiblingOrderIrrelevant(t *testing.T) {
	build := func(t *testing.T, reversed bool) any {
		r := model.NewRegistry()
		user := r.MustDefine(model.Definition{Name: "User"})
		profile := r.MustDefine(model.Definition{Name: "Profile", PrimaryKeys: []string{"userId"}})
		note := r.MustDefine(model.Definition{Name: "Note"})
		_, err := profile.BelongsTo(user, model.AssocOpt{ForeignKey: "userId"})
		require.NoError(t, err)
		_, err = profile.HasMany(note, model.AssocOpt{ForeignKey: "profileId"})
		require.NoError(t, err)

		p := profile.Build(map[string]any{"userId": 1, "bio": "hi"})
		includeUser := func() { require.NoError(t, p.IncludeOne("User", user.Build(map[string]any{"id": 1}))) }
		includeNotes := func() {
			require.NoError(t, p.IncludeMany("Notes", note.Build(map[string]any{"id": 2, "profileId": 1})))
		}
		if reversed {
			includeNotes()
			includeUser()
		} else {
			includeUser()
			includeNotes()
		}
		return ormvalues.ExtractDedup(p)
	}

	want := map[string]any{
		"bio":   "hi",
		"User":  map[string]any{"id": 1},
		"Notes": []any{map[string]any{"id": 2}},
	}
	assert.Equal(t, want, build(t, false))
	assert.Equal(t, want, build(t, true))
}

func TestDedup_OneToOne(t *testing.T) {
	f := newFixture(t)

	bob := f.bob()
	require.NoError(t, bob.IncludeOne("Profile", f.profile()))
	assert.Equal(t, map[string]any{
		"id": bobID, "name": "Bob",
		"Profile": map[string]any{"id": 1, "name": "Profile", "AltUserId": johnID},
	}, ormvalues.ExtractDedup(bob))

	john := f.john()
	require.NoError(t, john.IncludeOne("AltProfile", f.profile()))
	assert.Equal(t, map[string]any{
		"id": johnID, "name": "John",
		"AltProfile": map[string]any{"id": 1, "name": "Profile", "UserId": bobID},
	}, ormvalues.ExtractDedup(john))

	profile := f.profile()
	require.NoError(t, profile.IncludeOne("User", f.bob()))
	require.NoError(t, profile.IncludeOne("AltUser", f.john()))
	assert.Equal(t, map[string]any{
		"id": 1, "name": "Profile",
		"User":    map[string]any{"id": bobID, "name": "Bob"},
		"AltUser": map[string]any{"id": johnID, "name": "John"},
	}, ormvalues.ExtractDedup(profile))
}

func TestDedup_OneToMany(t *testing.T) {
	f := newFixture(t)

	bob := f.bob()
	require.NoError(t, bob.IncludeMany("OwnedTasks", f.washing()))
	assert.Equal(t, map[string]any{
		"id": bobID, "name": "Bob",
		"OwnedTasks": []any{map[string]any{"id": 1, "name": "Washing", "UserId": johnID}},
	}, ormvalues.ExtractDedup(bob))

	task := f.washing()
	require.NoError(t, task.IncludeOne("Owner", f.bob()))
	assert.Equal(t, map[string]any{
		"id": 1, "name": "Washing", "UserId": johnID,
		"Owner": map[string]any{"id": bobID, "name": "Bob"},
	}, ormvalues.ExtractDedup(task))
}

func TestDedup_ManyToMany(t *testing.T) {
	f := newFixture(t)
	task := f.washing()
	require.NoError(t, task.IncludeThrough("Workers", model.Link{
		Target:  f.bob(),
		Through: f.TaskWorker.Build(map[string]any{"TaskId": 1, "UserId": bobID}),
	}))
	require.NoError(t, task.IncludeThrough("Supervisors", model.Link{
		Target:  f.john(),
		Through: f.TaskSupervisor.Build(map[string]any{"TaskId": 1, "UserId": johnID, "status": "OK"}),
	}))

	assert.Equal(t, map[string]any{
		"id": 1, "name": "Washing", "UserId": johnID, "OwnerId": bobID,
		"Workers": []any{map[string]any{"id": bobID, "name": "Bob"}},
		"Supervisors": []any{map[string]any{
			"id": johnID, "name": "John",
			"TaskSupervisor": map[string]any{"status": "OK"},
		}},
	}, ormvalues.ExtractDedup(task))

	// plain extraction keeps the junction rows untouched
	plain := ormvalues.Extract(task).(map[string]any)
	assert.Equal(t, []any{map[string]any{
		"id": bobID, "name": "Bob",
		"TaskWorker": map[string]any{"TaskId": 1, "UserId": bobID},
	}}, plain["Workers"])
}

func TestDedup_SelfJoin(t *testing.T) {
	f := newFixture(t)

	bob := f.bob()
	require.NoError(t, bob.IncludeThrough("Likes", model.Link{
		Target:  f.john(),
		Through: f.UserLike.Build(map[string]any{"UserId": bobID, "LikeId": johnID}),
	}))
	require.NoError(t, bob.IncludeThrough("Haters", model.Link{
		Target:  f.john(),
		Through: f.UserHate.Build(map[string]any{"UserId": johnID, "HateId": bobID, "status": "OK"}),
	}))
	assert.Equal(t, map[string]any{
		"id": bobID, "name": "Bob",
		"Likes":  []any{map[string]any{"id": johnID, "name": "John"}},
		"Haters": []any{map[string]any{"id": johnID, "name": "John", "UserHate": map[string]any{"status": "OK"}}},
	}, ormvalues.ExtractDedup(bob))

	john := f.john()
	require.NoError(t, john.IncludeThrough("Hates", model.Link{
		Target:  f.bob(),
		Through: f.UserHate.Build(map[string]any{"UserId": johnID, "HateId": bobID, "status": "OK"}),
	}))
	assert.Equal(t, map[string]any{
		"id": johnID, "name": "John",
		"Hates": []any{map[string]any{"id": bobID, "name": "Bob", "UserHate": map[string]any{"status": "OK"}}},
	}, ormvalues.ExtractDedup(john))
}

func TestDedup_Nested(t *testing.T) {
	f := newFixture(t)
	admin := f.admin()
	bob := f.bob()
	require.NoError(t, bob.IncludeOne("Profile", f.profile()))
	require.NoError(t, bob.IncludeMany("OwnedTasks", f.washing()))
	require.NoError(t, admin.IncludeThrough("Users", model.Link{
		Target:  bob,
		Through: f.UserGroup.Build(map[string]any{"UserId": bobID, "GroupId": 1}),
	}))

	assert.Equal(t, []any{map[string]any{
		"id": 1, "name": "Admin",
		"Users": []any{map[string]any{
			"id": bobID, "name": "Bob",
			"Profile":    map[string]any{"id": 1, "name": "Profile", "AltUserId": johnID},
			"OwnedTasks": []any{map[string]any{"id": 1, "name": "Washing", "UserId": johnID}},
		}},
	}}, ormvalues.ExtractDedup([]*model.Instance{admin}))
}

func TestDedupReport(t *testing.T) {
	f := newFixture(t)
	task := f.washing()
	require.NoError(t, task.IncludeOne("Owner", f.bob()))
	require.NoError(t, task.IncludeThrough("Workers", model.Link{
		Target:  f.bob(),
		Through: f.TaskWorker.Build(map[string]any{"TaskId": 1, "UserId": bobID}),
	}))

	out, removed := ormvalues.ExtractDedupReport([]any{task})
	assert.Equal(t, ormvalues.ExtractDedup([]any{task}), out)
	assert.Equal(t, []string{
		"/0/OwnerId",
		"/0/Workers/0/TaskWorker",
		"/0/Workers/0/TaskWorker/TaskId",
		"/0/Workers/0/TaskWorker/UserId",
	}, removed.Pointers())

	byPath := removed.ByPath()
	assert.Equal(t, []string{"TaskId", "UserId"}, byPath["/0/Workers/0/TaskWorker"])
	assert.Len(t, removed.Under("/0/Workers"), 3)
	for _, r := range removed.Under("/0/Workers") {
		assert.Equal(t, ormvalues.KindBelongsToMany, r.Kind)
		assert.Equal(t, "Workers", r.Alias)
	}

	_, none := ormvalues.ExtractDedupReport(f.bob())
	assert.Empty(t, none)
}

func TestDedupReport_EmptyKeySegment(t *testing.T) {
	f := newFixture(t)
	task := f.washing()
	require.NoError(t, task.IncludeOne("Owner", f.bob()))

	_, removed := ormvalues.ExtractDedupReport([]any{map[string]any{"": task}})
	require.Len(t, removed, 1)
	assert.Equal(t, "/0/", removed[0].Path)
	assert.Equal(t, "/0//OwnerId", removed[0].Pointer())
	assert.Equal(t, []string{"0", "", "OwnerId"}, ormvalues.Segments(removed[0].Pointer()))
}
