package ormvalues_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reoring/ormvalues/model"
)

// fixture mirrors a small task tracker: users own and work on tasks, have a
// profile, join groups and parties, and like or hate each other.
type fixture struct {
	User, Task, Profile, Group, Party *model.Model

	TaskWorker, TaskSupervisor *model.Model
	UserGroup, UserParty       *model.Model
	UserLike, UserHate         *model.Model
}

const (
	bobID  = 1
	johnID = 2
)

func newFixture(t testing.TB) *fixture {
	t.Helper()
	r := model.NewRegistry()
	f := &fixture{
		User:    r.MustDefine(model.Definition{Name: "User", Fields: []string{"name"}}),
		Task:    r.MustDefine(model.Definition{Name: "Task", Fields: []string{"name"}}),
		Profile: r.MustDefine(model.Definition{Name: "Profile", Fields: []string{"name"}}),
		Group:   r.MustDefine(model.Definition{Name: "Group", Fields: []string{"name"}}),
		Party:   r.MustDefine(model.Definition{Name: "Party", Fields: []string{"name"}}),

		TaskWorker:     r.MustDefine(model.Definition{Name: "TaskWorker", PrimaryKeys: []string{"TaskId", "UserId"}}),
		TaskSupervisor: r.MustDefine(model.Definition{Name: "TaskSupervisor", PrimaryKeys: []string{"TaskId", "UserId"}, Fields: []string{"status"}}),
		UserGroup:      r.MustDefine(model.Definition{Name: "UserGroup", PrimaryKeys: []string{"UserId", "GroupId"}}),
		UserParty:      r.MustDefine(model.Definition{Name: "UserParty", PrimaryKeys: []string{"UserId", "PartyId"}, Fields: []string{"status"}}),
		UserLike:       r.MustDefine(model.Definition{Name: "UserLike", PrimaryKeys: []string{"UserId", "LikeId"}}),
		UserHate:       r.MustDefine(model.Definition{Name: "UserHate", PrimaryKeys: []string{"UserId", "HateId"}, Fields: []string{"status"}}),
	}

	must := func(_ any, err error) {
		t.Helper()
		require.NoError(t, err)
	}

	// one-to-one
	must(f.Profile.BelongsTo(f.User, model.AssocOpt{}))
	must(f.User.HasOne(f.Profile, model.AssocOpt{}))
	must(f.Profile.BelongsTo(f.User, model.AssocOpt{As: "AltUser"}))
	must(f.User.HasOne(f.Profile, model.AssocOpt{As: "AltProfile", ForeignKey: "AltUserId"}))

	// one-to-many
	must(f.Task.BelongsTo(f.User, model.AssocOpt{}))
	must(f.User.HasMany(f.Task, model.AssocOpt{}))
	must(f.Task.BelongsTo(f.User, model.AssocOpt{As: "Owner"}))
	must(f.User.HasMany(f.Task, model.AssocOpt{As: "OwnedTasks", ForeignKey: "OwnerId"}))

	// many-to-many
	must(f.Task.BelongsToMany(f.User, model.ManyOpt{As: "Workers", Through: f.TaskWorker}))
	must(f.User.BelongsToMany(f.Task, model.ManyOpt{As: "WorkTasks", Through: f.TaskWorker}))
	must(f.Task.BelongsToMany(f.User, model.ManyOpt{As: "Supervisors", Through: f.TaskSupervisor}))
	must(f.User.BelongsToMany(f.Task, model.ManyOpt{As: "SuperviseTasks", Through: f.TaskSupervisor}))
	must(f.Group.BelongsToMany(f.User, model.ManyOpt{Through: f.UserGroup}))
	must(f.User.BelongsToMany(f.Group, model.ManyOpt{Through: f.UserGroup}))
	must(f.Party.BelongsToMany(f.User, model.ManyOpt{Through: f.UserParty}))
	must(f.User.BelongsToMany(f.Party, model.ManyOpt{Through: f.UserParty}))

	// many-to-many self joins
	must(f.User.BelongsToMany(f.User, model.ManyOpt{As: "Likes", Through: f.UserLike, ForeignKey: "UserId"}))
	must(f.User.BelongsToMany(f.User, model.ManyOpt{As: "Likers", Through: f.UserLike, ForeignKey: "LikeId", OtherKey: "UserId"}))
	must(f.User.BelongsToMany(f.User, model.ManyOpt{As: "Hates", Through: f.UserHate, ForeignKey: "UserId"}))
	must(f.User.BelongsToMany(f.User, model.ManyOpt{As: "Haters", Through: f.UserHate, ForeignKey: "HateId", OtherKey: "UserId"}))
	return f
}

func (f *fixture) bob() *model.Instance {
	return f.User.Build(map[string]any{"id": bobID, "name": "Bob"})
}

func (f *fixture) john() *model.Instance {
	return f.User.Build(map[string]any{"id": johnID, "name": "John"})
}

func (f *fixture) profile() *model.Instance {
	return f.Profile.Build(map[string]any{"id": 1, "name": "Profile", "UserId": bobID, "AltUserId": johnID})
}

func (f *fixture) washing() *model.Instance {
	return f.Task.Build(map[string]any{"id": 1, "name": "Washing", "UserId": johnID, "OwnerId": bobID})
}

func (f *fixture) admin() *model.Instance {
	return f.Group.Build(map[string]any{"id": 1, "name": "Admin"})
}

func (f *fixture) wild() *model.Instance {
	return f.Party.Build(map[string]any{"id": 1, "name": "Wild"})
}
