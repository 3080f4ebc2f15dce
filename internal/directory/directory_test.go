package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

type item struct {
	ID   string
	Name string
}

func newItems() *Directory[item] {
	d := New(func(i item) string { return i.ID })
	d.Load([]item{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	return d
}

func names(d *Directory[item]) []string {
	var out []string
	for _, i := range d.List() {
		out = append(out, i.Name)
	}
	return out
}

func TestDirectory_InsertCommitRekeys(t *testing.T) {
	d := newItems()
	st := d.StageInsert(item{Name: "C"})
	assert.True(t, IsTemporary(st.Key()))

	entries := d.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[2].Pending)

	st.Commit(item{ID: "c", Name: "C"})
	got, ok := d.Get("c")
	require.True(t, ok)
	assert.Equal(t, "C", got.Name)
	_, ok = d.Get(st.Key())
	assert.False(t, ok)
	assert.False(t, d.Entries()[2].Pending)
	assert.Equal(t, []string{"A", "B", "C"}, names(d))
}

func TestDirectory_InsertRollback(t *testing.T) {
	d := newItems()
	st := d.StageInsert(item{Name: "C"})
	assert.True(t, st.Rollback())
	assert.Equal(t, []string{"A", "B"}, names(d))
}

func TestDirectory_ReplaceRollbackAndSupersede(t *testing.T) {
	d := newItems()

	first, err := d.StageReplace("a", item{ID: "a", Name: "A1"})
	require.NoError(t, err)
	second, err := d.StageReplace("a", item{ID: "a", Name: "A2"})
	require.NoError(t, err)

	// The first change has been superseded, so its failure is ignored.
	assert.False(t, first.Rollback())
	v, _ := d.Get("a")
	assert.Equal(t, "A2", v.Name)

	assert.True(t, second.Rollback())
	v, _ = d.Get("a")
	assert.Equal(t, "A1", v.Name)

	_, err = d.StageReplace("missing", item{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_RemoveRollbackRestoresPosition(t *testing.T) {
	d := newItems()
	st, err := d.StageRemove("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, names(d))

	st.Rollback()
	assert.Equal(t, []string{"A", "B"}, names(d))

	_, err = d.StageRemove("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_Reset(t *testing.T) {
	d := newItems()
	assert.True(t, d.Loaded())
	d.Reset()
	assert.False(t, d.Loaded())
	assert.Equal(t, 0, d.Len())
}

type fakeUsers struct {
	users  []remote.User
	nextID uint64
	fail   error
	lists  int
}

func (f *fakeUsers) ListUsers(ctx context.Context) ([]remote.User, error) {
	f.lists++
	return append([]remote.User(nil), f.users...), nil
}

func (f *fakeUsers) CreateUser(ctx context.Context, in remote.UserInput) (remote.User, error) {
	if f.fail != nil {
		return remote.User{}, f.fail
	}
	f.nextID++
	u := remote.User{ID: f.nextID, Name: in.Name, Email: in.Email, RoleName: in.RoleName}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUsers) UpdateUser(ctx context.Context, id uint64, patch remote.UserPatch) (remote.User, error) {
	if f.fail != nil {
		return remote.User{}, f.fail
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i] = patch.Apply(f.users[i])
			return f.users[i], nil
		}
	}
	return remote.User{}, errors.New("no such user")
}

func (f *fakeUsers) DeleteUser(ctx context.Context, id uint64) error {
	return f.fail
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUsers_OptimisticCRUD(t *testing.T) {
	ctx := context.Background()
	r := &fakeUsers{users: []remote.User{{ID: 1, Name: "Admin", RoleName: "super_admin"}}, nextID: 1}
	users := NewUsers(r, discardLogger())

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	created, err := users.Create(ctx, remote.UserInput{Name: "Dev", Email: "dev@example.com", RoleName: "user"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), created.ID)
	got, err := users.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Dev", got.Name)

	role := "manager"
	updated, err := users.Update(ctx, 2, remote.UserPatch{RoleName: &role})
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.RoleName)

	r.fail = errors.New("email already taken")
	_, err = users.Create(ctx, remote.UserInput{Name: "Dup", Email: "dev@example.com"})
	require.Error(t, err)
	assert.True(t, remote.IsFailure(err))
	assert.ErrorIs(t, err, r.fail)

	name := "Renamed"
	_, err = users.Update(ctx, 2, remote.UserPatch{Name: &name})
	require.Error(t, err)
	got, _ = users.Get(ctx, 2)
	assert.Equal(t, "Dev", got.Name)

	require.Error(t, users.Delete(ctx, 2))
	list, _ = users.List(ctx)
	assert.Len(t, list, 2)

	r.fail = nil
	require.NoError(t, users.Delete(ctx, 2))
	_, err = users.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, 2), ErrNotFound)

	assert.Equal(t, 1, r.lists)
	users.Invalidate()
	_, err = users.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, r.lists)
}

type fakeProjects struct {
	projects []remote.Project
	fail     error
}

func (f *fakeProjects) ListProjects(ctx context.Context) ([]remote.Project, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.projects, nil
}

func (f *fakeProjects) CreateProject(ctx context.Context, in remote.ProjectInput) (remote.Project, error) {
	p := remote.Project{ID: uint64(len(f.projects) + 1), Name: in.Name, Status: in.Status}
	f.projects = append(f.projects, p)
	return p, nil
}

func (f *fakeProjects) UpdateProject(ctx context.Context, id uint64, patch remote.ProjectPatch) (remote.Project, error) {
	return patch.Apply(f.projects[id-1]), nil
}

func (f *fakeProjects) DeleteProject(ctx context.Context, id uint64) error {
	return errors.New("project has open tasks")
}

func TestProjects_OptimisticCRUD(t *testing.T) {
	ctx := context.Background()
	r := &fakeProjects{fail: errors.New("db down")}
	projects := NewProjects(r, discardLogger())

	_, err := projects.List(ctx)
	assert.True(t, remote.IsFailure(err))

	r.fail = nil
	p, err := projects.Create(ctx, remote.ProjectInput{Name: "Bridge", Status: remote.ProjectActive})
	require.NoError(t, err)

	status := remote.ProjectOnHold
	updated, err := projects.Update(ctx, p.ID, remote.ProjectPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, remote.ProjectOnHold, updated.Status)

	err = projects.Delete(ctx, p.ID)
	require.Error(t, err)
	got, err := projects.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bridge", got.Name)
}
