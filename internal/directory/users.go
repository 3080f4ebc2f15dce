package directory

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

// UserKey is the directory key of a user id.
func UserKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Users is the optimistic user directory.
type Users struct {
	remote remote.UserRemote
	dir    *Directory[remote.User]
	logger *slog.Logger
	loadMu sync.Mutex
}

// NewUsers returns a user directory loaded lazily from r.
func NewUsers(r remote.UserRemote, logger *slog.Logger) *Users {
	if logger == nil {
		logger = slog.Default()
	}
	return &Users{
		remote: r,
		dir:    New(func(u remote.User) string { return UserKey(u.ID) }),
		logger: logger,
	}
}

func (u *Users) ensure(ctx context.Context) error {
	if u.dir.Loaded() {
		return nil
	}
	u.loadMu.Lock()
	defer u.loadMu.Unlock()
	if u.dir.Loaded() {
		return nil
	}
	users, err := u.remote.ListUsers(ctx)
	if err != nil {
		return remote.Fail("list users", err)
	}
	u.dir.Load(users)
	return nil
}

// List returns every user, including ones still being created.
func (u *Users) List(ctx context.Context) ([]remote.User, error) {
	if err := u.ensure(ctx); err != nil {
		return nil, err
	}
	return u.dir.List(), nil
}

// Get returns one user.
func (u *Users) Get(ctx context.Context, id uint64) (remote.User, error) {
	if err := u.ensure(ctx); err != nil {
		return remote.User{}, err
	}
	user, ok := u.dir.Get(UserKey(id))
	if !ok {
		return remote.User{}, ErrNotFound
	}
	return user, nil
}

// Create adds a placeholder user, then replaces it with the created one.
func (u *Users) Create(ctx context.Context, in remote.UserInput) (remote.User, error) {
	if err := u.ensure(ctx); err != nil {
		return remote.User{}, err
	}
	st := u.dir.StageInsert(remote.User{Name: in.Name, Email: in.Email, Position: in.Position, RoleName: in.RoleName})

	saved, err := u.remote.CreateUser(ctx, in)
	if err != nil {
		st.Rollback()
		u.logger.Warn("create user rolled back", "email", in.Email, "error", err)
		return remote.User{}, remote.Fail("create user", err)
	}
	st.Commit(saved)
	return saved, nil
}

// Update applies patch locally, then persists it.
func (u *Users) Update(ctx context.Context, id uint64, patch remote.UserPatch) (remote.User, error) {
	if err := u.ensure(ctx); err != nil {
		return remote.User{}, err
	}
	key := UserKey(id)
	cur, ok := u.dir.Get(key)
	if !ok {
		return remote.User{}, ErrNotFound
	}
	st, err := u.dir.StageReplace(key, patch.Apply(cur))
	if err != nil {
		return remote.User{}, err
	}

	saved, err := u.remote.UpdateUser(ctx, id, patch)
	if err != nil {
		st.Rollback()
		u.logger.Warn("update user rolled back", "user_id", id, "error", err)
		return remote.User{}, remote.Fail("update user", err)
	}
	st.Commit(saved)
	return saved, nil
}

// Delete removes a user locally, then persists the removal.
func (u *Users) Delete(ctx context.Context, id uint64) error {
	if err := u.ensure(ctx); err != nil {
		return err
	}
	st, err := u.dir.StageRemove(UserKey(id))
	if err != nil {
		return err
	}
	if err := u.remote.DeleteUser(ctx, id); err != nil {
		st.Rollback()
		u.logger.Warn("delete user rolled back", "user_id", id, "error", err)
		return remote.Fail("delete user", err)
	}
	st.Commit(remote.User{})
	return nil
}

// Invalidate drops the cached users so the next read reloads them.
func (u *Users) Invalidate() {
	u.dir.Reset()
}
