package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devbridge/dev-bridge-manager/internal/permission"
)

func TestGuard_StartsPending(t *testing.T) {
	g := New(permission.Single(permission.UsersRead), Redirect("/unauthorized"))

	d := g.Decision()
	assert.Equal(t, Pending, d.State)
	assert.True(t, d.Loading())
	assert.False(t, d.Render())
	assert.Equal(t, ActionNone, d.Action.Kind)
}

func TestGuard_ReadOnlyPrincipalHidesCreate(t *testing.T) {
	reader := permission.NewPrincipal(1, "Reader", "r@example.com", permission.RoleUser, permission.UsersRead)

	granted := Decide(reader, permission.AnyOf(permission.UsersList, permission.UsersRead), Hide())
	assert.Equal(t, Granted, granted.State)
	assert.True(t, granted.Render())

	denied := Decide(reader, permission.Single(permission.UsersCreate), Hide())
	assert.Equal(t, Denied, denied.State)
	assert.True(t, denied.Authenticated)
	assert.Equal(t, ActionHide, denied.Action.Kind)
}

func TestGuard_UnauthenticatedUsesSeparateAction(t *testing.T) {
	g := New(permission.Single(permission.UsersRead), Redirect("/unauthorized"), OnUnauthenticated(Redirect("/auth")))

	d := g.Resolve(nil)
	assert.Equal(t, Denied, d.State)
	assert.False(t, d.Authenticated)
	assert.Equal(t, "/auth", d.Action.Target)

	p := permission.NewPrincipal(1, "P", "p@example.com", permission.RoleUser)
	d = g.Resolve(p)
	assert.Equal(t, "/unauthorized", d.Action.Target)
}

func TestGuard_ReactsToPrincipalChanges(t *testing.T) {
	g := New(permission.Single(permission.UsersRead), Fallback(map[string]string{"message": "no access"}))

	var seen []State
	g.Subscribe(func(d Decision) { seen = append(seen, d.State) })

	reader := permission.NewPrincipal(1, "Reader", "r@example.com", permission.RoleUser, permission.UsersRead)
	assert.Equal(t, Granted, g.Resolve(reader).State)

	// Resolving to the same outcome does not notify again.
	assert.Equal(t, Granted, g.Resolve(reader).State)

	// Logout.
	d := g.Resolve(nil)
	assert.Equal(t, Denied, d.State)
	require.Equal(t, ActionFallback, d.Action.Kind)
	assert.Equal(t, map[string]string{"message": "no access"}, d.Action.Fallback)

	g.Reset()
	assert.True(t, g.Decision().Loading())

	assert.Equal(t, []State{Granted, Denied, Pending}, seen)
}

func TestGuard_NilRequirementNeedsOnlyAuthentication(t *testing.T) {
	p := permission.NewPrincipal(1, "P", "p@example.com", permission.RoleUser)
	assert.True(t, Decide(p, nil, Hide()).Render())
	assert.False(t, Decide(nil, nil, Hide()).Render())
}
