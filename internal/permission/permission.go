package permission

import (
	"encoding/json"
	"sort"
	"strings"
)

// Set is an unordered collection of permission names.
type Set map[string]struct{}

// NewSet builds a Set from the given names, ignoring duplicates and blanks.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// List returns the permission names in sorted order.
func (s Set) List() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the set as a sorted list.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a list of names.
func (s *Set) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewSet(names...)
	return nil
}

// Principal is the authenticated actor a requirement is evaluated against.
// A nil *Principal means "unauthenticated".
type Principal struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	RoleName    string `json:"role_name"`
	Permissions Set    `json:"permissions"`
}

// NewPrincipal creates a principal with its permission set.
func NewPrincipal(id uint64, name, email, role string, permissions ...string) *Principal {
	return &Principal{
		ID:          id,
		Name:        name,
		Email:       email,
		RoleName:    role,
		Permissions: NewSet(permissions...),
	}
}

// HasPermission reports whether the principal holds the permission.
func (p *Principal) HasPermission(name string) bool {
	if p == nil {
		return false
	}
	return p.Permissions.Has(name)
}

// HasRole reports whether the principal's role is name.
func (p *Principal) HasRole(name string) bool {
	if p == nil {
		return false
	}
	return p.RoleName == name
}

// Requirement is a boolean expression over a principal's permissions and role.
type Requirement interface {
	satisfiedBy(p *Principal) bool
	String() string
}

// Evaluate reports whether p satisfies r. Unauthenticated principals never
// satisfy anything; a nil requirement only asks for authentication.
func Evaluate(p *Principal, r Requirement) bool {
	if p == nil {
		return false
	}
	if r == nil {
		return true
	}
	return r.satisfiedBy(p)
}

type single string

func (s single) satisfiedBy(p *Principal) bool { return p.Permissions.Has(string(s)) }
func (s single) String() string                { return string(s) }

// Single requires one permission.
func Single(name string) Requirement { return single(name) }

type anyOf []string

func (a anyOf) satisfiedBy(p *Principal) bool {
	// An empty list passes.
	if len(a) == 0 {
		return true
	}
	for _, name := range a {
		if p.Permissions.Has(name) {
			return true
		}
	}
	return false
}

func (a anyOf) String() string { return "any(" + strings.Join(a, ",") + ")" }

// AnyOf requires at least one of the permissions. AnyOf() is satisfied by
// every authenticated principal.
func AnyOf(names ...string) Requirement { return anyOf(names) }

type allOf []string

func (a allOf) satisfiedBy(p *Principal) bool {
	for _, name := range a {
		if !p.Permissions.Has(name) {
			return false
		}
	}
	return true
}

func (a allOf) String() string { return "all(" + strings.Join(a, ",") + ")" }

// AllOf requires every permission. AllOf() is satisfied by every authenticated principal.
func AllOf(names ...string) Requirement { return allOf(names) }

type role string

func (r role) satisfiedBy(p *Principal) bool { return p.RoleName == string(r) }
func (r role) String() string                { return "role:" + string(r) }

// Role requires the principal's role to be name.
func Role(name string) Requirement { return role(name) }

type and []Requirement

func (a and) satisfiedBy(p *Principal) bool {
	for _, r := range a {
		if r != nil && !r.satisfiedBy(p) {
			return false
		}
	}
	return true
}

func (a and) String() string { return "and(" + joinRequirements(a) + ")" }

// And is satisfied when every sub-requirement is.
func And(rs ...Requirement) Requirement { return and(rs) }

type or []Requirement

func (o or) satisfiedBy(p *Principal) bool {
	if len(o) == 0 {
		return true
	}
	for _, r := range o {
		if r == nil || r.satisfiedBy(p) {
			return true
		}
	}
	return false
}

func (o or) String() string { return "or(" + joinRequirements(o) + ")" }

// Or is satisfied when any sub-requirement is. Like AnyOf, Or() passes.
func Or(rs ...Requirement) Requirement { return or(rs) }

type not struct{ r Requirement }

func (n not) satisfiedBy(p *Principal) bool {
	if n.r == nil {
		return false
	}
	return !n.r.satisfiedBy(p)
}

func (n not) String() string {
	if n.r == nil {
		return "not()"
	}
	return "not(" + n.r.String() + ")"
}

// Not negates r. Unauthenticated principals still fail it.
func Not(r Requirement) Requirement { return not{r: r} }

func joinRequirements(rs []Requirement) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		if r == nil {
			parts = append(parts, "authenticated")
			continue
		}
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}
