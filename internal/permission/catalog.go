package permission

// Permission names.
const (
	UsersList   = "users.list"
	UsersRead   = "users.read"
	UsersCreate = "users.create"
	UsersUpdate = "users.update"
	UsersDelete = "users.delete"

	ProfileRead   = "profile.read"
	ProfileUpdate = "profile.update"

	ProjectsList   = "projects.list"
	ProjectsRead   = "projects.read"
	ProjectsCreate = "projects.create"
	ProjectsUpdate = "projects.update"
	ProjectsDelete = "projects.delete"

	TasksCreate = "tasks.create"
	TasksUpdate = "tasks.update"
	TasksDelete = "tasks.delete"
	TasksMove   = "tasks.move"

	CommentsCreate = "comments.create"
	CommentsUpdate = "comments.update"
	CommentsDelete = "comments.delete"

	TimeRead   = "time.read"
	TimeCreate = "time.create"
	TimeUpdate = "time.update"
	TimeDelete = "time.delete"

	ColumnsManage = "columns.manage"

	RolesList   = "roles.list"
	RolesCreate = "roles.create"
	RolesUpdate = "roles.update"

	SystemSettings = "system.settings"
)

// Role names.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleUser       = "user"
)

// Definition describes a permission for seeding.
type Definition struct {
	Name        string
	DisplayName string
	Resource    string
	Action      string
}

// Definitions lists every known permission.
var Definitions = []Definition{
	{UsersList, "List users", "users", "list"},
	{UsersRead, "View users", "users", "read"},
	{UsersCreate, "Create users", "users", "create"},
	{UsersUpdate, "Update users", "users", "update"},
	{UsersDelete, "Delete users", "users", "delete"},
	{ProfileRead, "View own profile", "profile", "read"},
	{ProfileUpdate, "Update own profile", "profile", "update"},
	{ProjectsList, "List projects", "projects", "list"},
	{ProjectsRead, "View projects", "projects", "read"},
	{ProjectsCreate, "Create projects", "projects", "create"},
	{ProjectsUpdate, "Update projects", "projects", "update"},
	{ProjectsDelete, "Delete projects", "projects", "delete"},
	{TasksCreate, "Create tasks", "tasks", "create"},
	{TasksUpdate, "Edit tasks", "tasks", "update"},
	{TasksDelete, "Delete tasks", "tasks", "delete"},
	{TasksMove, "Move tasks", "tasks", "move"},
	{CommentsCreate, "Write comments", "comments", "create"},
	{CommentsUpdate, "Edit comments", "comments", "update"},
	{CommentsDelete, "Delete comments", "comments", "delete"},
	{TimeRead, "View time tracking", "time", "read"},
	{TimeCreate, "Log time", "time", "create"},
	{TimeUpdate, "Edit time entries", "time", "update"},
	{TimeDelete, "Delete time entries", "time", "delete"},
	{ColumnsManage, "Manage board columns", "columns", "manage"},
	{RolesList, "List roles", "roles", "list"},
	{RolesCreate, "Create roles", "roles", "create"},
	{RolesUpdate, "Update roles", "roles", "update"},
	{SystemSettings, "System settings", "system", "settings"},
}

// DefaultGrants maps each built-in role to its permissions.
func DefaultGrants() map[string][]string {
	all := make([]string, 0, len(Definitions))
	for _, d := range Definitions {
		all = append(all, d.Name)
	}

	member := []string{
		ProfileRead, ProfileUpdate,
		ProjectsList, ProjectsRead,
		TasksCreate, TasksUpdate, TasksMove,
		CommentsCreate, CommentsUpdate,
		TimeRead, TimeCreate, TimeUpdate,
	}
	manager := append([]string{
		UsersList, UsersRead,
		ProjectsCreate, ProjectsUpdate,
		TasksDelete, CommentsDelete, TimeDelete,
		ColumnsManage,
	}, member...)
	admin := append([]string{
		UsersCreate, UsersUpdate, UsersDelete,
		ProjectsDelete,
		RolesList, RolesUpdate,
	}, manager...)

	return map[string][]string{
		RoleSuperAdmin: all,
		RoleAdmin:      admin,
		RoleManager:    manager,
		RoleUser:       member,
	}
}

// Admin is satisfied by the admin and super_admin roles.
var Admin = Or(Role(RoleAdmin), Role(RoleSuperAdmin))

// IsAdmin reports whether p has an administrator role.
func IsAdmin(p *Principal) bool {
	return Evaluate(p, Admin)
}
