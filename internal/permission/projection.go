package permission

// Tab is a dashboard section and the requirement for showing it.
type Tab struct {
	ID          string
	Label       string
	Requirement Requirement
}

// Tabs are the dashboard sections in display order.
var Tabs = []Tab{
	{ID: "dashboard", Label: "Dashboard"},
	{ID: "users", Label: "Team Members", Requirement: AnyOf(UsersList, UsersRead)},
	{ID: "projects", Label: "Projects"},
	{ID: "admin", Label: "Administration", Requirement: AnyOf(SystemSettings, RolesList)},
	{ID: "profile", Label: "Profile"},
}

// VisibleTab is a tab the principal may open.
type VisibleTab struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Navigation returns the tabs visible to p.
func Navigation(p *Principal) []VisibleTab {
	tabs := make([]VisibleTab, 0, len(Tabs))
	for _, t := range Tabs {
		if Evaluate(p, t.Requirement) {
			tabs = append(tabs, VisibleTab{ID: t.ID, Label: t.Label})
		}
	}
	return tabs
}

// Requirements for board actions.
var (
	CanCreateTasks      = Single(TasksCreate)
	CanEditTasks        = Single(TasksUpdate)
	CanDeleteTasks      = Or(Single(TasksDelete), Admin)
	CanMoveTasks        = AnyOf(TasksMove, TasksUpdate)
	CanManageColumns    = Or(Single(ColumnsManage), Admin)
	CanViewTimeTracking = Single(TimeRead)
	CanEditTimeTracking = AnyOf(TimeCreate, TimeUpdate)
	CanComment          = Single(CommentsCreate)
	CanModerateComments = Or(Single(CommentsDelete), Admin)
)

// Requirements for directory actions.
var (
	CanListUsers      = AnyOf(UsersList, UsersRead)
	CanCreateUsers    = Single(UsersCreate)
	CanEditUsers      = Single(UsersUpdate)
	CanDeleteUsers    = Single(UsersDelete)
	CanAssignRoles    = Or(Single(RolesUpdate), Role(RoleSuperAdmin))
	CanCreateProjects = Or(Single(ProjectsCreate), Admin)
	CanEditProjects   = Or(Single(ProjectsUpdate), Admin)
	CanDeleteProjects = Or(Single(ProjectsDelete), Admin)
)

// BoardCapabilities is the set of board actions available to a principal.
type BoardCapabilities struct {
	CanCreateTasks      bool `json:"can_create_tasks"`
	CanEditTasks        bool `json:"can_edit_tasks"`
	CanDeleteTasks      bool `json:"can_delete_tasks"`
	CanMoveTasks        bool `json:"can_move_tasks"`
	CanManageColumns    bool `json:"can_manage_columns"`
	CanViewTimeTracking bool `json:"can_view_time_tracking"`
	CanEditTimeTracking bool `json:"can_edit_time_tracking"`
	CanComment          bool `json:"can_comment"`
}

// Board projects the board capabilities of p.
func Board(p *Principal) BoardCapabilities {
	return BoardCapabilities{
		CanCreateTasks:      Evaluate(p, CanCreateTasks),
		CanEditTasks:        Evaluate(p, CanEditTasks),
		CanDeleteTasks:      Evaluate(p, CanDeleteTasks),
		CanMoveTasks:        Evaluate(p, CanMoveTasks),
		CanManageColumns:    Evaluate(p, CanManageColumns),
		CanViewTimeTracking: Evaluate(p, CanViewTimeTracking),
		CanEditTimeTracking: Evaluate(p, CanEditTimeTracking),
		CanComment:          Evaluate(p, CanComment),
	}
}

// RowActions are the per-row buttons of the user table.
type RowActions struct {
	Edit       bool `json:"edit"`
	Delete     bool `json:"delete"`
	AssignRole bool `json:"assign_role"`
}

// UserRowActions returns the actions p may take on the user row targetID.
// Nobody may delete their own account from the directory.
func UserRowActions(p *Principal, targetID uint64) RowActions {
	self := p != nil && p.ID == targetID
	return RowActions{
		Edit:       Evaluate(p, CanEditUsers),
		Delete:     !self && Evaluate(p, CanDeleteUsers),
		AssignRole: !self && Evaluate(p, CanAssignRoles),
	}
}
