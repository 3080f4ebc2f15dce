package dto

import (
	"github.com/devbridge/dev-bridge-manager/internal/board"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/utils"
)

// ColumnDTO is a board column with its tasks in order
type ColumnDTO struct {
	kanban.Column
	Tasks      []kanban.Task `json:"tasks"`
	AtCapacity bool          `json:"at_capacity"`
}

// BoardResponse is the full board of a project as seen by the viewer
type BoardResponse struct {
	Project      remote.Project               `json:"project"`
	Columns      []ColumnDTO                  `json:"columns"`
	Capabilities permission.BoardCapabilities `json:"capabilities"`
	Errors       []board.ErrorEntry           `json:"errors"`
}

// ToBoardResponse renders the board of s for viewer
func ToBoardResponse(project remote.Project, s *board.Session, viewer *permission.Principal) BoardResponse {
	store := s.Store()
	caps := permission.Board(viewer)

	columns := store.Columns()
	out := make([]ColumnDTO, len(columns))
	for i, c := range columns {
		tasks := store.TasksByColumn(c.ID)
		if !caps.CanViewTimeTracking {
			for j := range tasks {
				hideTime(&tasks[j])
			}
		}
		out[i] = ColumnDTO{Column: c, Tasks: tasks, AtCapacity: c.Full()}
	}

	errs := s.Errors()
	if errs == nil {
		errs = []board.ErrorEntry{}
	}
	return BoardResponse{
		Project:      project,
		Columns:      out,
		Capabilities: caps,
		Errors:       errs,
	}
}

// TaskDetailResponse is a task with its comments and, when visible, its time entries
type TaskDetailResponse struct {
	Task        kanban.Task        `json:"task"`
	Comments    []kanban.Comment   `json:"comments"`
	TimeEntries []kanban.TimeEntry `json:"time_entries,omitempty"`
}

// ToTaskDetailResponse renders a task of store for viewer
func ToTaskDetailResponse(store *kanban.Store, task kanban.Task, viewer *permission.Principal) TaskDetailResponse {
	resp := TaskDetailResponse{
		Task:     task,
		Comments: store.CommentsByTask(task.ID),
	}
	if resp.Comments == nil {
		resp.Comments = []kanban.Comment{}
	}
	if permission.Evaluate(viewer, permission.CanViewTimeTracking) {
		resp.TimeEntries = store.TimeEntriesByTask(task.ID)
	} else {
		hideTime(&resp.Task)
	}
	return resp
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []kanban.Task            `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToTaskListResponse paginates tasks for viewer
func ToTaskListResponse(tasks []kanban.Task, params utils.PaginationParams, viewer *permission.Principal) TaskListResponse {
	page := append([]kanban.Task{}, utils.Paginate(tasks, params)...)
	if !permission.Evaluate(viewer, permission.CanViewTimeTracking) {
		for i := range page {
			hideTime(&page[i])
		}
	}
	return TaskListResponse{
		Tasks:      page,
		Pagination: utils.NewPaginationResponse(params, len(tasks)),
	}
}

func hideTime(t *kanban.Task) {
	t.LoggedHours = 0
	t.TimeEntryIDs = []string{}
}
