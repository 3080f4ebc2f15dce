package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devbridge/dev-bridge-manager/internal/board"
	"github.com/devbridge/dev-bridge-manager/internal/dto"
	apierrors "github.com/devbridge/dev-bridge-manager/internal/errors"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/middleware"
	"github.com/devbridge/dev-bridge-manager/internal/permission"
	"github.com/devbridge/dev-bridge-manager/internal/services"
	"github.com/devbridge/dev-bridge-manager/internal/utils"
)

// canManageOthersTime allows editing or deleting someone else's time entries.
var canManageOthersTime = permission.Or(permission.Single(permission.TimeDelete), permission.Admin)

// BoardHandler serves the kanban board of a project.
type BoardHandler struct {
	boards    *board.Manager
	aiService *services.AIService
}

// NewBoardHandler creates a new BoardHandler. aiService may be nil when no API key is configured.
func NewBoardHandler(boards *board.Manager, aiService *services.AIService) *BoardHandler {
	return &BoardHandler{
		boards:    boards,
		aiService: aiService,
	}
}

// session opens the board of the project loaded by LoadProject. It writes the
// error response itself and returns false on failure.
func (h *BoardHandler) session(c *gin.Context) (*board.Session, bool) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return nil, false
	}
	s, err := h.boards.Open(c.Request.Context(), project.ID)
	if err != nil {
		respondBoardError(c, err)
		return nil, false
	}
	return s, true
}

// GetBoard returns the board with the caller's capabilities.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	project, _ := middleware.GetProject(c)
	viewer, _ := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, dto.ToBoardResponse(project, s, viewer))
}

// ReloadBoard replaces the in-memory board with a fresh copy from the database.
func (h *BoardHandler) ReloadBoard(c *gin.Context) {
	project, _ := middleware.GetProject(c)
	s, err := h.boards.Reload(c.Request.Context(), project.ID)
	if err != nil {
		respondBoardError(c, err)
		return
	}
	viewer, _ := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, dto.ToBoardResponse(project, s, viewer))
}

// GetStats returns board totals.
func (h *BoardHandler) GetStats(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	stats := s.Store().Stats()
	viewer, _ := middleware.GetPrincipal(c)
	if !permission.Evaluate(viewer, permission.CanViewTimeTracking) {
		stats.TotalLoggedHours = 0
	}
	c.JSON(http.StatusOK, stats)
}

// ListErrors returns the failed saves of the board.
func (h *BoardHandler) ListErrors(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	errs := s.Errors()
	if errs == nil {
		errs = []board.ErrorEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"errors": errs})
}

// ClearErrors dismisses the failed saves of the board.
func (h *BoardHandler) ClearErrors(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.ClearErrors()
	c.Status(http.StatusNoContent)
}

// CreateColumn appends a column.
func (h *BoardHandler) CreateColumn(c *gin.Context) {
	type CreateColumnRequest struct {
		Title    string `json:"title" binding:"required,max=100"`
		Color    string `json:"color" binding:"omitempty,hexcolor"`
		MaxTasks *int   `json:"max_tasks" binding:"omitempty,min=1"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	column, err := s.AddColumn(c.Request.Context(), kanban.ColumnInput{
		Title:    req.Title,
		Color:    req.Color,
		MaxTasks: req.MaxTasks,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, column)
}

// UpdateColumn edits a column.
func (h *BoardHandler) UpdateColumn(c *gin.Context) {
	type UpdateColumnRequest struct {
		Title         *string `json:"title" binding:"omitempty,max=100"`
		Color         *string `json:"color" binding:"omitempty,hexcolor"`
		MaxTasks      *int    `json:"max_tasks" binding:"omitempty,min=1"`
		ClearMaxTasks bool    `json:"clear_max_tasks"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req UpdateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	column, err := s.UpdateColumn(c.Request.Context(), c.Param("column_id"), kanban.ColumnPatch{
		Title:         req.Title,
		Color:         req.Color,
		MaxTasks:      req.MaxTasks,
		ClearMaxTasks: req.ClearMaxTasks,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, column)
}

// DeleteColumn removes a column with its tasks.
func (h *BoardHandler) DeleteColumn(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.DeleteColumn(c.Request.Context(), c.Param("column_id")); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column deleted successfully",
	})
}

// ReorderColumns sets the column order.
func (h *BoardHandler) ReorderColumns(c *gin.Context) {
	type ReorderColumnsRequest struct {
		ColumnIDs []string `json:"column_ids" binding:"required"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req ReorderColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := s.ReorderColumns(c.Request.Context(), req.ColumnIDs); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"columns": s.Store().Columns()})
}

// ListTasks returns a filtered, sorted page of the board's tasks.
func (h *BoardHandler) ListTasks(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	filter, order, err := parseTaskQuery(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	tasks := s.Store().Query(filter, order)
	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, utils.GetPaginationParams(c), viewer))
}

type queryError string

func (e queryError) Error() string { return string(e) }

func parseTaskQuery(c *gin.Context) (kanban.TaskFilter, kanban.TaskSort, error) {
	filter := kanban.TaskFilter{
		ColumnID: c.Query("column_id"),
		Search:   c.Query("search"),
		Tags:     splitQuery(c, "tag"),
	}

	for _, raw := range splitQuery(c, "assignee_id") {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, kanban.TaskSort{}, queryError("Invalid assignee_id")
		}
		filter.AssigneeIDs = append(filter.AssigneeIDs, id)
	}
	for _, raw := range splitQuery(c, "priority") {
		p := kanban.Priority(raw)
		if !p.Valid() {
			return filter, kanban.TaskSort{}, queryError("Invalid priority")
		}
		filter.Priorities = append(filter.Priorities, p)
	}
	if overdue := c.Query("overdue"); overdue != "" {
		v, err := strconv.ParseBool(overdue)
		if err != nil {
			return filter, kanban.TaskSort{}, queryError("Invalid overdue flag")
		}
		filter.OverdueOnly = v
	}
	if raw := c.Query("has_estimate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, kanban.TaskSort{}, queryError("Invalid has_estimate flag")
		}
		filter.HasEstimate = &v
	}

	order := kanban.TaskSort{
		Field: kanban.SortField(c.Query("sort")),
		Desc:  strings.EqualFold(c.Query("order"), "desc"),
	}
	if !order.Field.Valid() {
		return filter, order, queryError("Invalid sort field")
	}
	return filter, order, nil
}

// splitQuery accepts both repeated and comma separated values.
func splitQuery(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// CreateTask adds a task to a column.
func (h *BoardHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		ID              string          `json:"id" binding:"omitempty,uuid"`
		Title           string          `json:"title" binding:"required,max=255"`
		Description     string          `json:"description"`
		HTMLDescription string          `json:"html_description"`
		Priority        kanban.Priority `json:"priority" binding:"omitempty,priority"`
		AssigneeID      *uint64         `json:"assignee_id"`
		EstimatedHours  float64         `json:"estimated_hours" binding:"min=0"`
		Tags            []string        `json:"tags"`
		DueDate         *time.Time      `json:"due_date"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	task, err := s.CreateTask(c.Request.Context(), c.Param("column_id"), kanban.TaskInput{
		ID:              req.ID,
		Title:           req.Title,
		Description:     req.Description,
		HTMLDescription: req.HTMLDescription,
		Priority:        req.Priority,
		AssigneeID:      req.AssigneeID,
		EstimatedHours:  req.EstimatedHours,
		Tags:            req.Tags,
		DueDate:         req.DueDate,
		CreatedBy:       viewer.ID,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTask returns a task with its comments and, if visible, its time entries.
func (h *BoardHandler) GetTask(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	task, found := s.Store().Task(c.Param("task_id"))
	if !found {
		apierrors.NotFound(c, "Task not found")
		return
	}

	viewer, _ := middleware.GetPrincipal(c)
	c.JSON(http.StatusOK, dto.ToTaskDetailResponse(s.Store(), task, viewer))
}

// UpdateTask edits a task. Changing its column goes through MoveTask.
func (h *BoardHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		ColumnID        *string          `json:"column_id"`
		Title           *string          `json:"title" binding:"omitempty,max=255"`
		Description     *string          `json:"description"`
		HTMLDescription *string          `json:"html_description"`
		Priority        *kanban.Priority `json:"priority" binding:"omitempty,priority"`
		AssigneeID      *uint64          `json:"assignee_id"`
		ClearAssignee   bool             `json:"clear_assignee"`
		EstimatedHours  *float64         `json:"estimated_hours" binding:"omitempty,min=0"`
		Tags            []string         `json:"tags"`
		DueDate         *time.Time       `json:"due_date"`
		ClearDueDate    bool             `json:"clear_due_date"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := s.UpdateTask(c.Request.Context(), c.Param("task_id"), kanban.TaskPatch{
		ColumnID:        req.ColumnID,
		Title:           req.Title,
		Description:     req.Description,
		HTMLDescription: req.HTMLDescription,
		Priority:        req.Priority,
		AssigneeID:      req.AssigneeID,
		ClearAssignee:   req.ClearAssignee,
		EstimatedHours:  req.EstimatedHours,
		Tags:            req.Tags,
		DueDate:         req.DueDate,
		ClearDueDate:    req.ClearDueDate,
	})
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task with its comments and time entries.
func (h *BoardHandler) DeleteTask(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.DeleteTask(c.Request.Context(), c.Param("task_id")); err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// MoveTask places a task at a position in a column.
func (h *BoardHandler) MoveTask(c *gin.Context) {
	type MoveTaskRequest struct {
		ColumnID string `json:"column_id" binding:"required"`
		Position int    `json:"position" binding:"min=0"`
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	move, err := s.MoveTask(c.Request.Context(), c.Param("task_id"), req.ColumnID, req.Position)
	if err != nil {
		respondBoardError(c, err)
		return
	}

	c.JSON(http.StatusOK, move)
}

// GenerateTasks drafts tasks from free text. Nothing is stored.
func (h *BoardHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required,max=10000"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	drafts, err := h.aiService.DraftTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondAIError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": drafts})
}
