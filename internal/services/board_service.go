package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devbridge/dev-bridge-manager/internal/constants"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
	"github.com/devbridge/dev-bridge-manager/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrColumnNotFound     = fmt.Errorf("column %w", remote.ErrNotFound)
	ErrTaskNotFound       = fmt.Errorf("task %w", remote.ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("comment %w", remote.ErrNotFound)
	ErrTimeEntryNotFound  = fmt.Errorf("time entry %w", remote.ErrNotFound)
	ErrColumnFull         = errors.New("column has reached its task limit")
	ErrInvalidColumnOrder = errors.New("column order must list every column exactly once")
	ErrInvalidBoardInput  = errors.New("invalid board input")
)

// BoardService persists project boards. It is the remote behind the in-memory board sessions.
type BoardService struct {
	boardRepo   repository.BoardRepository
	projectRepo repository.ProjectRepository
	now         func() time.Time
}

// NewBoardService creates a new BoardService.
func NewBoardService(boardRepo repository.BoardRepository, projectRepo repository.ProjectRepository) *BoardService {
	return &BoardService{
		boardRepo:   boardRepo,
		projectRepo: projectRepo,
		now:         time.Now,
	}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBoardInput, fmt.Sprintf(format, args...))
}

// notFoundAs maps a missing row to sentinel and wraps anything else.
func notFoundAs(err, sentinel error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// FetchBoard loads the full board of a project.
func (s *BoardService) FetchBoard(ctx context.Context, projectID uint64) (kanban.Snapshot, error) {
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		return kanban.Snapshot{}, notFoundAs(err, ErrProjectNotFound, "find project")
	}

	board, err := s.boardRepo.Load(projectID)
	if err != nil {
		return kanban.Snapshot{}, fmt.Errorf("failed to load board: %w", err)
	}

	snap := kanban.Snapshot{
		Columns:     make([]kanban.Column, len(board.Columns)),
		Tasks:       make([]kanban.Task, len(board.Tasks)),
		Comments:    make([]kanban.Comment, len(board.Comments)),
		TimeEntries: make([]kanban.TimeEntry, len(board.TimeEntries)),
	}
	for i := range board.Columns {
		snap.Columns[i] = toKanbanColumn(&board.Columns[i])
	}
	for i := range board.Tasks {
		snap.Tasks[i] = toKanbanTask(&board.Tasks[i])
	}
	for i := range board.Comments {
		snap.Comments[i] = toKanbanComment(&board.Comments[i])
	}
	for i := range board.TimeEntries {
		snap.TimeEntries[i] = toKanbanTimeEntry(&board.TimeEntries[i])
	}
	return snap, nil
}

// CreateTask stores a task at the end of its column.
func (s *BoardService) CreateTask(ctx context.Context, projectID uint64, task kanban.Task) (kanban.Task, error) {
	title := strings.TrimSpace(task.Title)
	if title == "" {
		return kanban.Task{}, invalidInput("task title is required")
	}
	priority := task.Priority
	if priority == "" {
		priority = kanban.PriorityMedium
	}
	if !priority.Valid() {
		return kanban.Task{}, invalidInput("unknown priority %q", task.Priority)
	}
	if task.EstimatedHours < 0 {
		return kanban.Task{}, invalidInput("estimated hours cannot be negative")
	}

	row := &models.BoardTask{
		ID:              task.ID,
		ProjectID:       projectID,
		ColumnID:        task.ColumnID,
		Title:           title,
		Description:     task.Description,
		HTMLDescription: task.HTMLDescription,
		Priority:        string(priority),
		AssigneeID:      task.AssigneeID,
		EstimatedHours:  task.EstimatedHours,
		Tags:            nonNil(task.Tags),
		DueDate:         task.DueDate,
		CreatedBy:       task.CreatedBy,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	if err := s.boardRepo.CreateTask(row); err != nil {
		if errors.Is(err, repository.ErrColumnFull) {
			return kanban.Task{}, ErrColumnFull
		}
		return kanban.Task{}, notFoundAs(err, ErrColumnNotFound, "create task")
	}
	return toKanbanTask(row), nil
}

// UpdateTask applies patch to a task's details. Moving between columns goes through MoveTask.
func (s *BoardService) UpdateTask(ctx context.Context, projectID uint64, taskID string, patch kanban.TaskPatch) (kanban.Task, error) {
	row, err := s.boardRepo.FindTask(projectID, taskID)
	if err != nil {
		return kanban.Task{}, notFoundAs(err, ErrTaskNotFound, "find task")
	}

	if err := applyTaskPatch(row, patch); err != nil {
		return kanban.Task{}, err
	}

	if err := s.boardRepo.UpdateTask(row); err != nil {
		return kanban.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return toKanbanTask(row), nil
}

func applyTaskPatch(row *models.BoardTask, patch kanban.TaskPatch) error {
	if patch.ColumnID != nil && *patch.ColumnID != row.ColumnID {
		return invalidInput("a task changes column by moving it")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return invalidInput("task title is required")
		}
		row.Title = title
	}
	if patch.Description != nil {
		row.Description = *patch.Description
	}
	if patch.HTMLDescription != nil {
		row.HTMLDescription = *patch.HTMLDescription
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return invalidInput("unknown priority %q", *patch.Priority)
		}
		row.Priority = string(*patch.Priority)
	}
	if patch.ClearAssignee {
		row.AssigneeID = nil
	} else if patch.AssigneeID != nil {
		id := *patch.AssigneeID
		row.AssigneeID = &id
	}
	if patch.EstimatedHours != nil {
		if *patch.EstimatedHours < 0 {
			return invalidInput("estimated hours cannot be negative")
		}
		row.EstimatedHours = *patch.EstimatedHours
	}
	if patch.Tags != nil {
		row.Tags = patch.Tags
	}
	if patch.ClearDueDate {
		row.DueDate = nil
	} else if patch.DueDate != nil {
		due := *patch.DueDate
		row.DueDate = &due
	}
	return nil
}

// DeleteTask removes a task with its comments and time entries.
func (s *BoardService) DeleteTask(ctx context.Context, projectID uint64, taskID string) error {
	if err := s.boardRepo.DeleteTask(projectID, taskID); err != nil {
		return notFoundAs(err, ErrTaskNotFound, "delete task")
	}
	return nil
}

// MoveTask places a task at position in a column.
func (s *BoardService) MoveTask(ctx context.Context, projectID uint64, taskID, columnID string, position int) (kanban.Task, error) {
	if _, err := s.boardRepo.FindTask(projectID, taskID); err != nil {
		return kanban.Task{}, notFoundAs(err, ErrTaskNotFound, "find task")
	}
	if _, err := s.boardRepo.FindColumn(projectID, columnID); err != nil {
		return kanban.Task{}, notFoundAs(err, ErrColumnNotFound, "find column")
	}

	row, err := s.boardRepo.MoveTask(projectID, taskID, columnID, position)
	if err != nil {
		if errors.Is(err, repository.ErrColumnFull) {
			return kanban.Task{}, ErrColumnFull
		}
		return kanban.Task{}, fmt.Errorf("failed to move task: %w", err)
	}
	return toKanbanTask(row), nil
}

// CreateComment stores a comment on a task.
func (s *BoardService) CreateComment(ctx context.Context, projectID uint64, comment kanban.Comment) (kanban.Comment, error) {
	if strings.TrimSpace(comment.Content) == "" {
		return kanban.Comment{}, invalidInput("comment content is required")
	}
	if _, err := s.boardRepo.FindTask(projectID, comment.TaskID); err != nil {
		return kanban.Comment{}, notFoundAs(err, ErrTaskNotFound, "find task")
	}

	row := &models.TaskComment{
		ID:          comment.ID,
		ProjectID:   projectID,
		TaskID:      comment.TaskID,
		Content:     comment.Content,
		HTMLContent: comment.HTMLContent,
		UserID:      comment.UserID,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}

	if err := s.boardRepo.CreateComment(row); err != nil {
		return kanban.Comment{}, fmt.Errorf("failed to create comment: %w", err)
	}
	return toKanbanComment(row), nil
}

// UpdateComment replaces a comment's text and marks it edited.
func (s *BoardService) UpdateComment(ctx context.Context, projectID uint64, commentID string, patch kanban.CommentPatch) (kanban.Comment, error) {
	if strings.TrimSpace(patch.Content) == "" {
		return kanban.Comment{}, invalidInput("comment content is required")
	}
	row, err := s.boardRepo.FindComment(projectID, commentID)
	if err != nil {
		return kanban.Comment{}, notFoundAs(err, ErrCommentNotFound, "find comment")
	}

	row.Content = patch.Content
	row.HTMLContent = patch.HTMLContent
	row.IsEdited = true

	if err := s.boardRepo.UpdateComment(row); err != nil {
		return kanban.Comment{}, fmt.Errorf("failed to update comment: %w", err)
	}
	return toKanbanComment(row), nil
}

// DeleteComment removes a comment.
func (s *BoardService) DeleteComment(ctx context.Context, projectID uint64, commentID string) error {
	if err := s.boardRepo.DeleteComment(projectID, commentID); err != nil {
		return notFoundAs(err, ErrCommentNotFound, "delete comment")
	}
	return nil
}

// CreateTimeEntry logs time on a task.
func (s *BoardService) CreateTimeEntry(ctx context.Context, projectID uint64, entry kanban.TimeEntry) (kanban.TimeEntry, error) {
	if entry.Hours <= 0 {
		return kanban.TimeEntry{}, invalidInput("hours must be positive")
	}
	if _, err := s.boardRepo.FindTask(projectID, entry.TaskID); err != nil {
		return kanban.TimeEntry{}, notFoundAs(err, ErrTaskNotFound, "find task")
	}

	row := &models.TimeEntry{
		ID:          entry.ID,
		ProjectID:   projectID,
		TaskID:      entry.TaskID,
		Hours:       entry.Hours,
		Description: entry.Description,
		Date:        entry.Date,
		UserID:      entry.UserID,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.Date.IsZero() {
		row.Date = s.now()
	}

	if err := s.boardRepo.CreateTimeEntry(row); err != nil {
		return kanban.TimeEntry{}, fmt.Errorf("failed to create time entry: %w", err)
	}
	return toKanbanTimeEntry(row), nil
}

// UpdateTimeEntry edits a time entry.
func (s *BoardService) UpdateTimeEntry(ctx context.Context, projectID uint64, entryID string, patch kanban.TimeEntryPatch) (kanban.TimeEntry, error) {
	row, err := s.boardRepo.FindTimeEntry(projectID, entryID)
	if err != nil {
		return kanban.TimeEntry{}, notFoundAs(err, ErrTimeEntryNotFound, "find time entry")
	}

	if patch.Hours != nil {
		if *patch.Hours <= 0 {
			return kanban.TimeEntry{}, invalidInput("hours must be positive")
		}
		row.Hours = *patch.Hours
	}
	if patch.Description != nil {
		row.Description = *patch.Description
	}
	if patch.Date != nil {
		row.Date = *patch.Date
	}

	if err := s.boardRepo.UpdateTimeEntry(row); err != nil {
		return kanban.TimeEntry{}, fmt.Errorf("failed to update time entry: %w", err)
	}
	return toKanbanTimeEntry(row), nil
}

// DeleteTimeEntry removes a time entry.
func (s *BoardService) DeleteTimeEntry(ctx context.Context, projectID uint64, entryID string) error {
	if err := s.boardRepo.DeleteTimeEntry(projectID, entryID); err != nil {
		return notFoundAs(err, ErrTimeEntryNotFound, "delete time entry")
	}
	return nil
}

// CreateColumn appends a column to the board.
func (s *BoardService) CreateColumn(ctx context.Context, projectID uint64, column kanban.Column) (kanban.Column, error) {
	title := strings.TrimSpace(column.Title)
	if title == "" {
		return kanban.Column{}, invalidInput("column title is required")
	}
	if column.MaxTasks != nil && *column.MaxTasks < 1 {
		return kanban.Column{}, invalidInput("task limit must be at least 1")
	}
	if _, err := s.projectRepo.FindByID(projectID); err != nil {
		return kanban.Column{}, notFoundAs(err, ErrProjectNotFound, "find project")
	}

	row := &models.BoardColumn{
		ID:        column.ID,
		ProjectID: projectID,
		Title:     title,
		Color:     column.Color,
		MaxTasks:  column.MaxTasks,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.Color == "" {
		row.Color = constants.DefaultColumnColor
	}

	if err := s.boardRepo.CreateColumn(row); err != nil {
		return kanban.Column{}, fmt.Errorf("failed to create column: %w", err)
	}
	return toKanbanColumn(row), nil
}

// UpdateColumn edits a column's title, color or task limit.
func (s *BoardService) UpdateColumn(ctx context.Context, projectID uint64, columnID string, patch kanban.ColumnPatch) (kanban.Column, error) {
	row, err := s.boardRepo.FindColumn(projectID, columnID)
	if err != nil {
		return kanban.Column{}, notFoundAs(err, ErrColumnNotFound, "find column")
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return kanban.Column{}, invalidInput("column title is required")
		}
		row.Title = title
	}
	if patch.Color != nil {
		row.Color = *patch.Color
	}
	if patch.ClearMaxTasks {
		row.MaxTasks = nil
	} else if patch.MaxTasks != nil {
		if *patch.MaxTasks < 1 {
			return kanban.Column{}, invalidInput("task limit must be at least 1")
		}
		limit := *patch.MaxTasks
		row.MaxTasks = &limit
	}

	if err := s.boardRepo.UpdateColumn(row); err != nil {
		return kanban.Column{}, fmt.Errorf("failed to update column: %w", err)
	}
	return toKanbanColumn(row), nil
}

// DeleteColumn removes a column and everything on it.
func (s *BoardService) DeleteColumn(ctx context.Context, projectID uint64, columnID string) error {
	if err := s.boardRepo.DeleteColumn(projectID, columnID); err != nil {
		return notFoundAs(err, ErrColumnNotFound, "delete column")
	}
	return nil
}

// ReorderColumns stores a new column order.
func (s *BoardService) ReorderColumns(ctx context.Context, projectID uint64, columnIDs []string) error {
	if err := s.boardRepo.ReorderColumns(projectID, columnIDs); err != nil {
		if errors.Is(err, repository.ErrInvalidColumnOrder) {
			return ErrInvalidColumnOrder
		}
		return fmt.Errorf("failed to reorder columns: %w", err)
	}
	return nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func toKanbanColumn(c *models.BoardColumn) kanban.Column {
	return kanban.Column{
		ID:        c.ID,
		Title:     c.Title,
		Color:     c.Color,
		Position:  c.Position,
		MaxTasks:  c.MaxTasks,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toKanbanTask(t *models.BoardTask) kanban.Task {
	return kanban.Task{
		ID:              t.ID,
		ColumnID:        t.ColumnID,
		Position:        t.Position,
		Title:           t.Title,
		Description:     t.Description,
		HTMLDescription: t.HTMLDescription,
		Priority:        kanban.Priority(t.Priority),
		AssigneeID:      t.AssigneeID,
		EstimatedHours:  t.EstimatedHours,
		Tags:            nonNil(t.Tags),
		DueDate:         t.DueDate,
		CreatedBy:       t.CreatedBy,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toKanbanComment(c *models.TaskComment) kanban.Comment {
	return kanban.Comment{
		ID:          c.ID,
		TaskID:      c.TaskID,
		Content:     c.Content,
		HTMLContent: c.HTMLContent,
		UserID:      c.UserID,
		IsEdited:    c.IsEdited,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toKanbanTimeEntry(e *models.TimeEntry) kanban.TimeEntry {
	return kanban.TimeEntry{
		ID:          e.ID,
		TaskID:      e.TaskID,
		Hours:       e.Hours,
		Description: e.Description,
		Date:        e.Date,
		UserID:      e.UserID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
