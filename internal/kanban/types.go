package kanban

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("column is at its task limit")
	ErrColumnChange     = errors.New("a task's column can only change through a move")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyExists    = errors.New("already exists")
)

// CapacityError carries the column that rejected a task.
type CapacityError struct {
	ColumnID string
	Title    string
	MaxTasks int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("column %q already holds its maximum of %d tasks", e.Title, e.MaxTasks)
}

// Is makes errors.Is(err, ErrCapacityExceeded) match.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func notUnique(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrAlreadyExists)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities from low (1) to urgent (4). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

// Column is an ordered lane of tasks. TaskIDs is the only record of membership and order.
type Column struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Color     string    `json:"color"`
	Position  int       `json:"position"`
	MaxTasks  *int      `json:"max_tasks,omitempty"`
	TaskIDs   []string  `json:"task_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Full reports whether the column cannot take another task.
func (c *Column) Full() bool {
	return c.MaxTasks != nil && len(c.TaskIDs) >= *c.MaxTasks
}

// Task is a card on the board. LoggedHours is derived from the task's time entries.
type Task struct {
	ID              string     `json:"id"`
	ColumnID        string     `json:"column_id"`
	Position        int        `json:"position"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	HTMLDescription string     `json:"html_description,omitempty"`
	Priority        Priority   `json:"priority"`
	AssigneeID      *uint64    `json:"assignee_id,omitempty"`
	EstimatedHours  float64    `json:"estimated_hours"`
	LoggedHours     float64    `json:"logged_hours"`
	Tags            []string   `json:"tags"`
	CommentIDs      []string   `json:"comment_ids"`
	TimeEntryIDs    []string   `json:"time_entry_ids"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CreatedBy       uint64     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Overdue reports whether the task's due date is before now.
func (t *Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now)
}

// Comment is owned by a task.
type Comment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Content     string    `json:"content"`
	HTMLContent string    `json:"html_content,omitempty"`
	UserID      uint64    `json:"user_id"`
	IsEdited    bool      `json:"is_edited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimeEntry is owned by a task.
type TimeEntry struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	UserID      uint64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskInput describes a new task. ID may be left empty to have one generated.
type TaskInput struct {
	ID              string
	Title           string
	Description     string
	HTMLDescription string
	Priority        Priority
	AssigneeID      *uint64
	EstimatedHours  float64
	Tags            []string
	DueDate         *time.Time
	CreatedBy       uint64
}

// TaskPatch updates a task. Nil fields are left unchanged; a nil Tags slice
// leaves tags alone while an empty one clears them.
type TaskPatch struct {
	ColumnID        *string
	Title           *string
	Description     *string
	HTMLDescription *string
	Priority        *Priority
	AssigneeID      *uint64
	ClearAssignee   bool
	EstimatedHours  *float64
	Tags            []string
	DueDate         *time.Time
	ClearDueDate    bool
}

// CommentInput describes a new comment.
type CommentInput struct {
	ID          string
	Content     string
	HTMLContent string
	UserID      uint64
}

// CommentPatch edits a comment's text.
type CommentPatch struct {
	Content     string
	HTMLContent string
}

// TimeEntryInput describes a new time entry.
type TimeEntryInput struct {
	ID          string
	Hours       float64
	Description string
	Date        time.Time
	UserID      uint64
}

// TimeEntryPatch edits a time entry.
type TimeEntryPatch struct {
	Hours       *float64
	Description *string
	Date        *time.Time
}

// ColumnInput describes a new column.
type ColumnInput struct {
	ID       string
	Title    string
	Color    string
	MaxTasks *int
}

// ColumnPatch edits a column.
type ColumnPatch struct {
	Title         *string
	Color         *string
	MaxTasks      *int
	ClearMaxTasks bool
}

// Snapshot is the full normalized content of a board.
type Snapshot struct {
	Columns     []Column    `json:"columns"`
	Tasks       []Task      `json:"tasks"`
	Comments    []Comment   `json:"comments"`
	TimeEntries []TimeEntry `json:"time_entries"`
}

// normalizeTags trims, drops blanks and duplicates, and sorts.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUint64Ptr(p *uint64) *uint64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (c *Column) clone() Column {
	out := *c
	out.MaxTasks = cloneIntPtr(c.MaxTasks)
	out.TaskIDs = cloneStrings(c.TaskIDs)
	return out
}

func (t *Task) clone() Task {
	out := *t
	out.AssigneeID = cloneUint64Ptr(t.AssigneeID)
	out.DueDate = cloneTimePtr(t.DueDate)
	out.Tags = cloneStrings(t.Tags)
	out.CommentIDs = cloneStrings(t.CommentIDs)
	out.TimeEntryIDs = cloneStrings(t.TimeEntryIDs)
	return out
}

// copyDetails copies the user-editable fields of src into t, leaving
// membership and derived fields untouched.
func (t *Task) copyDetails(src *Task) {
	t.Title = src.Title
	t.Description = src.Description
	t.HTMLDescription = src.HTMLDescription
	t.Priority = src.Priority
	t.AssigneeID = cloneUint64Ptr(src.AssigneeID)
	t.EstimatedHours = src.EstimatedHours
	t.Tags = cloneStrings(src.Tags)
	t.DueDate = cloneTimePtr(src.DueDate)
	t.UpdatedAt = src.UpdatedAt
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeAt(ids []string, i int) []string {
	return append(ids[:i:i], ids[i+1:]...)
}

func insertAt(ids []string, i int, id string) []string {
	i = clamp(i, 0, len(ids))
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:i]...)
	out = append(out, id)
	return append(out, ids[i:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
