package kanban

import (
	"sort"
	"strings"
	"time"
)

// TasksByColumn returns the tasks of a column in order.
func (s *Store) TasksByColumn(columnID string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.columns[columnID]
	if !ok {
		return nil
	}
	out := make([]Task, 0, len(col.TaskIDs))
	for _, id := range col.TaskIDs {
		out = append(out, s.tasks[id].clone())
	}
	return out
}

// TaskFilter narrows a Query. Zero values match everything.
type TaskFilter struct {
	ColumnID    string
	AssigneeIDs []uint64
	Priorities  []Priority
	Tags        []string
	Search      string
	OverdueOnly bool
	// HasEstimate, when set, keeps only tasks with (true) or without (false)
	// estimated hours.
	HasEstimate *bool
}

// SortField names a task ordering.
type SortField string

const (
	SortBoard          SortField = ""
	SortPriority       SortField = "priority"
	SortDueDate        SortField = "due_date"
	SortCreatedAt      SortField = "created_at"
	SortUpdatedAt      SortField = "updated_at"
	SortTitle          SortField = "title"
	SortEstimatedHours SortField = "estimated_hours"
)

// Valid reports whether f is a known ordering.
func (f SortField) Valid() bool {
	switch f {
	case SortBoard, SortPriority, SortDueDate, SortCreatedAt, SortUpdatedAt, SortTitle, SortEstimatedHours:
		return true
	}
	return false
}

// TaskSort orders a Query. Ties keep board order.
type TaskSort struct {
	Field SortField
	Desc  bool
}

// Query returns the tasks matching filter, ordered by order. Tasks without a
// due date sort after dated ones regardless of direction.
func (s *Store) Query(filter TaskFilter, order TaskSort) []Task {
	s.mu.RLock()
	now := s.now()
	var out []Task
	for _, colID := range s.columnOrder {
		if filter.ColumnID != "" && filter.ColumnID != colID {
			continue
		}
		for _, id := range s.columns[colID].TaskIDs {
			t := s.tasks[id]
			if matches(t, filter, now) {
				out = append(out, t.clone())
			}
		}
	}
	s.mu.RUnlock()

	if order.Field == SortBoard {
		if order.Desc {
			for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if order.Field == SortDueDate && (a.DueDate == nil) != (b.DueDate == nil) {
			return a.DueDate != nil
		}
		c := compare(a, b, order.Field)
		if order.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compare(a, b *Task, field SortField) int {
	switch field {
	case SortPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case SortDueDate:
		if a.DueDate == nil || b.DueDate == nil {
			return 0
		}
		return a.DueDate.Compare(*b.DueDate)
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortEstimatedHours:
		switch {
		case a.EstimatedHours < b.EstimatedHours:
			return -1
		case a.EstimatedHours > b.EstimatedHours:
			return 1
		}
	}
	return 0
}

func matches(t *Task, f TaskFilter, now time.Time) bool {
	if len(f.AssigneeIDs) > 0 {
		if t.AssigneeID == nil || !containsUint(f.AssigneeIDs, *t.AssigneeID) {
			return false
		}
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	for _, tag := range f.Tags {
		if indexOf(t.Tags, tag) < 0 {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.OverdueOnly && !t.Overdue(now) {
		return false
	}
	if f.HasEstimate != nil && (t.EstimatedHours > 0) != *f.HasEstimate {
		return false
	}
	return true
}

func containsUint(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsPriority(ps []Priority, p Priority) bool {
	for _, v := range ps {
		if v == p {
			return true
		}
	}
	return false
}

// ColumnStats summarizes one column.
type ColumnStats struct {
	ColumnID string `json:"column_id"`
	Title    string `json:"title"`
	Tasks    int    `json:"tasks"`
	MaxTasks *int   `json:"max_tasks,omitempty"`
}

// Stats summarizes the board.
type Stats struct {
	Columns             []ColumnStats    `json:"columns"`
	TotalTasks          int              `json:"total_tasks"`
	OverdueTasks        int              `json:"overdue_tasks"`
	ByPriority          map[Priority]int `json:"by_priority"`
	TotalEstimatedHours float64          `json:"total_estimated_hours"`
	TotalLoggedHours    float64          `json:"total_logged_hours"`
}

// Stats computes board totals.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	st := Stats{ByPriority: make(map[Priority]int, 4)}
	for _, colID := range s.columnOrder {
		col := s.columns[colID]
		st.Columns = append(st.Columns, ColumnStats{
			ColumnID: col.ID,
			Title:    col.Title,
			Tasks:    len(col.TaskIDs),
			MaxTasks: cloneIntPtr(col.MaxTasks),
		})
		for _, id := range col.TaskIDs {
			t := s.tasks[id]
			st.TotalTasks++
			st.ByPriority[t.Priority]++
			st.TotalEstimatedHours += t.EstimatedHours
			st.TotalLoggedHours += t.LoggedHours
			if t.Overdue(now) {
				st.OverdueTasks++
			}
		}
	}
	return st
}
