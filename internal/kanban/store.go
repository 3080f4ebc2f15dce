// Package kanban holds the normalized state of a project board and applies
// mutations to it in two phases: apply now, revert later if the remote rejects.
package kanban

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Change is a mutation that has been applied locally. Revert undoes it at the
// entity level, so unrelated edits made in the meantime survive.
type Change[T any] struct {
	Applied T
	revert  func()
}

// Revert undoes the change. It is safe to call on a no-op change.
func (c Change[T]) Revert() {
	if c.revert != nil {
		c.revert()
	}
}

// Noop reports whether nothing was applied, as for an idempotent delete of a missing entity.
func (c Change[T]) Noop() bool {
	return c.revert == nil
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides how ids are assigned to new entities.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store is the in-memory board. All methods are safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	newID       func() string
	columns     map[string]*Column
	columnOrder []string
	tasks       map[string]*Task
	comments    map[string]*Comment
	timeEntries map[string]*TimeEntry
}

// NewStore returns an empty board.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:         time.Now,
		newID:       uuid.NewString,
		columns:     make(map[string]*Column),
		tasks:       make(map[string]*Task),
		comments:    make(map[string]*Comment),
		timeEntries: make(map[string]*TimeEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate replaces the board content with snap. Column membership is rebuilt
// from each task's ColumnID and Position; tasks, comments and time entries
// whose owner is missing are dropped. Logged hours are recomputed.
func (s *Store) Hydrate(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.columns = make(map[string]*Column, len(snap.Columns))
	s.columnOrder = s.columnOrder[:0]
	s.tasks = make(map[string]*Task, len(snap.Tasks))
	s.comments = make(map[string]*Comment, len(snap.Comments))
	s.timeEntries = make(map[string]*TimeEntry, len(snap.TimeEntries))

	cols := append([]Column(nil), snap.Columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
	for i := range cols {
		c := cols[i].clone()
		c.TaskIDs = []string{}
		s.columns[c.ID] = &c
		s.columnOrder = append(s.columnOrder, c.ID)
	}
	s.renumberColumns()

	tasks := append([]Task(nil), snap.Tasks...)
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	for i := range tasks {
		col, ok := s.columns[tasks[i].ColumnID]
		if !ok {
			continue
		}
		t := tasks[i].clone()
		t.CommentIDs = []string{}
		t.TimeEntryIDs = []string{}
		t.Tags = normalizeTags(t.Tags)
		s.tasks[t.ID] = &t
		col.TaskIDs = append(col.TaskIDs, t.ID)
	}
	for _, id := range s.columnOrder {
		s.renumberTasks(s.columns[id])
	}

	comments := append([]Comment(nil), snap.Comments...)
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	for i := range comments {
		t, ok := s.tasks[comments[i].TaskID]
		if !ok {
			continue
		}
		c := comments[i]
		s.comments[c.ID] = &c
		t.CommentIDs = append(t.CommentIDs, c.ID)
	}

	entries := append([]TimeEntry(nil), snap.TimeEntries...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	for i := range entries {
		t, ok := s.tasks[entries[i].TaskID]
		if !ok {
			continue
		}
		e := entries[i]
		s.timeEntries[e.ID] = &e
		t.TimeEntryIDs = append(t.TimeEntryIDs, e.ID)
	}
	for _, t := range s.tasks {
		s.recomputeLoggedHours(t)
	}
}

// Snapshot returns a deep copy of the board in display order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Columns:     make([]Column, 0, len(s.columns)),
		Tasks:       make([]Task, 0, len(s.tasks)),
		Comments:    make([]Comment, 0, len(s.comments)),
		TimeEntries: make([]TimeEntry, 0, len(s.timeEntries)),
	}
	for _, colID := range s.columnOrder {
		col := s.columns[colID]
		snap.Columns = append(snap.Columns, col.clone())
		for _, taskID := range col.TaskIDs {
			t := s.tasks[taskID]
			snap.Tasks = append(snap.Tasks, t.clone())
			for _, id := range t.CommentIDs {
				snap.Comments = append(snap.Comments, *s.comments[id])
			}
			for _, id := range t.TimeEntryIDs {
				snap.TimeEntries = append(snap.TimeEntries, *s.timeEntries[id])
			}
		}
	}
	return snap
}

// CheckInvariants verifies the structural invariants of the board.
func (s *Store) CheckInvariants() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]string, len(s.tasks))
	for i, colID := range s.columnOrder {
		col, ok := s.columns[colID]
		if !ok {
			return fmt.Errorf("column order lists unknown column %s", colID)
		}
		if col.Position != i {
			return fmt.Errorf("column %s has position %d, want %d", colID, col.Position, i)
		}
		for j, taskID := range col.TaskIDs {
			if other, dup := seen[taskID]; dup {
				return fmt.Errorf("task %s is listed in columns %s and %s", taskID, other, colID)
			}
			seen[taskID] = colID
			t, ok := s.tasks[taskID]
			if !ok {
				return fmt.Errorf("column %s lists unknown task %s", colID, taskID)
			}
			if t.ColumnID != colID {
				return fmt.Errorf("task %s says column %s but is listed in %s", taskID, t.ColumnID, colID)
			}
			if t.Position != j {
				return fmt.Errorf("task %s has position %d, want %d", taskID, t.Position, j)
			}
		}
	}
	if len(s.columnOrder) != len(s.columns) {
		return fmt.Errorf("column order has %d entries for %d columns", len(s.columnOrder), len(s.columns))
	}
	if len(seen) != len(s.tasks) {
		return fmt.Errorf("%d tasks are not listed in any column", len(s.tasks)-len(seen))
	}

	ownedComments, ownedEntries := 0, 0
	for _, t := range s.tasks {
		var sum float64
		for _, id := range t.TimeEntryIDs {
			e, ok := s.timeEntries[id]
			if !ok || e.TaskID != t.ID {
				return fmt.Errorf("task %s lists foreign time entry %s", t.ID, id)
			}
			sum += e.Hours
		}
		if diff := sum - t.LoggedHours; diff > 1e-9 || diff < -1e-9 {
			return fmt.Errorf("task %s logged hours %.2f, entries sum to %.2f", t.ID, t.LoggedHours, sum)
		}
		for _, id := range t.CommentIDs {
			c, ok := s.comments[id]
			if !ok || c.TaskID != t.ID {
				return fmt.Errorf("task %s lists foreign comment %s", t.ID, id)
			}
		}
		ownedComments += len(t.CommentIDs)
		ownedEntries += len(t.TimeEntryIDs)
	}
	if ownedComments != len(s.comments) {
		return fmt.Errorf("%d comments have no owning task", len(s.comments)-ownedComments)
	}
	if ownedEntries != len(s.timeEntries) {
		return fmt.Errorf("%d time entries have no owning task", len(s.timeEntries)-ownedEntries)
	}
	return nil
}

func (s *Store) renumberColumns() {
	for i, id := range s.columnOrder {
		s.columns[id].Position = i
	}
}

func (s *Store) renumberTasks(col *Column) {
	for i, id := range col.TaskIDs {
		if t, ok := s.tasks[id]; ok {
			t.Position = i
			t.ColumnID = col.ID
		}
	}
}

func (s *Store) recomputeLoggedHours(t *Task) {
	var sum float64
	for _, id := range t.TimeEntryIDs {
		if e, ok := s.timeEntries[id]; ok {
			sum += e.Hours
		}
	}
	t.LoggedHours = sum
}

func (s *Store) id(requested string) string {
	if requested != "" {
		return requested
	}
	return s.newID()
}
