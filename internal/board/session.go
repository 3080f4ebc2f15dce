// Package board couples a kanban store with its remote. Every mutation is
// applied to the store first and then persisted; a rejected call rolls the
// affected entity back and is recorded for the user.
package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/devbridge/dev-bridge-manager/internal/drag"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/remote"
)

const maxErrorLog = 50

// ErrorEntry is a failed remote call kept for display.
type ErrorEntry struct {
	Op       string    `json:"op"`
	EntityID string    `json:"entity_id"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// Session is the live board of one project.
type Session struct {
	projectID uint64
	store     *kanban.Store
	remote    remote.BoardRemote
	logger    *slog.Logger

	mu     sync.Mutex
	issued uint64
	latest map[string]uint64
	errs   []ErrorEntry
	drags  map[uint64]*drag.Coordinator
}

// NewSession wraps store, which should already hold the project's board.
func NewSession(projectID uint64, store *kanban.Store, r remote.BoardRemote, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		projectID: projectID,
		store:     store,
		remote:    r,
		logger:    logger.With("project_id", projectID),
		latest:    make(map[string]uint64),
		drags:     make(map[uint64]*drag.Coordinator),
	}
}

// ProjectID returns the project this session belongs to.
func (s *Session) ProjectID() uint64 { return s.projectID }

// Store exposes the board for reads.
func (s *Session) Store() *kanban.Store { return s.store }

// Errors returns the recorded remote failures, oldest first.
func (s *Session) Errors() []ErrorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ErrorEntry(nil), s.errs...)
}

// LastError returns the most recent remote failure.
func (s *Session) LastError() (ErrorEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) == 0 {
		return ErrorEntry{}, false
	}
	return s.errs[len(s.errs)-1], true
}

// ClearErrors empties the error log.
func (s *Session) ClearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = nil
}

// stage applies a local change and issues its sequence number for key while
// holding the session lock, so issuance order matches application order.
// An empty key means nothing was applied.
func (s *Session) stage(apply func() (string, error)) (string, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, err := apply()
	if err != nil || key == "" {
		return "", 0, err
	}
	s.issued++
	s.latest[key] = s.issued
	return key, s.issued, nil
}

// settle resolves a staged change once its remote call returned. Responses for
// an entity that has been mutated again since are discarded.
func (s *Session) settle(op, key string, seq uint64, err error, revert, reconcile func()) error {
	return s.resolve(op, key, seq, err, false, revert, reconcile)
}

// settleCreate is settle for a creation. A rejected creation is reverted even
// when the entity was edited since: the remote never stored it, so the edits
// in flight are dropped with it and their responses are discarded.
func (s *Session) settleCreate(op, key string, seq uint64, err error, revert, reconcile func()) error {
	return s.resolve(op, key, seq, err, true, revert, reconcile)
}

// settleDelete is settle for a removal. A remote that no longer holds the
// entity has reached the requested state, so that answer counts as success.
func (s *Session) settleDelete(op, key string, seq uint64, err error, revert func()) error {
	if errors.Is(err, remote.ErrNotFound) {
		s.logger.Debug("entity already gone remotely", "op", op, "entity", key)
		err = nil
	}
	return s.resolve(op, key, seq, err, false, revert, nil)
}

func (s *Session) resolve(op, key string, seq uint64, err error, created bool, revert, reconcile func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.latest[key] == seq
	if current || (created && err != nil) {
		delete(s.latest, key)
	}
	if err == nil {
		if current && reconcile != nil {
			reconcile()
		}
		return nil
	}

	var f *remote.Failure
	if !errors.As(remote.Fail(op, err), &f) {
		f = &remote.Failure{Op: op, Message: err.Error(), Err: err}
	}
	if current || created {
		revert()
		s.logger.Warn("remote call failed, change rolled back", "op", op, "entity", key, "error", err)
	} else {
		s.logger.Warn("stale remote failure discarded", "op", op, "entity", key, "error", err)
	}
	s.errs = append(s.errs, ErrorEntry{Op: op, EntityID: key, Message: f.Message, At: time.Now()})
	if len(s.errs) > maxErrorLog {
		s.errs = s.errs[len(s.errs)-maxErrorLog:]
	}
	return f
}

func taskKey(id string) string    { return "task:" + id }
func commentKey(id string) string { return "comment:" + id }
func entryKey(id string) string   { return "time_entry:" + id }
func columnKey(id string) string  { return "column:" + id }

const columnOrderKey = "columns"

// CreateTask adds a task to a column and persists it.
func (s *Session) CreateTask(ctx context.Context, columnID string, in kanban.TaskInput) (kanban.Task, error) {
	var change kanban.Change[kanban.Task]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageCreateTask(columnID, in)
		return taskKey(change.Applied.ID), err
	})
	if err != nil {
		return kanban.Task{}, err
	}

	saved, err := s.remote.CreateTask(ctx, s.projectID, change.Applied)
	err = s.settleCreate("create task", key, seq, err, change.Revert, func() { s.store.ReconcileTask(saved) })
	if err != nil {
		return kanban.Task{}, err
	}
	return s.current(change.Applied), nil
}

// UpdateTask edits a task and persists the patch.
func (s *Session) UpdateTask(ctx context.Context, taskID string, patch kanban.TaskPatch) (kanban.Task, error) {
	var change kanban.Change[kanban.Task]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageUpdateTask(taskID, patch)
		return taskKey(taskID), err
	})
	if err != nil {
		return kanban.Task{}, err
	}

	saved, err := s.remote.UpdateTask(ctx, s.projectID, taskID, patch)
	err = s.settle("update task", key, seq, err, change.Revert, func() { s.store.ReconcileTask(saved) })
	if err != nil {
		return kanban.Task{}, err
	}
	return s.current(change.Applied), nil
}

// DeleteTask removes a task. Deleting a task that is already gone succeeds.
func (s *Session) DeleteTask(ctx context.Context, taskID string) error {
	var change kanban.Change[kanban.Task]
	key, seq, _ := s.stage(func() (string, error) {
		if change = s.store.StageDeleteTask(taskID); change.Noop() {
			return "", nil
		}
		return taskKey(taskID), nil
	})
	if change.Noop() {
		return nil
	}
	err := s.remote.DeleteTask(ctx, s.projectID, taskID)
	return s.settleDelete("delete task", key, seq, err, change.Revert)
}

// MoveTask places a task in a column and persists the move.
func (s *Session) MoveTask(ctx context.Context, taskID, toColumnID string, position int) (kanban.Move, error) {
	var change kanban.Change[kanban.Move]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageMoveTask(taskID, toColumnID, position)
		return taskKey(taskID), err
	})
	if err != nil {
		return kanban.Move{}, err
	}

	saved, err := s.remote.MoveTask(ctx, s.projectID, taskID, toColumnID, change.Applied.ToPosition)
	err = s.settle("move task", key, seq, err, change.Revert, func() { s.store.ReconcileTask(saved) })
	if err != nil {
		return kanban.Move{}, err
	}
	return change.Applied, nil
}

// ApplyDrop carries out the move emitted by a drag coordinator.
func (s *Session) ApplyDrop(ctx context.Context, m drag.Move) (kanban.Move, error) {
	return s.MoveTask(ctx, m.TaskID, m.ToColumnID, m.Position)
}

// AddComment adds a comment to a task and persists it.
func (s *Session) AddComment(ctx context.Context, taskID string, in kanban.CommentInput) (kanban.Comment, error) {
	var change kanban.Change[kanban.Comment]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageAddComment(taskID, in)
		return commentKey(change.Applied.ID), err
	})
	if err != nil {
		return kanban.Comment{}, err
	}

	saved, err := s.remote.CreateComment(ctx, s.projectID, change.Applied)
	err = s.settleCreate("create comment", key, seq, err, change.Revert, func() { s.store.ReconcileComment(saved) })
	if err != nil {
		return kanban.Comment{}, err
	}
	return change.Applied, nil
}

// UpdateComment edits a comment and persists it.
func (s *Session) UpdateComment(ctx context.Context, commentID string, patch kanban.CommentPatch) (kanban.Comment, error) {
	var change kanban.Change[kanban.Comment]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageUpdateComment(commentID, patch)
		return commentKey(commentID), err
	})
	if err != nil {
		return kanban.Comment{}, err
	}

	saved, err := s.remote.UpdateComment(ctx, s.projectID, commentID, patch)
	err = s.settle("update comment", key, seq, err, change.Revert, func() { s.store.ReconcileComment(saved) })
	if err != nil {
		return kanban.Comment{}, err
	}
	return change.Applied, nil
}

// DeleteComment removes a comment. Deleting a comment that is already gone succeeds.
func (s *Session) DeleteComment(ctx context.Context, commentID string) error {
	var change kanban.Change[kanban.Comment]
	key, seq, _ := s.stage(func() (string, error) {
		if change = s.store.StageDeleteComment(commentID); change.Noop() {
			return "", nil
		}
		return commentKey(commentID), nil
	})
	if change.Noop() {
		return nil
	}
	err := s.remote.DeleteComment(ctx, s.projectID, commentID)
	return s.settleDelete("delete comment", key, seq, err, change.Revert)
}

// AddTimeEntry records a time entry and persists it.
func (s *Session) AddTimeEntry(ctx context.Context, taskID string, in kanban.TimeEntryInput) (kanban.TimeEntry, error) {
	var change kanban.Change[kanban.TimeEntry]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageAddTimeEntry(taskID, in)
		return entryKey(change.Applied.ID), err
	})
	if err != nil {
		return kanban.TimeEntry{}, err
	}

	saved, err := s.remote.CreateTimeEntry(ctx, s.projectID, change.Applied)
	err = s.settleCreate("create time entry", key, seq, err, change.Revert, func() { s.store.ReconcileTimeEntry(saved) })
	if err != nil {
		return kanban.TimeEntry{}, err
	}
	return change.Applied, nil
}

// UpdateTimeEntry edits a time entry and persists it.
func (s *Session) UpdateTimeEntry(ctx context.Context, entryID string, patch kanban.TimeEntryPatch) (kanban.TimeEntry, error) {
	var change kanban.Change[kanban.TimeEntry]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageUpdateTimeEntry(entryID, patch)
		return entryKey(entryID), err
	})
	if err != nil {
		return kanban.TimeEntry{}, err
	}

	saved, err := s.remote.UpdateTimeEntry(ctx, s.projectID, entryID, patch)
	err = s.settle("update time entry", key, seq, err, change.Revert, func() { s.store.ReconcileTimeEntry(saved) })
	if err != nil {
		return kanban.TimeEntry{}, err
	}
	return change.Applied, nil
}

// DeleteTimeEntry removes a time entry. Deleting an entry that is already gone succeeds.
func (s *Session) DeleteTimeEntry(ctx context.Context, entryID string) error {
	var change kanban.Change[kanban.TimeEntry]
	key, seq, _ := s.stage(func() (string, error) {
		if change = s.store.StageDeleteTimeEntry(entryID); change.Noop() {
			return "", nil
		}
		return entryKey(entryID), nil
	})
	if change.Noop() {
		return nil
	}
	err := s.remote.DeleteTimeEntry(ctx, s.projectID, entryID)
	return s.settleDelete("delete time entry", key, seq, err, change.Revert)
}

// AddColumn appends a column and persists it.
func (s *Session) AddColumn(ctx context.Context, in kanban.ColumnInput) (kanban.Column, error) {
	var change kanban.Change[kanban.Column]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageAddColumn(in)
		return columnKey(change.Applied.ID), err
	})
	if err != nil {
		return kanban.Column{}, err
	}

	_, err = s.remote.CreateColumn(ctx, s.projectID, change.Applied)
	if err = s.settleCreate("create column", key, seq, err, change.Revert, nil); err != nil {
		return kanban.Column{}, err
	}
	return change.Applied, nil
}

// UpdateColumn edits a column and persists it.
func (s *Session) UpdateColumn(ctx context.Context, columnID string, patch kanban.ColumnPatch) (kanban.Column, error) {
	var change kanban.Change[kanban.Column]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageUpdateColumn(columnID, patch)
		return columnKey(columnID), err
	})
	if err != nil {
		return kanban.Column{}, err
	}

	_, err = s.remote.UpdateColumn(ctx, s.projectID, columnID, patch)
	if err = s.settle("update column", key, seq, err, change.Revert, nil); err != nil {
		return kanban.Column{}, err
	}
	return change.Applied, nil
}

// DeleteColumn removes a column with its tasks. Deleting a missing column succeeds.
func (s *Session) DeleteColumn(ctx context.Context, columnID string) error {
	var change kanban.Change[kanban.Column]
	key, seq, _ := s.stage(func() (string, error) {
		if change = s.store.StageDeleteColumn(columnID); change.Noop() {
			return "", nil
		}
		return columnKey(columnID), nil
	})
	if change.Noop() {
		return nil
	}
	err := s.remote.DeleteColumn(ctx, s.projectID, columnID)
	return s.settleDelete("delete column", key, seq, err, change.Revert)
}

// ReorderColumns sets the column order and persists it.
func (s *Session) ReorderColumns(ctx context.Context, columnIDs []string) error {
	var change kanban.Change[[]string]
	key, seq, err := s.stage(func() (string, error) {
		var err error
		change, err = s.store.StageReorderColumns(columnIDs)
		return columnOrderKey, err
	})
	if err != nil {
		return err
	}
	err = s.remote.ReorderColumns(ctx, s.projectID, columnIDs)
	return s.settle("reorder columns", key, seq, err, change.Revert, nil)
}

// current returns the store's copy of t, or t itself when it is gone.
func (s *Session) current(t kanban.Task) kanban.Task {
	if cur, ok := s.store.Task(t.ID); ok {
		return cur
	}
	return t
}
