package board

import (
	"context"

	"github.com/devbridge/dev-bridge-manager/internal/drag"
	"github.com/devbridge/dev-bridge-manager/internal/kanban"
)

// DragState is a user's drag coordinator as seen by the client.
type DragState struct {
	State       string        `json:"state"`
	Session     *drag.Session `json:"session,omitempty"`
	Highlighted string        `json:"highlighted_column_id,omitempty"`
	LastOutcome drag.Outcome  `json:"last_outcome"`
}

// Drag returns the drag coordinator of a user, creating it on first use.
func (s *Session) Drag(userID uint64) *drag.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.drags[userID]
	if !ok {
		c = drag.NewCoordinator()
		s.drags[userID] = c
	}
	return c
}

// StartDrag starts dragging a task from the column it currently sits in.
func (s *Session) StartDrag(userID uint64, taskID string) (drag.Session, error) {
	t, ok := s.store.Task(taskID)
	if !ok {
		return drag.Session{}, kanban.ErrNotFound
	}
	c := s.Drag(userID)
	if err := c.StartDrag(t.ID, t.ColumnID); err != nil {
		return drag.Session{}, err
	}
	ds, _ := c.Session()
	return ds, nil
}

// DragOver records the column a user's drag hovers over.
func (s *Session) DragOver(userID uint64, columnID string) DragState {
	c := s.Drag(userID)
	c.DragOverColumn(columnID)
	return s.DragState(userID)
}

// Drop ends a user's drag and applies the resulting move, if any.
func (s *Session) Drop(ctx context.Context, userID uint64, toColumnID string, position int) (drag.Outcome, error) {
	c := s.Drag(userID)
	if !c.IsDragging() {
		return drag.Outcome{}, drag.ErrNotDragging
	}
	m, ok := c.DropAt(toColumnID, position)
	if !ok {
		return c.LastOutcome(), nil
	}
	applied, err := s.ApplyDrop(ctx, m)
	if err != nil {
		return c.LastOutcome(), err
	}
	out := c.LastOutcome()
	if out.Move != nil {
		mv := *out.Move
		mv.Position = applied.ToPosition
		out.Move = &mv
	}
	return out, nil
}

// CancelDrag abandons a user's drag.
func (s *Session) CancelDrag(userID uint64) {
	s.Drag(userID).Cancel()
}

// DragState reports a user's drag.
func (s *Session) DragState(userID uint64) DragState {
	c := s.Drag(userID)
	st := DragState{State: c.State().String(), LastOutcome: c.LastOutcome()}
	if ds, ok := c.Session(); ok {
		st.Session = &ds
		if c.IsColumnHighlighted(ds.OverColumnID) {
			st.Highlighted = ds.OverColumnID
		}
	}
	return st
}
