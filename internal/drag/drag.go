// Package drag tracks a single drag-and-drop interaction on a board and turns
// a drop into at most one move instruction.
package drag

import (
	"errors"
	"sync"
)

var (
	ErrAlreadyDragging = errors.New("a drag is already in progress")
	ErrNotDragging     = errors.New("no drag in progress")
)

// State of the coordinator.
type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is the ephemeral record of an active drag.
type Session struct {
	TaskID       string `json:"task_id"`
	FromColumnID string `json:"from_column_id"`
	OverColumnID string `json:"over_column_id,omitempty"`
}

// Move is the instruction emitted by a drop onto another column.
type Move struct {
	TaskID       string `json:"task_id"`
	FromColumnID string `json:"from_column_id"`
	ToColumnID   string `json:"to_column_id"`
	Position     int    `json:"position"`
}

// Outcome is how the last drag ended.
type Outcome struct {
	State State `json:"state"`
	Move  *Move `json:"move,omitempty"`
}

// Coordinator is the drag state machine. Dropped and Cancelled are passed
// through on the way back to Idle and are reported via LastOutcome.
type Coordinator struct {
	mu      sync.Mutex
	session *Session
	last    Outcome
}

// NewCoordinator returns an idle coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// StartDrag begins a drag. Starting while another drag is active is rejected
// and leaves the active drag untouched.
func (c *Coordinator) StartDrag(taskID, fromColumnID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return ErrAlreadyDragging
	}
	c.session = &Session{TaskID: taskID, FromColumnID: fromColumnID}
	return nil
}

// DragOverColumn records the hovered column. It is ignored when idle.
func (c *Coordinator) DragOverColumn(columnID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.OverColumnID = columnID
	}
}

// Drop ends the drag over toColumnID, placing the task at the top.
func (c *Coordinator) Drop(toColumnID string) (Move, bool) {
	return c.DropAt(toColumnID, 0)
}

// DropAt ends the drag over toColumnID at position. It returns a move only
// when the target differs from the source column; dropping back onto the
// source column cancels the drag.
func (c *Coordinator) DropAt(toColumnID string, position int) (Move, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Move{}, false
	}
	s := c.session
	c.session = nil
	if toColumnID == s.FromColumnID {
		c.last = Outcome{State: Cancelled}
		return Move{}, false
	}
	m := Move{TaskID: s.TaskID, FromColumnID: s.FromColumnID, ToColumnID: toColumnID, Position: position}
	c.last = Outcome{State: Dropped, Move: &m}
	return m, true
}

// Cancel abandons the drag without a move.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session = nil
		c.last = Outcome{State: Cancelled}
	}
}

// End is the host's drag-end signal. Any drag still active is cancelled.
func (c *Coordinator) End() {
	c.Cancel()
}

// State returns Dragging while a drag is active and Idle otherwise.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return Dragging
	}
	return Idle
}

// IsDragging reports whether a drag is active.
func (c *Coordinator) IsDragging() bool {
	return c.State() == Dragging
}

// IsColumnHighlighted reports whether columnID is a hovered drop target other
// than the column the drag started in.
func (c *Coordinator) IsColumnHighlighted(columnID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	return s != nil && s.OverColumnID == columnID && s.FromColumnID != columnID
}

// Session returns a copy of the active drag.
func (c *Coordinator) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// LastOutcome reports how the most recent drag ended.
func (c *Coordinator) LastOutcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
