package kanban

import "strings"

// taskRecord is everything needed to put a removed task back.
type taskRecord struct {
	task     Task
	columnID string
	index    int
	comments []Comment
	entries  []TimeEntry
}

// Task returns a copy of the task with id.
func (s *Store) Task(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return t.clone(), true
}

// CreateTask adds a task to the end of a column.
func (s *Store) CreateTask(columnID string, in TaskInput) (Task, error) {
	c, err := s.StageCreateTask(columnID, in)
	return c.Applied, err
}

// StageCreateTask is CreateTask with a revert that deletes the task again.
func (s *Store) StageCreateTask(columnID string, in TaskInput) (Change[Task], error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Change[Task]{}, invalid("task title is required")
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return Change[Task]{}, invalid("unknown priority %q", in.Priority)
	}
	if in.EstimatedHours < 0 {
		return Change[Task]{}, invalid("estimated hours cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.columns[columnID]
	if !ok {
		return Change[Task]{}, notFound("column", columnID)
	}
	if col.Full() {
		return Change[Task]{}, &CapacityError{ColumnID: col.ID, Title: col.Title, MaxTasks: *col.MaxTasks}
	}
	id := s.id(in.ID)
	if _, exists := s.tasks[id]; exists {
		return Change[Task]{}, notUnique("task", id)
	}

	now := s.now()
	t := &Task{
		ID:              id,
		ColumnID:        col.ID,
		Position:        len(col.TaskIDs),
		Title:           title,
		Description:     in.Description,
		HTMLDescription: in.HTMLDescription,
		Priority:        priority,
		AssigneeID:      cloneUint64Ptr(in.AssigneeID),
		EstimatedHours:  in.EstimatedHours,
		Tags:            normalizeTags(in.Tags),
		CommentIDs:      []string{},
		TimeEntryIDs:    []string{},
		DueDate:         cloneTimePtr(in.DueDate),
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.tasks[id] = t
	col.TaskIDs = append(col.TaskIDs, id)

	return Change[Task]{
		Applied: t.clone(),
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.removeTask(id)
		},
	}, nil
}

// UpdateTask edits a task's details. Changing its column is rejected.
func (s *Store) UpdateTask(id string, patch TaskPatch) (Task, error) {
	c, err := s.StageUpdateTask(id, patch)
	return c.Applied, err
}

// StageUpdateTask is UpdateTask with a revert that restores the previous details.
func (s *Store) StageUpdateTask(id string, patch TaskPatch) (Change[Task], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Change[Task]{}, notFound("task", id)
	}
	if patch.ColumnID != nil && *patch.ColumnID != t.ColumnID {
		return Change[Task]{}, ErrColumnChange
	}

	next := t.clone()
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return Change[Task]{}, invalid("task title is required")
		}
		next.Title = title
	}
	if patch.Description != nil {
		next.Description = *patch.Description
	}
	if patch.HTMLDescription != nil {
		next.HTMLDescription = *patch.HTMLDescription
	}
	if patch.Priority != nil {
		if !patch.Priority.Valid() {
			return Change[Task]{}, invalid("unknown priority %q", *patch.Priority)
		}
		next.Priority = *patch.Priority
	}
	if patch.ClearAssignee {
		next.AssigneeID = nil
	} else if patch.AssigneeID != nil {
		next.AssigneeID = cloneUint64Ptr(patch.AssigneeID)
	}
	if patch.EstimatedHours != nil {
		if *patch.EstimatedHours < 0 {
			return Change[Task]{}, invalid("estimated hours cannot be negative")
		}
		next.EstimatedHours = *patch.EstimatedHours
	}
	if patch.Tags != nil {
		next.Tags = normalizeTags(patch.Tags)
	}
	if patch.ClearDueDate {
		next.DueDate = nil
	} else if patch.DueDate != nil {
		next.DueDate = cloneTimePtr(patch.DueDate)
	}
	next.UpdatedAt = s.now()

	prev := t.clone()
	t.copyDetails(&next)

	return Change[Task]{
		Applied: t.clone(),
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if cur, ok := s.tasks[id]; ok {
				cur.copyDetails(&prev)
			}
		},
	}, nil
}

// DeleteTask removes a task with its comments and time entries. Deleting a
// missing task is a no-op.
func (s *Store) DeleteTask(id string) {
	s.StageDeleteTask(id)
}

// StageDeleteTask is DeleteTask with a revert that reinserts the task at its
// former place, together with its comments and time entries.
func (s *Store) StageDeleteTask(id string) Change[Task] {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.removeTask(id)
	if !ok {
		return Change[Task]{}
	}
	return Change[Task]{
		Applied: rec.task,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.restoreTask(rec)
		},
	}
}

// Move describes where a task went.
type Move struct {
	TaskID       string `json:"task_id"`
	FromColumnID string `json:"from_column_id"`
	FromPosition int    `json:"from_position"`
	ToColumnID   string `json:"to_column_id"`
	ToPosition   int    `json:"to_position"`
}

// MoveTask places a task at position in column toColumnID. The position is
// clamped to the column bounds. Moving into another column respects its task
// limit; reordering within a column never does.
func (s *Store) MoveTask(id, toColumnID string, position int) (Move, error) {
	c, err := s.StageMoveTask(id, toColumnID, position)
	return c.Applied, err
}

// StageMoveTask is MoveTask with a revert that puts the task back where it was.
func (s *Store) StageMoveTask(id, toColumnID string, position int) (Change[Move], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Change[Move]{}, notFound("task", id)
	}
	to, ok := s.columns[toColumnID]
	if !ok {
		return Change[Move]{}, notFound("column", toColumnID)
	}
	from := s.columns[t.ColumnID]
	if from.ID != to.ID && to.Full() {
		return Change[Move]{}, &CapacityError{ColumnID: to.ID, Title: to.Title, MaxTasks: *to.MaxTasks}
	}

	m := Move{TaskID: id, FromColumnID: from.ID, FromPosition: t.Position, ToColumnID: to.ID}
	m.ToPosition = s.place(t, from, to, position)
	t.UpdatedAt = s.now()

	return Change[Move]{
		Applied: m,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			cur, ok := s.tasks[id]
			if !ok {
				return
			}
			back, ok := s.columns[m.FromColumnID]
			if !ok {
				return
			}
			s.place(cur, s.columns[cur.ColumnID], back, m.FromPosition)
		},
	}, nil
}

// place moves t from column from to column to at position, without capacity
// checks, and returns the position it ended up at.
func (s *Store) place(t *Task, from, to *Column, position int) int {
	if i := indexOf(from.TaskIDs, t.ID); i >= 0 {
		from.TaskIDs = removeAt(from.TaskIDs, i)
	}
	position = clamp(position, 0, len(to.TaskIDs))
	to.TaskIDs = insertAt(to.TaskIDs, position, t.ID)
	s.renumberTasks(from)
	if from != to {
		s.renumberTasks(to)
	}
	return position
}

// removeTask unlinks a task and everything it owns. Callers hold the lock.
func (s *Store) removeTask(id string) (taskRecord, bool) {
	t, ok := s.tasks[id]
	if !ok {
		return taskRecord{}, false
	}
	rec := taskRecord{task: t.clone(), columnID: t.ColumnID, index: -1}
	if col, ok := s.columns[t.ColumnID]; ok {
		if i := indexOf(col.TaskIDs, id); i >= 0 {
			rec.index = i
			col.TaskIDs = removeAt(col.TaskIDs, i)
			s.renumberTasks(col)
		}
	}
	for _, cid := range t.CommentIDs {
		if c, ok := s.comments[cid]; ok {
			rec.comments = append(rec.comments, *c)
			delete(s.comments, cid)
		}
	}
	for _, eid := range t.TimeEntryIDs {
		if e, ok := s.timeEntries[eid]; ok {
			rec.entries = append(rec.entries, *e)
			delete(s.timeEntries, eid)
		}
	}
	delete(s.tasks, id)
	return rec, true
}

// restoreTask reinserts a removed task. It is dropped if its column no longer
// exists or the id has been taken again.
func (s *Store) restoreTask(rec taskRecord) {
	col, ok := s.columns[rec.columnID]
	if !ok {
		return
	}
	if _, taken := s.tasks[rec.task.ID]; taken {
		return
	}
	t := rec.task.clone()
	t.CommentIDs = []string{}
	t.TimeEntryIDs = []string{}
	s.tasks[t.ID] = &t
	for i := range rec.comments {
		c := rec.comments[i]
		s.comments[c.ID] = &c
		t.CommentIDs = append(t.CommentIDs, c.ID)
	}
	for i := range rec.entries {
		e := rec.entries[i]
		s.timeEntries[e.ID] = &e
		t.TimeEntryIDs = append(t.TimeEntryIDs, e.ID)
	}
	s.recomputeLoggedHours(&t)
	index := rec.index
	if index < 0 {
		index = len(col.TaskIDs)
	}
	col.TaskIDs = insertAt(col.TaskIDs, index, t.ID)
	s.renumberTasks(col)
}

// ReconcileTask copies the server's view of a task's details into the local
// copy. Membership and logged hours stay authoritative locally.
func (s *Store) ReconcileTask(remote Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[remote.ID]
	if !ok {
		return false
	}
	remote.Tags = normalizeTags(remote.Tags)
	t.copyDetails(&remote)
	if !remote.CreatedAt.IsZero() {
		t.CreatedAt = remote.CreatedAt
	}
	return true
}
