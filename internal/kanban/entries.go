package kanban

import (
	"sort"
	"strings"
)

// CommentsByTask returns a task's comments, oldest first.
func (s *Store) CommentsByTask(taskID string) []Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	out := make([]Comment, 0, len(t.CommentIDs))
	for _, id := range t.CommentIDs {
		out = append(out, *s.comments[id])
	}
	return out
}

// Comment returns a copy of the comment with id.
func (s *Store) Comment(id string) (Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return Comment{}, false
	}
	return *c, true
}

// AddComment appends a comment to a task.
func (s *Store) AddComment(taskID string, in CommentInput) (Comment, error) {
	c, err := s.StageAddComment(taskID, in)
	return c.Applied, err
}

// StageAddComment is AddComment with a revert that removes the comment.
func (s *Store) StageAddComment(taskID string, in CommentInput) (Change[Comment], error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return Change[Comment]{}, invalid("comment content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return Change[Comment]{}, notFound("task", taskID)
	}
	id := s.id(in.ID)
	if _, exists := s.comments[id]; exists {
		return Change[Comment]{}, notUnique("comment", id)
	}
	now := s.now()
	c := &Comment{
		ID:          id,
		TaskID:      taskID,
		Content:     content,
		HTMLContent: in.HTMLContent,
		UserID:      in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.comments[id] = c
	t.CommentIDs = append(t.CommentIDs, id)

	return Change[Comment]{
		Applied: *c,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.removeComment(id)
		},
	}, nil
}

// UpdateComment replaces a comment's text and marks it edited.
func (s *Store) UpdateComment(id string, patch CommentPatch) (Comment, error) {
	c, err := s.StageUpdateComment(id, patch)
	return c.Applied, err
}

// StageUpdateComment is UpdateComment with a revert that restores the old text.
func (s *Store) StageUpdateComment(id string, patch CommentPatch) (Change[Comment], error) {
	content := strings.TrimSpace(patch.Content)
	if content == "" {
		return Change[Comment]{}, invalid("comment content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return Change[Comment]{}, notFound("comment", id)
	}
	prev := *c
	c.Content = content
	c.HTMLContent = patch.HTMLContent
	c.IsEdited = true
	c.UpdatedAt = s.now()

	return Change[Comment]{
		Applied: *c,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if cur, ok := s.comments[id]; ok {
				cur.Content = prev.Content
				cur.HTMLContent = prev.HTMLContent
				cur.IsEdited = prev.IsEdited
				cur.UpdatedAt = prev.UpdatedAt
			}
		},
	}, nil
}

// DeleteComment removes a comment. Deleting a missing comment is a no-op.
func (s *Store) DeleteComment(id string) {
	s.StageDeleteComment(id)
}

// StageDeleteComment is DeleteComment with a revert that puts the comment back in place.
func (s *Store) StageDeleteComment(id string) Change[Comment] {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, index, ok := s.removeComment(id)
	if !ok {
		return Change[Comment]{}
	}
	return Change[Comment]{
		Applied: c,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			t, ok := s.tasks[c.TaskID]
			if !ok {
				return
			}
			if _, taken := s.comments[c.ID]; taken {
				return
			}
			restored := c
			s.comments[c.ID] = &restored
			t.CommentIDs = insertAt(t.CommentIDs, index, c.ID)
		},
	}
}

func (s *Store) removeComment(id string) (Comment, int, bool) {
	c, ok := s.comments[id]
	if !ok {
		return Comment{}, -1, false
	}
	index := -1
	if t, ok := s.tasks[c.TaskID]; ok {
		if index = indexOf(t.CommentIDs, id); index >= 0 {
			t.CommentIDs = removeAt(t.CommentIDs, index)
		}
	}
	delete(s.comments, id)
	return *c, index, true
}

// ReconcileComment copies the server's view of a comment into the local copy.
func (s *Store) ReconcileComment(remote Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[remote.ID]
	if !ok {
		return false
	}
	c.Content = remote.Content
	c.HTMLContent = remote.HTMLContent
	c.IsEdited = remote.IsEdited
	c.UpdatedAt = remote.UpdatedAt
	if !remote.CreatedAt.IsZero() {
		c.CreatedAt = remote.CreatedAt
	}
	return true
}

// TimeEntriesByTask returns a task's time entries, newest first.
func (s *Store) TimeEntriesByTask(taskID string) []TimeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	out := make([]TimeEntry, 0, len(t.TimeEntryIDs))
	for _, id := range t.TimeEntryIDs {
		out = append(out, *s.timeEntries[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// TimeEntry returns a copy of the time entry with id.
func (s *Store) TimeEntry(id string) (TimeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.timeEntries[id]
	if !ok {
		return TimeEntry{}, false
	}
	return *e, true
}

// AddTimeEntry records hours against a task and updates its logged hours.
func (s *Store) AddTimeEntry(taskID string, in TimeEntryInput) (TimeEntry, error) {
	c, err := s.StageAddTimeEntry(taskID, in)
	return c.Applied, err
}

// StageAddTimeEntry is AddTimeEntry with a revert that removes the entry again.
func (s *Store) StageAddTimeEntry(taskID string, in TimeEntryInput) (Change[TimeEntry], error) {
	if in.Hours <= 0 {
		return Change[TimeEntry]{}, invalid("hours must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return Change[TimeEntry]{}, notFound("task", taskID)
	}
	id := s.id(in.ID)
	if _, exists := s.timeEntries[id]; exists {
		return Change[TimeEntry]{}, notUnique("time entry", id)
	}
	now := s.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	e := &TimeEntry{
		ID:          id,
		TaskID:      taskID,
		Hours:       in.Hours,
		Description: in.Description,
		Date:        date,
		UserID:      in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.timeEntries[id] = e
	t.TimeEntryIDs = append(t.TimeEntryIDs, id)
	s.recomputeLoggedHours(t)

	return Change[TimeEntry]{
		Applied: *e,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.removeTimeEntry(id)
		},
	}, nil
}

// UpdateTimeEntry edits a time entry and updates the task's logged hours.
func (s *Store) UpdateTimeEntry(id string, patch TimeEntryPatch) (TimeEntry, error) {
	c, err := s.StageUpdateTimeEntry(id, patch)
	return c.Applied, err
}

// StageUpdateTimeEntry is UpdateTimeEntry with a revert that restores the old values.
func (s *Store) StageUpdateTimeEntry(id string, patch TimeEntryPatch) (Change[TimeEntry], error) {
	if patch.Hours != nil && *patch.Hours <= 0 {
		return Change[TimeEntry]{}, invalid("hours must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.timeEntries[id]
	if !ok {
		return Change[TimeEntry]{}, notFound("time entry", id)
	}
	prev := *e
	if patch.Hours != nil {
		e.Hours = *patch.Hours
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	e.UpdatedAt = s.now()
	if t, ok := s.tasks[e.TaskID]; ok {
		s.recomputeLoggedHours(t)
	}

	return Change[TimeEntry]{
		Applied: *e,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			cur, ok := s.timeEntries[id]
			if !ok {
				return
			}
			cur.Hours = prev.Hours
			cur.Description = prev.Description
			cur.Date = prev.Date
			cur.UpdatedAt = prev.UpdatedAt
			if t, ok := s.tasks[cur.TaskID]; ok {
				s.recomputeLoggedHours(t)
			}
		},
	}, nil
}

// DeleteTimeEntry removes a time entry. Deleting a missing entry is a no-op.
func (s *Store) DeleteTimeEntry(id string) {
	s.StageDeleteTimeEntry(id)
}

// StageDeleteTimeEntry is DeleteTimeEntry with a revert that restores the entry.
func (s *Store) StageDeleteTimeEntry(id string) Change[TimeEntry] {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, index, ok := s.removeTimeEntry(id)
	if !ok {
		return Change[TimeEntry]{}
	}
	return Change[TimeEntry]{
		Applied: e,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			t, ok := s.tasks[e.TaskID]
			if !ok {
				return
			}
			if _, taken := s.timeEntries[e.ID]; taken {
				return
			}
			restored := e
			s.timeEntries[e.ID] = &restored
			t.TimeEntryIDs = insertAt(t.TimeEntryIDs, index, e.ID)
			s.recomputeLoggedHours(t)
		},
	}
}

func (s *Store) removeTimeEntry(id string) (TimeEntry, int, bool) {
	e, ok := s.timeEntries[id]
	if !ok {
		return TimeEntry{}, -1, false
	}
	index := -1
	delete(s.timeEntries, id)
	if t, ok := s.tasks[e.TaskID]; ok {
		if index = indexOf(t.TimeEntryIDs, id); index >= 0 {
			t.TimeEntryIDs = removeAt(t.TimeEntryIDs, index)
		}
		s.recomputeLoggedHours(t)
	}
	return *e, index, true
}

// ReconcileTimeEntry copies the server's view of a time entry into the local
// copy and recomputes the owning task's logged hours.
func (s *Store) ReconcileTimeEntry(remote TimeEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timeEntries[remote.ID]
	if !ok {
		return false
	}
	if remote.Hours > 0 {
		e.Hours = remote.Hours
	}
	e.Description = remote.Description
	if !remote.Date.IsZero() {
		e.Date = remote.Date
	}
	e.UpdatedAt = remote.UpdatedAt
	if !remote.CreatedAt.IsZero() {
		e.CreatedAt = remote.CreatedAt
	}
	if t, ok := s.tasks[e.TaskID]; ok {
		s.recomputeLoggedHours(t)
	}
	return true
}
