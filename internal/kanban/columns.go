package kanban

import "strings"

// columnRecord is everything needed to put a removed column back.
type columnRecord struct {
	column Column
	index  int
	tasks  []taskRecord
}

// Columns returns the columns in display order.
func (s *Store) Columns() []Column {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Column, 0, len(s.columnOrder))
	for _, id := range s.columnOrder {
		out = append(out, s.columns[id].clone())
	}
	return out
}

// Column returns a copy of the column with id.
func (s *Store) Column(id string) (Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.columns[id]
	if !ok {
		return Column{}, false
	}
	return c.clone(), true
}

// AddColumn appends a column to the board.
func (s *Store) AddColumn(in ColumnInput) (Column, error) {
	c, err := s.StageAddColumn(in)
	return c.Applied, err
}

// StageAddColumn is AddColumn with a revert that removes the column.
func (s *Store) StageAddColumn(in ColumnInput) (Change[Column], error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Change[Column]{}, invalid("column title is required")
	}
	if in.MaxTasks != nil && *in.MaxTasks < 1 {
		return Change[Column]{}, invalid("max tasks must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id(in.ID)
	if _, exists := s.columns[id]; exists {
		return Change[Column]{}, notUnique("column", id)
	}
	now := s.now()
	c := &Column{
		ID:        id,
		Title:     title,
		Color:     in.Color,
		Position:  len(s.columnOrder),
		MaxTasks:  cloneIntPtr(in.MaxTasks),
		TaskIDs:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.columns[id] = c
	s.columnOrder = append(s.columnOrder, id)

	return Change[Column]{
		Applied: c.clone(),
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.removeColumn(id)
		},
	}, nil
}

// UpdateColumn edits a column's title, color or task limit. Lowering the limit
// below the current task count is allowed; it only blocks further additions.
func (s *Store) UpdateColumn(id string, patch ColumnPatch) (Column, error) {
	c, err := s.StageUpdateColumn(id, patch)
	return c.Applied, err
}

// StageUpdateColumn is UpdateColumn with a revert that restores the old values.
func (s *Store) StageUpdateColumn(id string, patch ColumnPatch) (Change[Column], error) {
	if patch.MaxTasks != nil && *patch.MaxTasks < 1 {
		return Change[Column]{}, invalid("max tasks must be at least 1")
	}
	var title string
	if patch.Title != nil {
		if title = strings.TrimSpace(*patch.Title); title == "" {
			return Change[Column]{}, invalid("column title is required")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.columns[id]
	if !ok {
		return Change[Column]{}, notFound("column", id)
	}
	prev := c.clone()
	if patch.Title != nil {
		c.Title = title
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if patch.ClearMaxTasks {
		c.MaxTasks = nil
	} else if patch.MaxTasks != nil {
		c.MaxTasks = cloneIntPtr(patch.MaxTasks)
	}
	c.UpdatedAt = s.now()

	return Change[Column]{
		Applied: c.clone(),
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if cur, ok := s.columns[id]; ok {
				cur.Title = prev.Title
				cur.Color = prev.Color
				cur.MaxTasks = prev.MaxTasks
				cur.UpdatedAt = prev.UpdatedAt
			}
		},
	}, nil
}

// DeleteColumn removes a column and every task in it. Deleting a missing
// column is a no-op.
func (s *Store) DeleteColumn(id string) {
	s.StageDeleteColumn(id)
}

// StageDeleteColumn is DeleteColumn with a revert that restores the column and its tasks.
func (s *Store) StageDeleteColumn(id string) Change[Column] {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.removeColumn(id)
	if !ok {
		return Change[Column]{}
	}
	return Change[Column]{
		Applied: rec.column,
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, taken := s.columns[id]; taken {
				return
			}
			c := rec.column.clone()
			c.TaskIDs = []string{}
			s.columns[id] = &c
			s.columnOrder = insertAt(s.columnOrder, rec.index, id)
			s.renumberColumns()
			for _, tr := range rec.tasks {
				s.restoreTask(tr)
			}
		},
	}
}

func (s *Store) removeColumn(id string) (columnRecord, bool) {
	c, ok := s.columns[id]
	if !ok {
		return columnRecord{}, false
	}
	rec := columnRecord{column: c.clone(), index: indexOf(s.columnOrder, id)}
	for _, taskID := range append([]string(nil), c.TaskIDs...) {
		if tr, ok := s.removeTask(taskID); ok {
			rec.tasks = append(rec.tasks, tr)
		}
	}
	delete(s.columns, id)
	if rec.index >= 0 {
		s.columnOrder = removeAt(s.columnOrder, rec.index)
	}
	s.renumberColumns()
	return rec, true
}

// ReorderColumns sets the column display order. ids must name every column exactly once.
func (s *Store) ReorderColumns(ids []string) error {
	_, err := s.StageReorderColumns(ids)
	return err
}

// StageReorderColumns is ReorderColumns with a revert to the previous order.
func (s *Store) StageReorderColumns(ids []string) (Change[[]string], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ids) != len(s.columns) {
		return Change[[]string]{}, invalid("expected %d column ids, got %d", len(s.columns), len(ids))
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.columns[id]; !ok {
			return Change[[]string]{}, notFound("column", id)
		}
		if _, dup := seen[id]; dup {
			return Change[[]string]{}, invalid("column %s listed twice", id)
		}
		seen[id] = struct{}{}
	}

	prev := append([]string(nil), s.columnOrder...)
	s.columnOrder = append([]string(nil), ids...)
	s.renumberColumns()

	return Change[[]string]{
		Applied: append([]string(nil), ids...),
		revert: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			order := make([]string, 0, len(prev))
			for _, id := range prev {
				if _, ok := s.columns[id]; ok {
					order = append(order, id)
				}
			}
			for _, id := range s.columnOrder {
				if indexOf(order, id) < 0 {
					order = append(order, id)
				}
			}
			s.columnOrder = order
			s.renumberColumns()
		},
	}, nil
}
