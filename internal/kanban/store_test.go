package kanban

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite defines the test suite for Store
type StoreTestSuite struct {
	suite.Suite
	store *Store
	clock time.Time
	seq   int
}

// SetupTest builds a board with todo, in-progress (limit 3) and done columns
func (suite *StoreTestSuite) SetupTest() {
	suite.clock = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	suite.seq = 0
	suite.store = NewStore(
		WithClock(func() time.Time {
			suite.clock = suite.clock.Add(time.Minute)
			return suite.clock
		}),
		WithIDGenerator(func() string {
			suite.seq++
			return fmt.Sprintf("id-%d", suite.seq)
		}),
	)

	limit := 3
	_, err := suite.store.AddColumn(ColumnInput{ID: "todo", Title: "To Do"})
	suite.Require().NoError(err)
	_, err = suite.store.AddColumn(ColumnInput{ID: "in-progress", Title: "In Progress", MaxTasks: &limit})
	suite.Require().NoError(err)
	_, err = suite.store.AddColumn(ColumnInput{ID: "done", Title: "Done"})
	suite.Require().NoError(err)
}

func (suite *StoreTestSuite) createTask(columnID, title string) Task {
	t, err := suite.store.CreateTask(columnID, TaskInput{Title: title})
	suite.Require().NoError(err)
	return t
}

func (suite *StoreTestSuite) ids(columnID string) []string {
	var out []string
	for _, t := range suite.store.TasksByColumn(columnID) {
		out = append(out, t.ID)
	}
	return out
}

func (suite *StoreTestSuite) totalTasks() int {
	n := 0
	for _, c := range suite.store.Columns() {
		n += len(c.TaskIDs)
	}
	return n
}

func (suite *StoreTestSuite) assertConsistent() {
	suite.Require().NoError(suite.store.CheckInvariants())
	for _, col := range suite.store.Columns() {
		tasks := suite.store.TasksByColumn(col.ID)
		suite.Require().Len(tasks, len(col.TaskIDs))
		for i, t := range tasks {
			assert.Equal(suite.T(), col.TaskIDs[i], t.ID)
			assert.Equal(suite.T(), col.ID, t.ColumnID)
			assert.Equal(suite.T(), i, t.Position)
		}
	}
}

// TestCreateTask_AppendsToColumn tests that new tasks go to the end of the column
func (suite *StoreTestSuite) TestCreateTask_AppendsToColumn() {
	a := suite.createTask("todo", "A")
	b := suite.createTask("todo", "B")

	assert.Equal(suite.T(), []string{a.ID, b.ID}, suite.ids("todo"))
	assert.Equal(suite.T(), PriorityMedium, a.Priority)
	assert.Equal(suite.T(), 1, b.Position)
	suite.assertConsistent()
}

// TestCreateTask_Validation tests rejected inputs
func (suite *StoreTestSuite) TestCreateTask_Validation() {
	_, err := suite.store.CreateTask("todo", TaskInput{Title: "  "})
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)

	_, err = suite.store.CreateTask("todo", TaskInput{Title: "x", Priority: "critical"})
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)

	_, err = suite.store.CreateTask("todo", TaskInput{Title: "x", EstimatedHours: -1})
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)

	_, err = suite.store.CreateTask("missing", TaskInput{Title: "x"})
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	assert.Equal(suite.T(), 0, suite.totalTasks())
}

// TestCreateTask_NormalizesTags tests that tags behave as a set
func (suite *StoreTestSuite) TestCreateTask_NormalizesTags() {
	t, err := suite.store.CreateTask("todo", TaskInput{Title: "x", Tags: []string{"ui", " api ", "ui", ""}})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{"api", "ui"}, t.Tags)
}

// TestCreateTask_IntoFullColumn tests the WIP limit on creation
func (suite *StoreTestSuite) TestCreateTask_IntoFullColumn() {
	for i := 0; i < 3; i++ {
		suite.createTask("in-progress", fmt.Sprintf("T%d", i))
	}

	_, err := suite.store.CreateTask("in-progress", TaskInput{Title: "overflow"})
	suite.Require().Error(err)
	assert.ErrorIs(suite.T(), err, ErrCapacityExceeded)

	var capErr *CapacityError
	suite.Require().True(errors.As(err, &capErr))
	assert.Equal(suite.T(), 3, capErr.MaxTasks)
	assert.Contains(suite.T(), capErr.Error(), "In Progress")

	assert.Len(suite.T(), suite.store.TasksByColumn("in-progress"), 3)
	suite.assertConsistent()
}

// TestUpdateTask_MergesPatch tests partial updates
func (suite *StoreTestSuite) TestUpdateTask_MergesPatch() {
	task := suite.createTask("todo", "Old")
	title := "New"
	high := PriorityHigh
	assignee := uint64(4)

	updated, err := suite.store.UpdateTask(task.ID, TaskPatch{Title: &title, Priority: &high, AssigneeID: &assignee})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "New", updated.Title)
	assert.Equal(suite.T(), PriorityHigh, updated.Priority)
	assert.Equal(suite.T(), uint64(4), *updated.AssigneeID)
	assert.True(suite.T(), updated.UpdatedAt.After(task.UpdatedAt))

	updated, err = suite.store.UpdateTask(task.ID, TaskPatch{ClearAssignee: true, Tags: []string{}})
	suite.Require().NoError(err)
	assert.Nil(suite.T(), updated.AssigneeID)
	assert.Empty(suite.T(), updated.Tags)
	assert.Equal(suite.T(), "New", updated.Title)
}

// TestUpdateTask_RejectsColumnChange tests that only a move may change the column
func (suite *StoreTestSuite) TestUpdateTask_RejectsColumnChange() {
	task := suite.createTask("todo", "A")
	done := "done"
	todo := "todo"

	_, err := suite.store.UpdateTask(task.ID, TaskPatch{ColumnID: &done})
	assert.ErrorIs(suite.T(), err, ErrColumnChange)
	assert.Equal(suite.T(), []string{task.ID}, suite.ids("todo"))

	_, err = suite.store.UpdateTask(task.ID, TaskPatch{ColumnID: &todo})
	assert.NoError(suite.T(), err)

	_, err = suite.store.UpdateTask("missing", TaskPatch{})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

// TestDeleteTask_CascadesAndIsIdempotent tests task deletion
func (suite *StoreTestSuite) TestDeleteTask_CascadesAndIsIdempotent() {
	task := suite.createTask("todo", "A")
	other := suite.createTask("todo", "B")
	_, err := suite.store.AddComment(task.ID, CommentInput{Content: "hi", UserID: 1})
	suite.Require().NoError(err)
	_, err = suite.store.AddTimeEntry(task.ID, TimeEntryInput{Hours: 2, UserID: 1})
	suite.Require().NoError(err)

	suite.store.DeleteTask(task.ID)
	suite.store.DeleteTask(task.ID)

	_, ok := suite.store.Task(task.ID)
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), []string{other.ID}, suite.ids("todo"))
	snap := suite.store.Snapshot()
	assert.Empty(suite.T(), snap.Comments)
	assert.Empty(suite.T(), snap.TimeEntries)
	suite.assertConsistent()
}

// TestMoveTask_ToOtherColumnTop tests a cross-column move to the top
func (suite *StoreTestSuite) TestMoveTask_ToOtherColumnTop() {
	task := suite.createTask("todo", "T")
	existing := suite.createTask("done", "D")
	before := suite.totalTasks()

	m, err := suite.store.MoveTask(task.ID, "done", 0)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "todo", m.FromColumnID)
	assert.Equal(suite.T(), 0, m.ToPosition)

	assert.NotContains(suite.T(), suite.ids("todo"), task.ID)
	assert.Equal(suite.T(), []string{task.ID, existing.ID}, suite.ids("done"))
	moved, _ := suite.store.Task(task.ID)
	assert.Equal(suite.T(), "done", moved.ColumnID)
	assert.Equal(suite.T(), before, suite.totalTasks())
	suite.assertConsistent()
}

// TestMoveTask_ClampsPosition tests out-of-range positions
func (suite *StoreTestSuite) TestMoveTask_ClampsPosition() {
	a := suite.createTask("todo", "A")
	b := suite.createTask("done", "B")

	m, err := suite.store.MoveTask(a.ID, "done", 99)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), 1, m.ToPosition)
	assert.Equal(suite.T(), []string{b.ID, a.ID}, suite.ids("done"))

	_, err = suite.store.MoveTask(a.ID, "done", -5)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{a.ID, b.ID}, suite.ids("done"))
	suite.assertConsistent()
}

// TestMoveTask_WithinColumn tests reordering inside one column
func (suite *StoreTestSuite) TestMoveTask_WithinColumn() {
	a := suite.createTask("in-progress", "A")
	b := suite.createTask("in-progress", "B")
	c := suite.createTask("in-progress", "C")

	// The column is full, but a reorder never changes its size.
	_, err := suite.store.MoveTask(c.ID, "in-progress", 0)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{c.ID, a.ID, b.ID}, suite.ids("in-progress"))

	_, err = suite.store.MoveTask(c.ID, "in-progress", 2)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{a.ID, b.ID, c.ID}, suite.ids("in-progress"))
	suite.assertConsistent()
}

// TestMoveTask_IntoFullColumnIsAtomic tests that a rejected move changes nothing
func (suite *StoreTestSuite) TestMoveTask_IntoFullColumnIsAtomic() {
	for i := 0; i < 3; i++ {
		suite.createTask("in-progress", fmt.Sprintf("P%d", i))
	}
	task := suite.createTask("todo", "T")
	todoBefore := suite.ids("todo")
	progressBefore := suite.ids("in-progress")

	_, err := suite.store.MoveTask(task.ID, "in-progress", 1)
	assert.ErrorIs(suite.T(), err, ErrCapacityExceeded)
	assert.Equal(suite.T(), todoBefore, suite.ids("todo"))
	assert.Equal(suite.T(), progressBefore, suite.ids("in-progress"))
	suite.assertConsistent()

	_, err = suite.store.MoveTask("missing", "done", 0)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	_, err = suite.store.MoveTask(task.ID, "missing", 0)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

// TestMoveTask_ConservesTaskCount tests many moves in sequence
func (suite *StoreTestSuite) TestMoveTask_ConservesTaskCount() {
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, suite.createTask("todo", fmt.Sprintf("T%d", i)).ID)
	}
	total := suite.totalTasks()
	columns := []string{"todo", "in-progress", "done"}

	for i := 0; i < 30; i++ {
		_, err := suite.store.MoveTask(ids[i%len(ids)], columns[(i*7)%3], (i*5)%4)
		if err != nil {
			assert.ErrorIs(suite.T(), err, ErrCapacityExceeded)
		}
		assert.Equal(suite.T(), total, suite.totalTasks())
		suite.assertConsistent()
	}
}

// TestStageMoveTask_RevertRestoresOriginalPlace tests rollback of a move
func (suite *StoreTestSuite) TestStageMoveTask_RevertRestoresOriginalPlace() {
	a := suite.createTask("todo", "A")
	t := suite.createTask("todo", "T")
	c := suite.createTask("todo", "C")

	change, err := suite.store.StageMoveTask(t.ID, "done", 0)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), []string{t.ID}, suite.ids("done"))

	change.Revert()
	assert.Equal(suite.T(), []string{a.ID, t.ID, c.ID}, suite.ids("todo"))
	assert.Empty(suite.T(), suite.ids("done"))
	suite.assertConsistent()
}

// TestStageMoveTask_RevertIgnoresCapacity tests rollback into a column that has since filled up
func (suite *StoreTestSuite) TestStageMoveTask_RevertIgnoresCapacity() {
	t := suite.createTask("in-progress", "T")
	change, err := suite.store.StageMoveTask(t.ID, "done", 0)
	suite.Require().NoError(err)
	for i := 0; i < 3; i++ {
		suite.createTask("in-progress", fmt.Sprintf("P%d", i))
	}

	change.Revert()
	assert.Equal(suite.T(), t.ID, suite.ids("in-progress")[0])
	assert.Len(suite.T(), suite.ids("in-progress"), 4)
	suite.assertConsistent()
}

// TestStageUpdateTask_RevertKeepsUnrelatedEdits tests entity-level rollback
func (suite *StoreTestSuite) TestStageUpdateTask_RevertKeepsUnrelatedEdits() {
	t := suite.createTask("todo", "Original")
	other := suite.createTask("todo", "Other")
	title := "Changed"

	change, err := suite.store.StageUpdateTask(t.ID, TaskPatch{Title: &title})
	suite.Require().NoError(err)
	otherTitle := "Other edited"
	_, err = suite.store.UpdateTask(other.ID, TaskPatch{Title: &otherTitle})
	suite.Require().NoError(err)
	_, err = suite.store.MoveTask(t.ID, "done", 0)
	suite.Require().NoError(err)

	change.Revert()
	restored, _ := suite.store.Task(t.ID)
	assert.Equal(suite.T(), "Original", restored.Title)
	assert.Equal(suite.T(), "done", restored.ColumnID)
	edited, _ := suite.store.Task(other.ID)
	assert.Equal(suite.T(), "Other edited", edited.Title)
}

// TestStageCreateTask_Revert tests rollback of a creation
func (suite *StoreTestSuite) TestStageCreateTask_Revert() {
	change, err := suite.store.StageCreateTask("todo", TaskInput{Title: "temp"})
	suite.Require().NoError(err)
	_, err = suite.store.AddTimeEntry(change.Applied.ID, TimeEntryInput{Hours: 1})
	suite.Require().NoError(err)

	change.Revert()
	_, ok := suite.store.Task(change.Applied.ID)
	assert.False(suite.T(), ok)
	assert.Empty(suite.T(), suite.store.Snapshot().TimeEntries)
	suite.assertConsistent()
}

// TestStageDeleteTask_RevertRestoresChildren tests rollback of a deletion
func (suite *StoreTestSuite) TestStageDeleteTask_RevertRestoresChildren() {
	a := suite.createTask("todo", "A")
	t := suite.createTask("todo", "T")
	c := suite.createTask("todo", "C")
	_, err := suite.store.AddComment(t.ID, CommentInput{Content: "first"})
	suite.Require().NoError(err)
	_, err = suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 1.5})
	suite.Require().NoError(err)

	change := suite.store.StageDeleteTask(t.ID)
	suite.Require().False(change.Noop())
	assert.Equal(suite.T(), []string{a.ID, c.ID}, suite.ids("todo"))

	change.Revert()
	assert.Equal(suite.T(), []string{a.ID, t.ID, c.ID}, suite.ids("todo"))
	restored, _ := suite.store.Task(t.ID)
	assert.InDelta(suite.T(), 1.5, restored.LoggedHours, 1e-9)
	assert.Len(suite.T(), suite.store.CommentsByTask(t.ID), 1)
	suite.assertConsistent()

	assert.True(suite.T(), suite.store.StageDeleteTask("missing").Noop())
}

// TestLoggedHours_AlwaysRecomputed tests the logged-hours derivation
func (suite *StoreTestSuite) TestLoggedHours_AlwaysRecomputed() {
	t := suite.createTask("todo", "T")
	e1, err := suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 1.25})
	suite.Require().NoError(err)
	e2, err := suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 2})
	suite.Require().NoError(err)
	_, err = suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 0.5})
	suite.Require().NoError(err)

	got, _ := suite.store.Task(t.ID)
	assert.InDelta(suite.T(), 3.75, got.LoggedHours, 1e-9)

	hours := 4.0
	_, err = suite.store.UpdateTimeEntry(e2.ID, TimeEntryPatch{Hours: &hours})
	suite.Require().NoError(err)
	got, _ = suite.store.Task(t.ID)
	assert.InDelta(suite.T(), 5.75, got.LoggedHours, 1e-9)

	suite.store.DeleteTimeEntry(e1.ID)
	suite.store.DeleteTimeEntry(e1.ID)
	got, _ = suite.store.Task(t.ID)
	assert.InDelta(suite.T(), 4.5, got.LoggedHours, 1e-9)
	suite.assertConsistent()

	_, err = suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 0})
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
	zero := 0.0
	_, err = suite.store.UpdateTimeEntry(e2.ID, TimeEntryPatch{Hours: &zero})
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
}

// TestTimeEntries_NewestFirst tests time entry ordering
func (suite *StoreTestSuite) TestTimeEntries_NewestFirst() {
	t := suite.createTask("todo", "T")
	first, _ := suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 1})
	second, _ := suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 2})

	entries := suite.store.TimeEntriesByTask(t.ID)
	suite.Require().Len(entries, 2)
	assert.Equal(suite.T(), second.ID, entries[0].ID)
	assert.Equal(suite.T(), first.ID, entries[1].ID)
}

// TestStageTimeEntry_Revert tests rollback of time entry changes
func (suite *StoreTestSuite) TestStageTimeEntry_Revert() {
	t := suite.createTask("todo", "T")
	kept, err := suite.store.AddTimeEntry(t.ID, TimeEntryInput{Hours: 1})
	suite.Require().NoError(err)

	add, err := suite.store.StageAddTimeEntry(t.ID, TimeEntryInput{Hours: 3})
	suite.Require().NoError(err)
	add.Revert()

	hours := 2.0
	upd, err := suite.store.StageUpdateTimeEntry(kept.ID, TimeEntryPatch{Hours: &hours})
	suite.Require().NoError(err)
	upd.Revert()

	del := suite.store.StageDeleteTimeEntry(kept.ID)
	del.Revert()

	got, _ := suite.store.Task(t.ID)
	assert.InDelta(suite.T(), 1.0, got.LoggedHours, 1e-9)
	assert.Len(suite.T(), suite.store.TimeEntriesByTask(t.ID), 1)
	suite.assertConsistent()
}

// TestComments_CRUD tests comment operations
func (suite *StoreTestSuite) TestComments_CRUD() {
	t := suite.createTask("todo", "T")
	c1, err := suite.store.AddComment(t.ID, CommentInput{Content: "one", UserID: 1})
	suite.Require().NoError(err)
	c2, err := suite.store.AddComment(t.ID, CommentInput{Content: "two", UserID: 2})
	suite.Require().NoError(err)
	assert.False(suite.T(), c1.IsEdited)

	updated, err := suite.store.UpdateComment(c1.ID, CommentPatch{Content: "one!"})
	suite.Require().NoError(err)
	assert.True(suite.T(), updated.IsEdited)

	comments := suite.store.CommentsByTask(t.ID)
	suite.Require().Len(comments, 2)
	assert.Equal(suite.T(), c1.ID, comments[0].ID)
	assert.Equal(suite.T(), "one!", comments[0].Content)

	del := suite.store.StageDeleteComment(c1.ID)
	assert.Equal(suite.T(), []string{c2.ID}, commentIDs(suite.store.CommentsByTask(t.ID)))
	del.Revert()
	assert.Equal(suite.T(), []string{c1.ID, c2.ID}, commentIDs(suite.store.CommentsByTask(t.ID)))

	upd, err := suite.store.StageUpdateComment(c2.ID, CommentPatch{Content: "changed"})
	suite.Require().NoError(err)
	upd.Revert()
	comments = suite.store.CommentsByTask(t.ID)
	assert.Equal(suite.T(), "two", comments[1].Content)
	assert.False(suite.T(), comments[1].IsEdited)

	_, err = suite.store.AddComment(t.ID, CommentInput{Content: " "})
	assert.ErrorIs(suite.T(), err, ErrInvalidInput)
	_, err = suite.store.AddComment("missing", CommentInput{Content: "x"})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	suite.store.DeleteComment("missing")
	suite.assertConsistent()
}

func commentIDs(cs []Comment) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

// TestColumns_Lifecycle tests column add, update, reorder and delete
func (suite *StoreTestSuite) TestColumns_Lifecycle() {
	t := suite.createTask("done", "T")

	title := "Finished"
	limit := 1
	col, err := suite.store.UpdateColumn("done", ColumnPatch{Title: &title, MaxTasks: &limit})
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "Finished", col.Title)
	_, err = suite.store.CreateTask("done", TaskInput{Title: "blocked"})
	assert.ErrorIs(suite.T(), err, ErrCapacityExceeded)

	suite.Require().NoError(suite.store.ReorderColumns([]string{"done", "todo", "in-progress"}))
	cols := suite.store.Columns()
	assert.Equal(suite.T(), "done", cols[0].ID)
	assert.Equal(suite.T(), 0, cols[0].Position)

	assert.ErrorIs(suite.T(), suite.store.ReorderColumns([]string{"done", "todo"}), ErrInvalidInput)
	assert.ErrorIs(suite.T(), suite.store.ReorderColumns([]string{"done", "todo", "todo"}), ErrInvalidInput)

	change := suite.store.StageDeleteColumn("done")
	_, ok := suite.store.Task(t.ID)
	assert.False(suite.T(), ok)
	suite.assertConsistent()

	change.Revert()
	cols = suite.store.Columns()
	assert.Equal(suite.T(), "done", cols[0].ID)
	assert.Equal(suite.T(), []string{t.ID}, suite.ids("done"))
	suite.assertConsistent()
}

// TestQuery_HasEstimate tests filtering on estimated hours
func (suite *StoreTestSuite) TestQuery_HasEstimate() {
	estimated, _ := suite.store.CreateTask("todo", TaskInput{Title: "estimated", EstimatedHours: 3})
	bare, _ := suite.store.CreateTask("todo", TaskInput{Title: "bare"})
	done, _ := suite.store.CreateTask("done", TaskInput{Title: "done", EstimatedHours: 0.5})

	yes, no := true, false
	assert.Equal(suite.T(), []string{estimated.ID, done.ID}, taskIDs(suite.store.Query(TaskFilter{HasEstimate: &yes}, TaskSort{})))
	assert.Equal(suite.T(), []string{bare.ID}, taskIDs(suite.store.Query(TaskFilter{HasEstimate: &no}, TaskSort{})))
	assert.Len(suite.T(), suite.store.Query(TaskFilter{}, TaskSort{}), 3)
	assert.Equal(suite.T(), []string{estimated.ID}, taskIDs(suite.store.Query(TaskFilter{HasEstimate: &yes, ColumnID: "todo"}, TaskSort{})))
}

// TestQuery_FiltersAndSorts tests the query view
func (suite *StoreTestSuite) TestQuery_FiltersAndSorts() {
	due := suite.clock.Add(-time.Hour)
	later := suite.clock.Add(48 * time.Hour)
	assignee := uint64(9)

	low, _ := suite.store.CreateTask("todo", TaskInput{Title: "low", Priority: PriorityLow, Tags: []string{"api"}})
	urgent, _ := suite.store.CreateTask("todo", TaskInput{Title: "urgent", Priority: PriorityUrgent, DueDate: &later, AssigneeID: &assignee})
	overdue, _ := suite.store.CreateTask("done", TaskInput{Title: "overdue fix", Priority: PriorityHigh, DueDate: &due, Tags: []string{"api", "bug"}})

	byPriority := suite.store.Query(TaskFilter{}, TaskSort{Field: SortPriority, Desc: true})
	assert.Equal(suite.T(), []string{urgent.ID, overdue.ID, low.ID}, taskIDs(byPriority))

	byDue := suite.store.Query(TaskFilter{}, TaskSort{Field: SortDueDate})
	assert.Equal(suite.T(), []string{overdue.ID, urgent.ID, low.ID}, taskIDs(byDue))

	assert.Equal(suite.T(), []string{low.ID, overdue.ID}, taskIDs(suite.store.Query(TaskFilter{Tags: []string{"api"}}, TaskSort{})))
	assert.Equal(suite.T(), []string{overdue.ID}, taskIDs(suite.store.Query(TaskFilter{OverdueOnly: true}, TaskSort{})))
	assert.Equal(suite.T(), []string{urgent.ID}, taskIDs(suite.store.Query(TaskFilter{AssigneeIDs: []uint64{9}}, TaskSort{})))
	assert.Equal(suite.T(), []string{overdue.ID}, taskIDs(suite.store.Query(TaskFilter{Search: "FIX"}, TaskSort{})))
	assert.Equal(suite.T(), []string{low.ID, urgent.ID}, taskIDs(suite.store.Query(TaskFilter{ColumnID: "todo"}, TaskSort{})))

	stats := suite.store.Stats()
	assert.Equal(suite.T(), 3, stats.TotalTasks)
	assert.Equal(suite.T(), 1, stats.OverdueTasks)
	assert.Equal(suite.T(), 1, stats.ByPriority[PriorityUrgent])
	assert.Equal(suite.T(), 2, stats.Columns[0].Tasks)
}

func taskIDs(ts []Task) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

// TestHydrate_RebuildsMembership tests loading a snapshot
func (suite *StoreTestSuite) TestHydrate_RebuildsMembership() {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Hydrate(Snapshot{
		Columns: []Column{
			{ID: "b", Title: "B", Position: 1},
			{ID: "a", Title: "A", Position: 0},
		},
		Tasks: []Task{
			{ID: "t2", ColumnID: "a", Position: 1, Title: "two"},
			{ID: "t1", ColumnID: "a", Position: 0, Title: "one"},
			{ID: "orphan", ColumnID: "gone", Title: "orphan"},
		},
		Comments: []Comment{{ID: "c1", TaskID: "t1", Content: "x", CreatedAt: now}},
		TimeEntries: []TimeEntry{
			{ID: "e1", TaskID: "t1", Hours: 2, CreatedAt: now},
			{ID: "e2", TaskID: "t1", Hours: 1, CreatedAt: now.Add(time.Hour)},
		},
	})

	suite.Require().NoError(store.CheckInvariants())
	cols := store.Columns()
	assert.Equal(suite.T(), "a", cols[0].ID)
	assert.Equal(suite.T(), []string{"t1", "t2"}, cols[0].TaskIDs)
	_, ok := store.Task("orphan")
	assert.False(suite.T(), ok)
	t1, _ := store.Task("t1")
	assert.InDelta(suite.T(), 3.0, t1.LoggedHours, 1e-9)

	snap := store.Snapshot()
	again := NewStore()
	again.Hydrate(snap)
	assert.Equal(suite.T(), snap, again.Snapshot())
}

// TestReconcile_KeepsLocalMembership tests applying server echoes
func (suite *StoreTestSuite) TestReconcile_KeepsLocalMembership() {
	t := suite.createTask("todo", "T")
	_, err := suite.store.AddTimeEntry(t.ID, TimeEntryInput{ID: "e1", Hours: 1})
	suite.Require().NoError(err)

	remote := t
	remote.Title = "Server title"
	remote.ColumnID = "done"
	remote.LoggedHours = 42
	assert.True(suite.T(), suite.store.ReconcileTask(remote))

	got, _ := suite.store.Task(t.ID)
	assert.Equal(suite.T(), "Server title", got.Title)
	assert.Equal(suite.T(), "todo", got.ColumnID)
	assert.InDelta(suite.T(), 1.0, got.LoggedHours, 1e-9)

	assert.True(suite.T(), suite.store.ReconcileTimeEntry(TimeEntry{ID: "e1", Hours: 2.5}))
	got, _ = suite.store.Task(t.ID)
	assert.InDelta(suite.T(), 2.5, got.LoggedHours, 1e-9)

	assert.False(suite.T(), suite.store.ReconcileTask(Task{ID: "missing"}))
	suite.assertConsistent()
}

// TestStoreTestSuite runs the test suite
func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	_, err := s.AddColumn(ColumnInput{ID: "c", Title: "C"})
	require.NoError(t, err)
	task, err := s.CreateTask("c", TaskInput{Title: "T", Tags: []string{"a"}})
	require.NoError(t, err)

	task.Tags[0] = "mutated"
	cols := s.Columns()
	cols[0].TaskIDs[0] = "mutated"

	got, _ := s.Task(task.ID)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.NoError(t, s.CheckInvariants())
}
