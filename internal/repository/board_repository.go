package repository

import (
	"github.com/devbridge/dev-bridge-manager/internal/models"
	"gorm.io/gorm"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

// Load loads the whole board of a project
func (r *GormBoardRepository) Load(projectID uint64) (*Board, error) {
	var board Board

	if err := r.db.Where("project_id = ?", projectID).
		Order("position ASC, created_at ASC").
		Find(&board.Columns).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("project_id = ?", projectID).
		Order("column_id ASC, position ASC, created_at ASC").
		Find(&board.Tasks).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&board.Comments).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&board.TimeEntries).Error; err != nil {
		return nil, err
	}

	return &board, nil
}

// CreateColumn appends a column to the board
func (r *GormBoardRepository) CreateColumn(column *models.BoardColumn) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.BoardColumn{}).
			Where("project_id = ?", column.ProjectID).
			Count(&count).Error; err != nil {
			return err
		}
		column.Position = int(count)
		return tx.Create(column).Error
	})
}

// FindColumn finds a column of a project
func (r *GormBoardRepository) FindColumn(projectID uint64, id string) (*models.BoardColumn, error) {
	var column models.BoardColumn
	if err := r.db.Where("project_id = ? AND id = ?", projectID, id).First(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// UpdateColumn updates a column
func (r *GormBoardRepository) UpdateColumn(column *models.BoardColumn) error {
	return r.db.Save(column).Error
}

// DeleteColumn deletes a column, its tasks and their comments and time entries
func (r *GormBoardRepository) DeleteColumn(projectID uint64, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("project_id = ? AND id = ?", projectID, id).Delete(&models.BoardColumn{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		taskIDs := tx.Model(&models.BoardTask{}).Select("id").Where("column_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TimeEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("column_id = ?", id).Delete(&models.BoardTask{}).Error; err != nil {
			return err
		}

		ids, err := columnIDs(tx, projectID)
		if err != nil {
			return err
		}
		return renumber(tx, &models.BoardColumn{}, ids)
	})
}

// ReorderColumns stores the column order given by ids
func (r *GormBoardRepository) ReorderColumns(projectID uint64, ids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		existing, err := columnIDs(tx, projectID)
		if err != nil {
			return err
		}
		if !samePermutation(existing, ids) {
			return ErrInvalidColumnOrder
		}
		return renumber(tx, &models.BoardColumn{}, ids)
	})
}

// CreateTask appends a task to its column
func (r *GormBoardRepository) CreateTask(task *models.BoardTask) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var column models.BoardColumn
		if err := tx.Where("project_id = ? AND id = ?", task.ProjectID, task.ColumnID).
			First(&column).Error; err != nil {
			return err
		}

		ids, err := columnTaskIDs(tx, column.ID)
		if err != nil {
			return err
		}
		if column.MaxTasks != nil && len(ids) >= *column.MaxTasks {
			return ErrColumnFull
		}

		task.Position = len(ids)
		return tx.Create(task).Error
	})
}

// FindTask finds a task of a project
func (r *GormBoardRepository) FindTask(projectID uint64, id string) (*models.BoardTask, error) {
	var task models.BoardTask
	if err := r.db.Where("project_id = ? AND id = ?", projectID, id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask updates a task's details. Column and position are changed by MoveTask only.
func (r *GormBoardRepository) UpdateTask(task *models.BoardTask) error {
	return r.db.Omit("column_id", "position", "project_id", "created_by").Save(task).Error
}

// MoveTask places a task at position in a column and renumbers both columns
func (r *GormBoardRepository) MoveTask(projectID uint64, id, columnID string, position int) (*models.BoardTask, error) {
	var task models.BoardTask

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ? AND id = ?", projectID, id).First(&task).Error; err != nil {
			return err
		}

		var target models.BoardColumn
		if err := tx.Where("project_id = ? AND id = ?", projectID, columnID).First(&target).Error; err != nil {
			return err
		}

		source, err := columnTaskIDs(tx, task.ColumnID)
		if err != nil {
			return err
		}
		source = removeID(source, task.ID)

		dest := source
		if target.ID != task.ColumnID {
			if dest, err = columnTaskIDs(tx, target.ID); err != nil {
				return err
			}
			if target.MaxTasks != nil && len(dest) >= *target.MaxTasks {
				return ErrColumnFull
			}
		}

		if position < 0 {
			position = 0
		}
		if position > len(dest) {
			position = len(dest)
		}
		dest = append(dest[:position:position], append([]string{task.ID}, dest[position:]...)...)

		if target.ID != task.ColumnID {
			if err := renumber(tx, &models.BoardTask{}, source); err != nil {
				return err
			}
			if err := tx.Model(&task).Update("column_id", target.ID).Error; err != nil {
				return err
			}
		}
		if err := renumber(tx, &models.BoardTask{}, dest); err != nil {
			return err
		}

		return tx.First(&task, "id = ?", task.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task with its comments and time entries
func (r *GormBoardRepository) DeleteTask(projectID uint64, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var task models.BoardTask
		if err := tx.Where("project_id = ? AND id = ?", projectID, id).First(&task).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.TimeEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&task).Error; err != nil {
			return err
		}

		remaining, err := columnTaskIDs(tx, task.ColumnID)
		if err != nil {
			return err
		}
		return renumber(tx, &models.BoardTask{}, remaining)
	})
}

// CreateComment creates a comment
func (r *GormBoardRepository) CreateComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}

// FindComment finds a comment of a project
func (r *GormBoardRepository) FindComment(projectID uint64, id string) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.Where("project_id = ? AND id = ?", projectID, id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateComment updates a comment
func (r *GormBoardRepository) UpdateComment(comment *models.TaskComment) error {
	return r.db.Save(comment).Error
}

// DeleteComment deletes a comment
func (r *GormBoardRepository) DeleteComment(projectID uint64, id string) error {
	return deleteOne(r.db, &models.TaskComment{}, projectID, id)
}

// CreateTimeEntry creates a time entry
func (r *GormBoardRepository) CreateTimeEntry(entry *models.TimeEntry) error {
	return r.db.Create(entry).Error
}

// FindTimeEntry finds a time entry of a project
func (r *GormBoardRepository) FindTimeEntry(projectID uint64, id string) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	if err := r.db.Where("project_id = ? AND id = ?", projectID, id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateTimeEntry updates a time entry
func (r *GormBoardRepository) UpdateTimeEntry(entry *models.TimeEntry) error {
	return r.db.Save(entry).Error
}

// DeleteTimeEntry deletes a time entry
func (r *GormBoardRepository) DeleteTimeEntry(projectID uint64, id string) error {
	return deleteOne(r.db, &models.TimeEntry{}, projectID, id)
}

func deleteOne(db *gorm.DB, model any, projectID uint64, id string) error {
	result := db.Where("project_id = ? AND id = ?", projectID, id).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func columnIDs(tx *gorm.DB, projectID uint64) ([]string, error) {
	var ids []string
	err := tx.Model(&models.BoardColumn{}).
		Where("project_id = ?", projectID).
		Order("position ASC, created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func columnTaskIDs(tx *gorm.DB, columnID string) ([]string, error) {
	var ids []string
	err := tx.Model(&models.BoardTask{}).
		Where("column_id = ?", columnID).
		Order("position ASC, created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// renumber stores each row's index in ids as its position.
func renumber(tx *gorm.DB, model any, ids []string) error {
	for i, id := range ids {
		if err := tx.Model(model).Where("id = ?", id).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func samePermutation(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}
