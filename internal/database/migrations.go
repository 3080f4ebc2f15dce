package database

import (
	"fmt"
	"log/slog"

	"github.com/devbridge/dev-bridge-manager/internal/models"
	"gorm.io/gorm"
)

type compositeIndex struct {
	model   interface{}
	name    string
	columns string
}

// Board reads walk columns and tasks in position order; member lists skip
// inactive assignments.
var compositeIndexes = []compositeIndex{
	{&models.BoardColumn{}, "idx_board_columns_project_position", "project_id, position"},
	{&models.BoardTask{}, "idx_board_tasks_column_position", "column_id, position"},
	{&models.TimeEntry{}, "idx_time_entries_task_date", "task_id, date"},
	{&models.ProjectAssignment{}, "idx_project_assignments_project_active", "project_id, is_active"},
}

// AddIndexes adds the composite indexes the struct tags cannot express
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("index already exists, skipping", "index", idx.name)
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", "index", idx.name, "table", stmt.Schema.Table)
	}

	return nil
}
