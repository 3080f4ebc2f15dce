package models

import "time"

// Board rows use client-generated UUIDs so an optimistic entity keeps its ID once stored.

type BoardColumn struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProjectID uint64    `gorm:"not null;index" json:"project_id"`
	Title     string    `gorm:"type:varchar(100);not null" json:"title"`
	Color     string    `gorm:"type:varchar(20)" json:"color"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	MaxTasks  *int      `json:"max_tasks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BoardTask struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProjectID       uint64     `gorm:"not null;index" json:"project_id"`
	ColumnID        string     `gorm:"type:varchar(36);not null;index" json:"column_id"`
	Position        int        `gorm:"not null;default:0" json:"position"`
	Title           string     `gorm:"type:varchar(255);not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	HTMLDescription string     `gorm:"type:text" json:"html_description"`
	Priority        string     `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	AssigneeID      *uint64    `gorm:"index" json:"assignee_id"`
	EstimatedHours  float64    `gorm:"not null;default:0" json:"estimated_hours"`
	Tags            []string   `gorm:"serializer:json" json:"tags"`
	DueDate         *time.Time `json:"due_date"`
	CreatedBy       uint64     `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type TaskComment struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProjectID   uint64    `gorm:"not null;index" json:"project_id"`
	TaskID      string    `gorm:"type:varchar(36);not null;index" json:"task_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	HTMLContent string    `gorm:"type:text" json:"html_content"`
	UserID      uint64    `gorm:"not null" json:"user_id"`
	IsEdited    bool      `gorm:"not null;default:false" json:"is_edited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TimeEntry struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProjectID   uint64    `gorm:"not null;index" json:"project_id"`
	TaskID      string    `gorm:"type:varchar(36);not null;index" json:"task_id"`
	Hours       float64   `gorm:"not null" json:"hours"`
	Description string    `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null" json:"date"`
	UserID      uint64    `gorm:"not null;index" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
