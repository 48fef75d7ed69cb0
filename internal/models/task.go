package models

import "time"

// Task is one work item inside a project. AI-generated tasks carry
// source "ai" and are replaced wholesale on regeneration; manually
// created tasks are left alone.
type Task struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProjectID      uint      `gorm:"index;not null" json:"project_id"`
	Title          string    `gorm:"size:300;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Priority       string    `gorm:"size:20;default:medium" json:"priority"` // high, medium, low
	EstimatedHours float64   `json:"estimated_hours"`
	Status         string    `gorm:"size:20;default:todo" json:"status"` // todo, in_progress, done
	SortOrder      int       `json:"sort_order"`
	Source         string    `gorm:"size:20;default:manual" json:"source"` // ai, manual
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }
