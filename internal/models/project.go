package models

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses, roughly in lifecycle order.
const (
	ProjectStatusInquiry    = "inquiry"
	ProjectStatusOnboarding = "onboarding"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusReview     = "review"
	ProjectStatusDone       = "done"
)

// Project is a client engagement tracked through the portal.
type Project struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	PublicID        string         `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	ClientID        uint           `gorm:"index;not null" json:"client_id"`
	ServiceName     string         `gorm:"size:200;not null" json:"service_name"`
	Description     string         `gorm:"type:text" json:"description"`
	QuestionAnswers string         `gorm:"type:text" json:"question_answers"` // JSON object of onboarding answers
	Status          string         `gorm:"size:50;default:inquiry" json:"status"`
	PRD             string         `gorm:"column:prd;type:text" json:"prd"` // AI-drafted requirements document
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
