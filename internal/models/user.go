package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a portal account: agency staff (admin) or a client.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash
	Email     string         `gorm:"size:255" json:"email"`
	Nickname  string         `gorm:"size:100" json:"nickname"`
	Company   string         `gorm:"size:200" json:"company"`
	Role      string         `gorm:"size:50;default:client" json:"role"` // admin, client
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user has the administrator role.
func (u *User) IsAdmin() bool { return u.Role == "admin" }
