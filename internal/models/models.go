package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	LastHistoryID uint64 `json:"last_history_id"`
}

// JobApplication is one tracked application as stored in postgres.
type JobApplication struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CompanyName     string          `gorm:"not null;index" json:"companyName"`
	JobTitle        string          `gorm:"not null" json:"jobTitle"`
	JobType         string          `json:"jobType"`
	Location        string          `json:"location"`
	Status          Status          `gorm:"type:varchar(32);default:'Applied'" json:"status"`
	PriorityLevel   Priority        `gorm:"type:varchar(16);default:'Medium'" json:"priorityLevel"`
	ApplicationDate ApplicationDate `gorm:"type:varchar(64)" json:"applicationDate"`
	JobLink         string          `json:"jobLink,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
}

// BeforeCreate assigns the store-side id.
func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type ApplicationEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ApplicationID string    `gorm:"index;type:varchar(36)" json:"application_id"`
	EventType     string    `json:"event_type"`
	Details       string    `gorm:"type:text" json:"details"`
}

type ProcessedEmail struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
}

// All lists every model managed by migrations.
func All() []any {
	return []any{&User{}, &JobApplication{}, &ApplicationEvent{}, &ProcessedEmail{}}
}
