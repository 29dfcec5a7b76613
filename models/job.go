package models

import (
	"time"
)

// JobStatus represents the dispatch state of a job
type JobStatus string

const (
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job is a dispatched job. The jobs subsystem owns these rows; the booking
// engine only reads them as commitments.
type Job struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TenantID        uint      `json:"tenant_id" gorm:"not null;index:idx_jobs_tenant_date"`
	CrewID          *uint     `json:"crew_id" gorm:"index"`
	Title           string    `json:"title" gorm:"type:varchar(200)"`
	ScheduledDate   string    `json:"scheduled_date" gorm:"type:varchar(10);not null;index:idx_jobs_tenant_date"` // YYYY-MM-DD
	ScheduledTime   string    `json:"scheduled_time" gorm:"type:varchar(5);not null"`                             // HH:MM
	DurationMinutes int       `json:"duration_minutes" gorm:"not null;default:60"`
	Status          JobStatus `json:"status" gorm:"type:varchar(20);not null;default:'scheduled'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Job model
func (Job) TableName() string {
	return "jobs"
}
