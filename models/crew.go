package models

import (
	"time"
)

// Crew is a field team that can be dispatched to jobs.
type Crew struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TenantID        uint      `json:"tenant_id" gorm:"not null;index"`
	Name            string    `json:"name" gorm:"type:varchar(100);not null"`
	ZoneID          *uint     `json:"zone_id"`
	Zone            *Zone     `json:"zone,omitempty" gorm:"foreignKey:ZoneID"`
	Specializations string    `json:"specializations" gorm:"type:text"` // comma separated tags
	MaxHoursPerDay  int       `json:"max_hours_per_day" gorm:"default:8"`
	MaxJobsPerDay   int       `json:"max_jobs_per_day" gorm:"default:6"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Crew model
func (Crew) TableName() string {
	return "crews"
}

// SpecializationList splits the stored specialization tags.
func (c Crew) SpecializationList() []string {
	return splitList(c.Specializations)
}
