package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"field-service-server/scheduling"
)

// BookingSource records who created a booking request.
type BookingSource string

const (
	BookingSourcePublic BookingSource = "public"
	BookingSourceStaff  BookingSource = "staff"
)

// Flexibility says whether the requested start time may be moved.
type Flexibility string

const (
	FlexibilityExact    Flexibility = "exact"
	FlexibilityFlexible Flexibility = "flexible"
)

// BookingRequest is a prospective customer's request for a visit. Status only
// changes through the booking lifecycle; the other fields are editable by
// staff while the request is pending or waitlisted.
type BookingRequest struct {
	ID                 uint                     `json:"id" gorm:"primaryKey"`
	Reference          string                   `json:"reference" gorm:"type:varchar(36);uniqueIndex;not null"`
	TenantID           uint                     `json:"tenant_id" gorm:"not null;index:idx_booking_requests_tenant_date"`
	Source             BookingSource            `json:"source" gorm:"type:varchar(10);not null;default:'public'"`
	IdempotencyKey     *string                  `json:"-" gorm:"type:varchar(100)"`
	ContactName        string                   `json:"contact_name" gorm:"type:varchar(200);not null"`
	ContactEmail       string                   `json:"contact_email" gorm:"type:varchar(200)"`
	ContactPhone       string                   `json:"contact_phone" gorm:"type:varchar(30)"`
	Address            string                   `json:"address" gorm:"type:text"`
	PostalCode         string                   `json:"postal_code" gorm:"type:varchar(20)"`
	RequestedDate      string                   `json:"requested_date" gorm:"type:varchar(10);not null;index:idx_booking_requests_tenant_date"` // YYYY-MM-DD
	RequestedTime      string                   `json:"requested_time" gorm:"type:varchar(5)"`                                                  // HH:MM
	Flexibility        Flexibility              `json:"flexibility" gorm:"type:varchar(10);not null;default:'flexible'"`
	DurationMinutes    int                      `json:"duration_minutes" gorm:"not null"`
	RequestedZoneID    *uint                    `json:"requested_zone_id"`
	AssignedZoneID     *uint                    `json:"assigned_zone_id"`
	RequestedCrewID    *uint                    `json:"requested_crew_id"`
	AssignedCrewID     *uint                    `json:"assigned_crew_id"`
	Status             scheduling.BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';check:status IN ('pending','waitlisted','confirmed','declined','cancelled','completed','no_show')"`
	ConfirmedDate      *string                  `json:"confirmed_date" gorm:"type:varchar(10)"`
	ConfirmedTime      *string                  `json:"confirmed_time" gorm:"type:varchar(5)"`
	Score              float64                  `json:"score"`
	ScoringExplanation string                   `json:"scoring_explanation" gorm:"type:text"`
	Notes              string                   `json:"notes" gorm:"type:text"`
	StatusChangedAt    *time.Time               `json:"status_changed_at"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at"`
}

// TableName specifies the table name for the BookingRequest model
func (BookingRequest) TableName() string {
	return "booking_requests"
}

// BeforeCreate assigns a public reference when none is set.
func (b *BookingRequest) BeforeCreate(tx *gorm.DB) error {
	if b.Reference == "" {
		b.Reference = uuid.NewString()
	}
	if b.Flexibility == "" {
		b.Flexibility = FlexibilityFlexible
	}
	if b.Source == "" {
		b.Source = BookingSourcePublic
	}
	return nil
}

// Commitment returns the occupied range once the request is confirmed.
func (b *BookingRequest) Commitment() (scheduling.Commitment, bool) {
	if b.ConfirmedTime == nil {
		return scheduling.Commitment{}, false
	}
	start, err := scheduling.ParseTimeOfDay(*b.ConfirmedTime)
	if err != nil {
		return scheduling.Commitment{}, false
	}
	return scheduling.Commitment{Start: start, DurationMinutes: b.DurationMinutes}, true
}

// BookingStatusEvent is one entry of a booking request's status history.
type BookingStatusEvent struct {
	ID               uint                     `json:"id" gorm:"primaryKey"`
	BookingRequestID uint                     `json:"booking_request_id" gorm:"not null;index"`
	TenantID         uint                     `json:"tenant_id" gorm:"not null"`
	FromStatus       scheduling.BookingStatus `json:"from_status" gorm:"type:varchar(20)"`
	ToStatus         scheduling.BookingStatus `json:"to_status" gorm:"type:varchar(20);not null"`
	ActorID          *uint                    `json:"actor_id"`
	Note             string                   `json:"note" gorm:"type:text"`
	CreatedAt        time.Time                `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the BookingStatusEvent model
func (BookingStatusEvent) TableName() string {
	return "booking_status_events"
}

// BookingRequestCreate is the body of a booking submission.
type BookingRequestCreate struct {
	ContactName     string `json:"contact_name" binding:"required"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
	Address         string `json:"address"`
	PostalCode      string `json:"postal_code"`
	RequestedDate   string `json:"requested_date" binding:"required"`
	RequestedTime   string `json:"requested_time"`
	Flexibility     string `json:"flexibility" binding:"omitempty,oneof=exact flexible"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1"`
	ZoneID          *uint  `json:"zone_id"`
	CrewID          *uint  `json:"crew_id"`
	Notes           string `json:"notes"`
	IdempotencyKey  string `json:"idempotency_key"`
}

// BookingRequestUpdate carries staff edits; nil fields are left alone.
type BookingRequestUpdate struct {
	ContactName     *string `json:"contact_name"`
	ContactEmail    *string `json:"contact_email"`
	ContactPhone    *string `json:"contact_phone"`
	Address         *string `json:"address"`
	PostalCode      *string `json:"postal_code"`
	RequestedDate   *string `json:"requested_date"`
	RequestedTime   *string `json:"requested_time"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1"`
	AssignedZoneID  *uint   `json:"assigned_zone_id"`
	AssignedCrewID  *uint   `json:"assigned_crew_id"`
	Notes           *string `json:"notes"`
}

// BookingTransitionRequest is the body of a status change.
type BookingTransitionRequest struct {
	Status         string `json:"status" binding:"required"`
	ConfirmedDate  string `json:"confirmed_date"`
	ConfirmedTime  string `json:"confirmed_time"`
	AssignedCrewID *uint  `json:"assigned_crew_id"`
	Notes          string `json:"notes"`
	Override       bool   `json:"override"`
}
