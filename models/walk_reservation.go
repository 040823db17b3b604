package models

import (
	"fmt"
	"time"
)

// Reservation lifecycle states. A reservation starts as pending and only
// moves along the documented edges; completed and cancelled are terminal.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Who triggered a cancellation (stored in CancelledBy).
const (
	CancelledByClient = "client"
	CancelledByWalker = "walker"
)

type WalkReservation struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	ClientID uint    `gorm:"not null;index" json:"client_id"`
	Client   Client  `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	DogID    uint    `gorm:"not null;index" json:"dog_id"`
	Dog      Dog     `gorm:"foreignKey:DogID" json:"dog,omitempty"`
	WalkerID *uint   `gorm:"index" json:"walker_id,omitempty"`
	Walker   *Walker `gorm:"foreignKey:WalkerID" json:"walker,omitempty"`

	ReservationDate string `gorm:"type:date;not null" json:"reservation_date"` // YYYY-MM-DD
	ReservationTime string `gorm:"type:time;not null" json:"reservation_time"` // HH:MM:SS
	Status          string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	RatedAt     *time.Time `json:"rated_at,omitempty"`

	RejectionReason    *string `gorm:"type:varchar(255)" json:"rejection_reason,omitempty"`
	CancellationReason *string `gorm:"type:varchar(255)" json:"cancellation_reason,omitempty"`
	CancelledBy        *string `gorm:"type:varchar(20)" json:"cancelled_by,omitempty"`

	CompletionNotes *string `gorm:"type:text" json:"completion_notes,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	ClientRating    *int    `json:"client_rating,omitempty"`
	ClientReview    *string `gorm:"type:text" json:"client_review,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (WalkReservation) TableName() string {
	return "walk_reservations"
}

// ScheduledAt combines ReservationDate and ReservationTime into a single
// instant in the given location. The time part may come in as HH:MM or
// HH:MM:SS depending on the client.
func (r *WalkReservation) ScheduledAt(loc *time.Location) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, r.ReservationDate+" "+r.ReservationTime, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid reservation date/time %q %q", r.ReservationDate, r.ReservationTime)
}

// ValidStatus reports whether the given value is a known reservation status.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
