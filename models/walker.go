package models

import "time"

// Walker is a walk service provider. Rating and TotalReviews are derived
// from rated reservations and are only ever written by the rating service.
type Walker struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"type:varchar(100);not null" json:"name"`
	Email        string            `gorm:"type:varchar(100);unique;not null" json:"email"`
	Experience   *string           `gorm:"type:text" json:"experience,omitempty"`
	PhotoURL     *string           `gorm:"type:varchar(255)" json:"photo_url,omitempty"`
	Rating       float64           `gorm:"type:decimal(3,2);not null;default:0" json:"rating"`
	TotalReviews int               `gorm:"not null;default:0" json:"total_reviews"`
	Reservations []WalkReservation `gorm:"foreignKey:WalkerID" json:"reservations,omitempty"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
}
