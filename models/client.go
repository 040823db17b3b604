package models

import "time"

type Client struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"type:varchar(100);not null" json:"name"`
	Email        string            `gorm:"type:varchar(100);unique;not null" json:"email"`
	Phone        *string           `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Address      *string           `gorm:"type:varchar(255)" json:"address,omitempty"`
	Dogs         []Dog             `gorm:"many2many:client_dogs" json:"dogs,omitempty"`
	Reservations []WalkReservation `gorm:"foreignKey:ClientID" json:"reservations,omitempty"`
	CreatedAt    time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null" json:"updated_at"`
}
