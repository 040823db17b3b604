package models

import "time"

// Energy levels a dog can be registered with.
const (
	EnergyLow    = "low"
	EnergyMedium = "medium"
	EnergyHigh   = "high"
)

type Dog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Breed       string    `gorm:"type:varchar(100);not null" json:"breed"`
	Age         string    `gorm:"type:varchar(30)" json:"age"`
	Size        string    `gorm:"type:varchar(20);not null;default:'medium'" json:"size"`
	EnergyLevel string    `gorm:"type:varchar(10);not null;default:'medium'" json:"energy_level"`
	PhotoURL    *string   `gorm:"type:varchar(255)" json:"photo_url,omitempty"`
	Clients     []Client  `gorm:"many2many:client_dogs" json:"clients,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// ValidEnergyLevel reports whether the given value is a known energy level.
func ValidEnergyLevel(level string) bool {
	return level == EnergyLow || level == EnergyMedium || level == EnergyHigh
}
