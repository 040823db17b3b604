package models

import "time"

// Account roles.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
	RoleWalker = "walker"
)

// User is the authentication account. ClientID/WalkerID link the account
// to its domain profile; caller-scoped endpoints require the link to be
// present instead of falling back to a default id.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	Email      string    `gorm:"type:varchar(100);unique;not null" json:"email"`
	Password   string    `gorm:"type:varchar(255);not null" json:"-"`
	Role       string    `gorm:"type:varchar(20);not null" json:"role"`
	IsApproved bool      `gorm:"not null;default:false" json:"is_approved"`
	ClientID   *uint     `gorm:"index" json:"client_id,omitempty"`
	WalkerID   *uint     `gorm:"index" json:"walker_id,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
