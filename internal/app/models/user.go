package models

import (
	"strings"
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           string    `json:"id" db:"id"`
	LoginName    string    `json:"loginName" db:"login_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Location     string    `json:"location" db:"location"`
	Description  string    `json:"description" db:"description"`
	Occupation   string    `json:"occupation" db:"occupation"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// DisplayName is the first and last name joined by a space.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
