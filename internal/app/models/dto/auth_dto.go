package dto

import "time"

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	LoginName   string `json:"loginName" binding:"required,min=3,max=64,alphanum"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
	FirstName   string `json:"firstName" binding:"required,max=100"`
	LastName    string `json:"lastName" binding:"required,max=100"`
	Location    string `json:"location" binding:"max=200"`
	Description string `json:"description" binding:"max=2000"`
	Occupation  string `json:"occupation" binding:"max=200"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	LoginName string `json:"loginName" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}
