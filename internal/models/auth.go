package models

import "time"

// LoginRequest is the body accepted by both access gates
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by a successful gate login
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
