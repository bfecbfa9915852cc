package dtos

import (
	"github.com/ienerzy/auth-service/internal/models"
)

// ----------------------
// Requests
// ----------------------

// LoginRequest asks for an OTP to be sent to the given phone. UserType
// selects which directory the phone is resolved against.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	UserType string `json:"userType,omitempty" validate:"omitempty,oneof=consumer staff"`
}

type VerifyOTPRequest struct {
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
	UserType string `json:"userType,omitempty" validate:"omitempty,oneof=consumer staff"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ----------------------
// Responses
// ----------------------

// LoginResponse acknowledges OTP dispatch. OTP is populated only when SMS
// delivery failed and the service fell back to returning the code inline.
type LoginResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Phone     string `json:"phone"`
	ExpiresIn int    `json:"expiresIn"`
	OTP       string `json:"otp,omitempty"`
}

type VerifyOTPResponse struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refreshToken"`
	User         models.Identity `json:"user"`
}

type RefreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type SessionsResponse struct {
	Sessions []models.Session `json:"sessions"`
}

type MeResponse struct {
	User models.Identity `json:"user"`
}
