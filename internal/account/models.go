package account

import (
	"time"
)

// RegisterRequest is the payload for account registration
type RegisterRequest struct {
	FirstName string  `json:"fname" binding:"required"`
	LastName  string  `json:"lname" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=6"`
	Plafond   float64 `json:"plafond" binding:"omitempty,gt=0"`
}

// DeviceLogRequest describes the device a login came from
type DeviceLogRequest struct {
	MACAddress string    `json:"mac_address" binding:"required,mac"`
	IPAddress  string    `json:"ip_address" binding:"required,ip"`
	Location   string    `json:"location"`
	Timestamp  time.Time `json:"timestamp"`
}

// LoginRequest is the payload for login
type LoginRequest struct {
	Email     string           `json:"email" binding:"required,email"`
	Password  string           `json:"password" binding:"required"`
	DeviceLog DeviceLogRequest `json:"device_log" binding:"required"`
}

// LoginResponse carries the session token and the account's trust standing
type LoginResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"account_id"`
	Score     int    `json:"trust_score"`
	Flag      string `json:"flag"`
	Warning   string `json:"warning,omitempty"`
}

// ScoreResponse reports the current trust score with its tier description
type ScoreResponse struct {
	AccountID string `json:"account_id"`
	Score     int    `json:"score"`
	Flag      string `json:"flag"`
	Warning   string `json:"warning,omitempty"`
}
