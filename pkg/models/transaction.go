package models

import (
	"time"
)

// TransactionStatus represents transaction status
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusVerified   TransactionStatus = "verified"
	TransactionStatusSuspicious TransactionStatus = "suspicious"
)

// Transaction represents a money transfer between two accounts.
// Status moves pending -> verified or pending -> suspicious; both are terminal.
type Transaction struct {
	ID            string            `json:"transaction_id" db:"id"`
	SenderID      string            `json:"sender_id" db:"sender_id"`
	SenderName    string            `json:"sender_name" db:"sender_name"`
	RecipientID   string            `json:"recipient_id" db:"recipient_id"`
	RecipientName string            `json:"recipient_name" db:"recipient_name"`
	DeviceID      string            `json:"sender_device_id" db:"device_id"`
	Amount        float64           `json:"amount" db:"amount"`
	Timestamp     time.Time         `json:"timestamp" db:"timestamp"`
	Status        TransactionStatus `json:"status" db:"status"`
	FlagReason    *string           `json:"flag_reason,omitempty" db:"flag_reason"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// MonthlyTotal is an aggregated calendar-month spend bucket
type MonthlyTotal struct {
	Month time.Time `json:"month"`
	Total float64   `json:"total"`
}
