package models

import (
	"time"
)

// Account represents a payment-platform account with its trust state
type Account struct {
	ID           string    `json:"account_id" db:"id"`
	FirstName    string    `json:"fname" db:"first_name"`
	LastName     string    `json:"lname" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Score        int       `json:"score" db:"score"`
	Plafond      float64   `json:"plafond" db:"plafond"`
	New          bool      `json:"new_account" db:"new_account"`
	AppliedRules []string  `json:"score_deductions_applied" db:"applied_rules"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DisplayName returns the account holder's full name
func (a *Account) DisplayName() string {
	return a.FirstName + " " + a.LastName
}

// HasAppliedRule reports whether a one-time deduction was already committed
func (a *Account) HasAppliedRule(rule string) bool {
	for _, r := range a.AppliedRules {
		if r == rule {
			return true
		}
	}
	return false
}
