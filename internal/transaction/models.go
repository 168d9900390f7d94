package transaction

import "github.com/everleepham/bank-antiscam-app/pkg/models"

// TransferRequest creates a new money transfer from the authenticated account
type TransferRequest struct {
	RecipientID string  `json:"recipient_id" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	DeviceID    string  `json:"device_id"`
}

// TransferResponse returns the created transaction along with the sender's
// recomputed trust standing.
type TransferResponse struct {
	Transaction *models.Transaction `json:"transaction"`
	Score       int                 `json:"score"`
	Triggered   []string            `json:"triggered_rules,omitempty"`
}

// VerifyResponse reports whether the verification call promoted the
// transaction to verified.
type VerifyResponse struct {
	TransactionID string `json:"transaction_id"`
	Verified      bool   `json:"verified"`
	Status        string `json:"status"`
}
