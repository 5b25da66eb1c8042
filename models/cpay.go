package models

import (
	"github.com/shopspring/decimal"
)

// Wallet is a user's funding account. Balance is only ever read from the backend.
type Wallet struct {
	WalletID int             `json:"walletID"`
	UserID   int             `json:"userID"`
	UserName string          `json:"userName,omitempty"`
	Email    string          `json:"email,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
}

// DepositRequest is the body of POST /api/wallet/{id}/deposit.
type DepositRequest struct {
	Amount decimal.Decimal `json:"Amount"`
	UserID int             `json:"UserID"`
}
