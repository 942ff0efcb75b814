package models

import "github.com/shopspring/decimal"

type TransactionStatus string

const (
	TransactionSuccess TransactionStatus = "success"
	TransactionPending TransactionStatus = "pending"
	TransactionFailed  TransactionStatus = "failed"
)

type Transaction struct {
	TransactionID     int               `json:"transaction_id"`
	TokensRedeemed    decimal.Decimal   `json:"tokens_redeemed"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	TransactionDate   string            `json:"transaction_date"`
}

// AdminTransaction is a transaction row in the admin approval log.
type AdminTransaction struct {
	Transaction
	UserID        int    `json:"user_id"`
	Username      string `json:"username,omitempty"`
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

type ApproveTransactionsRequest struct {
	TransactionIDs []int `json:"transaction_ids"`
}
