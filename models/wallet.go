package models

type Wallet struct {
	WalletID      int    `json:"wallet_id,omitempty"`
	UserID        int    `json:"user_id,omitempty"`
	WalletAddress string `json:"wallet_address"`
	WalletType    string `json:"wallet_type,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}
