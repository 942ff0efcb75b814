package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Points struct {
	TotalPoints        int64           `json:"total_points"`
	AvailableForRedeem int64           `json:"available_for_redemtion"`
	ZavioTokenRewarded decimal.Decimal `json:"zavio_token_rewarded"`
	DateUpdated        *time.Time      `json:"date_updated,omitempty"`
}

type RedeemResult struct {
	TotalRedeemedPoints int64      `json:"total_redeemed_points"`
	RemainingPoints     int64      `json:"remaining_points"`
	TransactionID       string     `json:"transaction_id,omitempty"`
	Timestamp           *time.Time `json:"timestamp,omitempty"`
}

type ActivityType string

const (
	RewardActivity     ActivityType = "reward"
	RedemptionActivity ActivityType = "redemption"
	BonusActivity      ActivityType = "bonus"
)

type Activity struct {
	ID                int          `json:"id"`
	Type              ActivityType `json:"type"`
	Points            int64        `json:"points"`
	Description       string       `json:"description"`
	ActivityTimestamp string       `json:"activity_timestamp"`
	IsCredit          bool         `json:"isCredit"`
}

// UserPoints is the admin view of a user's point balance.
type UserPoints struct {
	UserID      int    `json:"user_id"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
	PointID     int    `json:"point_id"`
	TotalPoints int64  `json:"total_points"`
}
