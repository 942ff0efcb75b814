package models

import "github.com/shopspring/decimal"

type NodeStatus string

const (
	NodeActive   NodeStatus = "active"
	NodeReserved NodeStatus = "reserved"
	NodeInactive NodeStatus = "inactive"
)

func (s NodeStatus) Valid() bool {
	switch s {
	case NodeActive, NodeReserved, NodeInactive:
		return true
	}
	return false
}

type Node struct {
	NodeID      int             `json:"node_id"`
	Status      NodeStatus      `json:"status"`
	TotalNodes  int             `json:"total_nodes"`
	DailyReward decimal.Decimal `json:"daily_reward"`
	DateUpdated string          `json:"date_updated,omitempty"`
}

// NodeInput is the writable part of a node configuration.
type NodeInput struct {
	Status      NodeStatus      `json:"status"`
	TotalNodes  int             `json:"total_nodes"`
	DailyReward decimal.Decimal `json:"daily_reward"`
}
