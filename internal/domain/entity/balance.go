package entity

import "time"

// DisplayBalances is a locally cached mirror of on-chain amounts, for rendering only.
// Values are decimal strings in the native 18-decimal convention and are always
// superseded by the next on-chain read.
type DisplayBalances struct {
	UserBalance       string    `json:"userBalance"`
	ContractBalance   string    `json:"contractBalance"`
	UserUpdatedAt     time.Time `json:"userUpdatedAt,omitempty"`
	ContractUpdatedAt time.Time `json:"contractUpdatedAt,omitempty"`
	Stale             bool      `json:"stale"`
}

// NewDisplayBalances returns the zero snapshot shown before the first read.
func NewDisplayBalances() DisplayBalances {
	return DisplayBalances{UserBalance: "0", ContractBalance: "0"}
}
