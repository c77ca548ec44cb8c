package entity

// ConnectionState is the current binding to the user's account.
type ConnectionState struct {
	Address     string `json:"address"`
	IsConnected bool   `json:"isConnected"`
}
