package entity

// Form holds the view's input fields.
type Form struct {
	DepositAmount     string `json:"depositAmount"`
	WithdrawAmount    string `json:"withdrawAmount"`
	TransferRecipient string `json:"transferRecipient"`
	TransferAmount    string `json:"transferAmount"`
}

// ViewState is an immutable snapshot of everything the view renders.
type ViewState struct {
	Connection      ConnectionState `json:"connection"`
	ContractAddress string          `json:"contractAddress"`
	Network         string          `json:"network"`
	NativeSymbol    string          `json:"nativeSymbol"`
	Balances        DisplayBalances `json:"balances"`
	Pending         PendingActions  `json:"pending"`
	Form            Form            `json:"form"`
	Notice          string          `json:"notice,omitempty"`
}

// CanSubmit reports whether the trigger for the given action is enabled.
func (s ViewState) CanSubmit(k ActionKind) bool {
	return s.Connection.IsConnected && !s.Pending.Get(k)
}
