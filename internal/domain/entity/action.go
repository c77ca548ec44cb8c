package entity

// ActionKind identifies a user-initiated contract action.
type ActionKind int

const (
	// ActionDeposit attaches value to the contract's deposit operation.
	ActionDeposit ActionKind = iota
	// ActionWithdraw withdraws an amount from the contract.
	ActionWithdraw
	// ActionTransfer moves an amount to another address inside the contract.
	ActionTransfer
)

func (k ActionKind) String() string {
	switch k {
	case ActionDeposit:
		return "deposit"
	case ActionWithdraw:
		return "withdraw"
	case ActionTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// PendingActions carries one in-flight flag per action.
type PendingActions struct {
	Depositing   bool `json:"depositing"`
	Withdrawing  bool `json:"withdrawing"`
	Transferring bool `json:"transferring"`
}

// Get reports whether the given action is in flight.
func (p PendingActions) Get(k ActionKind) bool {
	switch k {
	case ActionDeposit:
		return p.Depositing
	case ActionWithdraw:
		return p.Withdrawing
	case ActionTransfer:
		return p.Transferring
	}
	return false
}

// Set updates the flag for the given action.
func (p *PendingActions) Set(k ActionKind, v bool) {
	switch k {
	case ActionDeposit:
		p.Depositing = v
	case ActionWithdraw:
		p.Withdrawing = v
	case ActionTransfer:
		p.Transferring = v
	}
}

// None reports whether no action is in flight.
func (p PendingActions) None() bool {
	return !p.Depositing && !p.Withdrawing && !p.Transferring
}
