package port

import "time"

// Metrics records view activity.
type Metrics interface {
	ObserveAction(action string, outcome string)
	ObserveRead(kind string, outcome string)
	ObserveConfirmation(action string, d time.Duration)
	ObserveAccountsChanged(accounts int)
}
