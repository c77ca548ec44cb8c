package port

import "walletview/internal/domain/entity"

// DisplayStore keeps the last displayed balances per account.
type DisplayStore interface {
	Save(account string, balances entity.DisplayBalances)
	Load(account string) (entity.DisplayBalances, bool)
}
