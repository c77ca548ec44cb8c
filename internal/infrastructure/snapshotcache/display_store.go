package snapshotcache

import (
	"fmt"
	"strings"
	"time"

	"walletview/internal/app/port"
	"walletview/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

const cleanupInterval = 10 * time.Minute

// DisplayStore keeps the last rendered balances per account so a reconnect can
// show them, marked stale, until fresh reads arrive.
type DisplayStore struct {
	chainID   uint64
	snapshots *cache.Cache // key format "chainID_address" -> entity.DisplayBalances
}

var _ port.DisplayStore = (*DisplayStore)(nil)

// NewDisplayStore creates a store for one chain. Snapshots expire after ttl.
func NewDisplayStore(chainID uint64, ttl time.Duration) *DisplayStore {
	return &DisplayStore{
		chainID:   chainID,
		snapshots: cache.New(ttl, cleanupInterval),
	}
}

func (s *DisplayStore) key(account string) string {
	return fmt.Sprintf("%d_%s", s.chainID, strings.ToLower(account))
}

// Save replaces the snapshot for account.
func (s *DisplayStore) Save(account string, balances entity.DisplayBalances) {
	s.snapshots.SetDefault(s.key(account), balances)
}

// Load returns the snapshot for account if one is cached and not expired.
func (s *DisplayStore) Load(account string) (entity.DisplayBalances, bool) {
	v, found := s.snapshots.Get(s.key(account))
	if !found {
		return entity.DisplayBalances{}, false
	}
	balances, ok := v.(entity.DisplayBalances)
	return balances, ok
}

// Len returns the number of cached snapshots, expired ones included until cleanup.
func (s *DisplayStore) Len() int {
	return s.snapshots.ItemCount()
}
