package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// userLocks hands out one mutex per user ID. Locks are never reclaimed; the
// table grows with the number of distinct users seen by this process.
type userLocks struct {
	mu sync.Mutex
	m  map[uint]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{m: make(map[uint]*sync.Mutex)}
}

// lock acquires the user's mutex and returns its unlock func.
func (l *userLocks) lock(userID uint) func() {
	l.mu.Lock()
	mu, ok := l.m[userID]
	if !ok {
		mu = &sync.Mutex{}
		l.m[userID] = mu
	}
	l.mu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// newReference mints a client-visible ID for a ledger row.
func newReference() string {
	return uuid.NewString()
}
