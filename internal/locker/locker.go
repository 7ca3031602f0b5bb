// Package locker provides per-key mutual exclusion. Every balance-affecting
// operation takes the owning wallet's key before entering its unit of work,
// so two requests can never both pass a sufficient-funds check against a
// stale balance. Operations on different wallets proceed in parallel.
package locker

import (
	"sync"

	"github.com/google/uuid"
)

// UserWalletKey is the lock key guarding a user's wallet and positions.
// Wallets are allocated lazily and each user owns exactly one, so keying on
// the user id serializes every balance-affecting operation for that user,
// including the ones that create the wallet.
func UserWalletKey(userID uuid.UUID) string {
	return "wallet/user/" + userID.String()
}

// KeyedMutex is a set of mutexes addressed by string key. Lock entries are
// reference-counted and removed once the last holder releases them, so the
// map does not grow with the number of keys ever seen.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates a new KeyedMutex instance
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*lockEntry),
	}
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the mutex for key. It must only be called by the current
// holder.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("locker: unlock of unheld key " + key)
	}
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}

// LockAll acquires the mutexes for all keys in lexical order, so that two
// callers locking overlapping key sets (a transfer's sender and receiver)
// cannot deadlock. Duplicate keys are locked once.
func (k *KeyedMutex) LockAll(keys ...string) {
	for _, key := range sortedUnique(keys) {
		k.Lock(key)
	}
}

// UnlockAll releases the mutexes acquired by LockAll.
func (k *KeyedMutex) UnlockAll(keys ...string) {
	unique := sortedUnique(keys)
	for i := len(unique) - 1; i >= 0; i-- {
		k.Unlock(unique[i])
	}
}

func sortedUnique(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}

	// Insertion sort; key sets are tiny (one or two wallets).
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}

	return out
}
