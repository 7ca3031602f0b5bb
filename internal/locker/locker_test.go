package locker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	locks := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("wallet/user/a")
			defer locks.Unlock("wallet/user/a")
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	locks := NewKeyedMutex()

	locks.Lock("a")
	defer locks.Unlock("a")

	done := make(chan struct{})
	go func() {
		locks.Lock("b")
		locks.Unlock("b")
		close(done)
	}()

	<-done
}

func TestKeyedMutex_EntriesRemovedWhenReleased(t *testing.T) {
	locks := NewKeyedMutex()

	locks.Lock("a")
	locks.Lock("b")
	locks.Unlock("a")
	locks.Unlock("b")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestKeyedMutex_UnlockUnheldKeyPanics(t *testing.T) {
	locks := NewKeyedMutex()

	assert.Panics(t, func() {
		locks.Unlock("never-locked")
	})
}

func TestLockAll_OverlappingKeySetsDoNotDeadlock(t *testing.T) {
	locks := NewKeyedMutex()

	// Opposing orderings, as in a pair of transfers in both directions.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			locks.LockAll("a", "b")
			locks.UnlockAll("a", "b")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			locks.LockAll("b", "a")
			locks.UnlockAll("b", "a")
		}
	}()
	wg.Wait()
}

func TestLockAll_DuplicateKeysLockedOnce(t *testing.T) {
	locks := NewKeyedMutex()

	// A self-transfer produces the same key twice; locking it twice would
	// self-deadlock.
	locks.LockAll("a", "a")
	locks.UnlockAll("a", "a")
}

func TestUserWalletKey_DistinctPerUser(t *testing.T) {
	a := UserWalletKey([16]byte{1})
	b := UserWalletKey([16]byte{2})

	assert.NotEqual(t, a, b)
}
