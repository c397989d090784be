package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockSerializesSameKey(t *testing.T) {
	locks := New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("shared")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestLockDifferentKeysDoNotBlock(t *testing.T) {
	locks := New()

	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()

	<-done // would deadlock if "b" waited on "a"
}

func TestLockEntriesAreReleased(t *testing.T) {
	locks := New()

	unlock := locks.Lock("key")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}

func TestUnlockIsIdempotent(t *testing.T) {
	locks := New()

	unlock := locks.Lock("key")
	unlock()
	unlock() // second call is a no-op, not a panic

	unlock2 := locks.Lock("key")
	unlock2()
}
