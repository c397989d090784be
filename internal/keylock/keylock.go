// Package keylock provides per-key mutual exclusion for check-then-write
// sections. Every engine operation that reads a record and then writes
// based on what it saw (capacity check before a membership insert,
// duplicate-pending check before a request insert, status check before a
// decision) takes the lock for the entity it mutates, so two concurrent
// callers can never both pass the check before either write lands.
package keylock

import "sync"

// KeyLock is a set of mutexes addressed by string key. Locks are created
// on first use and released from memory once no goroutine holds or waits
// on them.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyLock
func New() *KeyLock {
	return &KeyLock{
		locks: make(map[string]*keyEntry),
	}
}

// Lock acquires the mutex for key and returns the release function.
// Callers should defer the release immediately:
//
//	unlock := locks.Lock("collective:" + id)
//	defer unlock()
func (l *KeyLock) Lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyEntry{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}
