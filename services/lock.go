package services

import "sync/atomic"

// ProcessLock guards a periodic task against overlapping with its own
// still-running previous invocation. The in-memory implementation is only
// correct for single-instance deployments; a multi-instance scheduler needs
// a distributed lease behind the same interface.
type ProcessLock interface {
	TryAcquire() bool
	Release()
	IsHeld() bool
}

// InMemoryLock is the default single-process ProcessLock.
type InMemoryLock struct {
	held atomic.Bool
}

func NewInMemoryLock() *InMemoryLock {
	return &InMemoryLock{}
}

func (l *InMemoryLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

func (l *InMemoryLock) Release() {
	l.held.Store(false)
}

func (l *InMemoryLock) IsHeld() bool {
	return l.held.Load()
}
