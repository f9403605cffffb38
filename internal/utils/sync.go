package utils

import (
	"sync"
)

// OptionalMutex is a mutex that can be switched off for consumers that synchronize externally
type OptionalMutex struct {
	Mutex    sync.Mutex
	UseMutex bool
}

func (m *OptionalMutex) Lock() {
	if m.UseMutex {
		m.Mutex.Lock()
	}
}

func (m *OptionalMutex) Unlock() {
	if m.UseMutex {
		m.Mutex.Unlock()
	}
}

// WithLock runs fn while holding the mutex
func (m *OptionalMutex) WithLock(fn func() error) error {
	m.Lock()
	defer m.Unlock()

	return fn()
}
