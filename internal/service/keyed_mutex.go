package service

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes stock mutations per product inside the process.
// Postgres row locks already serialize writers across processes; this keeps
// the same single-writer-per-product guarantee on databases without
// SELECT ... FOR UPDATE.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key uuid.UUID) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
}

func (k *keyedMutex) Unlock(key uuid.UUID) {
	k.mu.Lock()
	m := k.locks[key]
	k.mu.Unlock()
	if m != nil {
		m.Unlock()
	}
}
