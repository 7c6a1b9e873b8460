package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a concurrency-safe in-memory store used by tests and by
// DB-less development runs. A per-id mutex table stands in for the row lock:
// units of work touching the same wallet serialize, different wallets do not
// contend.
type MemoryStore struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]Wallet
	locks   map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets: make(map[uuid.UUID]Wallet),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// Seed installs a wallet row directly, bypassing the engine. Test helper.
func (s *MemoryStore) Seed(w Wallet) {
	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = now
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets[w.ID] = w
}

// Begin opens a unit of work. Writes stage in the transaction and only reach
// the shared map on Commit.
func (s *MemoryStore) Begin(_ context.Context) (MutationTx, error) {
	return &memoryTx{
		store:   s,
		held:    make(map[uuid.UUID]*sync.Mutex),
		pending: make(map[uuid.UUID]Wallet),
	}, nil
}

// Get returns the committed state for id without locking.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *MemoryStore) keyLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

type memoryTx struct {
	store   *MemoryStore
	held    map[uuid.UUID]*sync.Mutex
	pending map[uuid.UUID]Wallet
	done    bool
}

func (t *memoryTx) Lock(_ context.Context, id uuid.UUID) (Wallet, bool, error) {
	if t.done {
		return Wallet{}, false, &StoreError{Op: "lock", Err: errFinished}
	}
	if _, ok := t.held[id]; !ok {
		m := t.store.keyLock(id)
		m.Lock()
		t.held[id] = m
	}
	if staged, ok := t.pending[id]; ok {
		return staged, true, nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	w, ok := t.store.wallets[id]
	return w, ok, nil
}

func (t *memoryTx) Upsert(_ context.Context, w Wallet) (Wallet, error) {
	if t.done {
		return Wallet{}, &StoreError{Op: "upsert", Err: errFinished}
	}

	now := time.Now().UTC()
	current, exists := t.pending[w.ID]
	if !exists {
		t.store.mu.Lock()
		current, exists = t.store.wallets[w.ID]
		t.store.mu.Unlock()
	}

	if exists {
		if w.Version != current.Version {
			return Wallet{}, ErrConcurrentModification
		}
		w.Version = current.Version + 1
		w.CreatedAt = current.CreatedAt
	} else {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	t.pending[w.ID] = w
	return w, nil
}

func (t *memoryTx) Commit(_ context.Context) error {
	if t.done {
		return &StoreError{Op: "commit", Err: errFinished}
	}
	t.store.mu.Lock()
	for id, w := range t.pending {
		t.store.wallets[id] = w
	}
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *memoryTx) finish() {
	for _, m := range t.held {
		m.Unlock()
	}
	t.held = nil
	t.pending = nil
	t.done = true
}

var errFinished = errors.New("unit of work already finished")
