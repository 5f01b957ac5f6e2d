// Package store provides the in-memory rental.Store.
package store

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/warp/forklift-rental/rental"
)

// =============================================================================
// MEMORY STORE - Copy-on-write snapshots
// =============================================================================

// Memory publishes immutable snapshots. Readers load the current snapshot
// without locking; writers serialize on mu, build the next snapshot from
// freshly allocated slices and publish it in one step.
type Memory struct {
	mu      sync.Mutex
	current atomic.Pointer[rental.Snapshot]

	runsMu sync.RWMutex
	runs   []rental.OverdueRun
}

func NewMemory() *Memory {
	m := &Memory{}
	m.current.Store(&rental.Snapshot{})
	return m
}

// NewMemoryFrom seeds the store with s. The caller must not modify s afterwards.
func NewMemoryFrom(s *rental.Snapshot) *Memory {
	m := &Memory{}
	seed := *s
	m.current.Store(&seed)
	return m
}

func (m *Memory) Snapshot(_ context.Context) (*rental.Snapshot, error) {
	s := *m.current.Load()
	return &s, nil
}

// WithTx runs fn against a private working snapshot and publishes it only
// when fn succeeds.
func (m *Memory) WithTx(ctx context.Context, fn func(rental.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := *m.current.Load()
	tx := &memoryTx{snap: &working}
	if err := fn(tx); err != nil {
		return err
	}
	m.current.Store(tx.snap)
	return nil
}

func (m *Memory) PutCompany(ctx context.Context, c rental.RentalCompany) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.PutCompany(ctx, c) })
}

func (m *Memory) DeleteCompany(ctx context.Context, id string) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.DeleteCompany(ctx, id) })
}

func (m *Memory) PutForklift(ctx context.Context, f rental.Forklift) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.PutForklift(ctx, f) })
}

func (m *Memory) PutLessee(ctx context.Context, l rental.Lessee) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.PutLessee(ctx, l) })
}

func (m *Memory) PutContract(ctx context.Context, c rental.Contract) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.PutContract(ctx, c) })
}

func (m *Memory) PutSettlementItem(ctx context.Context, item rental.SettlementItem) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.PutSettlementItem(ctx, item) })
}

func (m *Memory) PutOverdueRecord(ctx context.Context, o rental.OverdueRecord) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.PutOverdueRecord(ctx, o) })
}

func (m *Memory) PutUser(ctx context.Context, u rental.User) error {
	return m.WithTx(ctx, func(tx rental.Store) error { return tx.PutUser(ctx, u) })
}

// =============================================================================
// TRANSACTIONAL VIEW
// =============================================================================

// memoryTx mutates only its working snapshot. Every write replaces the
// affected slice, so snapshots handed out earlier keep their contents.
type memoryTx struct {
	snap *rental.Snapshot
}

func (tx *memoryTx) Snapshot(_ context.Context) (*rental.Snapshot, error) {
	s := *tx.snap
	return &s, nil
}

func (tx *memoryTx) WithTx(_ context.Context, fn func(rental.Store) error) error {
	return fn(tx)
}

func (tx *memoryTx) PutCompany(_ context.Context, c rental.RentalCompany) error {
	tx.snap.Companies = upsert(tx.snap.Companies, c, func(c rental.RentalCompany) string { return c.ID })
	return nil
}

func (tx *memoryTx) DeleteCompany(_ context.Context, id string) error {
	if _, ok := tx.snap.Company(id); !ok {
		return &rental.NotFoundError{Entity: "rental company", ID: id}
	}
	for _, f := range tx.snap.Forklifts {
		if f.RentalCompanyID == id {
			return &rental.ConflictError{Entity: "rental company", Key: id, Reason: "forklifts still reference it"}
		}
	}
	for _, c := range tx.snap.Contracts {
		if c.RentalCompanyID == id {
			return &rental.ConflictError{Entity: "rental company", Key: id, Reason: "contracts still reference it"}
		}
	}
	out := make([]rental.RentalCompany, 0, len(tx.snap.Companies))
	for _, c := range tx.snap.Companies {
		if c.ID != id {
			out = append(out, c)
		}
	}
	tx.snap.Companies = out
	return nil
}

func (tx *memoryTx) PutForklift(_ context.Context, f rental.Forklift) error {
	for _, other := range tx.snap.Forklifts {
		if other.ID != f.ID && strings.EqualFold(other.ChassisNumber, f.ChassisNumber) {
			return &rental.ConflictError{Entity: "forklift", Key: f.ChassisNumber, Reason: "chassis number already registered"}
		}
	}
	tx.snap.Forklifts = upsert(tx.snap.Forklifts, f.Clone(), func(f rental.Forklift) string { return f.ID })
	return nil
}

func (tx *memoryTx) PutLessee(_ context.Context, l rental.Lessee) error {
	tx.snap.Lessees = upsert(tx.snap.Lessees, l.Clone(), func(l rental.Lessee) string { return l.ID })
	return nil
}

func (tx *memoryTx) PutContract(_ context.Context, c rental.Contract) error {
	tx.snap.Contracts = upsert(tx.snap.Contracts, c.Clone(), func(c rental.Contract) string { return c.ID })
	return nil
}

func (tx *memoryTx) PutSettlementItem(_ context.Context, item rental.SettlementItem) error {
	tx.snap.SettlementItems = upsert(tx.snap.SettlementItems, item, func(i rental.SettlementItem) string { return i.ID })
	return nil
}

func (tx *memoryTx) PutOverdueRecord(_ context.Context, o rental.OverdueRecord) error {
	tx.snap.OverdueRecords = upsert(tx.snap.OverdueRecords, o.Clone(), func(o rental.OverdueRecord) string { return o.ID })
	return nil
}

func (tx *memoryTx) PutUser(_ context.Context, u rental.User) error {
	for _, other := range tx.snap.Users {
		if other.ID != u.ID && other.Email == u.Email {
			return &rental.ConflictError{Entity: "user", Key: u.Email, Reason: "email already registered"}
		}
	}
	tx.snap.Users = upsert(tx.snap.Users, u, func(u rental.User) string { return u.ID })
	return nil
}

// upsert returns a new slice with item replacing the element of the same id,
// or appended when the id is new.
func upsert[T any](items []T, item T, id func(T) string) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	key := id(item)
	for i := range out {
		if id(out[i]) == key {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

// =============================================================================
// RUN LOG
// =============================================================================

// SaveOverdueRun inserts r or replaces the run with the same id.
func (m *Memory) SaveOverdueRun(_ context.Context, r rental.OverdueRun) error {
	m.runsMu.Lock()
	defer m.runsMu.Unlock()
	m.runs = upsert(m.runs, r, func(r rental.OverdueRun) string { return r.ID })
	return nil
}

// ListOverdueRuns returns up to limit runs, newest first. limit <= 0 means all.
func (m *Memory) ListOverdueRuns(_ context.Context, limit int) ([]rental.OverdueRun, error) {
	m.runsMu.RLock()
	defer m.runsMu.RUnlock()

	out := make([]rental.OverdueRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		out = append(out, m.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
