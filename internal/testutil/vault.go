package testutil

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// Clock is a settable time source for expiry tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock frozen at now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MemoryRecordRepository is an in-memory record store with the same owner
// scoping, ordering and version checks as the SQL repositories. It also acts as
// a TxManager: a failed transaction undoes only its own writes, and LockOwner
// holds a per-owner lock until the transaction ends.
type MemoryRecordRepository struct {
	mu      sync.Mutex
	records map[uuid.UUID]vaultDomain.Record
	owners  map[uuid.UUID]chan struct{}
}

type memoryTxKey struct{}

type memoryTx struct {
	owners []uuid.UUID
	undo   []func()
}

// NewMemoryRecordRepository creates an empty store.
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{
		records: make(map[uuid.UUID]vaultDomain.Record),
		owners:  make(map[uuid.UUID]chan struct{}),
	}
}

// WithTx runs fn in a transaction. A nested call joins the outer transaction.
func (r *MemoryRecordRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		return fn(ctx)
	}

	tx := &memoryTx{}
	err := fn(context.WithValue(ctx, memoryTxKey{}, tx))
	if err != nil {
		r.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		r.mu.Unlock()
	}
	for _, ownerID := range tx.owners {
		<-r.owners[ownerID]
	}
	return err
}

// LockOwner blocks until no other transaction holds ownerID. Outside a
// transaction the lock is released at once, like an autocommit statement.
func (r *MemoryRecordRepository) LockOwner(ctx context.Context, ownerID uuid.UUID) error {
	tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx)
	if !ok || slices.Contains(tx.owners, ownerID) {
		return nil
	}

	r.mu.Lock()
	sem, ok := r.owners[ownerID]
	if !ok {
		sem = make(chan struct{}, 1)
		r.owners[ownerID] = sem
	}
	r.mu.Unlock()

	select {
	case sem <- struct{}{}:
		tx.owners = append(tx.owners, ownerID)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// onRollback registers undo for the transaction in ctx. r.mu must be held.
func (r *MemoryRecordRepository) onRollback(ctx context.Context, undo func()) {
	if tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok {
		tx.undo = append(tx.undo, undo)
	}
}

// Stored returns a copy of the stored record regardless of owner.
func (r *MemoryRecordRepository) Stored(id uuid.UUID) (vaultDomain.Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	return record, ok
}

// Tamper rewrites a stored record in place, bypassing version checks.
func (r *MemoryRecordRepository) Tamper(id uuid.UUID, fn func(record *vaultDomain.Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.records[id]
	fn(&record)
	r.records[id] = record
}

func (r *MemoryRecordRepository) Create(ctx context.Context, record *vaultDomain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; ok {
		return vaultDomain.ErrRecordConflict
	}
	r.records[record.ID] = *record
	id := record.ID
	r.onRollback(ctx, func() { delete(r.records, id) })
	return nil
}

func (r *MemoryRecordRepository) GetByID(_ context.Context, ownerID, id uuid.UUID) (*vaultDomain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		return nil, vaultDomain.ErrRecordNotFound
	}
	return &record, nil
}

func (r *MemoryRecordRepository) GetByIDForUpdate(
	ctx context.Context,
	ownerID, id uuid.UUID,
) (*vaultDomain.Record, error) {
	return r.GetByID(ctx, ownerID, id)
}

func (r *MemoryRecordRepository) GetLatest(_ context.Context, ownerID uuid.UUID) (*vaultDomain.Record, error) {
	records := r.owned(ownerID, vaultDomain.ListFilter{}, byUpdatedDesc)
	if len(records) == 0 {
		return nil, vaultDomain.ErrRecordNotFound
	}
	return records[0], nil
}

func (r *MemoryRecordRepository) List(
	_ context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) ([]*vaultDomain.Record, error) {
	records := r.owned(ownerID, filter, byUpdatedDesc)
	if filter.Offset >= len(records) {
		return []*vaultDomain.Record{}, nil
	}
	end := min(filter.Offset+filter.Limit, len(records))
	return records[filter.Offset:end], nil
}

func (r *MemoryRecordRepository) Count(
	_ context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) (int, error) {
	return len(r.owned(ownerID, filter, byUpdatedDesc)), nil
}

func (r *MemoryRecordRepository) ListAll(_ context.Context, ownerID uuid.UUID) ([]*vaultDomain.Record, error) {
	return r.owned(ownerID, vaultDomain.ListFilter{}, byCreatedAsc), nil
}

func (r *MemoryRecordRepository) ListAllForUpdate(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*vaultDomain.Record, error) {
	return r.ListAll(ctx, ownerID)
}

func (r *MemoryRecordRepository) Update(ctx context.Context, record *vaultDomain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[record.ID]
	if !ok || stored.OwnerID != record.OwnerID || stored.Version != record.Version {
		return vaultDomain.ErrRecordConflict
	}
	record.Version++
	r.records[record.ID] = *record
	r.onRollback(ctx, func() { r.records[stored.ID] = stored })
	return nil
}

func (r *MemoryRecordRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.OwnerID != ownerID {
		return false, nil
	}
	delete(r.records, id)
	r.onRollback(ctx, func() { r.records[id] = record })
	return true, nil
}

func byUpdatedDesc(a, b *vaultDomain.Record) int {
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	return strings.Compare(b.ID.String(), a.ID.String())
}

func byCreatedAsc(a, b *vaultDomain.Record) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

func (r *MemoryRecordRepository) owned(
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
	order func(a, b *vaultDomain.Record) int,
) []*vaultDomain.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]*vaultDomain.Record, 0)
	for _, record := range r.records {
		if record.OwnerID != ownerID {
			continue
		}
		if filter.Category != "" && record.Category != filter.Category {
			continue
		}
		if filter.Favorite != nil && record.Favorite != *filter.Favorite {
			continue
		}
		records = append(records, &record)
	}
	slices.SortFunc(records, order)
	return records
}
