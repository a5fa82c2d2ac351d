package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/storage"
)

// StorageKey is the key the cart snapshot is persisted under.
const StorageKey = "cart"

var (
	// ErrCartHeld is returned by mutations while an order submit holds the cart.
	ErrCartHeld = errors.New("cart is locked while an order is being sent")
	// ErrHoldReleased is returned when a hold is used after Release.
	ErrHoldReleased = errors.New("cart hold already released")
	// ErrClearNotPersisted is returned by Release when the cart was emptied
	// in memory but storage still holds the old lines.
	ErrClearNotPersisted = errors.New("cleared cart could not be persisted")
)

// Snapshot is a read-only view of the cart at one version.
type Snapshot struct {
	Version     uint64            `json:"version"`
	Lines       []domain.CartLine `json:"lines"`
	Count       int               `json:"count"`
	Total       decimal.Decimal   `json:"total"`
	HasUnpriced bool              `json:"hasUnpriced"`
	Held        bool              `json:"locked"`
}

// Empty reports whether the cart has no lines.
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

// Store owns the cart of one application session. Every change goes through
// Reduce, is written to storage before it becomes visible, and is then
// published to subscribers.
type Store struct {
	storage storage.Storage
	logger  *zap.Logger

	mu      sync.Mutex
	state   State
	version uint64
	held    bool
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore builds a store and loads the persisted cart. Missing or corrupt
// data yields an empty cart.
func NewStore(ctx context.Context, st storage.Storage, log *zap.Logger) *Store {
	s := &Store{
		storage: st,
		logger:  logger.OrNop(log).Named("cart"),
		state:   State{},
		subs:    make(map[int]func(Snapshot)),
	}
	s.state = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) State {
	raw, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("load cart failed, starting empty", zap.Error(err))
		}
		return State{}
	}
	var lines []domain.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		s.logger.Warn("persisted cart is corrupt, starting empty", zap.Error(err))
		return State{}
	}
	out := make(State, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.ID == "" || line.Quantity <= 0 || seen[line.ID] {
			continue
		}
		seen[line.ID] = true
		out = append(out, line)
	}
	return out
}

// Snapshot returns the current cart.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	lines := make([]domain.CartLine, len(s.state))
	copy(lines, s.state)
	return Snapshot{
		Version:     s.version,
		Lines:       lines,
		Count:       s.state.Count(),
		Total:       s.state.Total(),
		HasUnpriced: s.state.HasUnpriced(),
		Held:        s.held,
	}
}

// Add puts qty of line into the cart; see Add.
func (s *Store) Add(ctx context.Context, line domain.CartLine, qty int) (Snapshot, error) {
	return s.Dispatch(ctx, Add{Line: line, Qty: qty})
}

func (s *Store) Increment(ctx context.Context, id string, step int) (Snapshot, error) {
	return s.Dispatch(ctx, Increment{ID: id, Step: step})
}

func (s *Store) Decrement(ctx context.Context, id string, step int) (Snapshot, error) {
	return s.Dispatch(ctx, Decrement{ID: id, Step: step})
}

func (s *Store) SetQuantity(ctx context.Context, id string, qty int) (Snapshot, error) {
	return s.Dispatch(ctx, SetQuantity{ID: id, Qty: qty})
}

func (s *Store) Remove(ctx context.Context, id string) (Snapshot, error) {
	return s.Dispatch(ctx, Remove{ID: id})
}

func (s *Store) Clear(ctx context.Context) (Snapshot, error) {
	return s.Dispatch(ctx, Clear{})
}

// Reconcile refreshes line data from the catalog.
func (s *Store) Reconcile(ctx context.Context, products []domain.Product) (Snapshot, error) {
	return s.Dispatch(ctx, Reconcile{Products: products})
}

// Dispatch applies a to the cart. No-op actions neither persist nor notify.
func (s *Store) Dispatch(ctx context.Context, a Action) (Snapshot, error) {
	s.mu.Lock()
	if s.held {
		s.mu.Unlock()
		return Snapshot{}, ErrCartHeld
	}
	snap, subs, err := s.commitLocked(ctx, a)
	s.mu.Unlock()
	if err != nil {
		return snap, err
	}
	notify(subs, snap)
	return snap, nil
}

// commitLocked persists the reduced state and only then makes it current.
func (s *Store) commitLocked(ctx context.Context, a Action) (Snapshot, []func(Snapshot), error) {
	next, changed := Reduce(s.state, a)
	if !changed {
		return s.snapshotLocked(), nil, nil
	}
	if err := s.persist(ctx, next); err != nil {
		s.logger.Error("persist cart failed", zap.Error(err))
		return s.snapshotLocked(), nil, fmt.Errorf("persist cart: %w", err)
	}
	s.state = next
	s.version++
	return s.snapshotLocked(), s.subscribersLocked(), nil
}

func (s *Store) persist(ctx context.Context, st State) error {
	lines := []domain.CartLine(st)
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return s.storage.Put(ctx, StorageKey, raw)
}

// Subscribe registers fn for every committed change. fn runs outside the
// store lock; use Snapshot.Version to discard out-of-order deliveries.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

// Hold freezes the cart for an order submit. Only one hold can exist at a
// time; while it does, every mutation fails with ErrCartHeld.
func (s *Store) Hold() (*Hold, error) {
	s.mu.Lock()
	if s.held {
		s.mu.Unlock()
		return nil, ErrCartHeld
	}
	s.held = true
	s.version++
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return &Hold{store: s, snap: snap}, nil
}

// Hold is the exclusive mutation lock taken by checkout.
type Hold struct {
	store    *Store
	snap     Snapshot
	released bool
}

// Snapshot is the cart as it was when the hold was taken.
func (h *Hold) Snapshot() Snapshot {
	return h.snap
}

// Release unfreezes the cart. With clear set the cart is emptied in the same
// critical section, so no mutation can land between the clear and the unlock.
// The empty cart always becomes current; when the write fails the persisted
// snapshot is deleted instead, and only if that fails too is an error
// returned.
func (h *Hold) Release(ctx context.Context, clear bool) (Snapshot, error) {
	s := h.store
	s.mu.Lock()
	if h.released {
		s.mu.Unlock()
		return Snapshot{}, ErrHoldReleased
	}
	h.released = true
	s.held = false
	s.version++

	var err error
	if clear {
		err = s.clearLocked(ctx)
	}
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return snap, err
}

// clearLocked empties the cart after an accepted order. The lines must not
// survive in memory or in storage, so a failed write falls back to deleting
// the key.
func (s *Store) clearLocked(ctx context.Context) error {
	if len(s.state) == 0 {
		return nil
	}
	s.state = State{}
	s.version++
	putErr := s.persist(ctx, s.state)
	if putErr == nil {
		return nil
	}
	s.logger.Warn("persist cleared cart failed, deleting snapshot", zap.Error(putErr))
	delErr := s.storage.Delete(ctx, StorageKey)
	if delErr == nil || errors.Is(delErr, domain.ErrNotFound) {
		return nil
	}
	s.logger.Error("delete cart snapshot failed", zap.Error(delErr))
	return fmt.Errorf("%w: %w", ErrClearNotPersisted, errors.Join(putErr, delErr))
}
