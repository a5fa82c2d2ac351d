package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/storage"
)

type stubOrders struct {
	mu    sync.Mutex
	calls []domain.OrderRequest
	err   error
	gate  chan struct{}
}

func (s *stubOrders) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: "o-1", Status: domain.OrderPending}, nil
}

func (s *stubOrders) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newCart(t *testing.T) *cart.Store {
	t.Helper()
	ctx := context.Background()
	s := cart.NewStore(ctx, storage.NewMemory(), nil)
	_, err := s.Add(ctx, domain.CartLine{ID: "p1::base", Name: "Crate", Price: domain.Priced(decimal.RequireFromString("9.99"))}, 2)
	require.NoError(t, err)
	_, err = s.Add(ctx, domain.CartLine{ID: "p2::base", Name: "Custom rack", Price: domain.QuoteRequired()}, 1)
	require.NoError(t, err)
	return s
}

func TestSubmitEndToEnd(t *testing.T) {
	store := newCart(t)
	orders := &stubOrders{}
	flow := NewFlow(store, orders, Options{RevertDelay: 20 * time.Millisecond})

	var reverted atomic.Int32
	flow.OnRevert(func() { reverted.Add(1) })

	snap := store.Snapshot()
	assert.Equal(t, 3, snap.Count)
	assert.True(t, snap.HasUnpriced)

	_, err := flow.SetForm(ContactForm{Name: "Ana Lima", Email: "ana@example.com", Phone: "555 123 4567"})
	require.NoError(t, err)

	order, err := flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)

	require.Equal(t, 1, orders.count())
	raw, err := json.Marshal(orders.calls[0])
	require.NoError(t, err)
	var body struct {
		Items []map[string]any `json:"items"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, 9.99, body.Items[0]["unitPrice"])
	assert.NotContains(t, body.Items[1], "unitPrice")

	assert.True(t, store.Snapshot().Empty())
	assert.False(t, store.Snapshot().Held)
	st := flow.State()
	assert.Equal(t, StatusSent, st.Status)
	assert.Equal(t, ContactForm{}, st.Form)
	assert.Equal(t, "o-1", st.LastOrderID)

	assert.Eventually(t, func() bool { return flow.Status() == StatusIdle }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return reverted.Load() == 1 }, time.Second, 5*time.Millisecond)
}

// flakyStorage starts failing writes and deletes once armed.
type flakyStorage struct {
	storage.Storage
	broken atomic.Bool
}

func (f *flakyStorage) Put(ctx context.Context, key string, value []byte) error {
	if f.broken.Load() {
		return errors.New("storage unavailable")
	}
	return f.Storage.Put(ctx, key, value)
}

func (f *flakyStorage) Delete(ctx context.Context, key string) error {
	if f.broken.Load() {
		return errors.New("storage unavailable")
	}
	return f.Storage.Delete(ctx, key)
}

type breakingOrders struct {
	stubOrders
	st *flakyStorage
}

func (b *breakingOrders) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	order, err := b.stubOrders.CreateOrder(ctx, req)
	b.st.broken.Store(true)
	return order, err
}

func TestSubmitClearsCartWhenStorageFailsAfterOrder(t *testing.T) {
	ctx := context.Background()
	st := &flakyStorage{Storage: storage.NewMemory()}
	store := cart.NewStore(ctx, st, nil)
	_, err := store.Add(ctx, domain.CartLine{ID: "p1::base", Name: "Crate", Price: domain.Priced(decimal.RequireFromString("9.99"))}, 2)
	require.NoError(t, err)

	orders := &breakingOrders{st: st}
	flow := NewFlow(store, orders, Options{RevertDelay: time.Hour})
	defer flow.Close()

	form := ContactForm{Name: "Ana Lima", Email: "ana@example.com"}
	_, err = flow.SetForm(form)
	require.NoError(t, err)
	_, err = flow.Submit(ctx)
	require.NoError(t, err)

	state := flow.State()
	assert.Equal(t, StatusSent, state.Status)
	assert.Equal(t, ClearFailedNotice, state.Notice)
	assert.True(t, store.Snapshot().Empty())

	flow.revert()
	_, err = flow.SetForm(form)
	require.NoError(t, err)
	_, err = flow.Submit(ctx)
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, CartField)
	assert.Equal(t, 1, orders.count())
}

func TestDoubleSubmitSendsOnce(t *testing.T) {
	store := newCart(t)
	orders := &stubOrders{gate: make(chan struct{})}
	flow := NewFlow(store, orders, Options{})
	_, err := flow.SetForm(validForm())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := flow.Submit(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return orders.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StatusSending, flow.Status())

	_, err = flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	_, err = store.Increment(context.Background(), "p1::base", 1)
	assert.ErrorIs(t, err, cart.ErrCartHeld)
	_, err = flow.SetForm(ContactForm{Name: "Changed"})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(orders.gate)
	require.NoError(t, <-done)
	assert.Equal(t, 1, orders.count())
	flow.Close()
}

func TestSubmitFailureKeepsCartAndForm(t *testing.T) {
	store := newCart(t)
	before := store.Snapshot()
	orders := &stubOrders{err: errors.New("connection refused")}
	flow := NewFlow(store, orders, Options{})
	form := validForm()
	_, err := flow.SetForm(form)
	require.NoError(t, err)

	_, err = flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitFailed)

	after := store.Snapshot()
	assert.Equal(t, before.Lines, after.Lines)
	assert.False(t, after.Held)

	st := flow.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, form, st.Form)
	assert.Equal(t, FailureNotice, st.Notice)

	flow.DismissNotice()
	assert.Empty(t, flow.Notice())

	_, err = store.Increment(context.Background(), "p1::base", 1)
	assert.NoError(t, err)
}

func TestSubmitTimeoutRevertsToIdle(t *testing.T) {
	store := newCart(t)
	orders := &stubOrders{gate: make(chan struct{})}
	flow := NewFlow(store, orders, Options{SubmitTimeout: 20 * time.Millisecond})
	_, err := flow.SetForm(validForm())
	require.NoError(t, err)

	_, err = flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StatusIdle, flow.Status())
	assert.Equal(t, 3, store.Snapshot().Count)
}

func TestSubmitInvalidFormDoesNotSend(t *testing.T) {
	store := newCart(t)
	orders := &stubOrders{}
	flow := NewFlow(store, orders, Options{})
	_, err := flow.SetForm(ContactForm{Name: "Ana", Email: "nope", Phone: "123"})
	require.NoError(t, err)

	_, err = flow.Submit(context.Background())
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "phone")
	assert.Equal(t, 0, orders.count())
	assert.Equal(t, StatusIdle, flow.Status())
	assert.Equal(t, fe, flow.State().Errors)
}

func TestSubmitEmptyCart(t *testing.T) {
	store := cart.NewStore(context.Background(), storage.NewMemory(), nil)
	orders := &stubOrders{}
	flow := NewFlow(store, orders, Options{})
	_, err := flow.SetForm(validForm())
	require.NoError(t, err)

	_, err = flow.Submit(context.Background())
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, FieldErrors{CartField: "Your cart is empty"}, fe)
	assert.Equal(t, 0, orders.count())
	assert.Equal(t, StatusIdle, flow.Status())
}

func TestSentBlocksResubmitUntilRevert(t *testing.T) {
	store := newCart(t)
	orders := &stubOrders{}
	flow := NewFlow(store, orders, Options{RevertDelay: time.Hour})
	_, err := flow.SetForm(validForm())
	require.NoError(t, err)
	_, err = flow.Submit(context.Background())
	require.NoError(t, err)

	_, err = flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	flow.Close()
	assert.Equal(t, StatusIdle, flow.Status())
}

func TestStatusMarshalsAsText(t *testing.T) {
	raw, err := json.Marshal(State{Status: StatusSending})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"sending"`)
}
