package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/logger"
)

const (
	DefaultRevertDelay   = 1500 * time.Millisecond
	DefaultSubmitTimeout = 30 * time.Second

	// FailureNotice is shown after any failed submit.
	FailureNotice = "We couldn't send your request. Please check your connection and try again."
	// ClearFailedNotice is shown when the order was accepted but the saved
	// cart could not be emptied.
	ClearFailedNotice = "Your request was sent, but we couldn't update your saved cart. Please check it before ordering again."
	emptyCartMsg      = "Your cart is empty"
)

var (
	// ErrSubmitInFlight is returned when a submit is attempted while another
	// one is sending or the sent confirmation is still showing.
	ErrSubmitInFlight = errors.New("an order is already being submitted")
	// ErrSubmitFailed wraps backend or transport failures of a submit.
	ErrSubmitFailed = errors.New("order submit failed")
)

// Status is the submission lifecycle state.
type Status int

const (
	StatusIdle Status = iota
	StatusSending
	StatusSent
)

func (s Status) String() string {
	switch s {
	case StatusSending:
		return "sending"
	case StatusSent:
		return "sent"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OrderCreator posts an order to the backend.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
}

type Options struct {
	RevertDelay   time.Duration
	SubmitTimeout time.Duration
	Validator     *Validator
	Logger        *zap.Logger
}

// State is what the checkout view renders.
type State struct {
	Status      Status      `json:"status"`
	Form        ContactForm `json:"form"`
	Errors      FieldErrors `json:"errors,omitempty"`
	Notice      string      `json:"notice,omitempty"`
	LastOrderID string      `json:"lastOrderId,omitempty"`
}

// Flow runs the checkout of one session: it validates the contact form,
// freezes the cart while the order is in flight and clears it only once the
// backend has accepted the order.
type Flow struct {
	cart          *cart.Store
	orders        OrderCreator
	validator     *Validator
	logger        *zap.Logger
	revertDelay   time.Duration
	submitTimeout time.Duration

	mu          sync.Mutex
	status      Status
	form        ContactForm
	errors      FieldErrors
	notice      string
	lastOrderID string
	timer       *time.Timer
	onRevert    []func()
	closed      bool
}

func NewFlow(store *cart.Store, orders OrderCreator, opts Options) *Flow {
	if opts.RevertDelay <= 0 {
		opts.RevertDelay = DefaultRevertDelay
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	if opts.Validator == nil {
		opts.Validator = NewValidator()
	}
	return &Flow{
		cart:          store,
		orders:        orders,
		validator:     opts.Validator,
		logger:        logger.OrNop(opts.Logger).Named("checkout"),
		revertDelay:   opts.RevertDelay,
		submitTimeout: opts.SubmitTimeout,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Flow) stateLocked() State {
	var errs FieldErrors
	if len(f.errors) > 0 {
		errs = make(FieldErrors, len(f.errors))
		for k, v := range f.errors {
			errs[k] = v
		}
	}
	return State{
		Status:      f.status,
		Form:        f.form,
		Errors:      errs,
		Notice:      f.notice,
		LastOrderID: f.lastOrderID,
	}
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// SetForm replaces the form contents. The phone is stored digits-only.
// Editing is refused while an order is sending.
func (f *Flow) SetForm(form ContactForm) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == StatusSending {
		return f.stateLocked(), ErrSubmitInFlight
	}
	form.Phone = DigitsOnly(form.Phone)
	f.form = form
	f.errors = nil
	return f.stateLocked(), nil
}

// Notice returns the last user-facing failure message, if any.
func (f *Flow) Notice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice
}

func (f *Flow) DismissNotice() {
	f.mu.Lock()
	f.notice = ""
	f.mu.Unlock()
}

// OnRevert registers fn to run each time the sent state reverts to idle.
func (f *Flow) OnRevert(fn func()) {
	f.mu.Lock()
	f.onRevert = append(f.onRevert, fn)
	f.mu.Unlock()
}

// Submit validates the form and cart, posts the order and drives the status
// through sending to sent or back to idle. A FieldErrors error means nothing
// was sent and the status did not change.
func (f *Flow) Submit(ctx context.Context) (*domain.Order, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: checkout closed", ErrSubmitFailed)
	}
	if f.status != StatusIdle {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	form := f.form
	errs := f.validator.Validate(form)
	if len(errs) == 0 && f.cart.Snapshot().Empty() {
		errs = FieldErrors{CartField: emptyCartMsg}
	}
	if len(errs) > 0 {
		f.errors = errs
		f.mu.Unlock()
		return nil, errs
	}
	f.status = StatusSending
	f.errors = nil
	f.notice = ""
	f.mu.Unlock()

	// Hold notifies cart subscribers, so it runs outside f.mu.
	hold, err := f.cart.Hold()
	if err != nil {
		f.setStatus(StatusIdle)
		return nil, ErrSubmitInFlight
	}
	snap := hold.Snapshot()
	if snap.Empty() {
		if _, err := hold.Release(context.WithoutCancel(ctx), false); err != nil {
			f.logger.Warn("release cart hold", zap.Error(err))
		}
		f.mu.Lock()
		f.status = StatusIdle
		f.errors = FieldErrors{CartField: emptyCartMsg}
		f.mu.Unlock()
		return nil, FieldErrors{CartField: emptyCartMsg}
	}
	req := BuildOrder(form, snap.Lines)

	f.logger.Info("submitting order",
		zap.Int("items", len(req.Items)),
		zap.Bool("has_unpriced", snap.HasUnpriced),
	)

	sendCtx, cancel := context.WithTimeout(ctx, f.submitTimeout)
	order, err := f.orders.CreateOrder(sendCtx, req)
	cancel()

	if err != nil {
		if _, rerr := hold.Release(context.WithoutCancel(ctx), false); rerr != nil {
			f.logger.Warn("release cart hold", zap.Error(rerr))
		}
		f.logger.Error("submit order failed", zap.Error(err))
		f.mu.Lock()
		f.status = StatusIdle
		f.notice = FailureNotice
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	_, clearErr := hold.Release(context.WithoutCancel(ctx), true)
	if clearErr != nil {
		f.logger.Error("clear cart after order", zap.Error(clearErr))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if clearErr != nil {
		f.notice = ClearFailedNotice
	}
	f.form = ContactForm{}
	f.status = StatusSent
	if order != nil {
		f.lastOrderID = order.ID
	}
	f.logger.Info("order sent", zap.String("order_id", f.lastOrderID))
	if f.closed {
		f.status = StatusIdle
		return order, nil
	}
	f.stopTimerLocked()
	f.timer = time.AfterFunc(f.revertDelay, f.revert)
	return order, nil
}

func (f *Flow) setStatus(st Status) {
	f.mu.Lock()
	f.status = st
	f.mu.Unlock()
}

func (f *Flow) revert() {
	f.mu.Lock()
	if f.status != StatusSent {
		f.mu.Unlock()
		return
	}
	f.status = StatusIdle
	f.timer = nil
	hooks := make([]func(), len(f.onRevert))
	copy(hooks, f.onRevert)
	f.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (f *Flow) stopTimerLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// Close stops the revert timer and resets the form. A submit still sending
// finishes but schedules no revert.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.stopTimerLocked()
	f.form = ContactForm{}
	f.errors = nil
	if f.status == StatusSent {
		f.status = StatusIdle
	}
}
