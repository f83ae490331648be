// Package engine keeps a storefront session's view of the cart consistent
// with the backend while shoppers add and remove units from either stock pool.
//
// All cart mutations go through the Engine. Only one mutation may be in
// flight at a time; a second one arriving meanwhile is rejected with ErrBusy.
// Every mutation is applied tentatively and then replaced by the snapshot the
// backend returns. When the backend refuses, the engine refetches the cart and
// renders that instead of its own guess.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
)

var (
	// ErrBusy is returned when another cart mutation has not resolved yet
	ErrBusy = errors.New("a cart update is already in progress")
	// ErrSignedOut is returned for mutations attempted without a session
	ErrSignedOut = errors.New("sign in to use the cart")
	// ErrExceedsStock is returned when neither pool alone nor a split can cover a request
	ErrExceedsStock = errors.New("requested quantity exceeds remaining stock")
	// ErrDecrementDisabled is returned when a cart line would only be partially reduced
	ErrDecrementDisabled = errors.New("decrease is not available here, remove the line instead")
	// ErrStaleConflict is returned when stock moved between a conflict and its resolution
	ErrStaleConflict = errors.New("stock changed, please review the quantity again")
	// ErrInvalidQuantity is returned for requests below one unit
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrDiscarded is returned when the session ended while a call was in flight
	ErrDiscarded = errors.New("response discarded, session has changed")
)

// Remote is the backend cart API. Each call either returns a complete
// authoritative snapshot or fails.
type Remote interface {
	FetchCart(ctx context.Context) (*cart.Snapshot, error)
	AddLine(ctx context.Context, productID uint, quantity int, pool inventory.Pool) (*cart.Snapshot, error)
	RemoveLine(ctx context.Context, lineID uint) (*cart.Snapshot, error)
}

// LineState is the state of a (product, pool) pair in the cart
type LineState int

const (
	Absent LineState = iota
	Present
)

func (s LineState) String() string {
	if s == Present {
		return "PRESENT"
	}
	return "ABSENT"
}

// Engine owns the session's cart snapshot
type Engine struct {
	log logrus.FieldLogger

	mu        sync.Mutex
	remote    Remote
	snapshot  *cart.Snapshot // last authoritative snapshot
	tentative *cart.Snapshot // snapshot with the in-flight change applied
	inflight  bool
	epoch     uint64
}

// New creates an engine. A nil remote starts it signed out.
func New(remote Remote, log logrus.FieldLogger) *Engine {
	return &Engine{
		log:      log,
		remote:   remote,
		snapshot: cart.Empty(),
	}
}

// Snapshot returns a copy of the cart as it should be rendered now
func (e *Engine) Snapshot() *cart.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view().Clone()
}

// Confirmed returns a copy of the last snapshot the backend confirmed
func (e *Engine) Confirmed() *cart.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot.Clone()
}

// Busy reports whether a mutation is in flight
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight
}

// SignedIn reports whether the engine has a backend to talk to
func (e *Engine) SignedIn() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remote != nil
}

// Total sums the line subtotals reported by the backend
func (e *Engine) Total() int64 {
	return e.Snapshot().Sum()
}

// State returns whether a line exists for the product and pool
func (e *Engine) State(productID uint, pool inventory.Pool) LineState {
	if _, ok := e.Snapshot().Find(productID, pool); ok {
		return Present
	}
	return Absent
}

// Refresh replaces the snapshot with the backend's cart. Signed out, the cart
// is emptied without a request. On failure the last snapshot is kept.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	if e.inflight {
		e.mu.Unlock()
		return ErrBusy
	}
	remote, epoch := e.remote, e.epoch
	if remote == nil {
		e.snapshot = cart.Empty()
		e.mu.Unlock()
		return nil
	}
	e.inflight = true
	e.mu.Unlock()

	snap, err := remote.FetchCart(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.epoch {
		return ErrDiscarded
	}
	e.inflight = false
	if err != nil {
		e.log.WithError(err).Warn("cart refresh failed, keeping last snapshot")
		return err
	}
	e.snapshot = snap
	return nil
}

// attach switches the engine to a new backend session
func (e *Engine) attach(remote Remote) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.epoch++
	e.remote = remote
	e.snapshot = cart.Empty()
	e.tentative = nil
	e.inflight = false
}

// view must be called with mu held
func (e *Engine) view() *cart.Snapshot {
	if e.tentative != nil {
		return e.tentative
	}
	return e.snapshot
}

type remoteCall func(ctx context.Context, r Remote) (*cart.Snapshot, error)

// mutate runs calls in order under the in-flight guard. check runs against
// the current snapshot once the guard is taken; an error from it aborts the
// mutation before any call is made. apply edits a copy of the current
// snapshot to show the change while the calls run. The first failing call
// stops the sequence and the cart is refetched.
func (e *Engine) mutate(ctx context.Context, check func(*cart.Snapshot) error, apply func(*cart.Snapshot), calls ...remoteCall) error {
	e.mu.Lock()
	if e.inflight {
		e.mu.Unlock()
		return ErrBusy
	}
	if e.remote == nil {
		e.mu.Unlock()
		return ErrSignedOut
	}
	if check != nil {
		if err := check(e.snapshot); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	remote, epoch := e.remote, e.epoch
	e.inflight = true
	if apply != nil {
		t := e.snapshot.Clone()
		apply(t)
		e.tentative = t
	}
	e.mu.Unlock()

	var (
		snap *cart.Snapshot
		err  error
	)
	for _, call := range calls {
		if snap, err = call(ctx, remote); err != nil {
			break
		}
	}

	if err != nil && ctx.Err() != nil {
		// abandoned by the caller; the next refresh picks up whatever landed
		e.finish(epoch, nil)
		return err
	}

	if err != nil {
		e.log.WithError(err).Warn("cart update rejected, reloading cart")
		fresh, ferr := remote.FetchCart(ctx)
		if ferr != nil {
			e.log.WithError(ferr).Error("cart reload failed, keeping last snapshot")
			fresh = nil
		}
		if !e.finish(epoch, fresh) {
			return ErrDiscarded
		}
		return err
	}

	if !e.finish(epoch, snap) {
		return ErrDiscarded
	}
	return nil
}

// finish clears the guard and installs snap when it is not nil. It reports
// false when the session changed while the call was in flight.
func (e *Engine) finish(epoch uint64, snap *cart.Snapshot) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.epoch {
		return false
	}
	e.inflight = false
	e.tentative = nil
	if snap != nil {
		e.snapshot = snap
	}
	return true
}
