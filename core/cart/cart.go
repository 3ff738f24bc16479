package cart

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/atlantis/core"
)

// Observer is notified with a fresh snapshot after every mutation.
// Snapshots arrive in mutation order, possibly on the goroutine of a later mutation.
// Observers may read the Engine but must not mutate it.
type Observer func(Snapshot)

type Option func(*Engine)

// WithLogger sets the logger used to report load and save problems.
func WithLogger(logger core.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSharedStorage makes the engine reload the stored cart before every mutation
// and on Reload, for storages written by more than one process.
func WithSharedStorage() Option {
	return func(e *Engine) { e.shared = true }
}

// WithObserver subscribes obs before the initial load.
func WithObserver(obs Observer) Option {
	return func(e *Engine) { e.Subscribe(obs) }
}

// Engine holds the authoritative cart state of a single owner. It is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	lines  []Line
	store  Store
	shared bool

	logger core.Logger

	// snapshots waiting for delivery, in mutation order; guarded by pendingMu
	pendingMu sync.Mutex
	pending   []Snapshot
	draining  bool

	obsMu     sync.RWMutex
	obsSeq    int
	observers []subscription
}

type subscription struct {
	id  int
	obs Observer
}

// New builds an Engine and restores its state from store.
// Any load failure results in an empty cart.
func New(ctx context.Context, store Store, opts ...Option) *Engine {
	e := &Engine{store: store}
	for _, opt := range opts {
		opt(e)
	}

	lines, err := store.Load(ctx)
	if err != nil {
		e.warn("cart: load failed, starting empty", err)
		lines = nil
	}
	e.lines = lines
	return e
}

// AddItem increments the quantity of an existing line or appends a new one.
// The name and prices of an existing line are left untouched.
func (e *Engine) AddItem(ctx context.Context, c Candidate) error {
	return e.mutate(ctx, func(lines []Line) []Line {
		for i := range lines {
			if lines[i].ID == c.ID {
				lines[i].Quantity++
				return lines
			}
		}
		l := Line{ID: c.ID, Name: c.Name, Price: c.Price, Quantity: 1}
		if c.DiscountPrice != nil {
			dp := *c.DiscountPrice
			l.DiscountPrice = &dp
		}
		return append(lines, l)
	})
}

// RemoveItem deletes the line with the given id, if any.
func (e *Engine) RemoveItem(ctx context.Context, id string) error {
	return e.mutate(ctx, func(lines []Line) []Line {
		out := lines[:0]
		for _, l := range lines {
			if l.ID != id {
				out = append(out, l)
			}
		}
		return out
	})
}

// UpdateQuantity adds delta to the line's quantity; lines dropping to 0 or below are removed.
func (e *Engine) UpdateQuantity(ctx context.Context, id string, delta int) error {
	return e.mutate(ctx, func(lines []Line) []Line {
		out := lines[:0]
		for _, l := range lines {
			if l.ID == id {
				l.Quantity = addQuantity(l.Quantity, delta)
			}
			if l.Quantity > 0 {
				out = append(out, l)
			}
		}
		return out
	})
}

// Clear empties the cart and erases the persisted record.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	e.lines = nil
	err := e.store.Clear(ctx)
	e.enqueue(e.snapshot())
	e.mu.Unlock()

	e.drain()
	return errors.Wrap(err, "clearing cart")
}

func (e *Engine) mutate(ctx context.Context, fn func([]Line) []Line) error {
	e.mu.Lock()
	if e.shared {
		e.reload(ctx)
	}
	e.lines = fn(e.lines)
	if len(e.lines) == 0 {
		e.lines = nil
	}
	err := e.store.Save(ctx, cloneLines(e.lines))
	e.enqueue(e.snapshot())
	e.mu.Unlock()

	e.drain()
	if err != nil {
		e.warn("cart: save failed", err)
		return errors.Wrap(err, "saving cart")
	}
	return nil
}

// Reload replaces the in-memory state with the stored cart of a shared storage
// and notifies observers when it changed. It is a no-op for private storages.
func (e *Engine) Reload(ctx context.Context) {
	if !e.shared {
		return
	}
	e.mu.Lock()
	if e.reload(ctx) {
		e.enqueue(e.snapshot())
	}
	e.mu.Unlock()
	e.drain()
}

// reload must be called with mu held. A failed load keeps the current state.
func (e *Engine) reload(ctx context.Context) (changed bool) {
	lines, err := e.store.Load(ctx)
	if err != nil {
		e.warn("cart: reload failed, keeping current state", err)
		return false
	}
	if linesEqual(e.lines, lines) {
		return false
	}
	e.lines = lines
	return true
}

// Items returns a copy of the lines in insertion order.
func (e *Engine) Items() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneLines(e.lines)
}

func (e *Engine) TotalItems() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return totalItems(e.lines)
}

func (e *Engine) TotalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return totalPrice(e.lines)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() Snapshot {
	return Snapshot{
		Items:      cloneLines(e.lines),
		TotalItems: totalItems(e.lines),
		TotalPrice: totalPrice(e.lines),
	}
}

// Subscribe registers obs and returns a func that unregisters it.
func (e *Engine) Subscribe(obs Observer) (unsubscribe func()) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()

	e.obsSeq++
	id := e.obsSeq
	e.observers = append(e.observers, subscription{id: id, obs: obs})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.obsMu.Lock()
			defer e.obsMu.Unlock()
			for i, sub := range e.observers {
				if sub.id == id {
					e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
					return
				}
			}
		})
	}
}

// enqueue must be called with mu held so the queue follows mutation order.
func (e *Engine) enqueue(snap Snapshot) {
	e.pendingMu.Lock()
	e.pending = append(e.pending, snap)
	e.pendingMu.Unlock()
}

// drain delivers queued snapshots without holding mu. Only one goroutine drains
// at a time; the others leave their snapshots to it.
func (e *Engine) drain() {
	e.pendingMu.Lock()
	if e.draining {
		e.pendingMu.Unlock()
		return
	}
	e.draining = true
	for len(e.pending) > 0 {
		snap := e.pending[0]
		e.pending = e.pending[1:]
		e.pendingMu.Unlock()

		e.notify(snap)

		e.pendingMu.Lock()
	}
	e.pending = nil
	e.draining = false
	e.pendingMu.Unlock()
}

func (e *Engine) notify(snap Snapshot) {
	e.obsMu.RLock()
	subs := make([]subscription, len(e.observers))
	copy(subs, e.observers)
	e.obsMu.RUnlock()

	for _, sub := range subs {
		sub.obs(Snapshot{
			Items:      cloneLines(snap.Items),
			TotalItems: snap.TotalItems,
			TotalPrice: snap.TotalPrice,
		})
	}
}

func (e *Engine) warn(msg string, err error) {
	if e.logger != nil {
		e.logger.Warn(msg, err)
	}
}

// addQuantity returns q+delta, saturating at math.MaxInt.
func addQuantity(q, delta int) int {
	if delta > 0 && q > math.MaxInt-delta {
		return math.MaxInt
	}
	return q + delta
}
