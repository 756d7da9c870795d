package store

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/broadcast"
	"github.com/dmitrymomot/billingkit/pkg/logger"
)

// Slot names one of the store's values.
type Slot string

const (
	SlotProducts      Slot = "products"
	SlotPrices        Slot = "prices"
	SlotSubscriptions Slot = "subscriptions"
	SlotSubscription  Slot = "subscription"
)

// Change announces that a slot was replaced.
type Change struct {
	Slot Slot
}

// Snapshot is a copy of every slot at one point in time.
type Snapshot struct {
	Products      []billing.ProductWithPrices `json:"products" yaml:"products"`
	Prices        []billing.Price             `json:"prices" yaml:"prices"`
	Subscriptions []billing.Subscription      `json:"subscriptions" yaml:"subscriptions"`
	Subscription  *billing.Subscription       `json:"subscription" yaml:"subscription"`
}

// Store is a shared container for the billing data currently shown to the
// user. Setters replace a slot wholesale; getters return copies.
// The store does not validate or reconcile values.
type Store struct {
	mu            sync.RWMutex
	products      []billing.ProductWithPrices
	prices        []billing.Price
	subscriptions []billing.Subscription
	subscription  *billing.Subscription

	broadcaster broadcast.Broadcaster[Change]
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBroadcaster publishes a Change after every setter call.
func WithBroadcaster(b broadcast.Broadcaster[Change]) Option {
	return func(s *Store) {
		s.broadcaster = b
	}
}

// WithLogger sets the logger for notification failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("store"))
	return s
}

// Default returns the process-wide store, creating it on first use.
var Default = sync.OnceValue(func() *Store {
	return New()
})

func (s *Store) SetProducts(products []billing.ProductWithPrices) {
	s.mu.Lock()
	s.products = slices.Clone(products)
	s.mu.Unlock()
	s.notify(SlotProducts)
}

func (s *Store) SetPrices(prices []billing.Price) {
	s.mu.Lock()
	s.prices = slices.Clone(prices)
	s.mu.Unlock()
	s.notify(SlotPrices)
}

func (s *Store) SetSubscriptions(subscriptions []billing.Subscription) {
	s.mu.Lock()
	s.subscriptions = slices.Clone(subscriptions)
	s.mu.Unlock()
	s.notify(SlotSubscriptions)
}

// SetSubscription replaces the currently relevant subscription. Nil clears it.
func (s *Store) SetSubscription(subscription *billing.Subscription) {
	s.mu.Lock()
	s.subscription = cloneSubscription(subscription)
	s.mu.Unlock()
	s.notify(SlotSubscription)
}

func (s *Store) Products() []billing.ProductWithPrices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

func (s *Store) Prices() []billing.Price {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.prices)
}

func (s *Store) Subscriptions() []billing.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.subscriptions)
}

func (s *Store) Subscription() *billing.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSubscription(s.subscription)
}

// Snapshot copies every slot under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Products:      slices.Clone(s.products),
		Prices:        slices.Clone(s.prices),
		Subscriptions: slices.Clone(s.subscriptions),
		Subscription:  cloneSubscription(s.subscription),
	}
}

// Subscribe returns a subscriber for change notifications. It fails with
// ErrNotificationsDisabled unless the store has a broadcaster.
func (s *Store) Subscribe(ctx context.Context) (broadcast.Subscriber[Change], error) {
	if s.broadcaster == nil {
		return nil, ErrNotificationsDisabled
	}
	return s.broadcaster.Subscribe(ctx), nil
}

// Close stops change notifications.
func (s *Store) Close() error {
	if s.broadcaster == nil {
		return nil
	}
	return s.broadcaster.Close()
}

func (s *Store) notify(slot Slot) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(context.Background(), Change{Slot: slot}); err != nil {
		s.logger.Warn("store change not published", slog.String("slot", string(slot)), logger.Error(err))
	}
}

func cloneSubscription(sub *billing.Subscription) *billing.Subscription {
	if sub == nil {
		return nil
	}
	c := *sub
	return &c
}
