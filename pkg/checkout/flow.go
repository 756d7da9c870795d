package checkout

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/billingkit/pkg/billing"
	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/query"
)

// Config holds checkout settings loaded from the environment.
type Config struct {
	SignupPath string `env:"CHECKOUT_SIGNUP_PATH" envDefault:"/signin/signup"`
}

// User is the signed-in user starting a checkout. A nil *User means nobody
// is signed in.
type User struct {
	ID string
}

// Navigator moves the user to the flow's destination.
type Navigator interface {
	// Navigate changes the in-app route.
	Navigate(ctx context.Context, path string)
	// Redirect leaves the application for an external URL.
	Redirect(ctx context.Context, url string)
}

// SessionCreator creates a checkout session with the billing API.
// *query.Mutation[billing.CheckoutRequest, billing.CheckoutSession] implements it.
type SessionCreator interface {
	Mutate(ctx context.Context, req billing.CheckoutRequest) query.MutationResult[billing.CheckoutSession]
}

// Outcome describes where a checkout ended.
type Outcome struct {
	State       State
	Destination string
	// External is true when Destination is a payment page outside the app.
	External bool
	// Err is the session call failure behind a StateRedirectError, if any.
	Err error
}

// Flow runs checkouts. One Flow serves every price on a page; each price can
// have at most one checkout in progress.
type Flow struct {
	sessions   SessionCreator
	nav        Navigator
	signupPath string
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// Option configures a Flow.
type Option func(*Flow)

// WithSignupPath sets where unauthenticated users are sent.
func WithSignupPath(path string) Option {
	return func(f *Flow) {
		if path != "" {
			f.signupPath = path
		}
	}
}

// WithLogger sets the logger for transitions and session failures.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a checkout flow.
func New(sessions SessionCreator, nav Navigator, opts ...Option) *Flow {
	f := &Flow{
		sessions:   sessions,
		nav:        nav,
		signupPath: "/signin/signup",
		logger:     slog.Default(),
		pending:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(logger.Component("checkout"))
	return f
}

// NewFromConfig creates a checkout flow using cfg.
func NewFromConfig(cfg Config, sessions SessionCreator, nav Navigator, opts ...Option) *Flow {
	return New(sessions, nav, append([]Option{WithSignupPath(cfg.SignupPath)}, opts...)...)
}

// IsPending reports whether priceID has a checkout in progress.
func (f *Flow) IsPending(priceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.pending[priceID]
	return ok
}

// Pending returns the price IDs with a checkout in progress, sorted.
func (f *Flow) Pending() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.pending))
	for id := range f.pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Start runs one checkout for priceID from currentPath and navigates to the
// result. Without a signed-in user (nil or an empty ID) it goes straight to
// the sign-up path and makes no remote call. Start returns ErrAlreadyPending while another checkout for the
// same price runs. Session failures are not returned as errors: they end in
// StateRedirectError with Outcome.Err set.
func (f *Flow) Start(ctx context.Context, priceID string, user *User, currentPath string) (Outcome, error) {
	if !f.markPending(priceID) {
		return Outcome{State: StateIdle}, ErrAlreadyPending
	}

	log := f.logger.With(logger.PriceID(priceID))
	m := newMachine(f.nav, func(ctx context.Context, from, to State, ev event) {
		if to.IsTerminal() {
			f.clearPending(priceID)
		}
		log.DebugContext(ctx, "checkout transition",
			slog.String("from", string(from)),
			logger.State(to),
			slog.String("event", string(ev)))
	})
	defer func() {
		if !m.IsTerminal() {
			f.clearPending(priceID)
		}
	}()

	if !m.CanFire(ctx, eventSubmit, user) {
		out := Outcome{Destination: f.signupPath}
		if err := m.Fire(ctx, eventNoUser, &out); err != nil {
			return Outcome{State: m.Current()}, err
		}
		out.State = m.Current()
		return out, nil
	}

	if err := m.Fire(ctx, eventSubmit, user); err != nil {
		return Outcome{State: m.Current()}, err
	}

	res := f.sessions.Mutate(ctx, billing.CheckoutRequest{PriceID: priceID, RedirectPath: currentPath})

	var (
		ev  event
		out Outcome
	)
	switch {
	case res.Err != nil:
		log.ErrorContext(ctx, "checkout session failed", logger.UserID(user.ID), logger.Error(res.Err))
		ev = eventFailed
		out = Outcome{Destination: ErrorRedirect(currentPath, InitFailedTitle, InitFailedMessage), Err: res.Err}
	case res.Data.ErrorRedirect != "":
		ev = eventServerRedirect
		out = Outcome{Destination: res.Data.ErrorRedirect}
	case res.Data.SessionURL == "":
		ev = eventMissingSession
		out = Outcome{Destination: ErrorRedirect(currentPath, UnknownErrorTitle, UnknownErrorMessage)}
	default:
		ev = eventSessionCreated
		out = Outcome{Destination: res.Data.SessionURL, External: true}
	}

	if err := m.Fire(ctx, ev, &out); err != nil {
		return Outcome{State: m.Current()}, err
	}
	out.State = m.Current()
	return out, nil
}

func (f *Flow) markPending(priceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pending[priceID]; ok {
		return false
	}
	f.pending[priceID] = struct{}{}
	return true
}

func (f *Flow) clearPending(priceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, priceID)
}
