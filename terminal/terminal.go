// Package terminal keeps the state of every kiosk terminal the service has
// seen: its session, notifications and the flows behind each page.
package terminal

import (
	"context"
	"log"
	"sync"
	"time"

	"kiosk/audit"
	"kiosk/auth"
	"kiosk/backend"
	"kiosk/cart"
	"kiosk/globals"
	"kiosk/home"
	"kiosk/notify"
	"kiosk/orders"
	"kiosk/pay"
	"kiosk/products"
	"kiosk/session"

	"github.com/shopspring/decimal"
)

// Deps are shared by every terminal.
type Deps struct {
	Store       session.TokenStore
	Backend     *backend.Client
	Audit       audit.Recorder
	LogoutDelay time.Duration
	TTL         time.Duration

	// Timer replaces time.AfterFunc for delayed logout.
	Timer func(time.Duration, func())
}

// Terminal is one kiosk's state.
type Terminal struct {
	ID      string
	Session *session.Handle
	Toasts  *notify.Toasts
	Auth    *auth.Forms
	Home    *home.Aggregator
	Cart    *cart.Flow
	Funding *pay.Funding
	Orders  *orders.View
	Catalog *products.Catalog

	// Backend carries the session's credentials, for reads that sit outside
	// any flow (receipts, assets).
	Backend *backend.API
}

// Registry creates terminals on first sight and evicts idle ones.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	terms    map[string]*entry
	navigate map[string]string
}

type entry struct {
	term     *Terminal
	lastSeen time.Time
}

func NewRegistry(deps Deps) *Registry {
	if deps.Audit == nil {
		deps.Audit = audit.LogRecorder{}
	}
	if deps.LogoutDelay <= 0 {
		deps.LogoutDelay = globals.LogoutDelay
	}
	return &Registry{
		deps:     deps,
		now:      time.Now,
		terms:    make(map[string]*entry),
		navigate: make(map[string]string),
	}
}

// Get returns the terminal with id, creating it on first use.
func (r *Registry) Get(id string) *Terminal {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.terms[id]
	if !ok {
		e = &entry{term: r.build(id)}
		r.terms[id] = e
		log.Printf("[terminal] new terminal %s", id)
	}
	e.lastSeen = r.now()
	return e.term
}

// Len is the number of live terminals.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.terms)
}

func (r *Registry) build(id string) *Terminal {
	opts := []session.Option{session.WithTTL(r.deps.TTL)}
	if r.deps.Timer != nil {
		opts = append(opts, session.WithTimer(r.deps.Timer))
	}
	sess := session.NewHandle(id, r.deps.Store, r, opts...)
	api := r.deps.Backend.As(sess)
	guest := r.deps.Backend.As(backend.Anonymous)
	toasts := &notify.Toasts{}

	t := &Terminal{
		ID:      id,
		Session: sess,
		Toasts:  toasts,
		Auth:    auth.New(sess, guest),
		Orders:  orders.NewView(),
		Backend: api,
	}
	t.Home = home.New(sess, api, guest, toasts)
	t.Catalog = products.NewCatalog(sess, r.deps.Backend.As(sess.Optional()), toasts)
	t.Cart = cart.New(sess, api, t.Home, r.deps.Audit,
		cart.WithLogoutDelay(r.deps.LogoutDelay),
		cart.WithNotifier(toasts),
		cart.WithProductAdded(t.Catalog.Decrement),
		cart.WithCartChanged(t.cartChanged),
	)
	t.Funding = pay.New(sess, api, t.funded)
	return t
}

// cartChanged refreshes what the home page derives from the cart.
func (t *Terminal) cartChanged(ctx context.Context) {
	if _, userID := t.Home.Identity(); userID == 0 {
		t.Home.Load(ctx)
		return
	}
	t.Home.RefreshCart(ctx)
	t.Home.RefreshWallet(ctx)
	t.Home.FetchOrders(ctx)
}

func (t *Terminal) funded(ctx context.Context, amount decimal.Decimal, walletID int, role string) {
	log.Printf("[terminal] %s funded wallet %d with %s", t.ID, walletID, amount)
	if pay.ShouldRefreshOwn(role, t.Home.View().WalletID, walletID) {
		t.Home.RefreshWallet(ctx)
	}
}

// Reset drops what the flows hold for the signed-in user so nothing carries
// over to whoever uses the terminal next.
func (t *Terminal) Reset() {
	t.Cart.Reset()
	t.Funding.Reset()
	t.Orders.Reset()
}

// ToLogin flags the terminal so its next response tells the browser to go
// to the login page, and resets its flows.
func (r *Registry) ToLogin(terminal string) {
	r.mu.Lock()
	r.navigate[terminal] = globals.LoginPath
	e, ok := r.terms[terminal]
	r.mu.Unlock()
	if ok {
		e.term.Reset()
	}
}

// TakeNavigation returns and clears a pending navigation for terminal.
func (r *Registry) TakeNavigation(terminal string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.navigate[terminal]
	if ok {
		delete(r.navigate, terminal)
	}
	return path, ok
}

// Evict drops terminals idle for longer than the TTL. Their stored tokens
// expire on their own.
func (r *Registry) Evict() int {
	if r.deps.TTL <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.deps.TTL)
	n := 0
	for id, e := range r.terms {
		if e.lastSeen.Before(cutoff) {
			delete(r.terms, id)
			delete(r.navigate, id)
			n++
		}
	}
	return n
}

// Run evicts idle terminals every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				log.Printf("[terminal] evicted %d idle terminals", n)
			}
		}
	}
}
