package session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"
)

// Navigator sends a terminal back to the login surface.
type Navigator interface {
	ToLogin(terminal string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(terminal string)

func (f NavigatorFunc) ToLogin(terminal string) { f(terminal) }

// Handle is one terminal's session. It is passed explicitly to every flow
// and never cached: each call decodes the stored token afresh.
type Handle struct {
	terminal string
	store    TokenStore
	nav      Navigator
	ttl      time.Duration

	now   func() time.Time
	after func(time.Duration, func())
}

// Option customizes a Handle.
type Option func(*Handle)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handle) { h.now = now }
}

// WithTimer replaces time.AfterFunc for delayed logout.
func WithTimer(after func(time.Duration, func())) Option {
	return func(h *Handle) { h.after = after }
}

// WithTTL bounds how long the storage keeps the token.
func WithTTL(ttl time.Duration) Option {
	return func(h *Handle) { h.ttl = ttl }
}

func NewHandle(terminal string, store TokenStore, nav Navigator, opts ...Option) *Handle {
	h := &Handle{
		terminal: terminal,
		store:    store,
		nav:      nav,
		now:      time.Now,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handle) Terminal() string {
	return h.terminal
}

// Begin stores a freshly issued token together with the user id it carries.
func (h *Handle) Begin(ctx context.Context, token string) (Result, error) {
	res := Decode(token, h.now())
	if !res.HasIdentity() {
		return res, errors.New("login returned an unusable token")
	}
	stored := Stored{Token: token, UserID: strconv.Itoa(res.Session.UserID)}
	if err := h.store.Save(ctx, h.terminal, stored, h.ttl); err != nil {
		return res, err
	}
	return res, nil
}

// Current decodes whatever token the terminal holds right now.
func (h *Handle) Current(ctx context.Context) Result {
	stored, err := h.store.Load(ctx, h.terminal)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			log.Printf("[session] load token for %s: %v", h.terminal, err)
		}
		return Result{Status: Absent}
	}
	return Decode(stored.Token, h.now())
}

// IsValid is true iff a token exists and its expiry is strictly in the future.
func (h *Handle) IsValid(ctx context.Context) bool {
	return h.Current(ctx).Valid()
}

// RememberUserID caches the decoded user id next to the token.
func (h *Handle) RememberUserID(ctx context.Context, userID int) {
	h.updateUserID(ctx, strconv.Itoa(userID))
}

// ForgetUserID drops the cached user id, keeping the token.
func (h *Handle) ForgetUserID(ctx context.Context) {
	h.updateUserID(ctx, "")
}

func (h *Handle) updateUserID(ctx context.Context, userID string) {
	stored, err := h.store.Load(ctx, h.terminal)
	if err != nil || stored.UserID == userID {
		return
	}
	stored.UserID = userID
	if err := h.store.Save(ctx, h.terminal, stored, h.ttl); err != nil {
		log.Printf("[session] cache user id for %s: %v", h.terminal, err)
	}
}

// Logout clears the stored token and sends the terminal to the login surface.
func (h *Handle) Logout(ctx context.Context) {
	if err := h.store.Delete(ctx, h.terminal); err != nil {
		log.Printf("[session] delete token for %s: %v", h.terminal, err)
	}
	if h.nav != nil {
		h.nav.ToLogin(h.terminal)
	}
}

// LogoutAfter logs out once delay has passed so the user can read the
// message first. The timer cannot be cancelled.
func (h *Handle) LogoutAfter(delay time.Duration) {
	h.after(delay, func() {
		h.Logout(context.Background())
	})
}

// Headers returns the bearer header for a backend call. When the session is
// not valid it logs out and returns empty headers, so the call goes out
// unauthenticated.
func (h *Handle) Headers(ctx context.Context) http.Header {
	stored, err := h.store.Load(ctx, h.terminal)
	if err != nil || !Decode(stored.Token, h.now()).Valid() {
		h.Logout(ctx)
		return http.Header{}
	}
	return http.Header{"Authorization": []string{"Bearer " + stored.Token}}
}

// Optional attaches the bearer header when the session is valid and
// otherwise lets the call go out anonymously, without logging out. It suits
// pages a signed-out terminal may still browse.
type Optional struct {
	h *Handle
}

func (h *Handle) Optional() Optional {
	return Optional{h: h}
}

func (o Optional) Headers(ctx context.Context) http.Header {
	stored, err := o.h.store.Load(ctx, o.h.terminal)
	if err != nil || !Decode(stored.Token, o.h.now()).Valid() {
		return http.Header{}
	}
	return http.Header{"Authorization": []string{"Bearer " + stored.Token}}
}
