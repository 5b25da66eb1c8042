// Package sessiontest builds backend-shaped tokens and session handles for tests.
package sessiontest

import (
	"context"
	"strconv"
	"sync"
	"time"

	"kiosk/globals"
	"kiosk/session"

	"github.com/golang-jwt/jwt/v5"
)

// Token signs a token carrying the backend's claim URIs. An empty role
// omits the role claim; a zero exp omits the expiry.
func Token(userID int, role string, exp time.Time) string {
	claims := jwt.MapClaims{
		globals.UserIDClaim: strconv.Itoa(userID),
	}
	if role != "" {
		claims[globals.RoleClaim] = role
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return signed
}

// Navigator records logout redirects.
type Navigator struct {
	mu    sync.Mutex
	Calls []string
}

func (n *Navigator) ToLogin(terminal string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, terminal)
}

func (n *Navigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Calls)
}

// Timer captures delayed callbacks instead of scheduling them.
type Timer struct {
	mu      sync.Mutex
	Delays  []time.Duration
	pending []func()
}

func (t *Timer) After(d time.Duration, f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Delays = append(t.Delays, d)
	t.pending = append(t.pending, f)
}

// Fire runs every captured callback.
func (t *Timer) Fire() {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

// Fixture is a terminal session wired to in-memory storage.
type Fixture struct {
	Store  *session.MemoryStore
	Nav    *Navigator
	Timer  *Timer
	Handle *session.Handle
}

// New returns a handle for terminal "t1" holding token (if non-empty).
func New(token string) *Fixture {
	f := &Fixture{
		Store: session.NewMemoryStore(),
		Nav:   &Navigator{},
		Timer: &Timer{},
	}
	f.Handle = session.NewHandle("t1", f.Store, f.Nav, session.WithTimer(f.Timer.After))
	if token != "" {
		_ = f.Store.Save(context.Background(), "t1", session.Stored{Token: token}, 0)
	}
	return f
}

// LoggedIn returns a fixture for an active session.
func LoggedIn(userID int, role string) *Fixture {
	return New(Token(userID, role, time.Now().Add(time.Hour)))
}
