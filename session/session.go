// Package session decodes the backend's bearer token into a typed session
// and owns its lifecycle for one kiosk terminal: storage, validity checks,
// logout and the bearer header attached to backend calls.
package session

import (
	"strings"
	"time"

	"kiosk/globals"

	"github.com/golang-jwt/jwt/v5"
)

// Status tags the outcome of decoding a token.
type Status int

const (
	Absent Status = iota
	Invalid
	Expired
	Active
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "absent"
	case Invalid:
		return "invalid"
	case Expired:
		return "expired"
	case Active:
		return "active"
	}
	return "unknown"
}

// Session is the identity carried by a decoded token.
type Session struct {
	UserID int
	Role   string
	Expiry time.Time
}

// Elevated reports whether the session acts as a super user.
func (s Session) Elevated() bool {
	return s.Role == globals.RoleSuper
}

// Result is the tagged outcome of Decode. Session is populated for Expired
// and Active results only.
type Result struct {
	Status  Status
	Session Session
	Err     error
}

// Valid reports whether the token exists and its expiry is in the future.
func (r Result) Valid() bool {
	return r.Status == Active
}

// HasIdentity reports whether the token yielded a user, expired or not.
func (r Result) HasIdentity() bool {
	return r.Status == Active || r.Status == Expired
}

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Decode extracts the session from token without verifying its signature;
// signatures are the backend's concern. It never panics and never returns an
// error to the caller: malformed input yields an Invalid result.
func Decode(token string, now time.Time) Result {
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Status: Absent}
	}
	if strings.Count(token, ".") != 2 {
		return Result{Status: Invalid, Err: jwt.ErrTokenMalformed}
	}

	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Result{Status: Invalid, Err: err}
	}
	userID, err := claims.UserID.Int()
	if err != nil || userID <= 0 {
		return Result{Status: Invalid, Err: jwt.ErrTokenInvalidClaims}
	}

	s := Session{UserID: userID, Role: string(claims.Role)}
	if s.Role == "" {
		s.Role = globals.RoleUser
	}
	if claims.ExpiresAt != nil {
		s.Expiry = claims.ExpiresAt.Time
	}
	if s.Expiry.IsZero() || !now.Before(s.Expiry) {
		return Result{Status: Expired, Session: s}
	}
	return Result{Status: Active, Session: s}
}
