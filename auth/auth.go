// Package auth runs the login and registration forms for a terminal.
package auth

import (
	"context"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"kiosk/apperr"
	"kiosk/backend"
	"kiosk/models"
	"kiosk/session"
)

const fallbackMessage = "Something went wrong. Please try again."

var emailPattern = regexp.MustCompile(`^[^@\s]+@singular\.co\.za$`)

// Backend is the unauthenticated slice of the REST API the forms use.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, reg models.Registration) error
}

type Forms struct {
	sess *session.Handle
	api  Backend
}

func New(sess *session.Handle, api Backend) *Forms {
	return &Forms{sess: sess, api: api}
}

// ValidateRegistration returns the first rule reg breaks, or "".
func ValidateRegistration(reg models.Registration) string {
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return "Please fill in all required fields"
	}
	if n := utf8.RuneCountInString(reg.Name); n < 2 || n > 100 {
		return "Name must be between 2 and 100 characters."
	}
	if n := utf8.RuneCountInString(reg.Email); n < 8 || n > 100 || !emailPattern.MatchString(reg.Email) {
		return "Email must be valid and end with @singular.co.za."
	}
	if !strongPassword(reg.Password) {
		return "Password must contain uppercase, lowercase, number, and special character."
	}
	return ""
}

func strongPassword(p string) bool {
	if n := utf8.RuneCountInString(p); n < 8 || n > 100 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return lower && upper && digit && special
}

func formError(op string, err error) error {
	return apperr.New(op, apperr.KindForStatus(backend.StatusOf(err)), backend.MessageOf(err, fallbackMessage), err)
}

// Login exchanges the credentials for a token and starts the session.
func (f *Forms) Login(ctx context.Context, creds models.Credentials) (session.Session, error) {
	const op = "login"
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		return session.Session{}, apperr.Validation(op, "Please fill in all required fields")
	}

	token, err := f.api.Login(ctx, creds)
	if err != nil {
		log.Printf("[auth] login %s: %v", creds.Email, err)
		return session.Session{}, formError(op, err)
	}
	res, err := f.sess.Begin(ctx, token)
	if err != nil {
		log.Printf("[auth] begin session on %s: %v", f.sess.Terminal(), err)
		return session.Session{}, apperr.New(op, apperr.KindGeneric, fallbackMessage, err)
	}
	return res.Session, nil
}

// Register creates an account. The user still has to log in afterwards.
func (f *Forms) Register(ctx context.Context, reg models.Registration) (string, error) {
	const op = "register"
	reg.Email = strings.TrimSpace(reg.Email)
	if msg := ValidateRegistration(reg); msg != "" {
		return "", apperr.Validation(op, msg)
	}
	if err := f.api.Register(ctx, reg); err != nil {
		log.Printf("[auth] register %s: %v", reg.Email, err)
		return "", formError(op, err)
	}
	return "Registration successful! Please log in.", nil
}

// Logout clears the terminal's session.
func (f *Forms) Logout(ctx context.Context) {
	f.sess.Logout(ctx)
}
