package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"kiosk/globals"
	"kiosk/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

// TerminalCookie names the cookie that identifies a kiosk terminal.
const TerminalCookie = "terminal"

// NavigateHeader tells the browser where to go next.
const NavigateHeader = "X-Kiosk-Navigate"

// Chain applies middlewares so the first one listed runs outermost.
func Chain(mw ...func(httprouter.Handle) httprouter.Handle) func(httprouter.Handle) httprouter.Handle {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mw) - 1; i >= 0; i-- {
			final = mw[i](final)
		}
		return final
	}
}

// SecurityHeaders applies a set of recommended HTTP security headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging logs each request method, path, status, remote address, and duration.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d from %s in %v", r.Method, r.RequestURI, rec.status, r.RemoteAddr, time.Since(start))
	})
}

// Terminal makes sure every request carries a terminal id, issuing a new
// cookie when the browser has none, and stores it in the request context.
func Terminal(maxAge time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(TerminalCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = utils.GetUUID()
				http.SetCookie(w, &http.Cookie{
					Name:     TerminalCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(maxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			ctx := context.WithValue(r.Context(), globals.TerminalKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TerminalFrom returns the terminal id set by Terminal.
func TerminalFrom(ctx context.Context) string {
	id, _ := ctx.Value(globals.TerminalKey).(string)
	return id
}

// NavigationFlags reports, once, that a terminal must be sent to path.
type NavigationFlags interface {
	TakeNavigation(terminal string) (path string, ok bool)
}

type navigateWriter struct {
	http.ResponseWriter
	flags    NavigationFlags
	terminal string
	done     bool
}

func (n *navigateWriter) flush() {
	if n.done {
		return
	}
	n.done = true
	if path, ok := n.flags.TakeNavigation(n.terminal); ok {
		n.Header().Set(NavigateHeader, path)
	}
}

func (n *navigateWriter) WriteHeader(code int) {
	n.flush()
	n.ResponseWriter.WriteHeader(code)
}

func (n *navigateWriter) Write(b []byte) (int, error) {
	n.flush()
	return n.ResponseWriter.Write(b)
}

// Navigate adds NavigateHeader to the response when the terminal was logged
// out, including a logout that happens while the request is handled.
func Navigate(flags NavigationFlags) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nw := &navigateWriter{ResponseWriter: w, flags: flags, terminal: TerminalFrom(r.Context())}
			next.ServeHTTP(nw, r)
			if !nw.done {
				nw.flush()
			}
		})
	}
}
