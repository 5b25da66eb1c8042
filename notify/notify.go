// Package notify collects transient success and error notifications for a
// terminal until the browser drains them.
package notify

import (
	"log"
	"sync"
	"time"
)

type Level string

const (
	Success Level = "success"
	Failure Level = "error"
)

type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives notifications from flows.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// maxPending bounds the buffer; older toasts are dropped first.
const maxPending = 20

// Toasts buffers notifications for one terminal.
type Toasts struct {
	mu      sync.Mutex
	pending []Toast
}

func (t *Toasts) Success(msg string) { t.push(Success, msg) }

func (t *Toasts) Error(msg string) { t.push(Failure, msg) }

func (t *Toasts) push(level Level, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, Toast{Level: level, Message: msg, At: time.Now()})
	if len(t.pending) > maxPending {
		t.pending = t.pending[len(t.pending)-maxPending:]
	}
}

// Drain returns and clears the pending toasts.
func (t *Toasts) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending
	t.pending = nil
	if out == nil {
		out = []Toast{}
	}
	return out
}

// Log writes notifications to the process log only.
type Log struct{}

func (Log) Success(msg string) { log.Printf("[notify] %s", msg) }

func (Log) Error(msg string) { log.Printf("[notify] error: %s", msg) }
