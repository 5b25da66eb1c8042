package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string // extracted from the body, may be empty
	Body    string // raw body, logged only
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend %d", e.Status)
}

func newError(status int, raw []byte) *Error {
	return &Error{
		Status:  status,
		Message: extractMessage(raw),
		Body:    string(raw),
	}
}

// StatusOf returns the backend status behind err, or 0 for transport and
// local failures.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// MessageOf returns the backend's own message, or fallback.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// extractMessage reads message, errors (list or field map), title, a bare
// JSON string, or the plain text body, in that order.
func extractMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var text string
	if json.Unmarshal(raw, &text) == nil {
		return strings.TrimSpace(text)
	}

	var body struct {
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
		Title   string          `json:"title"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		if raw[0] == '{' || raw[0] == '[' {
			return ""
		}
		return string(raw)
	}
	if body.Message != "" {
		return body.Message
	}
	if msg := joinErrors(body.Errors); msg != "" {
		return msg
	}
	return body.Title
}

func joinErrors(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, ", ")
	}

	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var msgs []string
	for _, k := range keys {
		var many []string
		if json.Unmarshal(fields[k], &many) == nil {
			msgs = append(msgs, many...)
			continue
		}
		var one string
		if json.Unmarshal(fields[k], &one) == nil {
			msgs = append(msgs, one)
		}
	}
	return strings.Join(msgs, ", ")
}
