// Package backend is the authenticated request layer over the REST backend.
// Every call asks its Authorizer for headers right before it is sent, so an
// expired session is noticed on the call itself.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// Authorizer supplies the headers for one outgoing call.
type Authorizer interface {
	Headers(ctx context.Context) http.Header
}

type anonymous struct{}

func (anonymous) Headers(context.Context) http.Header { return http.Header{} }

// Anonymous sends calls without credentials (login, register).
var Anonymous Authorizer = anonymous{}

// Client is shared by every terminal.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient uses one without a
// timeout; calls end when the backend answers or the caller's context does.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// As binds the client to one session's credentials.
func (c *Client) As(auth Authorizer) *API {
	if auth == nil {
		auth = Anonymous
	}
	return &API{client: c, auth: auth}
}

// API issues backend calls on behalf of one session.
type API struct {
	client *Client
	auth   Authorizer
}

func (a *API) url(path string) string {
	return a.client.baseURL + path
}

// do sends the request and decodes a 2xx body into out when out is non-nil.
// Non-2xx responses come back as *Error.
func (a *API) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	raw, err := a.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send returns the raw 2xx body.
func (a *API) send(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	for k, vs := range a.auth.Headers(ctx) {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[backend] %s %s -> %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
		return nil, newError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (a *API) get(ctx context.Context, path string, out any) error {
	return a.do(ctx, http.MethodGet, path, nil, "", out)
}

func (a *API) sendJSON(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	return a.do(ctx, method, path, bytes.NewReader(payload), "application/json", out)
}
