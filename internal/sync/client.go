// Package sync reconciles the local root with the central reporting server:
// pulls merge the remote record set in, pushes mirror local mutations out.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"wardwatch/internal/core"
)

// ConnectivityError marks failures reaching the central server. Callers treat
// it as a transient offline condition, never as data corruption.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e ConnectivityError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e ConnectivityError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce ConnectivityError
	return errors.As(err, &ce)
}

// DefaultTimeout bounds every remote call; the app must fail fast to offline
// mode rather than hang a workflow on a dead link.
const DefaultTimeout = 10 * time.Second

// Client speaks the central server's single-endpoint contract: queries go as
// GET with an action query parameter, mutations as POST {action, id?,
// payload}. Every response is an {ok, data?, error?} envelope.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the given endpoint. A zero timeout uses
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type pushEnvelope struct {
	Action  string `json:"action"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type responseEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (c *Client) get(ctx context.Context, action string, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	return c.send(req, action, out)
}

func (c *Client) post(ctx context.Context, action, id string, payload any) error {
	body, err := json.Marshal(pushEnvelope{Action: action, ID: id, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, action, nil)
}

func (c *Client) send(req *http.Request, action string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ConnectivityError{Op: action, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ConnectivityError{Op: action, Err: fmt.Errorf("server returned status %d", resp.StatusCode)}
	}
	var envelope responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return ConnectivityError{Op: action, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !envelope.Ok {
		return fmt.Errorf("%s rejected: %s", action, envelope.Error)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode %s data: %w", action, err)
		}
	}
	return nil
}

// Ping probes connectivity without transferring data.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "ping", nil)
}

// FetchAll pulls the complete remote record set.
func (c *Client) FetchAll(ctx context.Context) (core.RemoteData, error) {
	var data core.RemoteData
	if err := c.get(ctx, "getAllData", &data); err != nil {
		return core.RemoteData{}, err
	}
	return data, nil
}

// Push mirrors one local mutation to the server. The operation name matches
// the server's action vocabulary (createIssue, updateIssue, ...); id carries
// the target record for update and review actions.
func (c *Client) Push(ctx context.Context, operation, id string, payload any) error {
	return c.post(ctx, operation, id, payload)
}
