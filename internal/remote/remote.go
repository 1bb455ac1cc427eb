// Package remote sends and dispatches named actions ({action, params}) over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/joescharf/pinpoint/internal/notice"
)

// Known actions served by the API.
const (
	ActionResolveComment = "resolve-comment"
	ActionSetStatus      = "set-status"
	ActionDeleteComment  = "delete-comment"
	ActionAnalyze        = "analyze"
	ActionExport         = "export"
)

// Request is the wire form of an action call.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the wire form of an action result.
type Response struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// Error is a failed remote call. Status is zero when no response arrived.
type Error struct {
	Action  string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("remote %s: %v", e.Action, e.Err)
	case e.Message != "":
		return fmt.Sprintf("remote %s: %d: %s", e.Action, e.Status, e.Message)
	}
	return fmt.Sprintf("remote %s: status %d", e.Action, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Category classifies remote failures for notices.
func (e *Error) Category() notice.Category { return notice.CategoryRemote }

// Client posts actions to an endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns a client for endpoint, e.g. "http://localhost:8080/api/v1/actions".
func NewClient(endpoint string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{endpoint: endpoint, http: hc}
}

// Do sends action with params and decodes the result into out when out is non-nil.
// Any non-2xx status becomes an *Error carrying the server's message.
func (c *Client) Do(ctx context.Context, action string, params, out any) (*Response, error) {
	if c.endpoint == "" {
		return nil, &Error{Action: action, Err: errors.New("no remote endpoint configured")}
	}
	req := Request{Action: action}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, &Error{Action: action, Err: fmt.Errorf("encode params: %w", err)}
		}
		req.Params = raw
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Action: action, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Action: action, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{Action: action, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Action: action, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Action: action, Status: resp.StatusCode, Message: errorMessage(data)}
	}

	var r Response
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, &Error{Action: action, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	if out != nil && len(r.Result) > 0 {
		if err := json.Unmarshal(r.Result, out); err != nil {
			return nil, &Error{Action: action, Status: resp.StatusCode, Err: fmt.Errorf("decode result: %w", err)}
		}
	}
	return &r, nil
}

// errorMessage pulls "message" or "error" out of a JSON body, falling back to the raw text.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// ErrUnknownAction is returned by Dispatch for unregistered actions.
var ErrUnknownAction = errors.New("unknown action")

// Handler runs one action. params is the raw JSON sent by the caller.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher routes requests to handlers by action name.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string]Handler{}}
}

// Handle registers h for action, replacing any previous handler.
func (d *Dispatcher) Handle(action string, h Handler) {
	d.handlers[action] = h
}

// Actions lists registered actions in sorted order.
func (d *Dispatcher) Actions() []string {
	out := make([]string, 0, len(d.handlers))
	for a := range d.handlers {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler for req.Action.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (any, error) {
	h, ok := d.handlers[req.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	return h(ctx, req.Params)
}

// DecodeParams unmarshals params into v, treating empty params as "{}".
func DecodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}
