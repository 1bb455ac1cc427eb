package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/pinpoint/internal/notice"
)

func TestClient_Do(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"message":"resolved","result":{"id":"c1","status":"resolved"}}`))
	}))
	defer srv.Close()

	var result struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp, err := NewClient(srv.URL, nil).Do(context.Background(), ActionResolveComment, map[string]string{"id": "c1"}, &result)
	require.NoError(t, err)

	assert.Equal(t, ActionResolveComment, got.Action)
	assert.JSONEq(t, `{"id":"c1"}`, string(got.Params))
	assert.True(t, resp.OK)
	assert.Equal(t, "resolved", resp.Message)
	assert.Equal(t, "c1", result.ID)
	assert.Equal(t, "resolved", result.Status)
}

func TestClient_Non2xx(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json error", `{"error":"unknown action \"fly\""}`, `unknown action "fly"`},
		{"json message", `{"ok":false,"message":"comment not found: c9"}`, "comment not found: c9"},
		{"plain text", "boom\n", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, nil).Do(context.Background(), "fly", nil, nil)
			var rerr *Error
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, http.StatusBadRequest, rerr.Status)
			assert.Equal(t, tt.want, rerr.Message)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, notice.CategoryRemote, notice.Classify(err))
		})
	}
}

func TestClient_NoEndpoint(t *testing.T) {
	_, err := NewClient("", nil).Do(context.Background(), ActionAnalyze, nil, nil)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Zero(t, rerr.Status)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, nil).Do(context.Background(), ActionAnalyze, nil, nil)
	assert.Equal(t, notice.CategoryRemote, notice.Classify(err))
}

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	d.Handle(ActionSetStatus, func(_ context.Context, params json.RawMessage) (any, error) {
		var p struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		if err := DecodeParams(params, &p); err != nil {
			return nil, err
		}
		return p.ID + "=" + p.Status, nil
	})
	d.Handle(ActionAnalyze, func(context.Context, json.RawMessage) (any, error) { return "ok", nil })

	assert.Equal(t, []string{ActionAnalyze, ActionSetStatus}, d.Actions())

	out, err := d.Dispatch(context.Background(), Request{Action: ActionSetStatus, Params: json.RawMessage(`{"id":"c1","status":"open"}`)})
	require.NoError(t, err)
	assert.Equal(t, "c1=open", out)

	out, err = d.Dispatch(context.Background(), Request{Action: ActionAnalyze})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = d.Dispatch(context.Background(), Request{Action: "fly"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = d.Dispatch(context.Background(), Request{Action: ActionSetStatus, Params: json.RawMessage(`[1]`)})
	assert.Error(t, err)
}
