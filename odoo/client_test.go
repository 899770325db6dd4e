package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/gforms-server/config"
)

type rpcRequest struct {
	Params map[string]any `json:"params"`
}

func fakeOdoo(calls *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*calls = append(*calls, r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/web/session/authenticate":
			if req.Params["password"] != "secret" {
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":200,"message":"Odoo Server Error","data":{"message":"Access Denied"}}}`))
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "abc", Path: "/"})
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":{"uid":7}}`))
		case "/web/dataset/call_kw":
			if c, err := r.Cookie("session_id"); err != nil || c.Value != "abc" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			switch req.Params["method"] {
			case "create":
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":42}`))
			case "search_read":
				_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":[{"id":1,"name":"a"}]}`))
			}
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestClientAuthenticatesOnceAndCalls(t *testing.T) {
	var calls []string
	srv := fakeOdoo(&calls)
	defer srv.Close()

	c, err := NewClient(config.OdooConfig{URL: srv.URL, DB: "db", Username: "u", Password: "secret", Model: "x_m"})
	require.NoError(t, err)

	ctx := context.Background()
	id, err := c.Create(ctx, c.Model(), map[string]any{"x_name": "t"})
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	rows, err := c.SearchRead(ctx, "x_m", []string{"name"}, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0]["name"])

	assert.Equal(t, []string{"/web/session/authenticate", "/web/dataset/call_kw", "/web/dataset/call_kw"}, calls)
}

func TestClientReportsRPCError(t *testing.T) {
	var calls []string
	srv := fakeOdoo(&calls)
	defer srv.Close()

	c, err := NewClient(config.OdooConfig{URL: srv.URL, DB: "db", Username: "u", Password: "wrong"})
	require.NoError(t, err)

	_, err = c.Authenticate(context.Background())
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Contains(t, err.Error(), "Access Denied")
}

func TestNewClientNeedsConfig(t *testing.T) {
	_, err := NewClient(config.OdooConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
