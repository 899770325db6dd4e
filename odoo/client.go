// Package odoo talks to an Odoo instance over its JSON-RPC web endpoints.
package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/gforms-server/config"
)

const (
	authTimeout = 5 * time.Second
	callTimeout = 10 * time.Second
)

var ErrNotConfigured = errors.New("odoo is not configured")

// RPCError is the error object returned inside a JSON-RPC reply.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Message string `json:"message"`
	} `json:"data"`
}

func (e *RPCError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo: %s: %s", e.Message, e.Data.Message)
	}
	return "odoo: " + e.Message
}

type Client struct {
	cfg  config.OdooConfig
	http *http.Client

	mu  sync.Mutex
	uid int
}

func NewClient(cfg config.OdooConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Jar: jar},
	}, nil
}

// Model is the Odoo model records are synced into.
func (c *Client) Model() string { return c.cfg.Model }

// Authenticate opens a session; the cookie jar keeps it for later calls.
func (c *Client) Authenticate(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var res struct {
		UID int `json:"uid"`
	}
	err := c.post(ctx, "/web/session/authenticate", map[string]any{
		"db":       c.cfg.DB,
		"login":    c.cfg.Username,
		"password": c.cfg.Password,
	}, &res)
	if err != nil {
		return 0, fmt.Errorf("authenticate: %w", err)
	}
	if res.UID == 0 {
		return 0, errors.New("authenticate: rejected credentials")
	}

	c.mu.Lock()
	c.uid = res.UID
	c.mu.Unlock()
	return res.UID, nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	uid := c.uid
	c.mu.Unlock()
	if uid != 0 {
		return nil
	}
	_, err := c.Authenticate(ctx)
	return err
}

// SearchRead returns up to limit records of model matching domain.
func (c *Client) SearchRead(ctx context.Context, model string, fields []string, domain []any, limit int) ([]map[string]any, error) {
	if domain == nil {
		domain = []any{}
	}
	var out []map[string]any
	err := c.CallKW(ctx, model, "search_read", []any{domain}, map[string]any{
		"fields":  fields,
		"limit":   limit,
		"context": map[string]any{"lang": "en_US"},
	}, &out)
	return out, err
}

// Create inserts one record and returns its id.
func (c *Client) Create(ctx context.Context, model string, values map[string]any) (int, error) {
	var id int
	err := c.CallKW(ctx, model, "create", []any{values}, map[string]any{}, &id)
	return id, err
}

// CallKW invokes model.method through /web/dataset/call_kw.
func (c *Client) CallKW(ctx context.Context, model, method string, args []any, kwargs map[string]any, out any) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	err := c.post(ctx, "/web/dataset/call_kw", map[string]any{
		"model":  model,
		"method": method,
		"args":   args,
		"kwargs": kwargs,
	}, out)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", model, method, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, params map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "call",
		"id":      uuid.NewString(),
		"params":  params,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.cfg.URL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if envelope.Error != nil {
		slog.Warn("odoo rpc error", slog.String("path", path), slog.String("error", envelope.Error.Error()))
		return envelope.Error
	}
	if out == nil || len(envelope.Result) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Result, out)
}
