// Package api talks to a single server over HTTP and its websocket API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
)

var (
	ErrNotRegistered = errors.New("server has no webhook registered")
	ErrAuthInvalid   = errors.New("access token rejected")
	ErrClosed        = errors.New("client disconnected")
)

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrAuthInvalid
	}
	return nil
}

type Options struct {
	Defaults         config.Defaults
	Network          connection.Network
	HTTPClient       *http.Client
	HandshakeTimeout time.Duration
	Log              zerolog.Logger
}

type Client struct {
	server  config.Server
	opts    Options
	http    *http.Client
	headers http.Header
	log     zerolog.Logger

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func New(server config.Server, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	return &Client{
		server:  server,
		opts:    opts,
		http:    hc,
		headers: connection.Headers(opts.Defaults, server),
		log:     opts.Log.With().Str("server_id", server.ID).Logger(),
		conns:   make(map[*websocket.Conn]struct{}),
	}
}

// Server returns the record the client was built from.
func (c *Client) Server() config.Server { return c.server }

// URLType is the address kind requests currently go through.
func (c *Client) URLType() connection.URLType {
	return connection.ActiveURLType(c.server.Connection, c.opts.Network)
}

func (c *Client) endpoint(path string) (*url.URL, error) {
	base, err := connection.ActiveURL(c.server.Connection, c.opts.Network)
	if err != nil {
		return nil, err
	}
	u := *base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = ""
	u.Fragment = ""
	return &u, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u, err := c.endpoint(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	// An Authorization override from the header list takes precedence.
	if tok := c.server.Token.AccessToken; tok != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

// do sends req and decodes a JSON body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// RevokeToken asks the server to invalidate the refresh token. A server
// without a refresh token has nothing to revoke.
func (c *Client) RevokeToken(ctx context.Context) error {
	tok := c.server.Token.RefreshToken
	if tok == "" {
		c.log.Debug().Msg("no refresh token to revoke")
		return nil
	}
	form := url.Values{"token": {tok}, "action": {"revoke"}}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, nil)
}

// ServerConfig is the subset of /api/config the client uses.
type ServerConfig struct {
	Version      string `json:"version"`
	LocationName string `json:"location_name"`
	ExternalURL  string `json:"external_url"`
	InternalURL  string `json:"internal_url"`
}

func (c *Client) Config(ctx context.Context) (ServerConfig, error) {
	var out ServerConfig
	req, err := c.newRequest(ctx, http.MethodGet, "/api/config", nil)
	if err != nil {
		return out, err
	}
	err = c.do(req, &out)
	return out, err
}

type webhookRequest struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (c *Client) webhook(ctx context.Context, typ string, data any) error {
	id := c.server.Connection.WebhookID
	if id == "" {
		return ErrNotRegistered
	}
	body, err := json.Marshal(webhookRequest{Type: typ, Data: data})
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/webhook/"+url.PathEscape(id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}
