package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/al-bashkir/conn-tui/internal/connection"
)

// Status is what the connection screen shows about a live server.
type Status struct {
	Via     connection.URLType
	Version string
	User    string
}

type wsMessage struct {
	ID          int    `json:"id,omitempty"`
	Type        string `json:"type"`
	AccessToken string `json:"access_token,omitempty"`
	HAVersion   string `json:"ha_version,omitempty"`
	Message     string `json:"message,omitempty"`
	Success     bool   `json:"success,omitempty"`
	Result      *struct {
		Name string `json:"name"`
	} `json:"result,omitempty"`
}

func (c *Client) websocketURL() (string, error) {
	u, err := c.endpoint("/api/websocket")
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// Probe opens the websocket API, authenticates and asks who we are.
func (c *Client) Probe(ctx context.Context) (Status, error) {
	st := Status{Via: c.URLType()}

	target, err := c.websocketURL()
	if err != nil {
		return st, err
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.opts.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, target, c.headers.Clone())
	if err != nil {
		return st, fmt.Errorf("websocket dial: %w", err)
	}
	if !c.track(conn) {
		_ = conn.Close()
		return st, ErrClosed
	}
	defer c.untrack(conn)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	} else {
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.HandshakeTimeout))
	}

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return st, c.wsErr(ctx, err)
	}
	if msg.Type != "auth_required" {
		return st, fmt.Errorf("websocket: unexpected %q before auth", msg.Type)
	}
	st.Version = msg.HAVersion

	if err := conn.WriteJSON(wsMessage{Type: "auth", AccessToken: c.server.Token.AccessToken}); err != nil {
		return st, c.wsErr(ctx, err)
	}
	msg = wsMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		return st, c.wsErr(ctx, err)
	}
	switch msg.Type {
	case "auth_ok":
		if msg.HAVersion != "" {
			st.Version = msg.HAVersion
		}
	case "auth_invalid":
		return st, fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
	default:
		return st, fmt.Errorf("websocket: unexpected %q during auth", msg.Type)
	}

	if err := conn.WriteJSON(wsMessage{ID: 1, Type: "auth/current_user"}); err != nil {
		return st, c.wsErr(ctx, err)
	}
	for {
		msg = wsMessage{}
		if err := conn.ReadJSON(&msg); err != nil {
			return st, c.wsErr(ctx, err)
		}
		if msg.ID != 1 || msg.Type != "result" {
			continue
		}
		if !msg.Success || msg.Result == nil {
			return st, errors.New("websocket: current user request failed")
		}
		st.User = msg.Result.Name
		c.log.Debug().Str("version", st.Version).Str("user", st.User).Msg("probe ok")
		return st, nil
	}
}

func (c *Client) wsErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return fmt.Errorf("websocket: %w", err)
}

func (c *Client) track(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conns[conn] = struct{}{}
	return true
}

func (c *Client) untrack(conn *websocket.Conn) {
	c.mu.Lock()
	delete(c.conns, conn)
	c.mu.Unlock()
	_ = conn.Close()
}

// Disconnect closes every open websocket and makes later probes fail with
// ErrClosed.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.closed = true
	conns := make([]*websocket.Conn, 0, len(c.conns))
	for conn := range c.conns {
		conns = append(conns, conn)
	}
	c.conns = make(map[*websocket.Conn]struct{})
	c.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	if len(conns) > 0 {
		c.log.Debug().Int("conns", len(conns)).Msg("disconnected")
	}
}
