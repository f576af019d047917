package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al-bashkir/conn-tui/internal/config"
)

type fakeServer struct {
	*httptest.Server

	mu       sync.Mutex
	revoked  []string
	webhooks []webhookRequest
	headers  []http.Header

	authToken string
	// wsHold keeps the websocket open after auth_required until the client
	// goes away.
	wsHold bool
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{authToken: "access"}
	mux := http.NewServeMux()

	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil || r.Form.Get("action") != "revoke" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fs.mu.Lock()
		fs.revoked = append(fs.revoked, r.Form.Get("token"))
		fs.mu.Unlock()
	})

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.headers = append(fs.headers, r.Header.Clone())
		fs.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+fs.authToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"version":       "2024.6.0",
			"location_name": "Home",
		})
	})

	mux.HandleFunc("/api/webhook/hook", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fs.mu.Lock()
		fs.webhooks = append(fs.webhooks, webhookRequest{Type: req.Type, Data: req.Data})
		fs.mu.Unlock()
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/websocket", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(map[string]string{"type": "auth_required", "ha_version": "2024.6.0"})
		if fs.wsHold {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}

		var auth map[string]any
		if err := conn.ReadJSON(&auth); err != nil {
			return
		}
		if auth["access_token"] != fs.authToken {
			_ = conn.WriteJSON(map[string]string{"type": "auth_invalid", "message": "Invalid access token"})
			return
		}
		_ = conn.WriteJSON(map[string]string{"type": "auth_ok", "ha_version": "2024.6.1"})

		var cmd map[string]any
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		_ = conn.WriteJSON(map[string]any{"id": 9, "type": "event"})
		_ = conn.WriteJSON(map[string]any{
			"id":      cmd["id"],
			"type":    "result",
			"success": true,
			"result":  map[string]string{"name": "Jo"},
		})
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) server() config.Server {
	return config.Server{
		ID: "srv",
		Connection: config.Connection{
			ExternalURL:           fs.URL,
			WebhookID:             "hook",
			HTTPAdditionalHeaders: map[string]string{"X-Proxy-Key": "k"},
		},
		Settings: config.Settings{LocationPrivacy: config.LocationExact, SensorPrivacy: config.SensorAll},
		Token:    config.Token{AccessToken: "access", RefreshToken: "refresh"},
	}
}

func newTestClient(srv config.Server) *Client {
	return New(srv, Options{
		Defaults: config.Defaults{Headers: map[string]string{"User-Agent": "conn-tui-test"}},
		Log:      zerolog.Nop(),
	})
}

func TestConfigSendsAuthAndHeaders(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(fs.server())

	cfg, err := c.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024.6.0", cfg.Version)
	assert.Equal(t, "Home", cfg.LocationName)

	require.Len(t, fs.headers, 1)
	assert.Equal(t, "k", fs.headers[0].Get("X-Proxy-Key"))
	assert.Equal(t, "conn-tui-test", fs.headers[0].Get("User-Agent"))
}

func TestAuthorizationOverrideWins(t *testing.T) {
	fs := newFakeServer(t)
	srv := fs.server()
	srv.Token.AccessToken = "stale"
	srv.Connection.HTTPAdditionalHeaders = map[string]string{"authorization": "Bearer access"}

	_, err := newTestClient(srv).Config(context.Background())
	require.NoError(t, err)
	require.Len(t, fs.headers, 1)
	assert.Equal(t, []string{"Bearer access"}, fs.headers[0].Values("Authorization"))
}

func TestConfigUnauthorized(t *testing.T) {
	fs := newFakeServer(t)
	srv := fs.server()
	srv.Token.AccessToken = "wrong"

	_, err := newTestClient(srv).Config(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthInvalid)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}

func TestRevokeToken(t *testing.T) {
	fs := newFakeServer(t)

	require.NoError(t, newTestClient(fs.server()).RevokeToken(context.Background()))
	assert.Equal(t, []string{"refresh"}, fs.revoked)

	srv := fs.server()
	srv.Token.RefreshToken = ""
	require.NoError(t, newTestClient(srv).RevokeToken(context.Background()))
	assert.Len(t, fs.revoked, 1)
}

func TestNoURL(t *testing.T) {
	c := newTestClient(config.Server{ID: "x"})
	_, err := c.Config(context.Background())
	assert.Error(t, err)
}

func TestRegisterSensorsHonorsPrivacy(t *testing.T) {
	fs := newFakeServer(t)
	sensors := []Sensor{{UniqueID: "a", Name: "A", Type: "sensor", State: 1}, {UniqueID: "b", Name: "B", Type: "sensor", State: "x"}}

	require.NoError(t, newTestClient(fs.server()).RegisterSensors(context.Background(), sensors))
	require.Len(t, fs.webhooks, 2)
	assert.Equal(t, "register_sensor", fs.webhooks[0].Type)

	srv := fs.server()
	srv.Settings.SensorPrivacy = config.SensorNone
	require.NoError(t, newTestClient(srv).RegisterSensors(context.Background(), sensors))
	assert.Len(t, fs.webhooks, 2)
}

func TestWebhookRequiresRegistration(t *testing.T) {
	fs := newFakeServer(t)
	srv := fs.server()
	srv.Connection.WebhookID = ""

	err := newTestClient(srv).RegisterSensors(context.Background(), []Sensor{{UniqueID: "a"}})
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestUpdateLocationPrivacy(t *testing.T) {
	loc := Location{Latitude: 1.5, Longitude: 2.5, Accuracy: 10, Zone: "home"}

	tests := []struct {
		privacy  config.LocationPrivacy
		sent     bool
		wantData string
	}{
		{config.LocationExact, true, `{"gps":[1.5,2.5],"gps_accuracy":10,"location_name":"home"}`},
		{config.LocationZoneOnly, true, `{"location_name":"home"}`},
		{config.LocationNever, false, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.privacy), func(t *testing.T) {
			fs := newFakeServer(t)
			srv := fs.server()
			srv.Settings.LocationPrivacy = tt.privacy

			sent, err := newTestClient(srv).UpdateLocation(context.Background(), loc)
			require.NoError(t, err)
			assert.Equal(t, tt.sent, sent)
			if !tt.sent {
				assert.Empty(t, fs.webhooks)
				return
			}
			require.Len(t, fs.webhooks, 1)
			assert.Equal(t, "update_location", fs.webhooks[0].Type)
			assert.JSONEq(t, tt.wantData, string(fs.webhooks[0].Data.(json.RawMessage)))
		})
	}
}

func TestProbe(t *testing.T) {
	fs := newFakeServer(t)

	st, err := newTestClient(fs.server()).Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024.6.1", st.Version)
	assert.Equal(t, "Jo", st.User)
	assert.Equal(t, "External URL", st.Via.String())
}

func TestProbeAuthInvalid(t *testing.T) {
	fs := newFakeServer(t)
	srv := fs.server()
	srv.Token.AccessToken = "wrong"

	_, err := newTestClient(srv).Probe(context.Background())
	assert.ErrorIs(t, err, ErrAuthInvalid)
}

func TestDisconnectClosesProbe(t *testing.T) {
	fs := newFakeServer(t)
	fs.wsHold = true
	c := newTestClient(fs.server())

	errc := make(chan error, 1)
	go func() {
		_, err := c.Probe(context.Background())
		errc <- err
	}()

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.conns) == 1
	}, 2*time.Second, 10*time.Millisecond)

	c.Disconnect()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not return after Disconnect")
	}

	_, err := c.Probe(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
