// Package session owns the per-server API clients and the flows that span
// the store and the network.
package session

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/al-bashkir/conn-tui/internal/api"
	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
	"github.com/al-bashkir/conn-tui/internal/store"
)

const (
	DefaultRevokeTimeout = config.DefaultRevokeTimeoutSeconds * time.Second
	DefaultMinDuration   = config.DefaultDeleteMinSeconds * time.Second

	maxRevokers = 8
)

type Options struct {
	Defaults   config.Defaults
	Network    connection.Network
	HTTPClient *http.Client
	Location   *api.Location // nil when the position is unknown
	AppVersion string
	Log        zerolog.Logger

	// RevokeTimeout bounds token revocation during RemoveServer.
	RevokeTimeout time.Duration
	// MinDuration is the shortest time RemoveServer takes. Zero disables it.
	MinDuration time.Duration
}

// OptionsFromDefaults converts the timing settings in config.toml.
func OptionsFromDefaults(d config.Defaults) Options {
	return Options{
		Defaults:      d,
		RevokeTimeout: time.Duration(d.RevokeTimeoutSeconds) * time.Second,
		MinDuration:   time.Duration(d.DeleteMinSeconds) * time.Second,
	}
}

type Registry struct {
	store *store.Store
	opts  Options
	log   zerolog.Logger

	mu      sync.Mutex
	clients map[string]*api.Client
	stop    func()
}

func New(st *store.Store, opts Options) *Registry {
	if opts.RevokeTimeout <= 0 {
		opts.RevokeTimeout = DefaultRevokeTimeout
	}
	if opts.MinDuration < 0 {
		opts.MinDuration = 0
	}
	r := &Registry{
		store:   st,
		opts:    opts,
		log:     opts.Log,
		clients: make(map[string]*api.Client),
	}
	r.stop = st.Observe("", r.onChange)
	return r
}

func (r *Registry) Store() *store.Store { return r.store }

func (r *Registry) Defaults() config.Defaults {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Defaults
}

// SetDefaults swaps the application defaults. Cached clients are dropped so
// new default headers take effect on the next request.
func (r *Registry) SetDefaults(d config.Defaults) {
	r.mu.Lock()
	r.opts.Defaults = d
	if d.RevokeTimeoutSeconds > 0 {
		r.opts.RevokeTimeout = time.Duration(d.RevokeTimeoutSeconds) * time.Second
	}
	if d.DeleteMinSeconds >= 0 {
		r.opts.MinDuration = time.Duration(d.DeleteMinSeconds) * time.Second
	}
	r.clients = make(map[string]*api.Client)
	r.mu.Unlock()
}

func (r *Registry) timings() (revoke, floor time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.RevokeTimeout, r.opts.MinDuration
}

func (r *Registry) Network() connection.Network { return r.opts.Network }

// onChange drops cached clients so the next call sees the new record.
func (r *Registry) onChange(ev store.Event) {
	r.mu.Lock()
	c := r.clients[ev.Server.ID]
	delete(r.clients, ev.Server.ID)
	r.mu.Unlock()
	if c != nil && ev.Removed {
		c.Disconnect()
	}
}

// API returns the client for a server, building it on first use.
func (r *Registry) API(id string) (*api.Client, error) {
	r.mu.Lock()
	if c, ok := r.clients[id]; ok {
		r.mu.Unlock()
		return c, nil
	}
	r.mu.Unlock()

	srv, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	c := api.New(srv, api.Options{
		Defaults:   r.Defaults(),
		Network:    r.opts.Network,
		HTTPClient: r.opts.HTTPClient,
		Log:        r.log,
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[id]; ok {
		return existing, nil
	}
	r.clients[id] = c
	return c, nil
}

// APIs returns a client for every stored server.
func (r *Registry) APIs() []*api.Client {
	servers := r.store.All()
	out := make([]*api.Client, 0, len(servers))
	for _, s := range servers {
		c, err := r.API(s.ID)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// RemoveServer revokes tokens, waits out the minimum duration, then
// disconnects and forgets the server. Revocation is raced against
// RevokeTimeout and its failures are only logged.
func (r *Registry) RemoveServer(ctx context.Context, id string) error {
	if _, err := r.store.Get(id); err != nil {
		return err
	}
	log := r.log.With().Str("server_id", id).Logger()
	log.Info().Msg("removing server")

	revokeTimeout, minDuration := r.timings()
	floor := time.NewTimer(minDuration)
	defer floor.Stop()

	r.revokeAll(ctx, revokeTimeout, log)

	select {
	case <-floor.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	if c, err := r.API(id); err == nil {
		c.Disconnect()
	}
	if err := r.store.Remove(id); err != nil {
		return err
	}
	log.Info().Msg("server removed")
	return nil
}

func (r *Registry) revokeAll(ctx context.Context, timeout time.Duration, log zerolog.Logger) {
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clients := r.APIs()
	done := make(chan struct{})
	go func() {
		defer close(done)
		p := pool.New().WithMaxGoroutines(maxRevokers)
		for _, c := range clients {
			p.Go(func() {
				if err := c.RevokeToken(rctx); err != nil {
					log.Warn().Err(err).Str("revoke_server_id", c.Server().ID).Msg("revoke token failed")
				}
			})
		}
		p.Wait()
	}()

	select {
	case <-done:
	case <-rctx.Done():
		log.Warn().Dur("timeout", timeout).Msg("token revocation timed out")
	}
}

// RegisterSensors sends the device sensors to one server.
func (r *Registry) RegisterSensors(ctx context.Context, id string) error {
	c, err := r.API(id)
	if err != nil {
		return err
	}
	return c.RegisterSensors(ctx, DeviceSensors(r.DeviceName(c.Server()), r.opts.AppVersion))
}

// UpdateLocation sends the known position to one server. It reports whether
// anything was sent.
func (r *Registry) UpdateLocation(ctx context.Context, id string) (bool, error) {
	c, err := r.API(id)
	if err != nil {
		return false, err
	}
	if r.opts.Location == nil {
		r.log.Debug().Str("server_id", id).Msg("no location known")
		return false, nil
	}
	return c.UpdateLocation(ctx, *r.opts.Location)
}

// DeviceName is the name the server sees for this device.
func (r *Registry) DeviceName(srv config.Server) string {
	if n := strings.TrimSpace(srv.Settings.OverrideDeviceName); n != "" {
		return n
	}
	return r.DefaultDeviceName()
}

// DefaultDeviceName ignores per-server overrides.
func (r *Registry) DefaultDeviceName() string {
	if n := strings.TrimSpace(r.Defaults().DeviceName); n != "" {
		return n
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "conn-tui"
}

// Close disconnects every client and stops observing the store.
func (r *Registry) Close() {
	r.stop()
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*api.Client)
	r.mu.Unlock()
	for _, c := range clients {
		c.Disconnect()
	}
}

// IsAuthError reports whether err means the stored token no longer works.
func IsAuthError(err error) bool {
	return errors.Is(err, api.ErrAuthInvalid)
}
