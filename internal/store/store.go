// Package store holds the server inventory in memory, persists every change
// to servers.toml and notifies observers.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/al-bashkir/conn-tui/internal/config"
)

var ErrNotFound = errors.New("server not found")

// Event is delivered to observers after a change has been persisted.
// Removed is set when the server no longer exists; Server then holds the
// last known record.
type Event struct {
	Server  config.Server
	Removed bool
}

type observer struct {
	id string // empty observes every server
	fn func(Event)
}

type Store struct {
	path string

	mu        sync.Mutex
	servers   []config.Server
	observers map[int]observer
	nextObs   int
}

// Open loads the inventory at path. A missing file gives an empty store.
func Open(path string) (*Store, error) {
	inv, used, err := config.LoadInventory(path)
	if err != nil {
		return nil, fmt.Errorf("load servers: %w", err)
	}
	return &Store{
		path:      used,
		servers:   inv.Servers,
		observers: make(map[int]observer),
	}, nil
}

// All returns a copy of every server in file order.
func (s *Store) All() []config.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]config.Server, len(s.servers))
	for i := range s.servers {
		out[i] = clone(s.servers[i])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.servers)
}

func (s *Store) Get(id string) (config.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return config.Server{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(s.servers[i]), nil
}

// Find resolves an ID or a display name.
func (s *Store) Find(key string) (config.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := config.FindServer(config.Inventory{Servers: s.servers}, key)
	if !ok {
		return config.Server{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return clone(s.servers[i]), nil
}

// Add stores a new server under a fresh ID.
func (s *Store) Add(srv config.Server) (config.Server, error) {
	srv.ID = uuid.NewString()
	srv.Normalize()
	if err := config.ValidateServer(srv); err != nil {
		return config.Server{}, err
	}

	s.mu.Lock()
	next := append(slices.Clone(s.servers), clone(srv))
	if err := s.saveLocked(next); err != nil {
		s.mu.Unlock()
		return config.Server{}, err
	}
	obs := s.observersLocked(srv.ID)
	s.mu.Unlock()

	notify(obs, Event{Server: clone(srv)})
	return srv, nil
}

// Update applies fn to a copy of the server and persists the result.
// Nothing is written or announced when fn leaves the record unchanged.
func (s *Store) Update(id string, fn func(*config.Server)) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	before := clone(s.servers[i])
	after := clone(before)
	fn(&after)
	after.ID = before.ID
	after.Normalize()
	if equal(before, after) {
		s.mu.Unlock()
		return nil
	}
	if err := config.ValidateServer(after); err != nil {
		s.mu.Unlock()
		return err
	}

	next := slices.Clone(s.servers)
	next[i] = after
	if err := s.saveLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	obs := s.observersLocked(id)
	s.mu.Unlock()

	notify(obs, Event{Server: clone(after)})
	return nil
}

func (s *Store) Remove(id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	gone := s.servers[i]
	next := slices.Delete(slices.Clone(s.servers), i, i+1)
	if err := s.saveLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	obs := s.observersLocked(id)
	s.mu.Unlock()

	notify(obs, Event{Server: gone, Removed: true})
	return nil
}

// Observe registers fn for changes to the server with the given ID, or to
// every server when id is empty. fn runs on the goroutine that made the
// change, after the store lock is released. The returned func unregisters.
func (s *Store) Observe(id string, fn func(Event)) (cancel func()) {
	s.mu.Lock()
	key := s.nextObs
	s.nextObs++
	s.observers[key] = observer{id: id, fn: fn}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, key)
			s.mu.Unlock()
		})
	}
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.servers, func(srv config.Server) bool { return srv.ID == id })
}

func (s *Store) saveLocked(next []config.Server) error {
	if _, err := config.SaveInventory(s.path, config.Inventory{Version: 1, Servers: next}); err != nil {
		return fmt.Errorf("save servers: %w", err)
	}
	s.servers = next
	return nil
}

func (s *Store) observersLocked(id string) []func(Event) {
	keys := make([]int, 0, len(s.observers))
	for k, o := range s.observers {
		if o.id == "" || o.id == id {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		out = append(out, s.observers[k].fn)
	}
	return out
}

func notify(obs []func(Event), ev Event) {
	for _, fn := range obs {
		fn(ev)
	}
}
