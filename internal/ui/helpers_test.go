package ui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/session"
	"github.com/al-bashkir/conn-tui/internal/store"
)

func newTestRegistry(t *testing.T) *session.Registry {
	t.Helper()
	spinnerActive = false
	spinnerMinEnd = time.Time{}
	st, err := store.Open(filepath.Join(t.TempDir(), "servers.toml"))
	require.NoError(t, err)
	d := config.DefaultConfig().Defaults
	d.DeviceName = "laptop"
	reg := session.New(st, session.Options{Defaults: d, Log: zerolog.Nop()})
	t.Cleanup(reg.Close)
	return reg
}

func addTestServer(t *testing.T, reg *session.Registry, name, url string) config.Server {
	t.Helper()
	srv, err := reg.Store().Add(config.Server{
		Name:       name,
		Connection: config.Connection{ExternalURL: url},
		Token:      config.Token{AccessToken: "access", RefreshToken: "refresh-" + name},
	})
	require.NoError(t, err)
	return srv
}

func newTestApp(t *testing.T, reg *session.Registry) *appModel {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Defaults = reg.Defaults()
	m := newAppModel(Options{
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Config:     cfg,
		Registry:   reg,
		Log:        zerolog.Nop(),
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

// sendKeys feeds keys to m and returns the last command.
func sendKeys(m tea.Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

// collect runs cmd and any batched commands, returning the messages that
// match keep. Commands whose message is rejected are not descended into.
func collect(cmd tea.Cmd, keep func(tea.Msg) bool) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c, keep)...)
		}
		return out
	}
	if msg != nil && keep(msg) {
		return []tea.Msg{msg}
	}
	return nil
}
