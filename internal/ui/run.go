package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/session"
	"github.com/al-bashkir/conn-tui/internal/store"
)

var ErrQuit = errors.New("quit")

type Options struct {
	ConfigPath string
	Config     config.Config
	Registry   *session.Registry
	Log        zerolog.Logger

	// OpenServer is a server ID whose connection screen opens on start.
	OpenServer string
}

type exitState interface {
	IsQuitting() bool
}

// storeChangedMsg carries a store notification into the update loop.
type storeChangedMsg struct {
	ev store.Event
}

func Run(opts Options) error {
	SetAccentColor(opts.Config.Defaults.AccentColor)

	m := newAppModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Observers run on the mutating goroutine, which may be the update loop
	// itself, so Send must not block here.
	cancel := opts.Registry.Store().Observe("", func(ev store.Event) {
		go p.Send(storeChangedMsg{ev: ev})
	})
	defer cancel()

	model, err := p.Run()
	if err != nil {
		return err
	}
	if st, ok := model.(exitState); ok && st.IsQuitting() {
		return ErrQuit
	}
	return nil
}
