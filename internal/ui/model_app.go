package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
	"github.com/al-bashkir/conn-tui/internal/session"
)

type screen int

const (
	screenServers screen = iota
	screenSettings
	screenConnection
	screenURLForm
)

type switchScreenMsg struct {
	to screen
}

type openServerMsg struct {
	id string
}

type connectionDismissMsg struct{}

type openURLFormMsg struct {
	id  string
	typ connection.URLType
}

type urlFormCancelMsg struct{}

type urlFormSaveMsg struct {
	id   string
	typ  connection.URLType
	edit urlEdit
}

type settingsCancelMsg struct{}

type settingsSaveMsg struct {
	defaults config.Defaults
}

type activateServerMsg struct {
	id string
}

type serverRemovedMsg struct {
	id   string
	name string
	err  error
}

type requestQuitMsg struct{}

type toastDismissMsg struct {
	token int
}

type appModel struct {
	opts Options
	reg  *session.Registry
	log  zerolog.Logger

	width  int
	height int

	screen   screen
	servers  *serverListModel
	settings *settingsFormModel
	conn     *connectionModel
	urlForm  *urlFormModel

	toastToken  int
	confirmQuit bool
	quitting    bool
}

func newAppModel(opts Options) *appModel {
	m := &appModel{
		opts:   opts,
		reg:    opts.Registry,
		log:    opts.Log.With().Str("component", "ui").Logger(),
		screen: screenServers,
	}
	m.servers = newServerListModel(m.reg, opts.Config.Defaults.ActiveServer)
	m.settings = newSettingsFormModel(opts.Config.Defaults, m.reg.DefaultDeviceName())
	return m
}

func (m *appModel) Init() tea.Cmd {
	if id := strings.TrimSpace(m.opts.OpenServer); id != "" {
		return func() tea.Msg { return openServerMsg{id: id} }
	}
	return nil
}

func (m *appModel) applyWindowSize(ws tea.WindowSizeMsg) tea.Cmd {
	m.width = ws.Width
	m.height = ws.Height

	var cmds []tea.Cmd
	_, cmd := m.servers.Update(ws)
	cmds = append(cmds, cmd)
	_, cmd = m.settings.Update(ws)
	cmds = append(cmds, cmd)
	if m.conn != nil {
		_, cmd = m.conn.Update(ws)
		cmds = append(cmds, cmd)
	}
	if m.urlForm != nil {
		mw, mh := urlFormModalSize(ws.Width, ws.Height)
		_, cmd = m.urlForm.Update(tea.WindowSizeMsg{Width: mw, Height: mh})
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *appModel) toasts() []*toast {
	out := []*toast{&m.servers.toast, &m.settings.toast}
	if m.conn != nil {
		out = append(out, &m.conn.toast)
	}
	if m.urlForm != nil {
		out = append(out, &m.urlForm.toast)
	}
	return out
}

func (m *appModel) collectToastKey() string {
	var b strings.Builder
	for _, t := range m.toasts() {
		if !t.empty() {
			b.WriteString(t.text)
		}
		b.WriteByte('|')
	}
	return b.String()
}

func (m *appModel) clearToasts() {
	for _, t := range m.toasts() {
		*t = toast{}
	}
}

func (m *appModel) maxToastLevel() toastLevel {
	var lvl toastLevel
	for _, t := range m.toasts() {
		if !t.empty() && t.level > lvl {
			lvl = t.level
		}
	}
	return lvl
}

// busy reports background work that keeps the spinner running.
func (m *appModel) busy() bool {
	return m.conn != nil && (m.conn.deleting || m.conn.probing)
}

// screenToast is the toast slot of whatever is on screen.
func (m *appModel) screenToast() *toast {
	switch m.screen {
	case screenSettings:
		return &m.settings.toast
	case screenConnection:
		if m.conn != nil {
			return &m.conn.toast
		}
	case screenURLForm:
		if m.urlForm != nil {
			return &m.urlForm.toast
		}
	}
	return &m.servers.toast
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(spinnerTickMsg); ok {
		if !spinnerActive {
			return m, nil
		}
		spinnerIndex++
		if !spinnerMinEnd.IsZero() && time.Now().After(spinnerMinEnd) && !m.busy() {
			spinnerActive = false
			return m, nil
		}
		return m, spinnerTick()
	}

	if tdm, ok := msg.(toastDismissMsg); ok {
		if tdm.token == m.toastToken {
			m.clearToasts()
		}
		return m, nil
	}

	prev := m.collectToastKey()
	result, cmd := m.doUpdate(msg)
	cur := m.collectToastKey()

	if cur != prev && strings.Trim(cur, "|") != "" {
		m.toastToken++
		token := m.toastToken
		dismiss := tea.Tick(toastDuration(m.maxToastLevel()), func(time.Time) tea.Msg {
			return toastDismissMsg{token: token}
		})
		return result, tea.Batch(cmd, dismiss)
	}
	return result, cmd
}

func (m *appModel) doUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.applyWindowSize(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.confirmQuit {
			switch msg.String() {
			case "y", "Y", "enter":
				m.quitting = true
				return m, tea.Quit
			case "n", "N", "esc":
				m.confirmQuit = false
			}
			return m, nil
		}

	case requestQuitMsg:
		if m.conn != nil {
			m.conn.commitPending()
		}
		if !m.opts.Config.Defaults.ConfirmQuit {
			m.quitting = true
			return m, tea.Quit
		}
		m.confirmQuit = true
		return m, nil

	case switchScreenMsg:
		m.screen = msg.to
		if msg.to == screenSettings {
			m.settings.reset(m.opts.Config.Defaults, m.reg.DefaultDeviceName())
		}
		return m, nil

	case openServerMsg:
		srv, err := m.reg.Store().Get(msg.id)
		if err != nil {
			m.servers.toast = errToast(err)
			m.screen = screenServers
			return m, nil
		}
		m.conn = newConnectionModel(m.reg, srv, m.log)
		m.conn.active = m.opts.Config.Defaults.ActiveServer == srv.ID
		if m.width > 0 && m.height > 0 {
			_, _ = m.conn.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		}
		m.screen = screenConnection
		return m, m.conn.Init()

	case connectionDismissMsg:
		m.conn = nil
		m.urlForm = nil
		m.screen = screenServers
		m.servers.reload()
		return m, nil

	case openURLFormMsg:
		srv, err := m.reg.Store().Get(msg.id)
		if err != nil {
			*m.screenToast() = errToast(err)
			return m, nil
		}
		m.urlForm = newURLFormModel(srv, msg.typ)
		m.urlForm.parentCrumb = "Servers > " + srv.DisplayName()
		if m.width > 0 && m.height > 0 {
			mw, mh := urlFormModalSize(m.width, m.height)
			_, _ = m.urlForm.Update(tea.WindowSizeMsg{Width: mw, Height: mh})
		}
		m.screen = screenURLForm
		return m, nil

	case urlFormCancelMsg:
		m.urlForm = nil
		m.screen = screenConnection
		return m, nil

	case urlFormSaveMsg:
		err := m.reg.Store().Update(msg.id, func(s *config.Server) {
			msg.edit.apply(msg.typ, s)
		})
		if err != nil {
			if m.urlForm != nil {
				m.urlForm.toast = errToast(err)
			}
			return m, nil
		}
		m.log.Info().Str("server_id", msg.id).Str("url_type", msg.typ.String()).Msg("url settings saved")
		m.urlForm = nil
		m.screen = screenConnection
		if m.conn != nil {
			if srv, err := m.reg.Store().Get(msg.id); err == nil {
				m.conn.onServerChanged(srv)
			}
			m.conn.toast = okToast("saved")
		}
		return m, nil

	case settingsCancelMsg:
		m.screen = screenServers
		return m, nil

	case settingsSaveMsg:
		if err := m.saveDefaults(msg.defaults); err != nil {
			m.settings.toast = errToast(err)
			return m, nil
		}
		m.settings.reset(m.opts.Config.Defaults, m.reg.DefaultDeviceName())
		m.settings.toast = okToast("saved")
		return m, nil

	case activateServerMsg:
		d := m.opts.Config.Defaults
		d.ActiveServer = msg.id
		if err := m.saveDefaults(d); err != nil {
			*m.screenToast() = errToast(err)
			return m, nil
		}
		name := msg.id
		if srv, err := m.reg.Store().Get(msg.id); err == nil {
			name = srv.DisplayName()
		}
		if m.conn != nil {
			m.conn.active = m.conn.srv.ID == msg.id
		}
		*m.screenToast() = okToast(name + " is now the active server")
		return m, nil

	case serverRemovedMsg:
		spinnerStop()
		if msg.err != nil {
			m.log.Error().Err(msg.err).Str("server_id", msg.id).Msg("remove server failed")
			if m.conn != nil {
				m.conn.deleting = false
				m.conn.toast = errToast(msg.err)
			}
			return m, nil
		}
		if m.opts.Config.Defaults.ActiveServer == msg.id {
			d := m.opts.Config.Defaults
			d.ActiveServer = ""
			if err := m.saveDefaults(d); err != nil {
				m.log.Warn().Err(err).Msg("clear active server")
			}
		}
		m.conn = nil
		m.urlForm = nil
		m.screen = screenServers
		m.servers.reload()
		m.servers.toast = okToast(fmt.Sprintf("deleted %s", msg.name))
		return m, nil

	case storeChangedMsg:
		m.servers.reload()
		if m.conn == nil || m.conn.srv.ID != msg.ev.Server.ID {
			return m, nil
		}
		// Events can arrive out of order; the store holds the latest record.
		srv, err := m.reg.Store().Get(m.conn.srv.ID)
		if err != nil {
			if m.conn.deleting {
				return m, nil
			}
			name := m.conn.srv.DisplayName()
			m.conn = nil
			m.urlForm = nil
			m.screen = screenServers
			m.servers.toast = infoToast(name + " was removed")
			return m, nil
		}
		m.conn.onServerChanged(srv)
		return m, nil
	}

	if m.confirmQuit {
		return m, nil
	}

	switch m.screen {
	case screenSettings:
		model, cmd := m.settings.Update(msg)
		if sm, ok := model.(*settingsFormModel); ok {
			m.settings = sm
		}
		return m, cmd
	case screenConnection:
		if m.conn == nil {
			return m, nil
		}
		model, cmd := m.conn.Update(msg)
		if cm, ok := model.(*connectionModel); ok {
			m.conn = cm
		}
		return m, cmd
	case screenURLForm:
		if m.urlForm == nil {
			return m, nil
		}
		model, cmd := m.urlForm.Update(msg)
		if um, ok := model.(*urlFormModel); ok {
			m.urlForm = um
		}
		return m, cmd
	default:
		model, cmd := m.servers.Update(msg)
		if sm, ok := model.(*serverListModel); ok {
			m.servers = sm
		}
		return m, cmd
	}
}

func (m *appModel) View() string {
	if m.confirmQuit {
		return renderQuitConfirm(m.width, m.height)
	}
	switch m.screen {
	case screenSettings:
		return m.settings.View()
	case screenConnection:
		if m.conn != nil {
			return m.conn.View()
		}
	case screenURLForm:
		if m.urlForm != nil {
			return placeCentered(m.width, m.height, m.urlForm.View())
		}
	}
	return m.servers.View()
}

// saveDefaults persists config.toml and pushes the result to every consumer.
func (m *appModel) saveDefaults(d config.Defaults) error {
	newCfg := m.opts.Config
	newCfg.Defaults = d
	if _, err := config.Save(m.opts.ConfigPath, newCfg); err != nil {
		return err
	}

	m.opts.Config = newCfg
	SetAccentColor(d.AccentColor)
	m.refreshAccentStyles()
	m.reg.SetDefaults(d)
	m.servers.activeID = d.ActiveServer
	m.servers.reload()
	return nil
}

func (m *appModel) refreshAccentStyles() {
	setSearchBarFocused(&m.servers.search, m.servers.focus == focusSearch)
	m.settings.refreshAccentStyles()
	if m.conn != nil {
		m.conn.refreshAccentStyles()
	}
	if m.urlForm != nil {
		m.urlForm.refreshAccentStyles()
	}
}

func (m *appModel) IsQuitting() bool { return m.quitting }
