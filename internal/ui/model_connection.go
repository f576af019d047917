package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/al-bashkir/conn-tui/internal/api"
	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
	"github.com/al-bashkir/conn-tui/internal/headers"
	"github.com/al-bashkir/conn-tui/internal/session"
)

const (
	nameCommitDelay    = time.Second
	headersCommitDelay = time.Second
	probeTimeout       = 10 * time.Second
	pushTimeout        = 30 * time.Second
)

type connField int

const (
	connFieldName connField = iota
	connFieldDevice
	connFieldInternal
	connFieldExternal
	connFieldHeaders
	connFieldLocation
	connFieldSensors
	connFieldActivate
	connFieldShare
	connFieldDelete
)

type probeResultMsg struct {
	token  int
	status api.Status
	err    error
}

type nameCommitMsg struct {
	token int
}

type headersCommitMsg struct {
	token int
}

type connectionModel struct {
	reg *session.Registry
	srv config.Server
	log zerolog.Logger

	width  int
	height int

	focus   connField
	editing bool
	active  bool // srv is the default server

	inName   textinput.Model
	inDevice textinput.Model
	headers  textarea.Model

	headerErr    error
	nameToken    int
	namePending  bool
	headersToken int
	headersDirty bool

	status     api.Status
	statusErr  error
	probing    bool
	probeToken int
	shared     string

	confirmDelete bool
	deleting      bool

	toast  toast
	keymap keyMap
	help   helpModal
}

func newConnectionModel(reg *session.Registry, srv config.Server, log zerolog.Logger) *connectionModel {
	m := &connectionModel{
		reg:    reg,
		srv:    srv,
		log:    log.With().Str("server_id", srv.ID).Logger(),
		focus:  connFieldName,
		keymap: defaultKeyMap(),
		help:   helpModal{help: help.New()},
	}
	m.inName = newFormInput(srv.Settings.LocalName, srv.Name, 128)
	m.inDevice = newFormInput(srv.Settings.OverrideDeviceName, reg.DefaultDeviceName(), 128)
	m.headers = newHeaderArea(headers.Format(srv.Connection.HTTPAdditionalHeaders))
	m.setFocus(connFieldName)
	return m
}

func (m *connectionModel) Init() tea.Cmd {
	return m.startProbe()
}

func (m *connectionModel) refreshAccentStyles() {
	setSearchFocused(&m.inName, m.focus == connFieldName)
	setSearchFocused(&m.inDevice, m.focus == connFieldDevice)
	styleHeaderArea(&m.headers)
}

func (m *connectionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		innerW := max(0, msg.Width-2)
		fieldW := max(10, innerW-formLabelW-1)
		m.inName.Width = fieldW
		m.inDevice.Width = fieldW
		m.headers.SetWidth(max(10, innerW-2))
		return m, nil

	case probeResultMsg:
		if msg.token != m.probeToken {
			return m, nil
		}
		m.probing = false
		spinnerStop()
		m.status = msg.status
		m.statusErr = msg.err
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("status probe failed")
		} else if v := strings.TrimSpace(msg.status.Version); v != "" && v != m.srv.Version {
			m.updateServer(func(s *config.Server) { s.Version = v })
		}
		return m, nil

	case nameCommitMsg:
		if msg.token == m.nameToken && m.namePending {
			m.commitName()
		}
		return m, nil

	case headersCommitMsg:
		if msg.token == m.headersToken && m.headersDirty {
			m.commitHeaders()
		}
		return m, nil

	case shareResultMsg:
		m.toast = shareToast(msg)
		if msg.err == nil {
			m.shared = msg.url
		}
		return m, nil

	case tea.KeyMsg:
		if m.deleting {
			return m, nil
		}
		if m.help.open {
			m.help.update(msg)
			return m, nil
		}
		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y", "enter":
				m.confirmDelete = false
				return m, m.startDelete()
			case "n", "N", "esc":
				m.confirmDelete = false
			}
			return m, nil
		}

		if m.editing {
			return m, m.updateEditing(msg)
		}

		switch {
		case key.Matches(msg, m.keymap.Esc):
			m.commitPending()
			return m, func() tea.Msg { return connectionDismissMsg{} }
		case key.Matches(msg, m.keymap.Quit):
			return m, func() tea.Msg { return requestQuitMsg{} }
		case key.Matches(msg, m.keymap.Help):
			m.help.toggle(m.width, m.height, "Connection", m.helpKeys())
			return m, nil
		case key.Matches(msg, m.keymap.Reload):
			return m, m.startProbe()
		case key.Matches(msg, m.keymap.Share):
			return m, m.share()
		case key.Matches(msg, m.keymap.Delete):
			m.confirmDelete = true
			return m, nil
		case key.Matches(msg, m.keymap.Activate):
			return m, m.activate()
		}

		s := msg.String()
		switch s {
		case "j", "down", "tab":
			m.moveFocus(1)
			return m, nil
		case "k", "up", "shift+tab":
			m.moveFocus(-1)
			return m, nil
		case "i":
			return m, m.enterEdit()
		case "enter":
			return m, m.activateField()
		case "h", "l", "left", "right", " ":
			delta := 1
			if s == "h" || s == "left" {
				delta = -1
			}
			return m, m.cycle(delta)
		}
	}
	return m, nil
}

// updateEditing routes a key to the focused text field.
func (m *connectionModel) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch m.focus {
	case connFieldHeaders:
		if msg.String() == "esc" {
			m.exitEdit()
			return nil
		}
		before := m.headers.Value()
		var cmd tea.Cmd
		m.headers, cmd = m.headers.Update(msg)
		if m.headers.Value() == before {
			return cmd
		}
		m.headers.SetHeight(areaHeight(m.headers.Value()))
		m.headerErr = headers.Validate(m.headers.Value())
		m.headersDirty = true
		m.headersToken++
		token := m.headersToken
		return tea.Batch(cmd, tea.Tick(headersCommitDelay, func(time.Time) tea.Msg {
			return headersCommitMsg{token: token}
		}))

	case connFieldName, connFieldDevice:
		switch msg.String() {
		case "esc":
			m.exitEdit()
			return nil
		case "enter":
			m.exitEdit()
			m.moveFocus(1)
			return nil
		}
		if m.focus == connFieldDevice {
			before := m.inDevice.Value()
			var cmd tea.Cmd
			m.inDevice, cmd = m.inDevice.Update(msg)
			if m.inDevice.Value() != before {
				m.commitDevice()
			}
			return cmd
		}
		before := m.inName.Value()
		var cmd tea.Cmd
		m.inName, cmd = m.inName.Update(msg)
		if m.inName.Value() == before {
			return cmd
		}
		m.namePending = true
		m.nameToken++
		token := m.nameToken
		return tea.Batch(cmd, tea.Tick(nameCommitDelay, func(time.Time) tea.Msg {
			return nameCommitMsg{token: token}
		}))
	}
	m.exitEdit()
	return nil
}

func (m *connectionModel) fields() []connField {
	order := []connField{
		connFieldName,
		connFieldDevice,
		connFieldInternal,
		connFieldExternal,
		connFieldHeaders,
		connFieldLocation,
		connFieldSensors,
	}
	if m.reg.Store().Len() > 1 {
		order = append(order, connFieldActivate)
	}
	return append(order, connFieldShare, connFieldDelete)
}

func (m *connectionModel) moveFocus(delta int) {
	order := m.fields()
	pos := 0
	for i := range order {
		if order[i] == m.focus {
			pos = i
			break
		}
	}
	pos = (pos + delta + len(order)) % len(order)
	m.setFocus(order[pos])
}

func (m *connectionModel) setFocus(f connField) {
	if m.focus == connFieldHeaders && f != connFieldHeaders {
		m.commitHeaders()
	}
	if m.focus == connFieldName && f != connFieldName {
		m.commitName()
	}
	m.focus = f
	m.editing = false
	m.inName.Blur()
	m.inDevice.Blur()
	m.headers.Blur()
	setSearchFocused(&m.inName, f == connFieldName)
	setSearchFocused(&m.inDevice, f == connFieldDevice)
}

func (m *connectionModel) enterEdit() tea.Cmd {
	switch m.focus {
	case connFieldName:
		m.editing = true
		return m.inName.Focus()
	case connFieldDevice:
		m.editing = true
		return m.inDevice.Focus()
	case connFieldHeaders:
		m.editing = true
		return m.headers.Focus()
	}
	return nil
}

func (m *connectionModel) exitEdit() {
	m.editing = false
	m.inName.Blur()
	m.inDevice.Blur()
	if m.headers.Focused() {
		m.headers.Blur()
		m.commitHeaders()
	}
	m.commitName()
}

// activateField runs the enter action of the focused row.
func (m *connectionModel) activateField() tea.Cmd {
	switch m.focus {
	case connFieldName, connFieldDevice, connFieldHeaders:
		return m.enterEdit()
	case connFieldInternal:
		id := m.srv.ID
		return func() tea.Msg { return openURLFormMsg{id: id, typ: connection.Internal} }
	case connFieldExternal:
		id := m.srv.ID
		return func() tea.Msg { return openURLFormMsg{id: id, typ: connection.External} }
	case connFieldLocation, connFieldSensors:
		return m.cycle(1)
	case connFieldActivate:
		return m.activate()
	case connFieldShare:
		return m.share()
	case connFieldDelete:
		m.confirmDelete = true
	}
	return nil
}

func (m *connectionModel) cycle(delta int) tea.Cmd {
	switch m.focus {
	case connFieldLocation:
		cur := string(m.srv.Settings.LocationPrivacy)
		next := config.LocationPrivacy(cycleChoice(cur, locationValues(), delta))
		if !m.updateServer(func(s *config.Server) { s.Settings.LocationPrivacy = next }) {
			return nil
		}
		return m.pushLocation()
	case connFieldSensors:
		cur := string(m.srv.Settings.SensorPrivacy)
		next := config.SensorPrivacy(cycleChoice(cur, sensorValues(), delta))
		if !m.updateServer(func(s *config.Server) { s.Settings.SensorPrivacy = next }) {
			return nil
		}
		return m.pushSensors()
	}
	return nil
}

func (m *connectionModel) activate() tea.Cmd {
	if m.reg.Store().Len() <= 1 {
		return nil
	}
	if m.active {
		m.toast = infoToast("already the active server")
		return nil
	}
	id := m.srv.ID
	return func() tea.Msg { return activateServerMsg{id: id} }
}

func (m *connectionModel) share() tea.Cmd {
	return shareCmd(m.srv, m.reg.Defaults().InvitationBaseURL)
}

// updateServer applies fn through the store and keeps m.srv in sync. It
// reports whether the write succeeded.
func (m *connectionModel) updateServer(fn func(*config.Server)) bool {
	if err := m.reg.Store().Update(m.srv.ID, fn); err != nil {
		m.log.Error().Err(err).Msg("update server")
		m.toast = errToast(err)
		return false
	}
	if srv, err := m.reg.Store().Get(m.srv.ID); err == nil {
		m.srv = srv
	}
	return true
}

func (m *connectionModel) commitName() {
	m.namePending = false
	v := strings.TrimSpace(m.inName.Value())
	if v == m.srv.Settings.LocalName {
		return
	}
	m.updateServer(func(s *config.Server) { s.Settings.LocalName = v })
}

func (m *connectionModel) commitDevice() {
	v := strings.TrimSpace(m.inDevice.Value())
	if v == m.srv.Settings.OverrideDeviceName {
		return
	}
	m.updateServer(func(s *config.Server) { s.Settings.OverrideDeviceName = v })
}

// commitHeaders writes the editor contents back when they parse and differ
// from what is stored. Blank text clears the overrides.
func (m *connectionModel) commitHeaders() {
	m.headersDirty = false
	text := m.headers.Value()

	var parsed map[string]string
	if strings.TrimSpace(text) != "" {
		var err error
		parsed, err = headers.Parse(text)
		if err != nil {
			m.headerErr = err
			return
		}
	}
	m.headerErr = nil
	if headers.Equal(parsed, m.srv.Connection.HTTPAdditionalHeaders) {
		return
	}
	if m.updateServer(func(s *config.Server) { s.Connection.HTTPAdditionalHeaders = parsed }) {
		m.log.Info().Int("count", len(parsed)).Msg("header overrides saved")
	}
}

// commitPending flushes edits that are waiting on a debounce.
func (m *connectionModel) commitPending() {
	if m.namePending {
		m.commitName()
	}
	if m.headersDirty {
		m.commitHeaders()
	}
}

// onServerChanged takes a record written elsewhere. Fields with unsaved
// edits keep their text.
func (m *connectionModel) onServerChanged(srv config.Server) {
	m.srv = srv
	if !m.namePending && !(m.editing && m.focus == connFieldName) {
		m.inName.SetValue(srv.Settings.LocalName)
	}
	m.inName.Placeholder = srv.Name
	if !(m.editing && m.focus == connFieldDevice) {
		m.inDevice.SetValue(srv.Settings.OverrideDeviceName)
	}
	if !m.headersDirty && !m.headers.Focused() {
		m.headers.SetValue(headers.Format(srv.Connection.HTTPAdditionalHeaders))
		m.headers.SetHeight(areaHeight(m.headers.Value()))
		m.headerErr = nil
	}
}

func (m *connectionModel) startProbe() tea.Cmd {
	m.probeToken++
	token := m.probeToken
	m.probing = true
	m.statusErr = nil
	ticking := spinnerActive
	spinnerStart()

	reg, id := m.reg, m.srv.ID
	probe := func() tea.Msg {
		c, err := reg.API(id)
		if err != nil {
			return probeResultMsg{token: token, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		st, err := c.Probe(ctx)
		return probeResultMsg{token: token, status: st, err: err}
	}
	if ticking {
		return probe
	}
	return tea.Batch(probe, spinnerTick())
}

// pushLocation and pushSensors are fire and forget: failures are logged.
func (m *connectionModel) pushLocation() tea.Cmd {
	reg, id, log := m.reg, m.srv.ID, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if _, err := reg.UpdateLocation(ctx, id); err != nil {
			log.Warn().Err(err).Msg("location update failed")
		}
		return nil
	}
}

func (m *connectionModel) pushSensors() tea.Cmd {
	reg, id, log := m.reg, m.srv.ID, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := reg.RegisterSensors(ctx, id); err != nil && !errors.Is(err, api.ErrNotRegistered) {
			log.Warn().Err(err).Msg("sensor registration failed")
		}
		return nil
	}
}

func (m *connectionModel) startDelete() tea.Cmd {
	m.commitPending()
	m.deleting = true
	ticking := spinnerActive
	spinnerStart()

	reg, id, name := m.reg, m.srv.ID, m.srv.DisplayName()
	remove := func() tea.Msg {
		err := reg.RemoveServer(context.Background(), id)
		return serverRemovedMsg{id: id, name: name, err: err}
	}
	if ticking {
		return remove
	}
	return tea.Batch(remove, spinnerTick())
}

func locationValues() []string {
	out := make([]string, len(config.LocationPrivacyOptions))
	for i, p := range config.LocationPrivacyOptions {
		out[i] = string(p)
	}
	return out
}

func sensorValues() []string {
	out := make([]string, len(config.SensorPrivacyOptions))
	for i, p := range config.SensorPrivacyOptions {
		out[i] = string(p)
	}
	return out
}

func (m *connectionModel) helpKeys() helpMap {
	move := key.NewBinding(key.WithKeys("j", "k"), key.WithHelp("j/k", "move"))
	option := key.NewBinding(key.WithKeys("h", "l"), key.WithHelp("h/l", "change option"))
	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit/run"))
	return helpMap{
		short: []key.Binding{move, m.keymap.Edit, enter, m.keymap.Esc, m.keymap.Help},
		full: [][]key.Binding{
			{move, m.keymap.Edit, enter, option},
			{m.keymap.Reload, m.keymap.Activate, m.keymap.Share, m.keymap.Delete},
			{m.keymap.Esc, m.keymap.Help, m.keymap.Quit},
		},
	}
}
