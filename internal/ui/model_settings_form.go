package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/headers"
)

type settingsField int

const (
	settingsFieldAccent settingsField = iota
	settingsFieldConfirmQuit
	settingsFieldDevice
	settingsFieldInvite
	settingsFieldRevoke
	settingsFieldDeleteMin
	settingsFieldHeaders
)

var accentChoices = []string{"", "blue", "cyan", "green", "amber", "red", "magenta"}

type settingsFormModel struct {
	defaults config.Defaults

	width  int
	height int

	focus   settingsField
	editing bool // insert mode on a text field

	inDevice  textinput.Model
	inInvite  textinput.Model
	inRevoke  textinput.Model
	inDelete  textinput.Model
	headers   textarea.Model
	headerErr error

	toast  toast
	keymap keyMap
}

func newSettingsFormModel(d config.Defaults, deviceHint string) *settingsFormModel {
	m := &settingsFormModel{keymap: defaultKeyMap()}
	m.inDevice = newFormInput("", "", 128)
	m.inInvite = newFormInput("", config.DefaultInvitationBaseURL, 1024)
	m.inRevoke = newFormInput("", strconv.Itoa(config.DefaultRevokeTimeoutSeconds), 4)
	m.inDelete = newFormInput("", strconv.Itoa(config.DefaultDeleteMinSeconds), 4)
	m.headers = newHeaderArea("")
	m.reset(d, deviceHint)
	return m
}

// reset discards unsaved edits and shows d.
func (m *settingsFormModel) reset(d config.Defaults, deviceHint string) {
	m.defaults = d
	m.inDevice.SetValue(d.DeviceName)
	m.inDevice.Placeholder = deviceHint
	m.inInvite.SetValue(d.InvitationBaseURL)
	m.inRevoke.SetValue(strconv.Itoa(d.RevokeTimeoutSeconds))
	m.inDelete.SetValue(strconv.Itoa(d.DeleteMinSeconds))
	m.headers.SetValue(headers.Format(d.Headers))
	m.headers.SetHeight(areaHeight(m.headers.Value()))
	m.headerErr = nil
	m.setFocus(m.focus)
}

func (m *settingsFormModel) refreshAccentStyles() {
	setSearchFocused(&m.inDevice, m.focus == settingsFieldDevice)
	setSearchFocused(&m.inInvite, m.focus == settingsFieldInvite)
	setSearchFocused(&m.inRevoke, m.focus == settingsFieldRevoke)
	setSearchFocused(&m.inDelete, m.focus == settingsFieldDeleteMin)
	styleHeaderArea(&m.headers)
}

func (m *settingsFormModel) Init() tea.Cmd { return nil }

func (m *settingsFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		innerW := max(0, msg.Width-2)
		fieldW := max(10, innerW-formLabelW-1)
		m.inDevice.Width = fieldW
		m.inInvite.Width = fieldW
		m.inRevoke.Width = min(8, fieldW)
		m.inDelete.Width = min(8, fieldW)
		m.headers.SetWidth(max(10, innerW-2))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Save) {
			if m.editing {
				m.exitEdit()
			}
			d, err := m.apply()
			if err != nil {
				m.toast = errToast(err)
				return m, nil
			}
			return m, func() tea.Msg { return settingsSaveMsg{defaults: d} }
		}

		if m.editing {
			return m, m.updateEditing(msg)
		}

		if key.Matches(msg, m.keymap.Esc) {
			return m, func() tea.Msg { return settingsCancelMsg{} }
		}
		if key.Matches(msg, m.keymap.Quit) {
			return m, func() tea.Msg { return requestQuitMsg{} }
		}
		if key.Matches(msg, m.keymap.SwitchTab) {
			return m, func() tea.Msg { return switchScreenMsg{to: screenServers} }
		}

		s := msg.String()
		switch s {
		case "j", "down", "tab", "enter":
			m.moveFocus(1)
		case "k", "up", "shift+tab":
			m.moveFocus(-1)
		case "i":
			return m, m.enterEdit()
		case "h", "l", "left", "right", " ":
			delta := 1
			if s == "h" || s == "left" {
				delta = -1
			}
			switch m.focus {
			case settingsFieldAccent:
				m.defaults.AccentColor = cycleChoice(strings.TrimSpace(m.defaults.AccentColor), accentChoices, delta)
			case settingsFieldConfirmQuit:
				m.defaults.ConfirmQuit = !m.defaults.ConfirmQuit
			}
		}
	}
	return m, nil
}

func (m *settingsFormModel) updateEditing(msg tea.KeyMsg) tea.Cmd {
	if m.focus == settingsFieldHeaders {
		if msg.String() == "esc" {
			m.exitEdit()
			return nil
		}
		var cmd tea.Cmd
		m.headers, cmd = m.headers.Update(msg)
		m.headers.SetHeight(areaHeight(m.headers.Value()))
		m.headerErr = headers.Validate(m.headers.Value())
		return cmd
	}

	switch msg.String() {
	case "esc":
		m.exitEdit()
		return nil
	case "enter":
		m.exitEdit()
		m.moveFocus(1)
		return nil
	}
	var cmd tea.Cmd
	switch m.focus {
	case settingsFieldDevice:
		m.inDevice, cmd = m.inDevice.Update(msg)
	case settingsFieldInvite:
		m.inInvite, cmd = m.inInvite.Update(msg)
	case settingsFieldRevoke:
		m.inRevoke, cmd = m.inRevoke.Update(msg)
	case settingsFieldDeleteMin:
		m.inDelete, cmd = m.inDelete.Update(msg)
	}
	return cmd
}

func (m *settingsFormModel) moveFocus(delta int) {
	n := int(settingsFieldHeaders) + 1
	m.setFocus(settingsField((int(m.focus) + delta + n) % n))
}

func (m *settingsFormModel) setFocus(f settingsField) {
	m.focus = f
	m.editing = false
	m.inDevice.Blur()
	m.inInvite.Blur()
	m.inRevoke.Blur()
	m.inDelete.Blur()
	m.headers.Blur()
	m.refreshAccentStyles()
}

func (m *settingsFormModel) enterEdit() tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case settingsFieldDevice:
		cmd = m.inDevice.Focus()
	case settingsFieldInvite:
		cmd = m.inInvite.Focus()
	case settingsFieldRevoke:
		cmd = m.inRevoke.Focus()
	case settingsFieldDeleteMin:
		cmd = m.inDelete.Focus()
	case settingsFieldHeaders:
		cmd = m.headers.Focus()
	default:
		return nil
	}
	m.editing = true
	return cmd
}

func (m *settingsFormModel) exitEdit() {
	m.editing = false
	m.inDevice.Blur()
	m.inInvite.Blur()
	m.inRevoke.Blur()
	m.inDelete.Blur()
	m.headers.Blur()
}

// apply validates the form and returns the defaults it describes.
func (m *settingsFormModel) apply() (config.Defaults, error) {
	d := m.defaults
	d.DeviceName = strings.TrimSpace(m.inDevice.Value())

	invite := strings.TrimSpace(m.inInvite.Value())
	if invite == "" {
		invite = config.DefaultInvitationBaseURL
	}
	if err := validateURL(invite); err != nil {
		return d, fmt.Errorf("invitation base URL: %w", err)
	}
	d.InvitationBaseURL = invite

	revoke, err := parseSeconds(m.inRevoke.Value(), config.DefaultRevokeTimeoutSeconds)
	if err != nil || revoke < 1 {
		return d, fmt.Errorf("revoke timeout must be a whole number of seconds, at least 1")
	}
	d.RevokeTimeoutSeconds = revoke

	floor, err := parseSeconds(m.inDelete.Value(), config.DefaultDeleteMinSeconds)
	if err != nil || floor < 0 {
		return d, fmt.Errorf("delete minimum must be a whole number of seconds")
	}
	d.DeleteMinSeconds = floor

	text := m.headers.Value()
	d.Headers = nil
	if strings.TrimSpace(text) != "" {
		parsed, err := headers.Parse(text)
		if err != nil {
			m.headerErr = err
			m.setFocus(settingsFieldHeaders)
			return d, fmt.Errorf("headers: %w", err)
		}
		d.Headers = parsed
	}
	m.headerErr = nil
	return d, nil
}

func parseSeconds(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func (m *settingsFormModel) View() string {
	innerW := max(0, m.width-2)
	contentH := max(1, max(0, m.height-2)-6)
	fieldW := max(10, innerW-formLabelW-1)

	var lines []string
	focusLine := 0
	row := func(f settingsField, label, value string) {
		if m.focus == f {
			focusLine = len(lines)
		}
		lines = append(lines, formLabel(label, m.focus == f)+" "+value)
	}

	lines = append(lines, formSection("Appearance", innerW))
	accent := strings.TrimSpace(m.defaults.AccentColor)
	accentFocused := m.focus == settingsFieldAccent
	labels := []string{"default", "blue", "cyan", "green", "amber", "red", "magenta"}
	row(settingsFieldAccent, "Accent", segLine(accent, accentChoices[:4], labels[:4], accentFocused))
	lines = append(lines, strings.Repeat(" ", formLabelW+1)+segLine(accent, accentChoices[4:], labels[4:], accentFocused))
	row(settingsFieldConfirmQuit, "Confirm quit", segLine(yesNo(m.defaults.ConfirmQuit), []string{"yes", "no"}, []string{"yes", "no"}, m.focus == settingsFieldConfirmQuit))

	lines = append(lines, "", formSection("Servers", innerW))
	row(settingsFieldDevice, "Device name", underlineInput(m.inDevice, m.focus == settingsFieldDevice, fieldW))
	row(settingsFieldInvite, "Invite base URL", underlineInput(m.inInvite, m.focus == settingsFieldInvite, fieldW))
	row(settingsFieldRevoke, "Revoke timeout", underlineInput(m.inRevoke, m.focus == settingsFieldRevoke, min(8, fieldW))+dim.Render(" s"))
	row(settingsFieldDeleteMin, "Delete minimum", underlineInput(m.inDelete, m.focus == settingsFieldDeleteMin, min(8, fieldW))+dim.Render(" s"))

	lines = append(lines, "", formSection("Default headers", innerW))
	row(settingsFieldHeaders, "Headers", dim.Render("sent to every server unless overridden"))
	lines = append(lines, strings.Split(m.headers.View(), "\n")...)
	if m.headerErr != nil {
		lines = append(lines, statusErr.Render(truncateTail(m.headerErr.Error(), innerW)))
	}

	start, end := formScrollWindow(len(lines), contentH, focusLine)

	pos := fmt.Sprintf("%d/%d", int(m.focus)+1, int(settingsFieldHeaders)+1)
	footer := footerStyle.Render(pos + "  Ctrl+S save   j/k move   h/l option   i edit   Esc back")
	if m.editing {
		footer = footerStyle.Render(pos) + "  " + headerStyle.Render("INSERT") + "  " + footerStyle.Render("Ctrl+S save   Esc done")
	}

	right := renderToast(m.toast)
	return renderMainTabBox(m.width, m.height, tabSettings, headerStyle.Render("Settings"), right,
		strings.Join(lines[start:end], "\n"), footer)
}
