package ui

import (
	"fmt"
	"strings"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
	"github.com/al-bashkir/conn-tui/internal/session"
)

func (m *connectionModel) View() string {
	name := m.srv.DisplayName()
	if m.deleting {
		return renderDeleteProgress(m.width, m.height, name)
	}
	if m.confirmDelete {
		return renderDeleteServerConfirm(m.width, m.height, name, m.reg.Store().Len()-1)
	}
	if m.help.open {
		return m.help.view(m.width, m.height, "Connection", m.helpKeys())
	}

	innerW := max(0, m.width-2)
	contentH := max(1, max(0, m.height-2)-6)
	lines, focusLine := m.formLines(innerW)
	start, end := formScrollWindow(len(lines), contentH, focusLine)

	left := ""
	if m.active {
		left = badgeActiveStyle.Render("active")
	}
	right := renderToastWithSpinner(m.toast, m.probing)

	footer := styledFooter("j/k move  i edit  ↵ open  h/l option  r refresh  ? help  Esc back")
	if m.editing {
		footer = styledFooter("INSERT  Esc done")
		if m.focus == connFieldHeaders {
			footer = styledFooter("INSERT  one Name: value per line  Esc done")
		}
	}

	return renderBreadcrumbTabBox(m.width, m.height, breadcrumbTitle("Servers", name), left, right,
		strings.Join(lines[start:end], "\n"), footer)
}

// formLines builds the body and returns the index of the focused line.
func (m *connectionModel) formLines(innerW int) ([]string, int) {
	fieldW := max(10, innerW-formLabelW-1)
	var lines []string
	focusLine := 0
	mark := func(f connField) {
		if m.focus == f {
			focusLine = len(lines)
		}
	}

	lines = append(lines, formSection("Status", innerW))
	lines = append(lines, m.statusLines()...)
	lines = append(lines, "")

	lines = append(lines, formSection("Details", innerW))
	mark(connFieldName)
	lines = append(lines, formLabel("Name", m.focus == connFieldName)+" "+underlineInput(m.inName, m.focus == connFieldName, fieldW))
	mark(connFieldDevice)
	lines = append(lines, formLabel("Device name", m.focus == connFieldDevice)+" "+underlineInput(m.inDevice, m.focus == connFieldDevice, fieldW))
	mark(connFieldInternal)
	lines = append(lines, formLabel("Internal URL", m.focus == connFieldInternal)+" "+m.urlValue(connection.InternalDisplay(m.srv.Connection), m.focus == connFieldInternal))
	mark(connFieldExternal)
	lines = append(lines, formLabel("External URL", m.focus == connFieldExternal)+" "+m.urlValue(connection.ExternalDisplay(m.srv.Connection), m.focus == connFieldExternal))
	lines = append(lines, "")

	lines = append(lines, formSection("Additional headers", innerW))
	mark(connFieldHeaders)
	lines = append(lines, formLabel("Headers", m.focus == connFieldHeaders)+" "+m.headerSummary())
	lines = append(lines, strings.Split(m.headers.View(), "\n")...)
	if m.headerErr != nil {
		lines = append(lines, statusErr.Render(truncateTail(m.headerErr.Error(), innerW)))
	}
	lines = append(lines, "")

	lines = append(lines, formSection("Privacy", innerW))
	mark(connFieldLocation)
	lines = append(lines, formLabel("Location", m.focus == connFieldLocation)+" "+
		segLine(string(m.srv.Settings.LocationPrivacy), locationValues(), locationLabels(), m.focus == connFieldLocation))
	mark(connFieldSensors)
	lines = append(lines, formLabel("Sensors", m.focus == connFieldSensors)+" "+
		segLine(string(m.srv.Settings.SensorPrivacy), sensorValues(), sensorLabels(), m.focus == connFieldSensors))
	lines = append(lines, "")

	lines = append(lines, formSection("Actions", innerW))
	for _, f := range m.fields() {
		var label string
		switch f {
		case connFieldActivate:
			label = "Make active server"
			if m.active {
				label = "Active server"
			}
		case connFieldShare:
			label = "Copy invite link"
		case connFieldDelete:
			label = "Delete server"
		default:
			continue
		}
		mark(f)
		lines = append(lines, m.actionLine(label, f))
	}
	if m.shared != "" {
		lines = append(lines, dim.Render(truncateTail(m.shared, innerW)))
	}
	return lines, focusLine
}

func (m *connectionModel) statusLines() []string {
	row := func(label, value string) string { return formLabel(label, false) + " " + value }
	switch {
	case m.probing:
		return []string{row("Connection", statusWarn.Render(spinnerFrame()+" connecting"))}
	case m.statusErr != nil:
		msg := m.statusErr.Error()
		if session.IsAuthError(m.statusErr) {
			msg = "logged out: " + msg
		}
		return []string{row("Connection", statusDot(false, false)+" "+statusErr.Render(msg))}
	}
	version := m.status.Version
	if version == "" {
		version = m.srv.Version
	}
	if version == "" {
		version = connection.NoValue
	}
	user := m.status.User
	if user == "" {
		user = connection.NoValue
	}
	return []string{
		row("Connection", statusDot(true, false)+" websocket via "+m.status.Via.String()),
		row("Version", version),
		row("Logged in as", user),
	}
}

func (m *connectionModel) urlValue(s string, focused bool) string {
	switch s {
	case connection.RequiresSetup:
		return statusWarn.Render(s)
	case connection.CloudLabel:
		return badgeCountStyle.Render(s)
	}
	if focused {
		return checkedStyle.Render(s)
	}
	return s
}

func (m *connectionModel) headerSummary() string {
	n := len(m.srv.Connection.HTTPAdditionalHeaders)
	if n == 0 {
		return dim.Render("none")
	}
	return badgeCountStyle.Render(fmt.Sprintf("%d hdr", n))
}

func (m *connectionModel) actionLine(label string, f connField) string {
	text := "  " + label
	if m.focus == f {
		text = "> " + label
	}
	switch {
	case f == connFieldDelete:
		return destructiveStyle.Render(text)
	case m.focus == f:
		return headerStyle.Render(text)
	}
	return text
}

func locationLabels() []string {
	out := make([]string, len(config.LocationPrivacyOptions))
	for i, p := range config.LocationPrivacyOptions {
		out[i] = p.Label()
	}
	return out
}

func sensorLabels() []string {
	out := make([]string, len(config.SensorPrivacyOptions))
	for i, p := range config.SensorPrivacyOptions {
		out[i] = p.Label()
	}
	return out
}
