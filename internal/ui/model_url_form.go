package ui

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
)

type urlField int

const (
	urlFieldURL urlField = iota
	urlFieldSSIDs
	urlFieldHWAddrs
	urlFieldFallback
	urlFieldCloud
)

// urlEdit is the result of the URL form, applied to the server on save.
type urlEdit struct {
	url      string
	ssids    []string
	hwaddrs  []string
	fallback bool
	useCloud bool
}

func (e urlEdit) apply(typ connection.URLType, s *config.Server) {
	switch typ {
	case connection.Internal:
		s.Connection.InternalURL = e.url
		s.Connection.InternalSSIDs = e.ssids
		s.Connection.InternalHardwareAddresses = e.hwaddrs
		s.Connection.AlwaysFallbackToInternalURL = e.fallback
	case connection.External:
		s.Connection.ExternalURL = e.url
		if s.Connection.CanUseCloud {
			s.Connection.UseCloud = e.useCloud
		}
	}
}

type urlFormModel struct {
	srv config.Server
	typ connection.URLType

	width  int
	height int

	parentCrumb string

	focus   urlField
	editing bool

	inURL     textinput.Model
	inSSIDs   textinput.Model
	inHWAddrs textinput.Model
	fallback  bool
	useCloud  bool

	err   error
	toast toast
}

func newURLFormModel(srv config.Server, typ connection.URLType) *urlFormModel {
	c := srv.Connection
	m := &urlFormModel{
		srv:      srv,
		typ:      typ,
		fallback: c.AlwaysFallbackToInternalURL,
		useCloud: c.UseCloud,
	}
	value := c.ExternalURL
	placeholder := "https://example.duckdns.org:8123"
	if typ == connection.Internal {
		value = c.InternalURL
		placeholder = "http://homeassistant.local:8123"
	}
	m.inURL = newFormInput(value, placeholder, 2048)
	m.inSSIDs = newFormInput(strings.Join(c.InternalSSIDs, ", "), "home-wifi, home-5g", 1024)
	m.inHWAddrs = newFormInput(strings.Join(c.InternalHardwareAddresses, ", "), "aa:bb:cc:dd:ee:ff", 1024)
	m.setFocus(urlFieldURL)
	return m
}

func (m *urlFormModel) Init() tea.Cmd { return nil }

func (m *urlFormModel) refreshAccentStyles() {
	m.setFocus(m.focus)
}

func (m *urlFormModel) fields() []urlField {
	if m.typ == connection.Internal {
		return []urlField{urlFieldURL, urlFieldSSIDs, urlFieldHWAddrs, urlFieldFallback}
	}
	if m.srv.Connection.CanUseCloud {
		return []urlField{urlFieldURL, urlFieldCloud}
	}
	return []urlField{urlFieldURL}
}

func (m *urlFormModel) input(f urlField) *textinput.Model {
	switch f {
	case urlFieldURL:
		return &m.inURL
	case urlFieldSSIDs:
		return &m.inSSIDs
	case urlFieldHWAddrs:
		return &m.inHWAddrs
	}
	return nil
}

func (m *urlFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		fieldW := max(10, msg.Width-2-formLabelW-1)
		m.inURL.Width = fieldW
		m.inSSIDs.Width = fieldW
		m.inHWAddrs.Width = fieldW
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+s" {
			m.exitEdit()
			edit, err := m.build()
			if err != nil {
				m.err = err
				m.toast = errToast(err)
				return m, nil
			}
			id, typ := m.srv.ID, m.typ
			return m, func() tea.Msg { return urlFormSaveMsg{id: id, typ: typ, edit: edit} }
		}

		if m.editing {
			switch msg.String() {
			case "esc":
				m.exitEdit()
				return m, nil
			case "enter":
				m.exitEdit()
				m.moveFocus(1)
				return m, nil
			}
			in := m.input(m.focus)
			if in == nil {
				m.exitEdit()
				return m, nil
			}
			var cmd tea.Cmd
			*in, cmd = in.Update(msg)
			if m.focus == urlFieldURL {
				m.err = validateURL(m.inURL.Value())
			}
			return m, cmd
		}

		switch msg.String() {
		case "esc", "q":
			return m, func() tea.Msg { return urlFormCancelMsg{} }
		case "j", "down", "tab":
			m.moveFocus(1)
		case "k", "up", "shift+tab":
			m.moveFocus(-1)
		case "i", "enter":
			if m.input(m.focus) != nil {
				return m, m.enterEdit()
			}
			m.toggle()
		case "h", "l", "left", "right", " ":
			m.toggle()
		}
	}
	return m, nil
}

func (m *urlFormModel) toggle() {
	switch m.focus {
	case urlFieldFallback:
		m.fallback = !m.fallback
	case urlFieldCloud:
		m.useCloud = !m.useCloud
	}
}

func (m *urlFormModel) moveFocus(delta int) {
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

func (m *urlFormModel) setFocus(f urlField) {
	m.focus = f
	m.editing = false
	for _, g := range []urlField{urlFieldURL, urlFieldSSIDs, urlFieldHWAddrs} {
		in := m.input(g)
		in.Blur()
		setSearchFocused(in, g == f)
	}
}

func (m *urlFormModel) enterEdit() tea.Cmd {
	in := m.input(m.focus)
	if in == nil {
		return nil
	}
	m.editing = true
	return in.Focus()
}

func (m *urlFormModel) exitEdit() {
	m.editing = false
	if in := m.input(m.focus); in != nil {
		in.Blur()
	}
}

// build validates the form and returns the edit to apply.
func (m *urlFormModel) build() (urlEdit, error) {
	raw := strings.TrimSpace(m.inURL.Value())
	if err := validateURL(raw); err != nil {
		return urlEdit{}, err
	}
	e := urlEdit{
		url:      raw,
		fallback: m.fallback,
		useCloud: m.useCloud,
	}
	if m.typ == connection.Internal {
		e.ssids = splitList(m.inSSIDs.Value())
		e.hwaddrs = splitList(m.inHWAddrs.Value())
		for i, a := range e.hwaddrs {
			e.hwaddrs[i] = strings.ToLower(a)
		}
	}

	next := m.srv
	e.apply(m.typ, &next)
	if err := config.ValidateServer(next); err != nil {
		return urlEdit{}, err
	}
	return e, nil
}

var errURLScheme = errors.New("URL must start with http:// or https://")

// validateURL accepts an empty value, which clears the address.
func validateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errURLScheme
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

// splitList parses a comma separated list, dropping blanks and duplicates.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || slices.Contains(out, part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (m *urlFormModel) View() string {
	innerW := max(0, m.width-2)
	fieldW := max(10, innerW-formLabelW-1)

	var lines []string
	focusLine := 0
	row := func(f urlField, label, value string) {
		if m.focus == f {
			focusLine = len(lines)
		}
		lines = append(lines, formLabel(label, m.focus == f)+" "+value)
	}

	row(urlFieldURL, "URL", underlineInput(m.inURL, m.focus == urlFieldURL, fieldW))
	if m.err != nil {
		lines = append(lines, statusErr.Render(truncateTail(m.err.Error(), innerW)))
	}
	if m.typ == connection.Internal {
		lines = append(lines, "", formSection("Internal network", innerW))
		row(urlFieldSSIDs, "Wi-Fi SSIDs", underlineInput(m.inSSIDs, m.focus == urlFieldSSIDs, fieldW))
		row(urlFieldHWAddrs, "Hardware addr", underlineInput(m.inHWAddrs, m.focus == urlFieldHWAddrs, fieldW))
		row(urlFieldFallback, "Always fallback", segLine(yesNo(m.fallback), []string{"yes", "no"}, []string{"Yes", "No"}, m.focus == urlFieldFallback))
	} else if m.srv.Connection.CanUseCloud {
		lines = append(lines, "", formSection("Cloud", innerW))
		row(urlFieldCloud, "Use cloud", segLine(yesNo(m.useCloud), []string{"yes", "no"}, []string{"Yes", "No"}, m.focus == urlFieldCloud))
	}

	footer := styledFooter("Ctrl+S save  j/k move  i edit  h/l toggle  Esc back")
	if m.editing {
		footer = styledFooter("INSERT  Ctrl+S save  Esc done")
	}
	title := breadcrumbTitle(m.parentCrumb, m.typ.String())
	return renderModalBox(m.width, m.height, title, lines, focusLine, m.toast, footer)
}
