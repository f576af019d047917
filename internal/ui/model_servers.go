package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
	"github.com/al-bashkir/conn-tui/internal/session"
)

type focusState int

const (
	focusList focusState = iota
	focusSearch
)

func (r serverRow) FilterValue() string { return r.name }

type serverDelegate struct{}

func (d serverDelegate) Height() int                             { return 1 }
func (d serverDelegate) Spacing() int                            { return 0 }
func (d serverDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d serverDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(serverRow)
	if !ok {
		fmt.Fprint(w, item.FilterValue())
		return
	}
	fmt.Fprint(w, renderServerRow(m.Width(), index == m.Index(), row))
}

type serverListModel struct {
	reg      *session.Registry
	activeID string

	width  int
	height int

	all    []config.Server
	keymap keyMap
	help   helpModal

	list       list.Model
	search     textinput.Model
	focus      focusState
	prevSearch string

	toast toast
}

func newServerListModel(reg *session.Registry, activeID string) *serverListModel {
	l := list.New(nil, serverDelegate{}, 0, 0)
	l.Title = "Servers"
	configureList(&l)

	search := textinput.New()
	search.Prompt = "/ "
	search.CharLimit = 256
	search.Width = 40
	configureSearch(&search)
	setSearchBarFocused(&search, false)

	m := &serverListModel{
		reg:      reg,
		activeID: activeID,
		keymap:   defaultKeyMap(),
		help:     helpModal{help: help.New()},
		list:     l,
		search:   search,
		focus:    focusList,
	}
	m.reload()
	return m
}

func (m *serverListModel) Init() tea.Cmd { return nil }

func (m *serverListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		innerW := max(0, msg.Width-2)
		innerH := max(0, msg.Height-2)
		// tabs + sep + header + sep + footer sep + footer
		m.list.SetSize(innerW, max(1, innerH-6))
		m.search.Width = max(10, innerW-24-len(m.search.Prompt))
		return m, nil

	case shareResultMsg:
		m.toast = shareToast(msg)
		return m, nil

	case tea.KeyMsg:
		if m.help.open {
			m.help.update(msg)
			return m, nil
		}

		if key.Matches(msg, m.keymap.Help) && m.focus == focusList {
			m.help.toggle(m.width, m.height, "Servers", m.helpKeys())
			return m, nil
		}
		if key.Matches(msg, m.keymap.Quit) && m.focus == focusList {
			return m, func() tea.Msg { return requestQuitMsg{} }
		}
		if key.Matches(msg, m.keymap.FocusSearch) && m.focus == focusList {
			m.setFocus(focusSearch)
			return m, nil
		}
		if key.Matches(msg, m.keymap.ToggleFocus) {
			if m.focus == focusSearch {
				m.setFocus(focusList)
			} else {
				m.setFocus(focusSearch)
			}
			return m, nil
		}
		if key.Matches(msg, m.keymap.SwitchTab) && m.focus == focusList {
			return m, func() tea.Msg { return switchScreenMsg{to: screenSettings} }
		}
		if key.Matches(msg, m.keymap.Esc) {
			if m.search.Value() != "" {
				m.clearSearch()
				return m, nil
			}
			if m.focus == focusSearch {
				m.setFocus(focusList)
			}
			return m, nil
		}
		if key.Matches(msg, m.keymap.Open) {
			if m.focus == focusSearch {
				if len(m.list.Items()) == 0 && m.search.Value() != "" {
					m.clearSearch()
				}
				m.setFocus(focusList)
				return m, nil
			}
			row, ok := m.selected()
			if !ok {
				m.toast = infoToast("no server selected")
				return m, nil
			}
			return m, func() tea.Msg { return openServerMsg{id: row.id} }
		}
		if key.Matches(msg, m.keymap.Activate) && m.focus == focusList {
			row, ok := m.selected()
			if !ok {
				return m, nil
			}
			if row.active {
				m.toast = infoToast(row.name + " is already active")
				return m, nil
			}
			return m, func() tea.Msg { return activateServerMsg{id: row.id} }
		}
		if key.Matches(msg, m.keymap.Share) && m.focus == focusList {
			row, ok := m.selected()
			if !ok {
				return m, nil
			}
			srv, err := m.reg.Store().Get(row.id)
			if err != nil {
				m.toast = errToast(err)
				return m, nil
			}
			return m, shareCmd(srv, m.reg.Defaults().InvitationBaseURL)
		}
	}

	var cmd tea.Cmd
	if m.focus == focusSearch {
		m.search, cmd = m.search.Update(msg)
		if cur := m.search.Value(); cur != m.prevSearch {
			m.applyFilter(cur)
			m.prevSearch = cur
		}
		return m, cmd
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *serverListModel) setFocus(f focusState) {
	m.focus = f
	if f == focusSearch {
		m.search.Focus()
	} else {
		m.search.Blur()
	}
	setSearchBarFocused(&m.search, f == focusSearch)
}

func (m *serverListModel) clearSearch() {
	m.search.SetValue("")
	m.prevSearch = ""
	m.applyFilter("")
}

func (m *serverListModel) selected() (serverRow, bool) {
	row, ok := m.list.SelectedItem().(serverRow)
	if !ok || row.id == "" {
		return serverRow{}, false
	}
	return row, true
}

// reload re-reads the store, keeping the cursor on the same server.
func (m *serverListModel) reload() {
	m.all = m.reg.Store().All()
	m.applyFilter(m.search.Value())
}

func (m *serverListModel) applyFilter(query string) {
	keep := ""
	if row, ok := m.selected(); ok {
		keep = row.id
	}

	query = strings.TrimSpace(query)
	var picked []config.Server
	if query == "" {
		picked = m.all
	} else {
		names := make([]string, len(m.all))
		for i, s := range m.all {
			names[i] = s.DisplayName()
		}
		for _, match := range fuzzy.Find(query, names) {
			picked = append(picked, m.all[match.Index])
		}
	}

	items := make([]list.Item, 0, len(picked))
	sel := 0
	for i, s := range picked {
		if s.ID == keep {
			sel = i
		}
		items = append(items, m.row(s))
	}
	m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(sel)
	}
}

func (m *serverListModel) row(s config.Server) serverRow {
	return serverRow{
		id:      s.ID,
		name:    s.DisplayName(),
		url:     activeURLLabel(s, m.reg.Network()),
		active:  s.ID == m.activeID,
		headers: len(s.Connection.HTTPAdditionalHeaders),
	}
}

// activeURLLabel names where requests for s currently go.
func activeURLLabel(s config.Server, n connection.Network) string {
	if connection.ActiveURLType(s.Connection, n) == connection.RemoteUI {
		return connection.CloudLabel
	}
	u, err := connection.ActiveURL(s.Connection, n)
	if err != nil {
		return connection.NoValue
	}
	return u.Host
}

func shareToast(msg shareResultMsg) toast {
	switch {
	case msg.err != nil:
		return errToast(msg.err)
	case msg.copied:
		return okToast("invite link copied")
	default:
		return infoToast(msg.url)
	}
}

func (m *serverListModel) helpKeys() helpMap {
	return helpMap{
		short: []key.Binding{
			m.list.KeyMap.CursorUp,
			m.list.KeyMap.CursorDown,
			m.keymap.Open,
			m.keymap.Activate,
			m.keymap.Share,
			m.keymap.FocusSearch,
			m.keymap.SwitchTab,
			m.keymap.Help,
			m.keymap.Quit,
		},
		full: [][]key.Binding{{
			m.list.KeyMap.CursorUp,
			m.list.KeyMap.CursorDown,
			m.list.KeyMap.PrevPage,
			m.list.KeyMap.NextPage,
		}, {
			m.keymap.ToggleFocus,
			m.keymap.FocusSearch,
			m.keymap.SwitchTab,
			m.keymap.Esc,
		}, {
			m.keymap.Open,
			m.keymap.Activate,
			m.keymap.Share,
			m.keymap.Help,
			m.keymap.Quit,
		}},
	}
}
