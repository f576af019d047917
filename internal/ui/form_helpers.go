package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

const formLabelW = 16

// formLabel pads a field label to formLabelW and accents it when focused.
func formLabel(s string, focused bool) string {
	if n := lipgloss.Width(s); n < formLabelW {
		s += strings.Repeat(" ", formLabelW-n)
	}
	if focused {
		return headerStyle.Render(s)
	}
	return s
}

func newFormInput(value, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.CharLimit = limit
	in.Prompt = ""
	in.SetValue(value)
	in.Placeholder = placeholder
	configureSearch(&in)
	setSearchFocused(&in, false)
	return in
}

func underlineInput(in textinput.Model, focused bool, width int) string {
	s := strings.TrimRight(in.View(), "\n")
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) > width {
		s = lipgloss.NewStyle().MaxWidth(width).Render(s)
	}
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	fill := strings.Repeat("_", pad)
	if focused {
		return s + checkedStyle.Render(fill)
	}
	return s + dim.Render(fill)
}

// newHeaderArea builds the multi-line header editor.
func newHeaderArea(value string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "X-Header: value"
	ta.ShowLineNumbers = false
	ta.Prompt = "│ "
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.SetHeight(4)
	ta.SetValue(value)
	ta.Blur()
	styleHeaderArea(&ta)
	return ta
}

func styleHeaderArea(ta *textarea.Model) {
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(cAccent)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(cSearchDim)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(cMuted)
	ta.BlurredStyle.Text = lipgloss.NewStyle().Foreground(cSearchDim)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(cSearchDim)
}

// areaHeight grows the editor with its content, within bounds.
func areaHeight(value string) int {
	return min(8, max(3, strings.Count(value, "\n")+2))
}

func configureList(m *list.Model) {
	// Drop letter shortcuts that clash with app keys; keep vim paging.
	km := list.DefaultKeyMap()
	km.NextPage.SetKeys("right", "pgdown", "l")
	km.PrevPage.SetKeys("left", "pgup", "h")
	km.GoToStart.SetKeys("home")
	km.GoToStart.SetHelp("home", "go to start")
	km.GoToEnd.SetKeys("end")
	km.GoToEnd.SetHelp("end", "go to end")
	m.KeyMap = km

	m.SetShowTitle(false)
	m.SetShowPagination(false)
	m.SetShowHelp(false)
	m.SetShowStatusBar(false)
	m.SetFilteringEnabled(false)
	m.DisableQuitKeybindings()
}
