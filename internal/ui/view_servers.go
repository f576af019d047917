package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *serverListModel) View() string {
	if m.help.open {
		return m.help.view(m.width, m.height, "Servers", m.helpKeys())
	}

	right := ""
	switch {
	case !m.toast.empty():
		right = renderToastWithSpinner(m.toast, spinnerActive)
	case spinnerActive:
		right = statusWarn.Render(spinnerFrame())
	default:
		right = statusDot(true, m.activeID == "" && len(m.all) > 1)
		shown := len(m.list.Items())
		total := len(m.all)
		if strings.TrimSpace(m.search.Value()) != "" {
			right += dim.Render(fmt.Sprintf(" %d / %d servers", shown, total))
		} else {
			right += dim.Render(fmt.Sprintf(" %d servers", total))
		}
	}

	var footer string
	if m.width < 60 {
		footer = styledFooter("↵ open  a active  ? help")
	} else {
		footer = styledFooter("↵ open  ·  a make active  y copy invite  ·  / search  g settings  ? help  q quit")
	}

	content := m.list.View()
	if len(m.list.Items()) == 0 {
		content = m.emptyStateView()
	}
	return renderMainTabBox(m.width, m.height, tabServers, m.search.View(), right, content, footer)
}

func (m *serverListModel) emptyStateView() string {
	innerW := max(0, m.width-2)
	contentH := max(0, m.height-2-6)

	q := strings.TrimSpace(m.search.Value())
	dots := dim.Render("·  ·  ·")
	var msg string
	if q != "" {
		msg = dots + "\n\n" + dim.Render(fmt.Sprintf("No matches for %q", q)) + "\n" + dim.Render("Esc to clear search")
	} else {
		divider := formSection("", 30)
		hint := footerKeyStyle.Render("conn-tui add") + dim.Render(" NAME URL")
		msg = dots + "\n\n" + dim.Render("No servers configured.") + "\n" + divider + "\n" + hint
	}
	return lipgloss.Place(innerW, contentH, lipgloss.Center, lipgloss.Center, msg)
}
