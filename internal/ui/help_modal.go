package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(cFrameBorder).
			Padding(1, 2)

	helpTitleStyle lipgloss.Style
)

func helpContent(title string, h help.Model, keys helpMap, innerW int) string {
	hh := h
	hh.ShowAll = true
	hh.Width = innerW
	keyStyle := lipgloss.NewStyle().Foreground(cAccent).Bold(true)
	hh.Styles.ShortKey = keyStyle
	hh.Styles.FullKey = keyStyle

	header := helpTitleStyle.Render(title + " keybindings")
	body := strings.TrimSpace(hh.View(keys))
	footer := dim.Render("Esc or ? to close  j/k scroll")
	return header + "\n\n" + body + "\n\n" + footer
}

func helpBoxWidth(termW int) int {
	boxW := min(88, termW-4)
	if boxW < 30 {
		boxW = min(termW, 30)
	}
	return boxW
}

func helpInnerWidth(boxW int) int {
	innerW := boxW - 6
	if innerW < 20 {
		innerW = 0
	}
	return innerW
}

// helpModal is the scrollable key binding overlay shared by every screen.
type helpModal struct {
	open bool
	help help.Model
	vp   viewport.Model
}

func (h *helpModal) toggle(width, height int, title string, keys helpMap) {
	h.open = !h.open
	if !h.open || width <= 0 || height <= 0 {
		return
	}
	innerW := helpInnerWidth(helpBoxWidth(width))
	content := helpContent(title, h.help, keys, innerW)

	// borders (2) + padding (2)
	vpH := min(strings.Count(content, "\n")+1, max(3, height-4))
	h.vp = viewport.New(innerW, vpH)
	h.vp.SetContent(content)
}

// update handles a key while the modal is open.
func (h *helpModal) update(msg tea.KeyMsg) {
	switch msg.String() {
	case "esc", "?", "q":
		h.open = false
	case "j", "down":
		h.vp.LineDown(1)
	case "k", "up":
		h.vp.LineUp(1)
	case "pgdown", "ctrl+d":
		h.vp.HalfViewDown()
	case "pgup", "ctrl+u":
		h.vp.HalfViewUp()
	}
}

func (h *helpModal) view(width, height int, title string, keys helpMap) string {
	if width <= 0 || height <= 0 {
		hh := h.help
		hh.ShowAll = true
		hh.Width = 0
		return helpTitleStyle.Render(title) + "\n\n" + hh.View(keys)
	}

	content := h.vp.View()
	if h.vp.TotalLineCount() > h.vp.VisibleLineCount() {
		pct := h.vp.ScrollPercent()
		arrows := ""
		if pct > 0 {
			arrows += "▲ "
		}
		if pct < 1 {
			arrows += "▼ "
		}
		content += "\n" + dim.Render(fmt.Sprintf("%s%d%%", arrows, int(pct*100)))
	}
	box := helpBoxStyle.Width(helpBoxWidth(width)).Render(content)
	return placeCentered(width, height, box)
}
