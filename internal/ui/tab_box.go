package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	tabServers = iota
	tabSettings
)

var mainTabs = []string{"Servers", "Settings"}

func boxTop(w int) string {
	return boxEdge(w, "┌", "┐")
}

func boxBottom(w int) string {
	return boxEdge(w, "└", "┘")
}

func boxSep(w int) string {
	return boxEdge(w, "├", "┤")
}

func boxEdge(w int, left, right string) string {
	if w <= 1 {
		return ""
	}
	return left + strings.Repeat("─", w-2) + right
}

func boxTitleTop(w int, title string) string {
	title = strings.TrimSpace(title)
	if title == "" || w <= 2 {
		return boxTop(w)
	}
	innerW := w - 2
	seg := " " + title + " "
	if lipgloss.Width(seg) > innerW {
		seg = " " + truncateTail(title, max(0, innerW-2)) + " "
	}
	fill := max(0, innerW-lipgloss.Width(seg))
	return "┌" + seg + strings.Repeat("─", fill) + "┐"
}

func boxLine(w int, content string) string {
	if w <= 1 {
		return ""
	}
	if w == 2 {
		return "││"
	}
	return "│" + padVisible(content, w-2) + "│"
}

// padVisible clips or pads s to exactly width visible cells.
func padVisible(s string, width int) string {
	if width <= 0 {
		return s
	}
	s = strings.TrimRight(s, "\n")
	if lipgloss.Width(s) > width {
		s = lipgloss.NewStyle().MaxWidth(width).Render(s)
	}
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func renderTabsLine(active int, tabs []string) string {
	parts := make([]string, 0, len(tabs))
	for i, t := range tabs {
		if i == active {
			parts = append(parts, tabActiveStyle.Render(t))
		} else {
			parts = append(parts, tabInactiveStyle.Render(t))
		}
	}
	return strings.Join(parts, "  ")
}

// renderMainTabBox draws the tab strip, a header row, the content area and
// an optional footer inside one box.
func renderMainTabBox(width, height int, activeTab int, headerLeft, headerRight, content, footer string) string {
	return renderTabBox(width, height, renderTabsLine(activeTab, mainTabs), headerLeft, headerRight, content, footer)
}

// renderBreadcrumbTabBox is renderMainTabBox with a breadcrumb in place of
// the tab strip, for screens below a tab.
func renderBreadcrumbTabBox(width, height int, breadcrumb, headerLeft, headerRight, content, footer string) string {
	return renderTabBox(width, height, breadcrumb, headerLeft, headerRight, content, footer)
}

func renderTabBox(width, height int, top, headerLeft, headerRight, content, footer string) string {
	if width <= 0 || height <= 0 {
		return strings.TrimRight(top+"\n"+headerLeft+"\n"+content, "\n")
	}
	if height < 3 {
		return boxTop(width)
	}

	innerW := max(0, width-2)
	innerH := max(0, height-2)

	fixed := 4 // top + sep + header + sep
	var footerLines []string
	if strings.TrimSpace(footer) != "" {
		footerLines = strings.Split(strings.TrimRight(footer, "\n"), "\n")
		fixed += 1 + len(footerLines)
	}
	contentH := max(0, innerH-fixed)

	var contentLines []string
	if c := strings.TrimRight(content, "\n"); strings.TrimSpace(c) != "" {
		contentLines = strings.Split(c, "\n")
	}

	out := make([]string, 0, height)
	out = append(out,
		boxTop(width),
		boxLine(width, top),
		boxSep(width),
		boxLine(width, joinHeader(innerW, headerLeft, headerRight)),
		boxSep(width),
	)
	for i := 0; i < contentH; i++ {
		line := ""
		if i < len(contentLines) {
			line = contentLines[i]
		}
		out = append(out, boxLine(width, line))
	}
	if len(footerLines) > 0 {
		out = append(out, boxSep(width))
		for _, fl := range footerLines {
			out = append(out, boxLine(width, fl))
		}
	}
	out = append(out, boxBottom(width))
	return strings.Join(out, "\n")
}

// renderModalBox draws a titled form box: scrolled body lines, an optional
// toast line, a separator and the footer.
func renderModalBox(width, height int, title string, lines []string, focusLine int, t toast, footer string) string {
	innerW := max(0, width-2)
	innerH := max(0, height-2)
	reserved := 2 // sep + footer
	if !t.empty() {
		reserved++
	}
	visibleH := max(1, innerH-reserved)

	start, end := formScrollWindow(len(lines), visibleH, focusLine)
	visible := lines[start:end]

	out := make([]string, 0, height)
	out = append(out, boxTitleTop(width, title))
	for _, ln := range visible {
		out = append(out, boxLine(width, ln))
	}
	for i := len(visible); i < visibleH; i++ {
		out = append(out, boxLine(width, strings.Repeat(" ", innerW)))
	}
	if !t.empty() {
		out = append(out, boxLine(width, renderToast(t)))
	}
	out = append(out, boxSep(width), boxLine(width, footer), boxBottom(width))
	return strings.Join(out, "\n")
}
