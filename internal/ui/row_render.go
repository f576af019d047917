package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func truncateTail(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	r := []rune(s)
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-1]) + "…"
}

// truncateFade cuts s to max cells; the last kept rune and the ellipsis
// are dimmed.
func truncateFade(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	if max <= 2 {
		return dim.Render("…") + strings.Repeat(" ", max-1)
	}
	r := []rune(s)
	cutoff := min(max-2, len(r))
	tail := ""
	if cutoff < len(r) {
		tail = string(r[cutoff : cutoff+1])
	}
	return string(r[:cutoff]) + dim.Render(tail+"…")
}

// serverRow is everything a list row shows about one server.
type serverRow struct {
	id      string
	name    string
	url     string // active URL label
	active  bool   // default server
	headers int    // header override count
}

// renderServerRow draws "▸ name   url  [N hdr] [active]". Badge widths are
// the same on the cursor row so the name column does not shift.
func renderServerRow(width int, cursor bool, r serverRow) string {
	cur := " "
	if cursor {
		cur = "▸"
	}
	prefix := cur + " "

	type badge struct {
		text  string
		style lipgloss.Style
	}
	var badges []badge
	if r.headers > 0 {
		badges = append(badges, badge{fmt.Sprintf("%d hdr", r.headers), badgeCountStyle})
	}
	if r.active {
		badges = append(badges, badge{"active", badgeActiveStyle})
	}

	suffix := ""
	suffixW := 0
	for _, b := range badges {
		styled := " " + b.style.Render(b.text)
		suffixW += lipgloss.Width(styled)
		if cursor {
			suffix += "  " + b.text + " "
		} else {
			suffix += styled
		}
	}

	urlText := strings.TrimSpace(r.url)
	name := r.name
	if width > 0 {
		avail := width - lipgloss.Width(prefix) - suffixW
		if avail < 0 {
			avail = width - lipgloss.Width(prefix)
			suffix = ""
		}
		avail = max(0, avail)

		urlW := 0
		if urlText != "" && avail >= 40 {
			urlW = min(lipgloss.Width(urlText), avail/2)
		}
		nameW := avail
		if urlW > 0 {
			nameW = avail - urlW - 2
		}
		if cursor {
			name = truncateTail(name, nameW)
			urlText = truncateTail(urlText, urlW)
		} else {
			name = truncateFade(name, nameW)
			urlText = truncateFade(urlText, urlW)
		}
		if urlW > 0 {
			name = padVisible(name, nameW) + "  "
			if !cursor {
				urlText = dim.Render(urlText)
			}
			urlText = padVisible(urlText, urlW)
		} else {
			urlText = ""
		}
	} else if urlText != "" {
		name += "  " + urlText
		urlText = ""
	}

	line := prefix + name + urlText + suffix
	if cursor {
		if width > 0 {
			if need := width - lipgloss.Width(line); need > 0 {
				line += strings.Repeat(" ", need)
			}
		}
		return rowActiveStyle.Render(line)
	}
	return line
}
