package ui

import (
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cMuted = lipgloss.AdaptiveColor{Light: "242", Dark: "242"}
	cOK    = lipgloss.AdaptiveColor{Light: "28", Dark: "35"}
	cWarn  = lipgloss.AdaptiveColor{Light: "166", Dark: "214"}
	cErr   = lipgloss.AdaptiveColor{Light: "160", Dark: "203"}

	cSearchDim   = lipgloss.AdaptiveColor{Light: "247", Dark: "246"}
	cFrameBorder = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}

	cRowActiveBG  = lipgloss.AdaptiveColor{Light: "253", Dark: "238"}
	cRowActiveFG  = lipgloss.AdaptiveColor{Light: "0", Dark: "255"}
	cSegFocusedFG = lipgloss.AdaptiveColor{Light: "17", Dark: "231"}
	cBadgeBG      = lipgloss.AdaptiveColor{Light: "254", Dark: "236"}
	cOnAccent     = lipgloss.AdaptiveColor{Light: "255", Dark: "16"}
)

// accent is a named theme: the accent itself plus the softer background
// used behind a focused option in a picker.
type accent struct {
	fg, pickerBG lipgloss.AdaptiveColor
}

var accents = map[string]accent{
	"blue":    {lipgloss.AdaptiveColor{Light: "25", Dark: "39"}, lipgloss.AdaptiveColor{Light: "153", Dark: "24"}},
	"cyan":    {lipgloss.AdaptiveColor{Light: "30", Dark: "45"}, lipgloss.AdaptiveColor{Light: "159", Dark: "30"}},
	"green":   {lipgloss.AdaptiveColor{Light: "28", Dark: "35"}, lipgloss.AdaptiveColor{Light: "157", Dark: "22"}},
	"amber":   {lipgloss.AdaptiveColor{Light: "166", Dark: "214"}, lipgloss.AdaptiveColor{Light: "229", Dark: "94"}},
	"red":     {lipgloss.AdaptiveColor{Light: "160", Dark: "203"}, lipgloss.AdaptiveColor{Light: "224", Dark: "88"}},
	"magenta": {lipgloss.AdaptiveColor{Light: "127", Dark: "213"}, lipgloss.AdaptiveColor{Light: "225", Dark: "90"}},
}

const defaultAccentName = "blue"

var (
	statusOK   = lipgloss.NewStyle().Foreground(cOK)
	statusWarn = lipgloss.NewStyle().Foreground(cWarn)
	statusErr  = lipgloss.NewStyle().Foreground(cErr)
	dim        = lipgloss.NewStyle().Foreground(cMuted)

	footerStyle      = lipgloss.NewStyle().Foreground(cMuted)
	rowActiveStyle   = lipgloss.NewStyle().Background(cRowActiveBG).Foreground(cRowActiveFG).Bold(true)
	badgeCountStyle  = lipgloss.NewStyle().Foreground(cMuted).Background(cBadgeBG).Padding(0, 1)
	destructiveStyle = lipgloss.NewStyle().Foreground(cErr).Bold(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(cMuted)
)

// Styles derived from the accent; rebuilt by SetAccentColor.
var (
	cAccent          lipgloss.AdaptiveColor
	headerStyle      lipgloss.Style
	checkedStyle     lipgloss.Style
	segFocusedStyle  lipgloss.Style
	badgeActiveStyle lipgloss.Style
	footerKeyStyle   lipgloss.Style
	tabActiveStyle   lipgloss.Style
)

func init() { SetAccentColor("") }

// SetAccentColor switches the accent to a named preset. Any other value is
// taken as a raw lipgloss color ("#RRGGBB", "34"); empty means the default.
func SetAccentColor(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "default" {
		name = defaultAccentName
	}
	a, ok := accents[name]
	if !ok {
		raw := lipgloss.AdaptiveColor{Light: name, Dark: name}
		a = accent{fg: raw, pickerBG: raw}
	}
	cAccent = a.fg

	bold := lipgloss.NewStyle().Bold(true)
	headerStyle = bold.Foreground(cAccent)
	checkedStyle = bold.Foreground(cAccent)
	footerKeyStyle = bold.Foreground(cAccent)
	tabActiveStyle = bold.Foreground(cAccent)
	helpTitleStyle = bold.Foreground(cAccent)
	segFocusedStyle = bold.Background(a.pickerBG).Foreground(cSegFocusedFG)
	badgeActiveStyle = bold.Foreground(cOnAccent).Background(cAccent).Padding(0, 1)
}

// joinHeader puts left and right on one line of the given width, right
// aligned. The left side is cut first when space runs out.
func joinHeader(width int, left, right string) string {
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	switch {
	case right == "":
		return left
	case width <= 0 && left == "":
		return right
	case width <= 0:
		return left + " " + right
	}

	rw := lipgloss.Width(right)
	if rw >= width {
		return lipgloss.NewStyle().MaxWidth(width).Render(right)
	}
	room := width - rw - 1
	if left == "" || room <= 0 {
		return strings.Repeat(" ", width-rw) + right
	}
	left = lipgloss.NewStyle().MaxWidth(room).Render(left)
	return left + strings.Repeat(" ", max(1, width-lipgloss.Width(left)-rw)) + right
}

func configureSearch(m *textinput.Model) {
	m.PromptStyle = lipgloss.NewStyle().Foreground(cAccent).Bold(true)
	m.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "0", Dark: "255"})
	m.Cursor.Style = lipgloss.NewStyle().Foreground(cAccent)
}

var searchUnfocused = lipgloss.NewStyle().Foreground(cSearchDim)

func setSearchFocused(m *textinput.Model, focused bool) {
	if focused {
		configureSearch(m)
		return
	}
	m.PromptStyle = searchUnfocused
	m.TextStyle = searchUnfocused
	m.Cursor.Style = searchUnfocused
}

func setSearchBarFocused(m *textinput.Model, focused bool) {
	setSearchFocused(m, focused)
	if focused {
		m.Placeholder = "search"
	} else {
		m.Placeholder = "type to search..."
	}
}

// styledFooter renders a footer string with keys in accent and actions dimmed.
// Input format: "⏎ open  r refresh  y share" (double-space separated hints).
func styledFooter(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, "  ")
		styled := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if p == "·" {
				styled = append(styled, dim.Render("·"))
				continue
			}
			idx := strings.IndexByte(p, ' ')
			if idx < 0 {
				styled = append(styled, footerKeyStyle.Render(p))
				continue
			}
			k := p[:idx]
			a := p[idx:] // includes leading space
			styled = append(styled, footerKeyStyle.Render(k)+dim.Render(a))
		}
		out = append(out, strings.Join(styled, "  "))
	}
	return strings.Join(out, "\n")
}

// Busy spinner shared by the probe and delete flows. Once started it stays
// visible for at least spinnerMinDuration so fast operations do not flicker.
var (
	spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinnerIndex  int
	spinnerActive bool
	spinnerMinEnd time.Time
)

const (
	spinnerTickInterval = 80 * time.Millisecond
	spinnerMinDuration  = 600 * time.Millisecond
)

type spinnerTickMsg struct{}

func spinnerStart() {
	spinnerActive, spinnerIndex = true, 0
	spinnerMinEnd = time.Now().Add(spinnerMinDuration)
}

// spinnerStop is a request; the tick handler finishes it after spinnerMinEnd.
func spinnerStop() {
	if time.Now().After(spinnerMinEnd) {
		spinnerActive = false
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(spinnerTickInterval, func(time.Time) tea.Msg { return spinnerTickMsg{} })
}

func spinnerFrame() string {
	return spinnerFrames[spinnerIndex%len(spinnerFrames)]
}

// formScrollWindow returns the [start, end) range of a form's lines that
// fits in visibleH rows with focusLine roughly centered.
func formScrollWindow(totalLines, visibleH, focusLine int) (int, int) {
	if totalLines <= visibleH {
		return 0, totalLines
	}
	start := min(max(focusLine-visibleH/2, 0), totalLines-visibleH)
	return start, start + visibleH
}

// formSection renders a divider such as "── Privacy ──────".
func formSection(label string, width int) string {
	head := "── " + strings.TrimSpace(label) + " "
	return dim.Render(head + strings.Repeat("─", max(0, width-lipgloss.Width(head))))
}

// statusDot returns a colored dot for status display.
func statusDot(ok bool, hasWarnings bool) string {
	if !ok {
		return statusErr.Render("●")
	}
	if hasWarnings {
		return statusWarn.Render("●")
	}
	return statusOK.Render("●")
}

// seg renders one choice of an option picker.
func seg(selected bool, text string, focused bool) string {
	if selected {
		box := "[" + text + "]"
		if focused {
			return segFocusedStyle.Render(box)
		}
		return checkedStyle.Render(box)
	}
	return tabInactiveStyle.Render(text)
}

// segLine renders a full option picker.
func segLine(cur string, values, labels []string, focused bool) string {
	parts := make([]string, 0, len(values))
	for i, v := range values {
		parts = append(parts, seg(v == cur, labels[i], focused))
	}
	return strings.Join(parts, "  ")
}

// cycleChoice steps through choices with wraparound. An unknown cur starts
// from the first choice.
func cycleChoice(cur string, choices []string, delta int) string {
	n := len(choices)
	if n == 0 {
		return cur
	}
	i := max(slices.Index(choices, cur), 0)
	return choices[((i+delta)%n+n)%n]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
