package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var confirmTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(cErr)

func renderQuitConfirm(width, height int) string {
	box := quitConfirmBox(width)
	if width <= 0 || height <= 0 {
		return strings.TrimSpace(box)
	}
	return placeCentered(width, height, box)
}

func renderDeleteServerConfirm(width, height int, name string, others int) string {
	box := deleteServerConfirmBox(width, name, others)
	if width <= 0 || height <= 0 {
		return strings.TrimSpace(box)
	}
	return placeCentered(width, height, box)
}

func renderDeleteProgress(width, height int, name string) string {
	w, _ := progressModalSize(width, height)
	box := deleteProgressBox(w, name)
	if width <= 0 || height <= 0 {
		return strings.TrimSpace(box)
	}
	return placeCentered(width, height, box)
}

// renderConfirmBox builds a dialog with the title in the top border. Body
// lines and the footer are indented by two spaces.
func renderConfirmBox(totalW int, title string, body []string, footer string) string {
	parts := []string{boxTitleTop(totalW, title), boxLine(totalW, "")}
	for _, b := range body {
		parts = append(parts, boxLine(totalW, "  "+b))
	}
	if footer != "" {
		parts = append(parts, boxLine(totalW, ""))
		parts = append(parts, boxLine(totalW, "  "+footer))
	}
	parts = append(parts, boxLine(totalW, ""), boxBottom(totalW))
	return strings.Join(parts, "\n")
}

func confirmFooter(action string) string {
	return footerKeyStyle.Render("[y/↵]") + dim.Render(" "+action) +
		"     " + footerKeyStyle.Render("[n/Esc]") + dim.Render(" cancel")
}

func confirmWidth(maxWidth, def, floor int) int {
	boxW := maxWidth
	if boxW <= 0 {
		boxW = def
	}
	return min(def, max(floor, boxW-4)) + 6
}

func quitConfirmBox(maxWidth int) string {
	return renderConfirmBox(confirmWidth(maxWidth, 52, 22),
		confirmTitleStyle.Render("Quit?"),
		[]string{"Exit conn-tui?"},
		confirmFooter("quit"))
}

func deleteServerConfirmBox(maxWidth int, name string, others int) string {
	name = strings.TrimSpace(name)
	body := []string{"This will remove the server"}
	if name != "" {
		body = []string{fmt.Sprintf("Delete %q?", name)}
	}
	body = append(body, dim.Render("Tokens are revoked on every server."))
	if others > 0 {
		body = append(body, dim.Render(fmt.Sprintf("%d other server(s) stay configured.", others)))
	}
	return renderConfirmBox(confirmWidth(maxWidth, 60, 24),
		confirmTitleStyle.Render("Delete server?"),
		body,
		confirmFooter("delete"))
}

func deleteProgressBox(totalW int, name string) string {
	if totalW <= 0 {
		totalW = progressModalMaxW
	}
	line := statusWarn.Render(spinnerFrame()) + " Deleting " + strings.TrimSpace(name) + "..."
	return renderConfirmBox(totalW, headerStyle.Render("Please wait"), []string{line}, "")
}
