package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Modal size caps.
const (
	urlModalMaxW, urlModalMaxH           = 96, 16
	progressModalMaxW, progressModalMaxH = 56, 7
)

func placeCentered(fullW, fullH int, box string) string {
	box = strings.TrimRight(box, "\n")
	if fullW <= 0 || fullH <= 0 {
		return box
	}
	return lipgloss.Place(fullW, fullH, lipgloss.Center, lipgloss.Center, box)
}

// fitModal shrinks a cap-sized box to the terminal minus a margin. An
// unknown terminal size (0) keeps the cap.
func fitModal(full, capSize, margin int) int {
	if full <= 0 {
		return capSize
	}
	n := min(max(full-margin, 0), capSize)
	if n <= 0 {
		return full
	}
	return n
}

func urlFormModalSize(fullW, fullH int) (w, h int) {
	w, h = fitModal(fullW, urlModalMaxW, 6), fitModal(fullH, urlModalMaxH, 4)
	// Too short for the form fields: use the whole screen.
	if fullH > 0 && h < 10 {
		h = fullH
	}
	return w, h
}

func progressModalSize(fullW, fullH int) (w, h int) {
	return fitModal(fullW, progressModalMaxW, 6), fitModal(fullH, progressModalMaxH, 6)
}
