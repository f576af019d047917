package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastOK
	toastWarn
	toastErr
)

type toast struct {
	text  string
	level toastLevel
}

func (t toast) empty() bool {
	return strings.TrimSpace(t.text) == ""
}

func okToast(text string) toast   { return toast{text: text, level: toastOK} }
func infoToast(text string) toast { return toast{text: text, level: toastInfo} }
func errToast(err error) toast {
	if err == nil {
		return toast{}
	}
	return toast{text: err.Error(), level: toastErr}
}

// Auto-dismiss delays; errors linger longest.
var toastDurations = map[toastLevel]time.Duration{
	toastInfo: 3 * time.Second,
	toastOK:   3 * time.Second,
	toastWarn: 5 * time.Second,
	toastErr:  8 * time.Second,
}

func toastDuration(l toastLevel) time.Duration {
	if d, ok := toastDurations[l]; ok {
		return d
	}
	return 4 * time.Second
}

func toastStyle(l toastLevel) lipgloss.Style {
	switch l {
	case toastOK:
		return statusOK
	case toastInfo:
		return dim
	case toastErr:
		return statusErr
	}
	return statusWarn
}

func renderToast(t toast) string {
	return renderToastWithSpinner(t, false)
}

// renderToastWithSpinner prepends the spinner frame while work is running.
func renderToastWithSpinner(t toast, spinner bool) string {
	switch {
	case t.empty() && spinner:
		return statusWarn.Render(spinnerFrame())
	case t.empty():
		return ""
	case spinner:
		return toastStyle(t.level).Render(spinnerFrame() + " " + t.text)
	}
	return toastStyle(t.level).Render(t.text)
}

// breadcrumbTitle builds "parent > leaf" with the parent dimmed.
func breadcrumbTitle(parentCrumb, leafTitle string) string {
	parentCrumb = strings.TrimSpace(parentCrumb)
	leafTitle = strings.TrimSpace(leafTitle)
	if parentCrumb == "" {
		return leafTitle
	}
	return dim.Render(parentCrumb+" >") + " " + headerStyle.Render(leafTitle)
}
