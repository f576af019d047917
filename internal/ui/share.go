package ui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/al-bashkir/conn-tui/internal/config"
	"github.com/al-bashkir/conn-tui/internal/connection"
)

type shareResultMsg struct {
	url    string
	copied bool
	err    error
}

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// shareCmd builds the invitation link and copies it. A clipboard failure
// still reports the link so it can be copied by hand.
func shareCmd(srv config.Server, base string) tea.Cmd {
	return func() tea.Msg {
		link, err := connection.InvitationURL(srv.Connection, base)
		if err != nil {
			return shareResultMsg{err: err}
		}
		if err := clipboardWrite(link); err != nil {
			return shareResultMsg{url: link}
		}
		return shareResultMsg{url: link, copied: true}
	}
}
