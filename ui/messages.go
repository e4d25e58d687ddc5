package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lepinkainen/pageconv/convert"
)

// BatchEventMsg carries one worker event into the TUI
type BatchEventMsg struct {
	Event convert.Event
}

// BatchClosedMsg is sent once the worker has closed its event channel
type BatchClosedMsg struct{}

// WaitForEvent reads the next event off the worker channel
func WaitForEvent(events <-chan convert.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return BatchClosedMsg{}
		}
		return BatchEventMsg{Event: e}
	}
}
