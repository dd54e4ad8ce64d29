// Package tui is the terminal front end: a Bubble Tea session that picks
// opponents, hosts or joins lobbies and renders battles from the protocol
// messages, served locally or over SSH via Wish.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg paces the reveal of a turn's outcomes.
type TickMsg time.Time

// tickCmd returns a command that sends one TickMsg after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
