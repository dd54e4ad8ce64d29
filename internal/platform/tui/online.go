package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pokebattle/internal/multiplayer"
)

// LobbyState represents the current state of the online matchmaking flow.
type LobbyState int

const (
	LobbyHostWaiting   LobbyState = iota // Hosting, waiting for joiner
	LobbyEnterCode                       // Entering a join or watch code
	LobbyJoinWaiting                     // Waiting to connect to host
	LobbyMatchStarting                   // Match is starting
)

const codeLength = 6

// LobbyModel handles hosting, joining and watching online battles. Events
// from the coordinator are forwarded to it by the session.
type LobbyModel struct {
	state       LobbyState
	watch       bool
	width       int
	height      int
	keys        KeyMap
	sessionID   multiplayer.SessionID
	coordinator *multiplayer.Coordinator
	team        multiplayer.Team

	code     string
	input    string
	err      string
	opponent string

	back bool
}

// NewHostModel creates a lobby screen that hosts a battle.
func NewHostModel(sessionID multiplayer.SessionID, coordinator *multiplayer.Coordinator, team multiplayer.Team, width, height int) LobbyModel {
	m := newLobbyModel(sessionID, coordinator, team, width, height)
	m.state = LobbyHostWaiting
	return m
}

// NewJoinModel creates a lobby screen that asks for a code to join, or to
// watch when watch is set.
func NewJoinModel(sessionID multiplayer.SessionID, coordinator *multiplayer.Coordinator, team multiplayer.Team, watch bool, width, height int) LobbyModel {
	m := newLobbyModel(sessionID, coordinator, team, width, height)
	m.state = LobbyEnterCode
	m.watch = watch
	return m
}

func newLobbyModel(sessionID multiplayer.SessionID, coordinator *multiplayer.Coordinator, team multiplayer.Team, width, height int) LobbyModel {
	return LobbyModel{
		width:       width,
		height:      height,
		keys:        DefaultKeyMap(),
		sessionID:   sessionID,
		coordinator: coordinator,
		team:        team,
	}
}

// Init creates the lobby when hosting.
func (m LobbyModel) Init() tea.Cmd {
	if m.state == LobbyHostWaiting {
		m.coordinator.Send(multiplayer.CreateLobbyMsg{SessionID: m.sessionID, Team: m.team})
	}
	return nil
}

// Update handles messages.
func (m LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case multiplayer.LobbyCreatedEvent:
		m.code = msg.Code
		m.state = LobbyHostWaiting
	case multiplayer.LobbyJoinedEvent:
		m.opponent = msg.Opponent
		m.state = LobbyMatchStarting
	case multiplayer.LobbyErrorEvent:
		m.err = msg.Message
		switch m.state {
		case LobbyJoinWaiting:
			m.state = LobbyEnterCode
		case LobbyHostWaiting:
			if m.code == "" {
				m.back = true
			}
		}
	case multiplayer.LobbyPlayerLeftEvent:
		m.opponent = ""
		m.state = LobbyHostWaiting
	}
	return m, nil
}

func (m LobbyModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case LobbyHostWaiting:
		if key.Matches(msg, m.keys.Back) {
			if m.code != "" {
				m.coordinator.Send(multiplayer.CancelLobbyMsg{SessionID: m.sessionID, Code: m.code})
			}
			m.back = true
		}

	case LobbyEnterCode:
		return m.handleCodeKey(msg)

	case LobbyJoinWaiting:
		if msg.String() == "esc" {
			m.coordinator.Send(multiplayer.LeaveLobbyMsg{SessionID: m.sessionID, Code: m.input})
			m.state = LobbyEnterCode
		}
	}
	return m, nil
}

func (m LobbyModel) handleCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.back = true
	case "enter":
		if m.input == "" {
			return m, nil
		}
		m.err = ""
		if m.watch {
			m.coordinator.Send(multiplayer.SpectateMsg{SessionID: m.sessionID, Code: m.input})
			return m, nil
		}
		m.state = LobbyJoinWaiting
		m.coordinator.Send(multiplayer.JoinLobbyMsg{SessionID: m.sessionID, Code: m.input, Team: m.team})
	case "backspace":
		if m.input != "" {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		// Codes are base32: letters and digits 2-7
		s := msg.String()
		if len(s) == 1 && len(m.input) < codeLength {
			c := strings.ToUpper(s)[0]
			if (c >= 'A' && c <= 'Z') || (c >= '2' && c <= '7') {
				m.input += string(c)
			}
		}
	}
	return m, nil
}

// View renders the current state.
func (m LobbyModel) View() string {
	var lines []string

	switch m.state {
	case LobbyHostWaiting:
		lines = append(lines, titleStyle.Render("HOSTING BATTLE"), "")
		if m.code == "" {
			lines = append(lines, "Creating lobby...")
		} else {
			lines = append(lines,
				"Share this code with your opponent:", "",
				codeStyle.Render(m.code), "",
				"Waiting for a challenger...",
				subtleStyle.Render("Spectators can watch with the same code."),
			)
		}
		lines = append(lines, "", subtleStyle.Render("Esc: Cancel"))

	case LobbyEnterCode:
		title, prompt := "JOIN BATTLE", "Enter the battle code:"
		if m.watch {
			title, prompt = "WATCH BATTLE", "Enter the code of a running battle:"
		}
		display := m.input
		if len(display) < codeLength {
			display += "_" + strings.Repeat(" ", codeLength-1-len(m.input))
		}
		lines = append(lines, titleStyle.Render(title), "", prompt, "", codeStyle.Render(display))
		lines = append(lines, "", subtleStyle.Render("Enter: Connect  |  Esc: Back"))

	case LobbyJoinWaiting:
		lines = append(lines,
			titleStyle.Render("CONNECTING"), "",
			fmt.Sprintf("Joining battle %s", m.input), "",
			"Please wait...", "",
			subtleStyle.Render("Esc: Cancel"),
		)

	case LobbyMatchStarting:
		lines = append(lines,
			titleStyle.Render("BATTLE STARTING"), "",
			fmt.Sprintf("Your opponent: %s", m.opponent),
		)
	}

	if m.err != "" {
		lines = append(lines, "", errorStyle.Render("Error: "+m.err))
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}
	return b.String()
}

// State returns the current lobby state.
func (m LobbyModel) State() LobbyState {
	return m.state
}

// BackToMenu returns true if the user left the lobby screen.
func (m LobbyModel) BackToMenu() bool {
	return m.back
}

// Code returns the hosted lobby code, or the code typed so far.
func (m LobbyModel) Code() string {
	if m.code != "" {
		return m.code
	}
	return m.input
}
