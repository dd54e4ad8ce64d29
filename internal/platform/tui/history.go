package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/storage"
)

const maxHistory = 100

// HistoryKeyMap defines the key bindings for the history screen.
type HistoryKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Back   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k HistoryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Back}
}

// FullHelp returns key bindings for the full help view.
func (k HistoryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Toggle, k.Back}}
}

// DefaultHistoryKeyMap returns default key bindings.
func DefaultHistoryKeyMap() HistoryKeyMap {
	return HistoryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "mine/all"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b", "q"),
			key.WithHelp("esc/b", "back"),
		),
	}
}

// HistoryModel lists finished battles from storage: the player's own by
// default, every battle after a toggle.
type HistoryModel struct {
	store   *storage.Store
	team    party.TeamID
	all     bool
	records []storage.BattleRecord
	stats   *storage.TeamStats
	err     error
	table   table.Model
	help    help.Model
	keys    HistoryKeyMap
	width   int
	height  int
	back    bool
}

// NewHistoryModel creates a history screen for team.
func NewHistoryModel(store *storage.Store, team party.TeamID, width, height int) HistoryModel {
	h := help.New()
	h.Width = width
	m := HistoryModel{
		store:  store,
		team:   team,
		help:   h,
		keys:   DefaultHistoryKeyMap(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.load()
	return m
}

func (m *HistoryModel) createTable() table.Model {
	opponent := max(12, min(24, (m.width-46)/2))
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Kind", Width: 8},
		{Title: "Winner", Width: opponent},
		{Title: "Loser", Width: opponent},
		{Title: "Turns", Width: 5},
		{Title: "How", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, m.height-10)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// load reads battles and stats for the current view.
func (m *HistoryModel) load() {
	m.records, m.stats, m.err = nil, nil, nil
	if m.store == nil {
		m.updateRows()
		return
	}

	if m.all {
		m.records, m.err = m.store.RecentBattles(maxHistory)
	} else {
		m.records, m.err = m.store.TeamHistory(m.team, maxHistory)
		if m.err == nil {
			m.stats, m.err = m.store.GetTeamStats(m.team)
		}
	}
	m.updateRows()
}

func (m *HistoryModel) updateRows() {
	rows := make([]table.Row, len(m.records))
	for i, r := range m.records {
		winner, loser := r.Winner, r.TeamB
		if r.Draw() {
			winner, loser = "(draw)", r.TeamA+" / "+r.TeamB
		} else if r.TeamB == r.Winner {
			loser = r.TeamA
		}
		rows[i] = table.Row{
			r.CreatedAt.Format("Jan 02 15:04"),
			r.Kind,
			winner,
			loser,
			fmt.Sprintf("%d", r.Turns),
			r.Reason,
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the history model.
func (m HistoryModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the history screen.
func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.back = true
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			m.all = !m.all
			m.load()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table = m.createTable()
		m.updateRows()
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the history screen.
func (m HistoryModel) View() string {
	var b strings.Builder

	title := "BATTLE HISTORY - " + string(m.team)
	if m.all {
		title = "BATTLE HISTORY - everyone"
	}
	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render(title), m.width))
	b.WriteString("\n\n")

	if m.stats != nil && m.stats.Battles > 0 {
		line := fmt.Sprintf("%d battles  %d won  %d lost  %d drawn  %.0f%% wins  ₽%d earned",
			m.stats.Battles, m.stats.Wins, m.stats.Losses, m.stats.Draws,
			m.stats.WinRate()*100, m.stats.Prize)
		b.WriteString(centerText(subtleStyle.Render(line), m.width))
		b.WriteString("\n\n")
	}

	var content string
	switch {
	case m.err != nil:
		content = errorStyle.Render("Cannot load history: " + m.err.Error())
	case len(m.records) == 0:
		content = subtleStyle.Italic(true).Padding(1, 4).
			Render("No battles recorded yet.\nWin one to make history!")
	default:
		content = m.table.View()
	}
	b.WriteString(centerText(panelStyle.Render(content), m.width))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// BackToMenu returns true if the user left the history screen.
func (m HistoryModel) BackToMenu() bool {
	return m.back
}
