package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pokebattle/internal/config"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/storage"
)

// MenuAction is what a menu entry does.
type MenuAction int

const (
	MenuBattleCPU MenuAction = iota
	MenuHeal
	MenuHost
	MenuJoin
	MenuWatch
	MenuHistory
	MenuQuit
)

// MenuItem represents a selectable entry in the main menu.
type MenuItem struct {
	Action   MenuAction
	Title    string
	Opponent party.TeamID // MenuBattleCPU only
}

// MenuModel is the Bubble Tea model for the main menu.
type MenuModel struct {
	items    []MenuItem
	cursor   int
	width    int
	height   int
	keys     KeyMap
	help     help.Model
	save     *storage.TrainerSave
	status   string
	selected *MenuItem
}

// NewMenuModel creates the main menu. Online entries appear only when a
// coordinator is available.
func NewMenuModel(cfg config.BattleConfig, save *storage.TrainerSave, online bool, width, height int) MenuModel {
	var items []MenuItem
	for _, o := range cfg.Opponents {
		items = append(items, MenuItem{
			Action:   MenuBattleCPU,
			Title:    "Battle " + opponentTitle(o),
			Opponent: o.ID,
		})
	}
	items = append(items, MenuItem{Action: MenuHeal, Title: "Heal party"})
	if online {
		items = append(items,
			MenuItem{Action: MenuHost, Title: "Host online battle"},
			MenuItem{Action: MenuJoin, Title: "Join online battle"},
			MenuItem{Action: MenuWatch, Title: "Watch a battle"},
		)
	}
	items = append(items,
		MenuItem{Action: MenuHistory, Title: "Battle history"},
		MenuItem{Action: MenuQuit, Title: "Quit"},
	)

	h := help.New()
	h.Width = width
	return MenuModel{
		items:  items,
		width:  width,
		height: height,
		keys:   DefaultKeyMap(),
		help:   h,
		save:   save,
	}
}

func opponentTitle(o config.TeamPreset) string {
	if o.Trainer != nil && o.Trainer.Name != "" {
		return o.Trainer.Name
	}
	if len(o.Party) == 1 {
		return "a wild " + titleCase(o.Party[0].Species)
	}
	return titleCase(string(o.ID))
}

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			selected := m.items[m.cursor]
			m.selected = &selected
		case key.Matches(msg, m.keys.Quit):
			m.selected = &MenuItem{Action: MenuQuit, Title: "Quit"}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	}
	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("P O K E B A T T L E"), m.width))
	b.WriteString("\n\n")

	if m.save != nil {
		b.WriteString(centerText(m.trainerLine(), m.width))
		b.WriteString("\n")
		b.WriteString(centerText(subtleStyle.Render(partyLine(m.save.Party)), m.width))
		b.WriteString("\n\n")
	}

	titles := make([]string, len(m.items))
	for i, item := range m.items {
		titles[i] = item.Title
	}
	b.WriteString(centerText(renderList(titles, m.cursor), m.width))
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(centerText(m.status, m.width))
		b.WriteString("\n\n")
	}
	b.WriteString(centerText(subtleStyle.Render(m.help.View(m.keys)), m.width))
	return b.String()
}

func (m MenuModel) trainerLine() string {
	line := fmt.Sprintf("%s  ₽%d", m.save.Name, m.save.Money)
	if n := len(m.save.Badges); n > 0 {
		line += fmt.Sprintf("  %d badge", n)
		if n > 1 {
			line += "s"
		}
	}
	return line
}

func partyLine(team []party.SavedPokemon) string {
	names := make([]string, len(team))
	for i, mon := range team {
		name := mon.Nickname
		if name == "" {
			name = titleCase(mon.Species)
		}
		names[i] = fmt.Sprintf("%s Lv%d", name, mon.Level)
	}
	return strings.Join(names, " · ")
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// WithStatus clears the selection and shows a one-line status message.
func (m MenuModel) WithStatus(status string) MenuModel {
	m.selected = nil
	m.status = status
	return m
}

// WithSave refreshes the trainer summary.
func (m MenuModel) WithSave(save *storage.TrainerSave) MenuModel {
	m.save = save
	return m
}

// WithSize applies a terminal size received while another screen was shown.
func (m MenuModel) WithSize(width, height int) MenuModel {
	m.width, m.height = width, height
	m.help.Width = width
	return m
}
