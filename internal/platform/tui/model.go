package tui

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pokebattle/internal/config"
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/multiplayer"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/storage"
)

// SessionConfig is everything a terminal session needs.
type SessionConfig struct {
	Username   string
	Registry   *dex.Registry
	Battle     config.BattleConfig
	Difficulty config.DifficultyPreset
	Store      *storage.Store // Optional, progress is kept in memory without it
	Online     bool           // Show host, join and watch entries
	Seed       int64          // 0 picks a time-based seed per battle
	Width      int
	Height     int
	Logger     *log.Logger
}

type screen int

const (
	screenMenu screen = iota
	screenLobby
	screenBattle
	screenHistory
)

// sessionEventMsg wraps a coordinator event for Bubble Tea.
type sessionEventMsg struct {
	evt multiplayer.SessionEvent
}

// sessionClosedMsg reports that the session handle was closed.
type sessionClosedMsg struct{}

// SessionModel manages the full session flow: menu -> lobby or battle ->
// menu. It is the top-level model for local and SSH sessions.
type SessionModel struct {
	cfg         SessionConfig
	session     *multiplayer.ChannelSession
	coordinator *multiplayer.Coordinator
	save        *storage.TrainerSave
	logger      *log.Logger

	screen  screen
	menu    MenuModel
	lobby   LobbyModel
	battle  BattleModel
	history HistoryModel

	matchID  multiplayer.MatchID
	team     party.TeamID
	quitting bool
}

// NewSessionModel creates a session for a registered session handle. The
// trainer's save is loaded from the store, or started from the configured
// player preset on first visit.
func NewSessionModel(cfg SessionConfig, session *multiplayer.ChannelSession, coordinator *multiplayer.Coordinator) (SessionModel, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	save, err := loadSave(cfg, session.Name())
	if err != nil {
		return SessionModel{}, err
	}

	return SessionModel{
		cfg:         cfg,
		session:     session,
		coordinator: coordinator,
		save:        save,
		logger:      logger,
		menu:        NewMenuModel(cfg.Battle, save, cfg.Online, cfg.Width, cfg.Height),
	}, nil
}

func loadSave(cfg SessionConfig, name string) (*storage.TrainerSave, error) {
	fresh := &storage.TrainerSave{Name: name}
	fresh.SetPokemon(cfg.Battle.Player.Party)
	fresh.Bag = make(map[string]int, len(cfg.Battle.Player.Bag))
	for item, n := range cfg.Battle.Player.Bag {
		fresh.Bag[item] = n
	}

	if cfg.Store == nil {
		return fresh, nil
	}
	save, found, err := cfg.Store.LoadTrainer(name)
	if err != nil {
		return nil, err
	}
	if found && len(save.Party) > 0 {
		return save, nil
	}
	if err := cfg.Store.SaveTrainer(fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return tea.Batch(m.menu.Init(), waitForEvent(m.session))
}

// waitForEvent returns a command that waits for the next coordinator event.
func waitForEvent(s *multiplayer.ChannelSession) tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-s.Events():
			return sessionEventMsg{evt: evt}
		case <-s.Done():
			return sessionClosedMsg{}
		}
	}
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cfg.Width, m.cfg.Height = msg.Width, msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

	case sessionEventMsg:
		var cmd tea.Cmd
		m, cmd = m.handleEvent(msg.evt)
		return m, tea.Batch(cmd, waitForEvent(m.session))

	case sessionClosedMsg:
		m.quitting = true
		return m, tea.Quit
	}

	switch m.screen {
	case screenLobby:
		return m.updateLobby(msg)
	case screenBattle:
		return m.updateBattle(msg)
	case screenHistory:
		return m.updateHistory(msg)
	default:
		return m.updateMenu(msg)
	}
}

// handleEvent reacts to lobby and match lifecycle events.
func (m SessionModel) handleEvent(evt multiplayer.SessionEvent) (SessionModel, tea.Cmd) {
	switch evt := evt.(type) {
	case multiplayer.MatchStartedEvent:
		m.matchID = evt.MatchID
		m.team = evt.Team
		m.battle = NewBattleModel(evt.Client, m.cfg.Registry, evt.Team, m.cfg.Width, m.cfg.Height)
		m.screen = screenBattle
		m.logger.Info("match started", "match", evt.MatchID, "mode", evt.Mode, "opponent", evt.Opponent)
		return m, m.battle.Init()

	case multiplayer.SpectateStartedEvent:
		m.matchID = evt.MatchID
		m.team = ""
		m.battle = NewBattleModel(evt.Client, m.cfg.Registry, "", m.cfg.Width, m.cfg.Height)
		m.screen = screenBattle
		return m, m.battle.Init()

	case multiplayer.MatchEndedEvent:
		if evt.MatchID == m.matchID {
			m.recordResult(evt)
			m.matchID = ""
		}
		return m, nil

	case multiplayer.LobbyErrorEvent:
		if m.screen == screenMenu {
			m.menu = m.menu.WithStatus(errorStyle.Render(evt.Message))
			return m, nil
		}
	}

	if m.screen == screenLobby {
		model, cmd := m.lobby.Update(evt)
		m.lobby = model.(LobbyModel)
		if m.lobby.BackToMenu() {
			m.toMenu("")
		}
		return m, cmd
	}
	return m, nil
}

// recordResult applies a finished battle to the trainer's save.
func (m *SessionModel) recordResult(evt multiplayer.MatchEndedEvent) {
	if evt.Result == nil || m.team == "" {
		return
	}
	evt.Result.ApplyTo(m.team, m.save)
	if m.cfg.Store == nil {
		return
	}
	if err := m.cfg.Store.SaveTrainer(m.save); err != nil {
		m.logger.Warn("cannot save trainer", "trainer", m.save.Name, "error", err)
	}
}

func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.menu.Update(msg)
	m.menu = model.(MenuModel)

	item := m.menu.Selected()
	if item == nil {
		return m, cmd
	}

	switch item.Action {
	case MenuBattleCPU:
		return m.startCPUBattle(item.Opponent)

	case MenuHeal:
		m.save.Heal()
		status := "Your Pokémon are fully healed."
		if m.cfg.Store != nil {
			if err := m.cfg.Store.SaveTrainer(m.save); err != nil {
				status = errorStyle.Render("Cannot save: " + err.Error())
			}
		}
		m.menu = m.menu.WithStatus(status)
		return m, nil

	case MenuHost:
		m.lobby = NewHostModel(m.session.ID(), m.coordinator, m.playerTeam(), m.cfg.Width, m.cfg.Height)
		m.screen = screenLobby
		return m, m.lobby.Init()

	case MenuJoin, MenuWatch:
		m.lobby = NewJoinModel(m.session.ID(), m.coordinator, m.playerTeam(), item.Action == MenuWatch, m.cfg.Width, m.cfg.Height)
		m.screen = screenLobby
		return m, m.lobby.Init()

	case MenuHistory:
		m.history = NewHistoryModel(m.cfg.Store, party.TeamID(m.session.ID()), m.cfg.Width, m.cfg.Height)
		m.screen = screenHistory
		return m, m.history.Init()

	case MenuQuit:
		return m.quit()
	}
	return m, cmd
}

func (m SessionModel) startCPUBattle(id party.TeamID) (tea.Model, tea.Cmd) {
	preset, ok := m.cfg.Battle.Opponent(id)
	if !ok {
		m.menu = m.menu.WithStatus(errorStyle.Render(fmt.Sprintf("Unknown opponent %q", id)))
		return m, nil
	}
	profile := m.cfg.Battle.Profile(m.cfg.Difficulty)
	preset = profile.ApplyPreset(preset)

	m.coordinator.Send(multiplayer.StartCPUMatchMsg{
		SessionID: m.session.ID(),
		Team:      m.playerTeam(),
		Opponent:  presetTeam(preset, m.cfg.Battle.Battle.ActiveSlots),
		AI:        profile.AIOptions(m.seed()),
	})
	m.menu = m.menu.WithStatus("Starting battle...")
	return m, nil
}

func (m SessionModel) seed() int64 {
	if m.cfg.Seed != 0 {
		return m.cfg.Seed
	}
	return time.Now().UnixNano()
}

// playerTeam is the trainer's current party as a battle team.
func (m SessionModel) playerTeam() multiplayer.Team {
	preset := m.cfg.Battle.Player
	preset.Party = m.save.Party
	preset.Bag = m.save.Bag
	preset.Trainer = &party.Trainer{Name: m.save.Name}
	return presetTeam(preset, m.cfg.Battle.Battle.ActiveSlots)
}

func presetTeam(p config.TeamPreset, defaultSlots int) multiplayer.Team {
	slots := p.ActiveSlots
	if slots <= 0 {
		slots = defaultSlots
	}
	return multiplayer.Team{
		Trainer:     p.Trainer,
		Party:       p.Party,
		Bag:         p.Bag,
		ActiveSlots: slots,
		CanGainExp:  p.CanGainExp,
	}
}

func (m SessionModel) updateLobby(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.lobby.Update(msg)
	m.lobby = model.(LobbyModel)
	if m.lobby.BackToMenu() {
		m.toMenu("")
	}
	return m, cmd
}

func (m SessionModel) updateBattle(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.battle.Update(msg)
	m.battle = model.(BattleModel)
	if m.battle.Finished() {
		status := ""
		if end, ok := m.battle.Ended(); ok && m.team != "" {
			status = endText(end, m.team, m.battle.teamName)
		}
		m.toMenu(status)
		return m, nil
	}
	return m, cmd
}

func (m SessionModel) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.history.Update(msg)
	m.history = model.(HistoryModel)
	if m.history.BackToMenu() {
		m.toMenu("")
	}
	return m, cmd
}

func (m *SessionModel) toMenu(status string) {
	m.screen = screenMenu
	m.menu = m.menu.WithSave(m.save).WithStatus(status).WithSize(m.cfg.Width, m.cfg.Height)
}

// quit leaves any running match and ends the program.
func (m SessionModel) quit() (tea.Model, tea.Cmd) {
	if m.matchID != "" && m.team != "" {
		m.coordinator.Send(multiplayer.LeaveMatchMsg{SessionID: m.session.ID(), MatchID: m.matchID})
	}
	if m.screen == screenLobby && m.lobby.Code() != "" {
		switch m.lobby.State() {
		case LobbyHostWaiting:
			m.coordinator.Send(multiplayer.CancelLobbyMsg{SessionID: m.session.ID(), Code: m.lobby.Code()})
		case LobbyJoinWaiting:
			m.coordinator.Send(multiplayer.LeaveLobbyMsg{SessionID: m.session.ID(), Code: m.lobby.Code()})
		}
	}
	m.quitting = true
	return m, tea.Quit
}

// View renders the current screen.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.screen {
	case screenLobby:
		return m.lobby.View()
	case screenBattle:
		return m.battle.View()
	case screenHistory:
		return m.history.View()
	default:
		return m.menu.View()
	}
}

// Save returns the trainer's save as it stands.
func (m SessionModel) Save() *storage.TrainerSave {
	return m.save
}

// coordinatorConfig derives coordinator settings from the battle config.
func coordinatorConfig(cfg config.BattleConfig) multiplayer.CoordinatorConfig {
	cc := multiplayer.DefaultCoordinatorConfig()
	if cfg.Battle.TickRate > 0 {
		cc.TickRate = cfg.Battle.TickRate
	}
	cc.SelectTimeout = cfg.Battle.SelectTimeout
	cc.AckTimeout = cfg.Battle.AckTimeout
	return cc
}

// Run starts a local session against an in-process coordinator.
func Run(cfg SessionConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	sessions := multiplayer.NewSessionRegistry()
	coordinator := multiplayer.NewCoordinator(coordinatorConfig(cfg.Battle), cfg.Registry, sessions)
	coordinator.SetLogger(logger)
	if cfg.Store != nil {
		coordinator.SetResultSaver(cfg.Store)
	}
	coordinator.Start()
	defer coordinator.Stop()

	name := cfg.Username
	if name == "" {
		name = string(cfg.Battle.Player.ID)
	}
	session := sessions.Connect(name, 0)
	defer sessions.Disconnect(session.ID())

	model, err := NewSessionModel(cfg, session, coordinator)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
