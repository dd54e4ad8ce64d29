package multiplayer

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pokebattle/internal/ai"
	"github.com/vovakirdan/pokebattle/internal/battle"
	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// Lobby represents a waiting room for a match.
type Lobby struct {
	Code       string
	Host       SessionHandle
	HostTeam   Team
	Joiner     SessionHandle
	JoinerTeam Team
	CreatedAt  time.Time
}

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	LobbyTimeout  time.Duration // How long before an empty lobby expires
	TickRate      int           // Battle ticks per second
	CleanupPeriod time.Duration // How often to clean up expired lobbies
	SelectTimeout time.Duration // Passed to every battle
	AckTimeout    time.Duration // Passed to every battle
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		LobbyTimeout:  2 * time.Minute,
		TickRate:      30,
		CleanupPeriod: 30 * time.Second,
		SelectTimeout: time.Minute,
		AckTimeout:    30 * time.Second,
	}
}

// MatchResultSaver is an interface for saving match results.
// This allows the coordinator to save results without depending on the storage package.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResultData) error
}

// MatchResultData contains match result data for persistence.
type MatchResultData struct {
	MatchID        string
	Mode           string
	Result         *battle.Result
	Player1Session string
	Player2Session string
	WinnerSession  string
	DurationSecs   int
}

// Coordinator manages lobbies and active matches.
type Coordinator struct {
	config      CoordinatorConfig
	reg         *dex.Registry
	sessions    *SessionRegistry
	resultSaver MatchResultSaver // Optional, can be nil
	logger      *log.Logger

	mu      sync.RWMutex
	lobbies map[string]*Lobby        // code -> lobby
	matches map[MatchID]*OnlineMatch // matchID -> match
	codes   map[string]MatchID       // code -> running match

	// Track which session is in which lobby/match
	sessionLobby map[SessionID]string  // sessionID -> lobby code
	sessionMatch map[SessionID]MatchID // sessionID -> matchID

	msgChan chan CoordinatorMessage
	done    chan struct{}
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, reg *dex.Registry, sessions *SessionRegistry) *Coordinator {
	return &Coordinator{
		config:       cfg,
		reg:          reg,
		sessions:     sessions,
		logger:       log.New(io.Discard),
		lobbies:      make(map[string]*Lobby),
		matches:      make(map[MatchID]*OnlineMatch),
		codes:        make(map[string]MatchID),
		sessionLobby: make(map[SessionID]string),
		sessionMatch: make(map[SessionID]MatchID),
		msgChan:      make(chan CoordinatorMessage, 256),
		done:         make(chan struct{}),
	}
}

// SetResultSaver sets the optional match result saver.
func (c *Coordinator) SetResultSaver(saver MatchResultSaver) {
	c.resultSaver = saver
}

// SetLogger sets the logger handed to every battle.
func (c *Coordinator) SetLogger(logger *log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Start begins the coordinator's background processing.
func (c *Coordinator) Start() {
	go c.processMessages()
	go c.cleanupLoop()
}

// Stop shuts down the coordinator and every running match.
func (c *Coordinator) Stop() {
	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range c.matches {
		m.Stop()
	}
}

// Send sends a message to the coordinator for async processing.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.msgChan <- msg:
	case <-c.done:
	}
}

func (c *Coordinator) processMessages() {
	for {
		select {
		case msg := <-c.msgChan:
			c.handleMessage(msg)
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) handleMessage(msg CoordinatorMessage) {
	switch m := msg.(type) {
	case CreateLobbyMsg:
		c.handleCreateLobby(m)
	case JoinLobbyMsg:
		c.handleJoinLobby(m)
	case CancelLobbyMsg:
		c.handleCancelLobby(m)
	case LeaveLobbyMsg:
		c.handleLeaveLobby(m)
	case StartCPUMatchMsg:
		c.handleStartCPUMatch(m)
	case SpectateMsg:
		c.handleSpectate(m)
	case LeaveMatchMsg:
		c.handleLeaveMatch(m)
	case SessionDisconnectedMsg:
		c.handleSessionDisconnected(m)
	}
}

// busy reports whether a session is already waiting or playing.
// Must be called with lock held.
func (c *Coordinator) busy(id SessionID) bool {
	_, inLobby := c.sessionLobby[id]
	_, inMatch := c.sessionMatch[id]
	return inLobby || inMatch
}

func (c *Coordinator) handleCreateLobby(msg CreateLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy(msg.SessionID) {
		session.Send(LobbyErrorEvent{Message: "Already in a lobby"})
		return
	}

	code := c.generateUniqueCode()
	c.lobbies[code] = &Lobby{
		Code:      code,
		Host:      session,
		HostTeam:  msg.Team,
		CreatedAt: time.Now(),
	}
	c.sessionLobby[msg.SessionID] = code

	session.Send(LobbyCreatedEvent{Code: code})
}

func (c *Coordinator) handleJoinLobby(msg JoinLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy(msg.SessionID) {
		session.Send(LobbyErrorEvent{Message: "Already in a lobby"})
		return
	}

	code := strings.ToUpper(msg.Code)
	lobby, exists := c.lobbies[code]
	if !exists {
		session.Send(LobbyErrorEvent{Message: "Lobby not found"})
		return
	}
	if lobby.Joiner != nil {
		session.Send(LobbyErrorEvent{Message: "Lobby is full"})
		return
	}
	if lobby.Host.ID() == msg.SessionID {
		session.Send(LobbyErrorEvent{Message: "Cannot join your own lobby"})
		return
	}

	lobby.Joiner = session
	lobby.JoinerTeam = msg.Team
	c.sessionLobby[msg.SessionID] = code

	lobby.Host.Send(LobbyJoinedEvent{Code: code, Opponent: session.Name()})
	session.Send(LobbyJoinedEvent{Code: code, Opponent: lobby.Host.Name()})

	c.startPvPMatch(lobby)
}

// startPvPMatch turns a full lobby into a running match.
// Must be called with lock held.
func (c *Coordinator) startPvPMatch(lobby *Lobby) {
	matchID := MatchID(fmt.Sprintf("match-%s-%d", lobby.Code, time.Now().UnixNano()))
	host := seat{session: lobby.Host, team: party.TeamID(lobby.Host.ID()), client: protocol.NewLocalClient()}
	joiner := seat{session: lobby.Joiner, team: party.TeamID(lobby.Joiner.ID()), client: protocol.NewLocalClient()}

	delete(c.lobbies, lobby.Code)
	delete(c.sessionLobby, host.session.ID())
	delete(c.sessionLobby, joiner.session.ID())

	b, err := c.newBattle(
		lobby.HostTeam.entry(host.team, host.client),
		lobby.JoinerTeam.entry(joiner.team, joiner.client),
	)
	if err != nil {
		c.logger.Warn("cannot start match", "code", lobby.Code, "error", err)
		msg := LobbyErrorEvent{Message: "Failed to create battle: " + err.Error()}
		host.session.Send(msg)
		joiner.session.Send(msg)
		return
	}

	c.launch(NewOnlineMatch(matchID, lobby.Code, MatchModeOnlinePvP, b, [2]seat{host, joiner}, c.config.TickRate, c.logger))
}

func (c *Coordinator) handleStartCPUMatch(msg StartCPUMatchMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy(msg.SessionID) {
		session.Send(LobbyErrorEvent{Message: "Already in a match"})
		return
	}

	code := c.generateUniqueCode()
	matchID := MatchID(fmt.Sprintf("cpu-%s-%d", code, time.Now().UnixNano()))
	player := seat{session: session, team: party.TeamID(session.ID()), client: protocol.NewLocalClient()}
	cpu := seat{team: CPUTeam}

	b, err := c.newBattle(
		msg.Team.entry(player.team, player.client),
		msg.Opponent.entry(cpu.team, ai.New(c.reg, msg.AI)),
	)
	if err != nil {
		c.logger.Warn("cannot start CPU match", "session", msg.SessionID, "error", err)
		session.Send(LobbyErrorEvent{Message: "Failed to create battle: " + err.Error()})
		return
	}

	c.launch(NewOnlineMatch(matchID, code, MatchModeVsCPU, b, [2]seat{player, cpu}, c.config.TickRate, c.logger))
}

func (c *Coordinator) newBattle(a, b battle.BattleEntry) (*battle.Battle, error) {
	return battle.New(c.reg, battle.Options{
		SelectTimeout: c.config.SelectTimeout,
		AckTimeout:    c.config.AckTimeout,
		Seed:          time.Now().UnixNano(),
		Logger:        c.logger,
	}, a, b)
}

// launch tracks a match, tells its players and starts its loop.
// Must be called with lock held.
func (c *Coordinator) launch(match *OnlineMatch) {
	c.matches[match.id] = match
	c.codes[match.code] = match.id

	for i, s := range match.seats {
		if s.session == nil {
			continue
		}
		c.sessionMatch[s.session.ID()] = match.id
		s.session.Send(MatchStartedEvent{
			MatchID:  match.id,
			Mode:     match.mode,
			Code:     match.code,
			Team:     s.team,
			Opponent: match.seats[1-i].name(),
			Client:   s.client,
		})
	}

	go match.Run(func(result MatchResult) {
		c.handleMatchEnded(result)
	})
}

func (s seat) name() string {
	if s.session == nil {
		return "CPU"
	}
	return s.session.Name()
}

func (c *Coordinator) handleMatchEnded(result MatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	match, exists := c.matches[result.MatchID]
	if !exists {
		return
	}

	if c.resultSaver != nil {
		data := MatchResultData{
			MatchID:      string(match.id),
			Mode:         match.mode.String(),
			Result:       result.Result,
			DurationSecs: int(result.Duration / time.Second),
		}
		for i, s := range match.seats {
			if s.session == nil {
				continue
			}
			id := string(s.session.ID())
			if i == 0 {
				data.Player1Session = id
			} else {
				data.Player2Session = id
			}
			if s.team == result.Result.Winner {
				data.WinnerSession = id
			}
		}
		// Best effort save, don't block on error
		go func() {
			if err := c.resultSaver.SaveMatchResult(data); err != nil {
				c.logger.Warn("cannot save match result", "match", data.MatchID, "error", err)
			}
		}()
	}

	for _, s := range match.seats {
		if s.session != nil {
			delete(c.sessionMatch, s.session.ID())
		}
	}
	delete(c.matches, match.id)
	delete(c.codes, match.code)

	endEvent := MatchEndedEvent{
		MatchID: match.id,
		Reason:  result.Reason,
		Result:  result.Result,
	}
	for _, s := range match.seats {
		if s.session != nil {
			s.session.Send(endEvent)
		}
	}
}

func (c *Coordinator) handleSpectate(msg SpectateMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.RLock()
	matchID, found := c.codes[strings.ToUpper(msg.Code)]
	match := c.matches[matchID]
	c.mu.RUnlock()

	if !found || match == nil {
		session.Send(LobbyErrorEvent{Message: "No battle with that code"})
		return
	}

	client := protocol.NewLocalClient()
	if !match.Spectate(client) {
		session.Send(LobbyErrorEvent{Message: "Battle already ended"})
		return
	}
	go func() {
		select {
		case <-session.Done():
			client.Close()
		case <-match.Done():
		}
	}()

	session.Send(SpectateStartedEvent{MatchID: match.id, Code: match.code, Client: client})
}

func (c *Coordinator) handleCancelLobby(msg CancelLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, exists := c.lobbies[msg.Code]
	if !exists {
		return
	}

	// Only host can cancel
	if lobby.Host.ID() != msg.SessionID {
		return
	}

	if lobby.Joiner != nil {
		lobby.Joiner.Send(MatchEndedEvent{Reason: MatchEndReasonHostLeft})
		delete(c.sessionLobby, lobby.Joiner.ID())
	}

	delete(c.lobbies, msg.Code)
	delete(c.sessionLobby, msg.SessionID)
}

func (c *Coordinator) handleLeaveLobby(msg LeaveLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, exists := c.lobbies[msg.Code]
	if !exists {
		return
	}

	if lobby.Joiner != nil && lobby.Joiner.ID() == msg.SessionID {
		lobby.Joiner = nil
		delete(c.sessionLobby, msg.SessionID)
		lobby.Host.Send(LobbyPlayerLeftEvent{Code: msg.Code})
		return
	}

	if lobby.Host.ID() == msg.SessionID {
		if lobby.Joiner != nil {
			lobby.Joiner.Send(MatchEndedEvent{Reason: MatchEndReasonHostLeft})
			delete(c.sessionLobby, lobby.Joiner.ID())
		}
		delete(c.lobbies, msg.Code)
		delete(c.sessionLobby, msg.SessionID)
	}
}

func (c *Coordinator) handleLeaveMatch(msg LeaveMatchMsg) {
	c.mu.RLock()
	match, exists := c.matches[msg.MatchID]
	c.mu.RUnlock()

	if !exists {
		return
	}

	match.Leave(msg.SessionID)
}

func (c *Coordinator) handleSessionDisconnected(msg SessionDisconnectedMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if code, inLobby := c.sessionLobby[msg.SessionID]; inLobby {
		if lobby, exists := c.lobbies[code]; exists {
			if lobby.Host.ID() == msg.SessionID {
				if lobby.Joiner != nil {
					lobby.Joiner.Send(MatchEndedEvent{Reason: MatchEndReasonHostLeft})
					delete(c.sessionLobby, lobby.Joiner.ID())
				}
				delete(c.lobbies, code)
			} else if lobby.Joiner != nil && lobby.Joiner.ID() == msg.SessionID {
				lobby.Joiner = nil
				lobby.Host.Send(LobbyPlayerLeftEvent{Code: code})
			}
		}
		delete(c.sessionLobby, msg.SessionID)
	}

	// The match notices through the session's Done channel; Leave makes it
	// immediate for handles that never close.
	if matchID, inMatch := c.sessionMatch[msg.SessionID]; inMatch {
		if match, exists := c.matches[matchID]; exists {
			match.Leave(msg.SessionID)
		}
	}
}

func (c *Coordinator) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpiredLobbies()
		case <-c.done:
			return
		}
	}
}

func (c *Coordinator) cleanupExpiredLobbies() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for code, lobby := range c.lobbies {
		// Only expire lobbies without joiners
		if lobby.Joiner == nil && now.Sub(lobby.CreatedAt) > c.config.LobbyTimeout {
			lobby.Host.Send(LobbyErrorEvent{Message: "Lobby expired"})
			delete(c.sessionLobby, lobby.Host.ID())
			delete(c.lobbies, code)
		}
	}
}

// generateUniqueCode returns a code no lobby or running match uses.
// Must be called with lock held.
func (c *Coordinator) generateUniqueCode() string {
	for {
		code := generateJoinCode()
		_, lobby := c.lobbies[code]
		_, match := c.codes[code]
		if !lobby && !match {
			return code
		}
	}
}

// generateJoinCode creates a 6-character uppercase alphanumeric code.
func generateJoinCode() string {
	b := make([]byte, 4) // 4 bytes = 32 bits, base32 encodes to 8 chars, we take 6
	_, err := rand.Read(b)
	if err != nil {
		return fmt.Sprintf("%06X", time.Now().UnixNano()&0xFFFFFF)
	}
	return base32.StdEncoding.EncodeToString(b)[:6]
}

// GetLobby returns a lobby by code (for testing/debug).
func (c *Coordinator) GetLobby(code string) (*Lobby, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lobbies[strings.ToUpper(code)]
	return l, ok
}

// GetMatch returns a match by ID (for testing/debug).
func (c *Coordinator) GetMatch(id MatchID) (*OnlineMatch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.matches[id]
	return m, ok
}

// LobbyCount returns the number of active lobbies.
func (c *Coordinator) LobbyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lobbies)
}

// MatchCount returns the number of active matches.
func (c *Coordinator) MatchCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matches)
}
