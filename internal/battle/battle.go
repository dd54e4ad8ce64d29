package battle

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/engine"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// Construction errors.
var (
	ErrEntries     = errors.New("battle: exactly two entries are required")
	ErrTeamID      = errors.New("battle: entries need distinct, non-empty team IDs")
	ErrEmptyParty  = errors.New("battle: party is empty")
	ErrAllFainted  = errors.New("battle: every combatant has fainted")
	ErrUnknownTeam = errors.New("battle: unknown team")
)

// Phase is where a battle is in its turn cycle.
type Phase int

const (
	PhaseIdle      Phase = iota // created, not started
	PhaseSelecting              // waiting for every slot's action
	PhaseWaiting                // turn executed, waiting for FinishedTurnQueue
	PhaseReplacing              // waiting for fainted slots to be refilled
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelecting:
		return "selecting"
	case PhaseWaiting:
		return "waiting"
	case PhaseReplacing:
		return "replacing"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Battle is the root of one battle: two players, their observers and the
// turn cycle.
type Battle struct {
	id         string
	kind       Kind
	players    [2]*BattlePlayer
	spectators []*observer

	field    *engine.Field
	pipeline *engine.Pipeline
	rng      engine.RNG
	logger   *log.Logger
	opts     Options

	phase      Phase
	phaseStart time.Time
	turn       int
	seq        int
	result     *Result
}

// New assembles a battle. Every species, move, item and nature is resolved
// here, so a bad reference fails construction with a *dex.LookupError
// instead of surfacing mid-turn.
func New(reg *dex.Registry, opts Options, entries ...BattleEntry) (*Battle, error) {
	if len(entries) != 2 {
		return nil, ErrEntries
	}
	if entries[0].ID == "" || entries[1].ID == "" || entries[0].ID == entries[1].ID {
		return nil, ErrTeamID
	}

	var players [2]*BattlePlayer
	for i, e := range entries {
		p, err := buildParty(reg, e)
		if err != nil {
			return nil, fmt.Errorf("battle: team %s: %w", e.ID, err)
		}
		players[i] = &BattlePlayer{Party: p, Settings: e.Settings}
		if e.Client != nil {
			players[i].obs = newObserver(e.Client, e.ID)
		}
	}

	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.With("battle", opts.ID)

	rng := opts.RNG
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}

	kind := KindOf(entries[1].Trainer)
	field := engine.NewField(players[0].Party, players[1].Party)
	field.Trainer = kind != KindWild
	for _, p := range players {
		field.CanGainExp[p.ID()] = p.Settings.CanGainExp
	}

	return &Battle{
		id:       opts.ID,
		kind:     kind,
		players:  players,
		field:    field,
		pipeline: engine.NewPipeline(reg, field, rng, logger),
		rng:      rng,
		logger:   logger,
		opts:     opts,
	}, nil
}

func buildParty(reg *dex.Registry, e BattleEntry) (*party.BattleParty, error) {
	if len(e.Party) == 0 {
		return nil, ErrEmptyParty
	}
	roster, err := party.AssembleAll(reg, e.Party)
	if err != nil {
		return nil, err
	}
	p := party.New(e.ID, e.Trainer, e.ActiveSlots, roster)
	if p.AllFainted() {
		return nil, ErrAllFainted
	}
	bagIDs := make([]string, 0, len(e.Bag))
	for id := range e.Bag {
		bagIDs = append(bagIDs, id)
	}
	slices.Sort(bagIDs)
	for _, id := range bagIDs {
		if _, err := reg.Item(id); err != nil {
			return nil, err
		}
		p.AddItem(id, e.Bag[id])
	}
	return p, nil
}

// ID returns the battle ID.
func (b *Battle) ID() string { return b.id }

// Kind returns the battle kind.
func (b *Battle) Kind() Kind { return b.kind }

// Phase returns the current phase.
func (b *Battle) Phase() Phase { return b.phase }

// Turn returns the current turn number, starting at 1.
func (b *Battle) Turn() int { return b.turn }

// Players returns both sides in entry order.
func (b *Battle) Players() [2]*BattlePlayer { return b.players }

// Player returns the side with the given team ID.
func (b *Battle) Player(team party.TeamID) (*BattlePlayer, error) {
	for _, p := range b.players {
		if p.ID() == team {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, team)
}

// Result returns the outcome once the battle has ended.
func (b *Battle) Result() (*Result, bool) {
	return b.result, b.result != nil
}

// Ended reports whether the battle is over.
func (b *Battle) Ended() bool {
	return b.phase == PhaseEnded
}

// Spectate registers an observer that controls no side. It receives every
// broadcast with both parties masked. A spectator holds up the turn like a
// player until it acknowledges or times out, then is dropped.
func (b *Battle) Spectate(c protocol.BattleClient) {
	o := newObserver(c, "")
	b.spectators = append(b.spectators, o)

	switch b.phase {
	case PhaseIdle:
		// Start sends Begin.
	case PhaseEnded:
		o.send(b.spectatorBegin())
		o.send(b.endMessage())
	default:
		o.send(b.spectatorBegin())
		o.send(b.spectatorSelecting())
	}
}

// Start announces the battle and opens turn 1.
func (b *Battle) Start(now time.Time) {
	if b.phase != PhaseIdle {
		return
	}
	for i, p := range b.players {
		if p.obs == nil {
			continue
		}
		opp := b.players[1-i].Party
		p.obs.send(protocol.Begin{
			BattleID: b.id,
			Kind:     b.kind.String(),
			Team:     p.ID(),
			Opponent: opp.ID,
			Trainer:  opp.Trainer,
		})
	}
	for _, s := range b.spectators {
		s.send(b.spectatorBegin())
	}
	b.logger.Info("battle started", "kind", b.kind,
		"a", b.players[0].Party.Name(), "b", b.players[1].Party.Name())
	b.beginSelecting(now)
}

// Update advances the battle by one tick and reports whether it has ended.
// It never blocks.
func (b *Battle) Update(now time.Time) bool {
	switch b.phase {
	case PhaseIdle:
		return false
	case PhaseEnded:
		return true
	}

	if b.checkDisconnects() {
		return true
	}
	b.poll()
	if b.phase == PhaseEnded {
		return true
	}

	switch b.phase {
	case PhaseSelecting:
		if b.expired(now, b.opts.SelectTimeout) {
			b.logger.Debug("selection timed out", "turn", b.turn)
			for i, p := range b.players {
				fillDefaults(p.Party, b.players[1-i].Party, b.rng)
			}
		}
		if b.players[0].Party.ReadyToResolve() && b.players[1].Party.ReadyToResolve() {
			b.resolveTurn(now)
		}

	case PhaseWaiting:
		if !b.anyWaiting() {
			b.finishTurn(now)
		} else if b.expired(now, b.opts.AckTimeout) {
			b.ackTimedOut()
		}

	case PhaseReplacing:
		if b.expired(now, b.opts.SelectTimeout) {
			for _, p := range b.players {
				b.announceReplacements(p.Party, fillReplacements(p.Party))
			}
		}
		if !b.players[0].Party.NeedsReplacement() && !b.players[1].Party.NeedsReplacement() {
			b.beginSelecting(now)
		}
	}

	return b.phase == PhaseEnded
}

// Forfeit ends the battle with team's opponent as the winner.
func (b *Battle) Forfeit(team party.TeamID) error {
	i, err := b.indexOf(team)
	if err != nil {
		return err
	}
	if b.phase != PhaseEnded {
		b.end(1-i, protocol.EndForfeit)
	}
	return nil
}

func (b *Battle) indexOf(team party.TeamID) (int, error) {
	for i, p := range b.players {
		if p.ID() == team {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTeam, team)
}

func (b *Battle) expired(now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(b.phaseStart) >= timeout
}

func (b *Battle) beginSelecting(now time.Time) {
	b.turn++
	b.phase = PhaseSelecting
	b.phaseStart = now

	for i, p := range b.players {
		opp := b.players[1-i].Party
		if p.obs == nil {
			fillDefaults(p.Party, opp, b.rng)
			continue
		}
		p.obs.send(protocol.StartSelecting{
			Turn:     b.turn,
			Own:      p.Party.View(false),
			Opponent: opp.View(true),
		})
	}
	for _, s := range b.spectators {
		s.send(b.spectatorSelecting())
	}
}

func (b *Battle) checkDisconnects() bool {
	for i, p := range b.players {
		if p.obs != nil && p.obs.disconnected() {
			b.logger.Info("client disconnected", "team", p.ID())
			b.end(1-i, protocol.EndDisconnect)
			return true
		}
	}
	for _, s := range b.spectators {
		if !s.dropped && s.disconnected() {
			s.dropped = true
		}
	}
	b.pruneSpectators()
	return false
}

func (b *Battle) poll() {
	for i, p := range b.players {
		if p.obs == nil {
			continue
		}
		for {
			msg, ok := p.obs.client.Receive()
			if !ok {
				break
			}
			b.handle(i, msg)
			if b.phase == PhaseEnded {
				return
			}
		}
	}
	for _, s := range b.spectators {
		for {
			msg, ok := s.client.Receive()
			if !ok {
				break
			}
			s.tracker.Client(msg)
		}
	}
}

func (b *Battle) handle(i int, msg protocol.ClientMessage) {
	p := b.players[i]
	side := p.Party

	switch m := msg.(type) {
	case protocol.Forfeit:
		b.logger.Info("forfeit", "team", p.ID())
		b.end(1-i, protocol.EndForfeit)

	case protocol.SelectAction:
		if b.phase != PhaseSelecting || m.Move == nil {
			b.logger.Debug("ignoring selection", "team", p.ID(), "phase", b.phase)
			return
		}
		if err := side.Validate(m.Slot, m.Move); err != nil {
			b.logger.Debug("invalid selection", "team", p.ID(), "slot", m.Slot, "err", err)
			return
		}
		side.Active[m.Slot].Pending = m.Move

	case protocol.FaintReplace:
		if b.phase != PhaseReplacing {
			return
		}
		if m.Slot < 0 || m.Slot >= len(side.Active) || side.Active[m.Slot] != nil {
			b.logger.Debug("invalid replacement slot", "team", p.ID(), "slot", m.Slot)
			return
		}
		if err := side.Activate(m.Slot, m.Roster); err != nil {
			b.logger.Debug("invalid replacement", "team", p.ID(), "err", err)
			return
		}
		b.announceReplacements(side, []int{m.Slot})

	case protocol.FinishedTurnQueue:
		p.obs.tracker.Client(m)
	}
}

// decided reports whether either roster is wiped out.
func (b *Battle) decided() bool {
	return b.players[0].Party.AllFainted() || b.players[1].Party.AllFainted()
}

func (b *Battle) resolveTurn(now time.Time) {
	order := engine.Resolve(b.field)

	queue := make([]protocol.Queued, len(order))
	for i, a := range order {
		queue[i] = protocol.Queued{Actor: a.Actor, Move: a.Move}
	}
	b.broadcast(protocol.TurnQueue{Turn: b.turn, Queue: queue})

	for _, a := range order {
		for _, inst := range b.pipeline.Execute(a) {
			b.emit(inst)
		}
		if b.decided() {
			break
		}
	}
	if !b.decided() {
		for _, inst := range b.pipeline.Residual() {
			b.emit(inst)
		}
	}

	b.broadcast(protocol.EndTurnQueue{Turn: b.turn})
	b.phase = PhaseWaiting
	b.phaseStart = now
	b.logger.Debug("turn resolved", "turn", b.turn, "actions", len(order))
}

func (b *Battle) emit(inst protocol.ActionInstance) {
	b.seq++
	b.broadcast(protocol.Outcome{Turn: b.turn, Seq: b.seq, Action: inst})
}

func (b *Battle) broadcast(msg protocol.ServerMessage) {
	for _, p := range b.players {
		if p.obs != nil {
			p.obs.send(msg)
		}
	}
	for _, s := range b.spectators {
		s.send(msg)
	}
}

func (b *Battle) anyWaiting() bool {
	for _, p := range b.players {
		if p.obs != nil && p.obs.waiting() {
			return true
		}
	}
	for _, s := range b.spectators {
		if s.waiting() {
			return true
		}
	}
	return false
}

func (b *Battle) ackTimedOut() {
	var stalled []int
	for i, p := range b.players {
		if p.obs != nil && p.obs.waiting() {
			stalled = append(stalled, i)
		}
	}
	for _, s := range b.spectators {
		if s.waiting() {
			b.logger.Debug("dropping stalled spectator")
			s.dropped = true
		}
	}
	b.pruneSpectators()

	switch len(stalled) {
	case 0:
		// Only spectators stalled; the turn finishes next tick.
	case 1:
		b.logger.Info("client stalled", "team", b.players[stalled[0]].ID())
		b.end(1-stalled[0], protocol.EndTimeout)
	default:
		b.end(-1, protocol.EndTimeout)
	}
}

func (b *Battle) finishTurn(now time.Time) {
	wipedA := b.players[0].Party.AllFainted()
	wipedB := b.players[1].Party.AllFainted()
	switch {
	case wipedA && wipedB:
		b.end(-1, protocol.EndDefeat)
		return
	case wipedA:
		b.end(1, protocol.EndDefeat)
		return
	case wipedB:
		b.end(0, protocol.EndDefeat)
		return
	}

	waiting := false
	for _, p := range b.players {
		side := p.Party
		if !side.NeedsReplacement() {
			continue
		}
		if p.obs == nil {
			b.announceReplacements(side, fillReplacements(side))
			continue
		}
		p.obs.send(protocol.RequestReplace{Slots: side.EmptySlots(), Own: side.View(false)})
		waiting = true
	}
	if !waiting {
		b.beginSelecting(now)
		return
	}
	b.phase = PhaseReplacing
	b.phaseStart = now
}

func (b *Battle) announceReplacements(side *party.BattleParty, slots []int) {
	for _, slot := range slots {
		roster := side.Active[slot].Roster
		b.broadcast(protocol.Replaced{
			Index:  side.Index(slot),
			Roster: roster,
			Name:   side.Roster[roster].Name(),
		})
	}
}

// end finishes the battle. winner is a player index, or -1 for a draw.
func (b *Battle) end(winner int, reason protocol.EndReason) {
	res := &Result{
		BattleID: b.id,
		Kind:     b.kind,
		Reason:   reason,
		Turns:    b.turn,
		Parties:  make(map[party.TeamID][]party.SavedPokemon, 2),
		Trainers: make(map[party.TeamID]*party.Trainer, 2),
	}
	if winner >= 0 {
		res.Winner = b.players[winner].ID()
		res.Loser = b.players[1-winner].ID()
	}
	for _, p := range b.players {
		res.Parties[p.ID()] = saveParty(p.Party)
		res.Trainers[p.ID()] = p.Party.Trainer
	}

	b.result = res
	b.phase = PhaseEnded
	b.broadcast(b.endMessage())
	b.logger.Info("battle ended", "winner", res.Winner, "reason", reason, "turns", b.turn)
}

func (b *Battle) endMessage() protocol.End {
	if b.result == nil {
		return protocol.End{Turns: b.turn}
	}
	return protocol.End{Winner: b.result.Winner, Reason: b.result.Reason, Turns: b.result.Turns}
}

func (b *Battle) spectatorBegin() protocol.Begin {
	return protocol.Begin{
		BattleID: b.id,
		Kind:     b.kind.String(),
		Opponent: b.players[1].ID(),
		Trainer:  b.players[1].Party.Trainer,
	}
}

func (b *Battle) spectatorSelecting() protocol.StartSelecting {
	return protocol.StartSelecting{
		Turn:     b.turn,
		Own:      b.players[0].Party.View(true),
		Opponent: b.players[1].Party.View(true),
	}
}

func (b *Battle) pruneSpectators() {
	b.spectators = slices.DeleteFunc(b.spectators, func(o *observer) bool {
		return o.dropped
	})
}
