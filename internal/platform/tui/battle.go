package tui

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pokebattle/internal/dex"
	"github.com/vovakirdan/pokebattle/internal/party"
	"github.com/vovakirdan/pokebattle/internal/protocol"
)

const (
	revealInterval = 700 * time.Millisecond
	logKeep        = 50
	logShown       = 6
)

// battleMode is what the action panel is currently asking for.
type battleMode int

const (
	modeWaiting battleMode = iota
	modeCommand
	modeMoves
	modeTarget
	modeBag
	modeItemTarget
	modeSwitch
	modeReplace
	modeEnded
)

var commands = []string{"Fight", "Bag", "Pokémon", "Run"}

// serverMsgs carries messages drained from a battle client.
type serverMsgs struct {
	client *protocol.LocalClient
	msgs   []protocol.ServerMessage
}

// serverClosedMsg reports that a battle client went away without an End.
type serverClosedMsg struct {
	client *protocol.LocalClient
}

// waitForServer blocks until the battle has something for the client.
func waitForServer(c *protocol.LocalClient) tea.Cmd {
	return func() tea.Msg {
		for {
			if msgs := c.Drain(); len(msgs) > 0 {
				return serverMsgs{client: c, msgs: msgs}
			}
			select {
			case <-c.Notify():
			case <-c.Done():
				if msgs := c.Drain(); len(msgs) > 0 {
					return serverMsgs{client: c, msgs: msgs}
				}
				return serverClosedMsg{client: c}
			}
		}
	}
}

// option is one row of the action panel.
type option struct {
	label   string
	enabled bool
}

// slotChange updates which roster member occupies an active slot. A
// negative roster empties the slot and marks its occupant fainted.
type slotChange struct {
	idx    party.PokemonIndex
	roster int
	name   string
}

// BattleModel renders one battle from its protocol messages and answers
// through the same client. An empty team watches as a spectator.
type BattleModel struct {
	client *protocol.LocalClient
	reg    *dex.Registry
	keys   KeyMap
	help   help.Model

	team  party.TeamID
	begin protocol.Begin
	own   party.PartyView
	foe   party.PartyView
	turn  int

	mode   battleMode
	cursor int
	slots  []int        // own slots still to decide
	picked map[int]bool // roster members already sent in this round
	item   string
	move   int

	queue   []protocol.ServerMessage
	pending []step
	ticking bool
	log     []string
	reveal  time.Duration

	end      *protocol.End
	lost     bool
	finished bool

	width  int
	height int
}

// NewBattleModel creates a battle screen for the side team.
func NewBattleModel(client *protocol.LocalClient, reg *dex.Registry, team party.TeamID, width, height int) BattleModel {
	h := help.New()
	h.Width = width
	return BattleModel{
		client: client,
		reg:    reg,
		keys:   DefaultKeyMap(),
		help:   h,
		team:   team,
		picked: make(map[int]bool),
		reveal: revealInterval,
		width:  width,
		height: height,
	}
}

// Init starts listening to the battle.
func (m BattleModel) Init() tea.Cmd {
	return waitForServer(m.client)
}

// Update handles messages.
func (m BattleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case serverMsgs:
		if msg.client != m.client {
			return m, nil
		}
		m.queue = append(m.queue, msg.msgs...)
		cmd := m.advance()
		if m.end == nil {
			return m, tea.Batch(cmd, waitForServer(m.client))
		}
		return m, cmd

	case serverClosedMsg:
		if msg.client != m.client || m.end != nil {
			return m, nil
		}
		m.lost = true
		m.mode = modeEnded
		m.say(errorStyle.Render("Connection to the battle was lost."))
		return m, nil

	case TickMsg:
		m.ticking = false
		if len(m.pending) > 0 {
			s := m.pending[0]
			m.pending = m.pending[1:]
			m.show(s)
		}
		return m, m.advance()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// advance consumes queued messages until one produces text to reveal.
func (m *BattleModel) advance() tea.Cmd {
	for len(m.pending) == 0 && len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.apply(msg)
	}
	if len(m.pending) > 0 && !m.ticking {
		m.ticking = true
		return tickCmd(m.reveal)
	}
	return nil
}

// apply updates the screen for one server message.
func (m *BattleModel) apply(msg protocol.ServerMessage) {
	switch msg := msg.(type) {
	case protocol.Begin:
		m.begin = msg
		if m.team == "" {
			m.team = msg.Team
		}
		switch {
		case msg.Team == "":
			m.say("You are watching the battle.")
		case msg.Trainer != nil:
			m.say(fmt.Sprintf("%s wants to battle!", msg.Trainer.Name))
		default:
			m.say("A wild Pokémon appeared!")
		}

	case protocol.StartSelecting:
		m.turn = msg.Turn
		m.own, m.foe = cloneView(msg.Own), cloneView(msg.Opponent)
		m.slots = m.slots[:0]
		clear(m.picked)
		if m.team != "" {
			for slot, roster := range m.own.Slots {
				if roster >= 0 {
					m.slots = append(m.slots, slot)
				}
			}
		}
		m.mode = modeWaiting
		if len(m.slots) > 0 {
			m.setMode(modeCommand)
		}

	case protocol.TurnQueue:
		m.mode = modeWaiting

	case protocol.Outcome:
		m.pending = append(m.pending, m.narrate(msg.Action)...)
		if sw, ok := msg.Action.Action.(protocol.ClientSwitchAction); ok && len(m.pending) > 0 {
			last := &m.pending[len(m.pending)-1]
			last.slots = append(last.slots, slotChange{idx: msg.Action.Actor, roster: sw.To, name: sw.Name})
		}

	case protocol.EndTurnQueue:
		m.client.Reply(protocol.FinishedTurnQueue{})

	case protocol.RequestReplace:
		m.own = cloneView(msg.Own)
		m.slots = append(m.slots[:0], msg.Slots...)
		clear(m.picked)
		m.setMode(modeReplace)

	case protocol.Replaced:
		text := fmt.Sprintf("%s sent out %s!", m.teamName(msg.Index.Team), msg.Name)
		if msg.Index.Team == m.team {
			text = fmt.Sprintf("Go! %s!", msg.Name)
		}
		m.pending = append(m.pending, step{
			text:  text,
			slots: []slotChange{{idx: msg.Index, roster: msg.Roster, name: msg.Name}},
		})

	case protocol.End:
		end := msg
		m.end = &end
		m.mode = modeEnded
		m.slots = m.slots[:0]
		m.say(titleStyle.Render(endText(end, m.team, m.teamName)))
	}
}

// show reveals one step: its text plus the bar and slot changes with it.
func (m *BattleModel) show(s step) {
	if s.text != "" {
		m.say(s.text)
	}
	for _, c := range s.hp {
		v := m.viewOf(c.team)
		if v == nil || c.roster < 0 || c.roster >= len(v.Roster) {
			continue
		}
		mon := &v.Roster[c.roster]
		mon.HP = int(math.Round(c.fraction * float64(mon.MaxHP)))
		if mon.HP == 0 && c.fraction > 0 {
			mon.HP = 1
		}
	}
	for _, c := range s.slots {
		v := m.viewOf(c.idx.Team)
		if v == nil || c.idx.Index < 0 || c.idx.Index >= len(v.Slots) {
			continue
		}
		if c.roster < 0 {
			if r := v.Slots[c.idx.Index]; r >= 0 && r < len(v.Roster) {
				v.Roster[r].Fainted = true
				v.Roster[r].HP = 0
			}
			v.Slots[c.idx.Index] = -1
			continue
		}
		v.Slots[c.idx.Index] = c.roster
		if c.roster < len(v.Roster) && v.Roster[c.roster].Hidden {
			v.Roster[c.roster] = party.PokemonView{Roster: c.roster, Name: c.name, HP: 100, MaxHP: 100}
		}
	}
}

func (m *BattleModel) say(line string) {
	m.log = append(m.log, line)
	if len(m.log) > logKeep {
		m.log = m.log[len(m.log)-logKeep:]
	}
}

func (m *BattleModel) setMode(mode battleMode) {
	m.mode = mode
	m.cursor = 0
	opts := m.options()
	for i, o := range opts {
		if o.enabled {
			m.cursor = i
			break
		}
	}
}

func (m BattleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Forfeit):
		if m.begin.Team != "" && m.end == nil && !m.lost {
			m.client.Reply(protocol.Forfeit{})
		}
		return m, nil
	}

	if m.mode == modeEnded {
		if key.Matches(msg, m.keys.Select, m.keys.Back) && len(m.pending) == 0 {
			m.finished = true
		}
		return m, nil
	}

	opts := m.options()
	switch {
	case key.Matches(msg, m.keys.Up, m.keys.Left):
		m.cursor = m.step(opts, -1)
	case key.Matches(msg, m.keys.Down, m.keys.Right):
		m.cursor = m.step(opts, 1)
	case key.Matches(msg, m.keys.Back):
		switch m.mode {
		case modeMoves, modeBag, modeSwitch:
			m.setMode(modeCommand)
		case modeTarget:
			m.setMode(modeMoves)
		case modeItemTarget:
			m.setMode(modeBag)
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(opts) && opts[m.cursor].enabled {
			m.choose(m.cursor)
		}
	}
	return m, nil
}

// step moves the cursor to the next enabled option in dir.
func (m BattleModel) step(opts []option, dir int) int {
	n := len(opts)
	if n == 0 {
		return 0
	}
	for i := 1; i <= n; i++ {
		next := ((m.cursor+dir*i)%n + n) % n
		if opts[next].enabled {
			return next
		}
	}
	return m.cursor
}

// options lists the rows of the action panel for the current mode.
func (m BattleModel) options() []option {
	switch m.mode {
	case modeCommand:
		opts := make([]option, len(commands))
		for i, c := range commands {
			opts[i] = option{label: c, enabled: true}
		}
		opts[1].enabled = m.hasItems()
		opts[2].enabled = len(m.switchable()) > 0
		return opts

	case modeMoves:
		mon, _ := m.activeMon()
		var opts []option
		usable := false
		for _, mv := range mon.Moves {
			opts = append(opts, option{
				label:   fmt.Sprintf("%-14s %-9s %2d/%d", mv.Name, mv.Type, mv.PP, mv.MaxPP),
				enabled: mv.PP > 0,
			})
			usable = usable || mv.PP > 0
		}
		if !usable {
			return []option{{label: "Struggle", enabled: true}}
		}
		return opts

	case modeTarget:
		var opts []option
		for slot := range m.foe.Slots {
			mon, ok := m.foe.Active(slot)
			opts = append(opts, option{label: mon.Name, enabled: ok})
		}
		return opts

	case modeBag:
		var opts []option
		for _, e := range m.own.Bag {
			opts = append(opts, option{
				label:   fmt.Sprintf("%-14s x%d", m.itemName(e.Item), e.Count),
				enabled: e.Count > 0,
			})
		}
		return opts

	case modeItemTarget, modeSwitch, modeReplace:
		opts := make([]option, len(m.own.Roster))
		active := m.activeRosters()
		for i, mon := range m.own.Roster {
			label := fmt.Sprintf("%-12s Lv%-3d %3d/%-3d %s", mon.Name, mon.Level, mon.HP, mon.MaxHP, statusBadge(mon.Status))
			enabled := !mon.Fainted
			if m.mode != modeItemTarget {
				enabled = enabled && !active[i] && !m.picked[i]
			}
			opts[i] = option{label: strings.TrimRight(label, " "), enabled: enabled}
		}
		return opts
	}
	return nil
}

// choose acts on the selected option.
func (m *BattleModel) choose(i int) {
	switch m.mode {
	case modeCommand:
		switch i {
		case 0:
			m.setMode(modeMoves)
		case 1:
			m.setMode(modeBag)
		case 2:
			m.setMode(modeSwitch)
		case 3:
			m.client.Reply(protocol.Forfeit{})
			m.mode = modeWaiting
		}

	case modeMoves:
		mon, _ := m.activeMon()
		if !hasPP(mon) {
			m.decide(party.MoveAction{Slot: party.StruggleSlot, Target: m.firstFoe()})
			return
		}
		m.move = i
		if i < len(mon.Moves) && mon.Moves[i].Target == dex.TargetOpponent && m.activeFoes() > 1 {
			m.setMode(modeTarget)
			return
		}
		m.decide(party.MoveAction{Slot: i, Target: m.firstFoe()})

	case modeTarget:
		m.decide(party.MoveAction{Slot: m.move, Target: party.PokemonIndex{Team: m.foe.ID, Index: i}})

	case modeBag:
		m.item = m.own.Bag[i].Item
		m.setMode(modeItemTarget)

	case modeItemTarget:
		m.decide(party.ItemAction{Item: m.item, Target: i})

	case modeSwitch:
		m.picked[i] = true
		m.decide(party.SwitchAction{Roster: i})

	case modeReplace:
		slot := m.slots[0]
		m.client.Reply(protocol.FaintReplace{Slot: slot, Roster: i})
		m.picked[i] = true
		m.slots = m.slots[1:]
		if len(m.slots) > 0 {
			m.setMode(modeReplace)
		} else {
			m.mode = modeWaiting
		}
	}
}

// decide sends the action for the slot being chosen and moves on.
func (m *BattleModel) decide(move party.BattleMove) {
	if len(m.slots) == 0 {
		return
	}
	m.client.Reply(protocol.SelectAction{Slot: m.slots[0], Move: move})
	m.slots = m.slots[1:]
	if len(m.slots) > 0 {
		m.setMode(modeCommand)
		return
	}
	m.mode = modeWaiting
}

// cloneView copies the parts of a view the screen edits while revealing.
func cloneView(v party.PartyView) party.PartyView {
	v.Slots = slices.Clone(v.Slots)
	v.Roster = slices.Clone(v.Roster)
	return v
}

func hasPP(mon party.PokemonView) bool {
	for _, mv := range mon.Moves {
		if mv.PP > 0 {
			return true
		}
	}
	return false
}

func (m BattleModel) activeMon() (party.PokemonView, bool) {
	if len(m.slots) == 0 {
		return party.PokemonView{}, false
	}
	return m.own.Active(m.slots[0])
}

func (m BattleModel) activeRosters() map[int]bool {
	active := make(map[int]bool, len(m.own.Slots))
	for _, r := range m.own.Slots {
		if r >= 0 {
			active[r] = true
		}
	}
	return active
}

func (m BattleModel) switchable() []int {
	active := m.activeRosters()
	var out []int
	for i, mon := range m.own.Roster {
		if !mon.Fainted && !active[i] && !m.picked[i] {
			out = append(out, i)
		}
	}
	return out
}

func (m BattleModel) hasItems() bool {
	for _, e := range m.own.Bag {
		if e.Count > 0 {
			return true
		}
	}
	return false
}

func (m BattleModel) firstFoe() party.PokemonIndex {
	for slot := range m.foe.Slots {
		if _, ok := m.foe.Active(slot); ok {
			return party.PokemonIndex{Team: m.foe.ID, Index: slot}
		}
	}
	return party.PokemonIndex{}
}

func (m BattleModel) activeFoes() int {
	n := 0
	for slot := range m.foe.Slots {
		if _, ok := m.foe.Active(slot); ok {
			n++
		}
	}
	return n
}

// Finished reports that the battle is over and the player dismissed it.
func (m BattleModel) Finished() bool {
	return m.finished
}

// Ended returns the End message once the battle is over.
func (m BattleModel) Ended() (protocol.End, bool) {
	if m.end == nil {
		return protocol.End{}, false
	}
	return *m.end, true
}

// Team returns the side this screen plays, empty when spectating.
func (m BattleModel) Team() party.TeamID {
	return m.team
}

// View renders the battle.
func (m BattleModel) View() string {
	width := max(40, m.width)
	spectating := m.begin.Team == "" && m.end == nil

	header := titleStyle.Render(fmt.Sprintf("Turn %d", max(1, m.turn)))
	if spectating {
		header += subtleStyle.Render("  (spectating)")
	}

	sections := []string{header}
	if len(m.foe.Slots) > 0 {
		sections = append(sections, renderSide(m.foe, true, width))
	}
	if len(m.own.Slots) > 0 {
		sections = append(sections, renderSide(m.own, m.begin.Team == "", width))
	}

	shown := m.log
	if len(shown) > logShown {
		shown = shown[len(shown)-logShown:]
	}
	sections = append(sections, panelStyle.Width(max(20, width-2)).Render(strings.Join(shown, "\n")))
	sections = append(sections, m.viewPanel())
	sections = append(sections, subtleStyle.Render(m.help.View(m.keys)))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m BattleModel) viewPanel() string {
	if len(m.pending) > 0 {
		return subtleStyle.Render("...")
	}
	switch m.mode {
	case modeWaiting:
		if m.begin.Team == "" {
			return subtleStyle.Render("Watching...")
		}
		return subtleStyle.Render("Waiting for the other side...")
	case modeEnded:
		return subtleStyle.Render("Press enter to continue.")
	}

	var prompt string
	switch m.mode {
	case modeCommand:
		mon, _ := m.activeMon()
		prompt = fmt.Sprintf("What will %s do?", mon.Name)
	case modeMoves:
		prompt = "Choose a move."
	case modeTarget:
		prompt = "Choose a target."
	case modeBag:
		prompt = "Choose an item."
	case modeItemTarget:
		prompt = fmt.Sprintf("Use %s on which Pokémon?", m.itemName(m.item))
	case modeSwitch:
		prompt = "Choose a Pokémon to send out."
	case modeReplace:
		prompt = "Choose the next Pokémon."
	}

	opts := m.options()
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.label
		if !o.enabled && i != m.cursor {
			labels[i] = subtleStyle.Render(o.label)
		}
	}
	return prompt + "\n" + renderList(labels, m.cursor)
}
