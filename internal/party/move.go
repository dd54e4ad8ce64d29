package party

// BattleMove is the action an active slot submits for a turn.
// Exactly one of MoveAction, ItemAction or SwitchAction.
type BattleMove interface {
	battleMove()
}

// MoveAction uses the move in Slot. Target is only consulted for moves that
// aim at a single combatant; leave it zero to let the battle pick.
type MoveAction struct {
	Slot   int
	Target PokemonIndex
}

func (MoveAction) battleMove() {}

// StruggleSlot is the move slot of the fallback attack used when no known
// move has PP left.
const StruggleSlot = -1

// ItemAction uses one Item from the bag on the roster member at Target.
type ItemAction struct {
	Item   string
	Target int
}

func (ItemAction) battleMove() {}

// SwitchAction swaps the acting slot's occupant for the roster member at
// Roster.
type SwitchAction struct {
	Roster int
}

func (SwitchAction) battleMove() {}
