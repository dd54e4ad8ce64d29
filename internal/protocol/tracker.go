package protocol

import (
	"context"

	"github.com/looplab/fsm"
)

// ClientState is an observer's progress through a turn.
type ClientState string

const (
	StateSelectMoves       ClientState = "select_moves"
	StateProcessTurnQueue  ClientState = "process_turn_queue"
	StateFinishedTurnQueue ClientState = "finished_turn_queue"
)

const (
	eventStartSelecting    = "start_selecting"
	eventTurnQueue         = "turn_queue"
	eventFinishedTurnQueue = "finished_turn_queue"
)

// Tracker follows one observer's ClientState. Only three messages move it:
// StartSelecting, TurnQueue and FinishedTurnQueue, each from a single
// source state. Anything else, or a message in the wrong state, is a no-op.
type Tracker struct {
	fsm *fsm.FSM
}

// NewTracker returns a tracker in StateSelectMoves.
func NewTracker() *Tracker {
	return &Tracker{
		fsm: fsm.NewFSM(
			string(StateSelectMoves),
			fsm.Events{
				{Name: eventStartSelecting, Src: []string{string(StateFinishedTurnQueue)}, Dst: string(StateSelectMoves)},
				{Name: eventTurnQueue, Src: []string{string(StateSelectMoves)}, Dst: string(StateProcessTurnQueue)},
				{Name: eventFinishedTurnQueue, Src: []string{string(StateProcessTurnQueue)}, Dst: string(StateFinishedTurnQueue)},
			},
			fsm.Callbacks{},
		),
	}
}

// State returns the current state.
func (t *Tracker) State() ClientState {
	return ClientState(t.fsm.Current())
}

// Server applies a message sent to the observer.
func (t *Tracker) Server(msg ServerMessage) bool {
	switch msg.(type) {
	case StartSelecting:
		return t.fire(eventStartSelecting)
	case TurnQueue:
		return t.fire(eventTurnQueue)
	}
	return false
}

// Client applies a message received from the observer and reports whether
// it changed the state.
func (t *Tracker) Client(msg ClientMessage) bool {
	if _, ok := msg.(FinishedTurnQueue); ok {
		return t.fire(eventFinishedTurnQueue)
	}
	return false
}

// Finished reports whether the observer has consumed the current turn.
func (t *Tracker) Finished() bool {
	return t.State() == StateFinishedTurnQueue
}

func (t *Tracker) fire(event string) bool {
	if !t.fsm.Can(event) {
		return false
	}
	return t.fsm.Event(context.Background(), event) == nil
}
