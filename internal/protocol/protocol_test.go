package protocol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/pokebattle/internal/party"
)

func allServerMessages() []ServerMessage {
	return []ServerMessage{
		Begin{},
		StartSelecting{},
		TurnQueue{},
		Outcome{},
		EndTurnQueue{},
		RequestReplace{},
		Replaced{},
		End{},
	}
}

func allClientMessages() []ClientMessage {
	return []ClientMessage{
		SelectAction{},
		FaintReplace{},
		Forfeit{},
		FinishedTurnQueue{},
	}
}

func TestTrackerFullCycle(t *testing.T) {
	tr := NewTracker()
	require.Equal(t, StateSelectMoves, tr.State())

	assert.True(t, tr.Server(TurnQueue{Turn: 1}))
	assert.Equal(t, StateProcessTurnQueue, tr.State())

	assert.True(t, tr.Client(FinishedTurnQueue{}))
	assert.Equal(t, StateFinishedTurnQueue, tr.State())
	assert.True(t, tr.Finished())

	assert.True(t, tr.Server(StartSelecting{Turn: 2}))
	assert.Equal(t, StateSelectMoves, tr.State())
}

func TestTrackerFinishedOnlyLeavesOnStartSelecting(t *testing.T) {
	for _, msg := range allServerMessages() {
		tr := finishedTracker(t)
		tr.Server(msg)
		if _, ok := msg.(StartSelecting); ok {
			assert.Equal(t, StateSelectMoves, tr.State(), "%T", msg)
		} else {
			assert.Equal(t, StateFinishedTurnQueue, tr.State(), "%T must be a no-op", msg)
		}
	}
	for _, msg := range allClientMessages() {
		tr := finishedTracker(t)
		assert.False(t, tr.Client(msg))
		assert.Equal(t, StateFinishedTurnQueue, tr.State(), "%T must be a no-op", msg)
	}
}

func TestTrackerIgnoresOutOfOrderMessages(t *testing.T) {
	tr := NewTracker()

	// FinishedTurnQueue while selecting is a protocol violation and ignored.
	assert.False(t, tr.Client(FinishedTurnQueue{}))
	assert.Equal(t, StateSelectMoves, tr.State())

	// StartSelecting while selecting is not a transition.
	assert.False(t, tr.Server(StartSelecting{}))
	assert.Equal(t, StateSelectMoves, tr.State())

	tr.Server(TurnQueue{})
	// A second TurnQueue does not move a processing client.
	assert.False(t, tr.Server(TurnQueue{}))
	assert.False(t, tr.Server(StartSelecting{}))
	assert.Equal(t, StateProcessTurnQueue, tr.State())
}

func finishedTracker(t *testing.T) *Tracker {
	t.Helper()
	tr := NewTracker()
	require.True(t, tr.Server(TurnQueue{}))
	require.True(t, tr.Client(FinishedTurnQueue{}))
	return tr
}

func TestLocalClientQueues(t *testing.T) {
	c := NewLocalClient()

	_, ok := c.Receive()
	assert.False(t, ok)
	_, ok = c.Next()
	assert.False(t, ok)

	for i := 0; i < 1000; i++ {
		c.Send(Outcome{Seq: i})
	}
	assert.Equal(t, 1000, c.Pending(), "Send is unbounded and never drops")

	select {
	case <-c.Notify():
	default:
		t.Fatal("expected a notification")
	}

	for i := 0; i < 1000; i++ {
		msg, ok := c.Next()
		require.True(t, ok)
		assert.Equal(t, i, msg.(Outcome).Seq, "messages arrive in order")
	}

	c.Reply(SelectAction{Slot: 0, Move: party.SwitchAction{Roster: 2}})
	c.Reply(FinishedTurnQueue{})
	msg, ok := c.Receive()
	require.True(t, ok)
	assert.Equal(t, SelectAction{Slot: 0, Move: party.SwitchAction{Roster: 2}}, msg)
	msg, _ = c.Receive()
	assert.Equal(t, FinishedTurnQueue{}, msg)
}

func TestLocalClientClose(t *testing.T) {
	c := NewLocalClient()
	c.Close()
	c.Close()

	select {
	case <-c.Done():
	default:
		t.Fatal("Done should be closed")
	}

	c.Send(Begin{})
	c.Reply(Forfeit{})
	assert.Zero(t, c.Pending())
	_, ok := c.Receive()
	assert.False(t, ok)
}

func TestLocalClientConcurrent(t *testing.T) {
	c := NewLocalClient()
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			c.Send(Outcome{Seq: i})
		}
	}()

	got := 0
	go func() {
		defer wg.Done()
		for got < 500 {
			if _, ok := c.Next(); ok {
				got++
				continue
			}
			<-c.Notify()
		}
	}()

	wg.Wait()
	assert.Equal(t, 500, got)
}

func TestEffectivenessOf(t *testing.T) {
	assert.Equal(t, NoEffect, EffectivenessOf(0))
	assert.Equal(t, NotVeryEffective, EffectivenessOf(0.25))
	assert.Equal(t, Normal, EffectivenessOf(1))
	assert.Equal(t, SuperEffective, EffectivenessOf(4))
}
