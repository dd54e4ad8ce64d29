package ai

import (
	"context"

	"github.com/vovakirdan/pokebattle/internal/protocol"
)

// Drive plays the observer side of lc with c until the battle ends, the
// client disconnects or ctx is done. Run it on its own goroutine.
func Drive(ctx context.Context, lc *protocol.LocalClient, c *Client) {
	for {
		for {
			msg, ok := lc.Next()
			if !ok {
				break
			}
			c.Send(msg)
			for {
				reply, ok := c.Receive()
				if !ok {
					break
				}
				lc.Reply(reply)
			}
			if _, ended := msg.(protocol.End); ended {
				return
			}
		}

		select {
		case <-lc.Notify():
		case <-lc.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}
