package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestListener_ExitsCleanlyOnCancel exercises Run's contract that a
// context cancelled before the dial loop even starts returns nil
// rather than attempting to dial (spec.md §5's "exits cleanly on
// cancellation").
func TestListener_ExitsCleanlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := &Listener{reconnectDelay: time.Millisecond, handlers: map[string][]Handler{}}
	require.NoError(t, l.Run(ctx))
}

func TestHandlerRegistration_DispatchesToAllHandlers(t *testing.T) {
	l := NewListener(nil, time.Millisecond, ChannelBlockAdded)
	var calls []string
	l.On(ChannelBlockAdded, func(payload string) { calls = append(calls, "first:"+payload) })
	l.On(ChannelBlockAdded, func(payload string) { calls = append(calls, "second:"+payload) })

	for _, h := range l.handlers[ChannelBlockAdded] {
		h("7")
	}
	require.Equal(t, []string{"first:7", "second:7"}, calls)
}
