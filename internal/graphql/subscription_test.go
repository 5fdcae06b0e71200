package graphql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccdscan/backend/internal/store"
)

func TestHub_SubscribeBlockAdded_DeregistersOnCancel(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.SubscribeBlockAdded(ctx)
	_ = ch

	h.mu.Lock()
	require.Len(t, h.blockSubs, 1)
	h.mu.Unlock()

	cancel()
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.blockSubs) == 0
	}, time.Second, time.Millisecond)
}

func TestHub_SubscribeAccountUpdated_ScopedByAddress(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.SubscribeAccountUpdated(ctx, "addr1")
	_ = ch

	h.mu.Lock()
	require.Contains(t, h.accountSubs, "addr1")
	require.Len(t, h.accountSubs["addr1"], 1)
	require.NotContains(t, h.accountSubs, "addr2")
	h.mu.Unlock()
}

func TestHub_BroadcastsToAllRegisteredBlockSubs(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := h.SubscribeBlockAdded(ctx)
	ch2 := h.SubscribeBlockAdded(ctx)

	b := store.Block{Height: 3}
	h.mu.Lock()
	for sub := range h.blockSubs {
		sub <- b
	}
	h.mu.Unlock()

	require.Equal(t, b, <-ch1)
	require.Equal(t, b, <-ch2)
}
