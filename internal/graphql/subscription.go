package graphql

import (
	"context"
	"sync"

	"github.com/ccdscan/backend/internal/notify"
	"github.com/ccdscan/backend/internal/store"
)

// Hub fans a single notify.Listener's events out to any number of
// per-connection subscriber channels, grounded on the teacher's
// netadapter broadcast pattern (one source, many registered sinks,
// mutex-guarded registration).
type Hub struct {
	mu               sync.Mutex
	blockSubs        map[chan store.Block]struct{}
	accountSubs      map[string]map[chan store.Account]struct{}
	db               *store.DB
}

// NewHub constructs an empty Hub bound to db for resolving account
// rows by address on account_updated events.
func NewHub(db *store.DB) *Hub {
	return &Hub{
		db:          db,
		blockSubs:   make(map[chan store.Block]struct{}),
		accountSubs: make(map[string]map[chan store.Account]struct{}),
	}
}

// Attach registers h's handlers on l. Call before l.Run.
func (h *Hub) Attach(l *notify.Listener) {
	l.On(notify.ChannelBlockAdded, h.onBlockAdded)
	l.On(notify.ChannelAccountUpdated, h.onAccountUpdated)
}

func (h *Hub) onBlockAdded(payload string) {
	height, err := decodeCursor(payload)
	if err != nil {
		log.Warnf("block_added: bad payload %q: %v", payload, err)
		return
	}
	var b store.Block
	if err := h.db.Where("height = ?", height).Take(&b).Error; err != nil {
		log.Warnf("block_added: load height %d: %v", height, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.blockSubs {
		select {
		case ch <- b:
		default:
		}
	}
}

func (h *Hub) onAccountUpdated(address string) {
	var a store.Account
	if err := h.db.Where("address = ?", address).Take(&a).Error; err != nil {
		log.Warnf("account_updated: load %s: %v", address, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.accountSubs[address] {
		select {
		case ch <- a:
		default:
		}
	}
}

// SubscribeBlockAdded registers a buffered channel delivering every
// subsequent block_added event until ctx is cancelled.
func (h *Hub) SubscribeBlockAdded(ctx context.Context) <-chan store.Block {
	ch := make(chan store.Block, 8)
	h.mu.Lock()
	h.blockSubs[ch] = struct{}{}
	h.mu.Unlock()
	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.blockSubs, ch)
		h.mu.Unlock()
	}()
	return ch
}

// SubscribeAccountUpdated registers a buffered channel delivering every
// subsequent account_updated event for address until ctx is cancelled.
func (h *Hub) SubscribeAccountUpdated(ctx context.Context, address string) <-chan store.Account {
	ch := make(chan store.Account, 8)
	h.mu.Lock()
	if h.accountSubs[address] == nil {
		h.accountSubs[address] = make(map[chan store.Account]struct{})
	}
	h.accountSubs[address][ch] = struct{}{}
	h.mu.Unlock()
	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.accountSubs[address], ch)
		if len(h.accountSubs[address]) == 0 {
			delete(h.accountSubs, address)
		}
		h.mu.Unlock()
	}()
	return ch
}
