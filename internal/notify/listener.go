package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// DefaultReconnectDelay is the constant back-off between failed LISTEN
// connection attempts (spec.md §5).
const DefaultReconnectDelay = 2 * time.Second

// Handler is invoked with the raw notification payload for one
// channel. Handlers run on the listener's own goroutine and must not
// block indefinitely.
type Handler func(payload string)

// Listener holds a dedicated LISTEN connection open for as long as ctx
// is alive, reconnecting with a constant back-off on any error (spec.md
// §5). Acquiring a *pgx.Conn per channel-set avoids stealing a
// connection from the shared query pool for an indefinite LISTEN.
type Listener struct {
	dial         func(ctx context.Context) (*pgx.Conn, error)
	channels     []string
	reconnectDelay time.Duration

	handlers map[string][]Handler
}

// NewListener constructs a Listener that dials fresh connections via
// dial (typically pgx.Connect against the same DSN gorm uses) and
// subscribes to channels.
func NewListener(dial func(ctx context.Context) (*pgx.Conn, error), reconnectDelay time.Duration, channels ...string) *Listener {
	return &Listener{dial: dial, channels: channels, reconnectDelay: reconnectDelay, handlers: make(map[string][]Handler)}
}

// On registers a handler for channel, invoked once per notification
// received after Run starts. Must be called before Run.
func (l *Listener) On(channel string, h Handler) {
	l.handlers[channel] = append(l.handlers[channel], h)
}

// Run blocks, listening and dispatching until ctx is cancelled, at
// which point it closes the current connection and returns nil.
// Connection failures are logged and retried after reconnectDelay;
// Run itself never returns an error for a transient failure.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := l.runOnce(ctx); err != nil {
			log.Errorf("listener: %v, reconnecting in %s", err, l.reconnectDelay)
			select {
			case <-time.After(l.reconnectDelay):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (l *Listener) runOnce(ctx context.Context) error {
	conn, err := l.dial(ctx)
	if err != nil {
		return errors.Wrap(err, "dial listen connection")
	}
	defer conn.Close(context.Background())

	for _, ch := range l.channels {
		if _, err := conn.Exec(ctx, "LISTEN \""+ch+"\""); err != nil {
			return errors.Wrapf(err, "LISTEN %s", ch)
		}
	}
	log.Infof("listener: subscribed to %v", l.channels)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "wait for notification")
		}
		for _, h := range l.handlers[n.Channel] {
			h(n.Payload)
		}
	}
}
