// Package notify is the LISTEN/NOTIFY bridge between the processor and
// the GraphQL subscription layer (spec.md §5): the processor publishes
// on two channels as part of each committed batch, and a long-lived
// listener task fans incoming notifications out to subscribers.
package notify

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/logger"
)

var log = logger.Get(logger.TagNtfy)

const (
	// ChannelBlockAdded carries the new block height as a decimal
	// string payload.
	ChannelBlockAdded = "block_added"
	// ChannelAccountUpdated carries the affected account's address.
	ChannelAccountUpdated = "account_updated"
)

// Publisher issues NOTIFY over a plain query connection. The indexer
// gives it a dedicated pgx connection, separate from the one that runs
// batch transactions, and the processor publishes only after a batch
// has committed (spec.md §5).
type Publisher struct {
	conn Querier
}

// Querier is satisfied by *pgx.Conn and *pgxpool.Pool — anything whose
// Exec returns a pgconn.CommandTag and can execute a NOTIFY statement.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// NewPublisher wraps conn for publishing.
func NewPublisher(conn Querier) *Publisher {
	return &Publisher{conn: conn}
}

// PublishBlockAdded notifies ChannelBlockAdded with height.
func (p *Publisher) PublishBlockAdded(ctx context.Context, height uint64) error {
	return p.publish(ctx, ChannelBlockAdded, strconv.FormatUint(height, 10))
}

// PublishAccountUpdated notifies ChannelAccountUpdated with address.
func (p *Publisher) PublishAccountUpdated(ctx context.Context, address string) error {
	return p.publish(ctx, ChannelAccountUpdated, address)
}

func (p *Publisher) publish(ctx context.Context, channel, payload string) error {
	_, err := p.conn.Exec(ctx, "SELECT pg_notify($1, $2)", channel, payload)
	if err != nil {
		return errors.Wrapf(err, "notify: publish on %s", channel)
	}
	return nil
}
