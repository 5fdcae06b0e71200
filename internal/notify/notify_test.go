package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	gotSQL    string
	gotArgs   []interface{}
	execErr   error
	callCount int
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.callCount++
	f.gotSQL = sql
	f.gotArgs = args
	return pgconn.CommandTag{}, f.execErr
}

func TestPublisher_PublishBlockAdded(t *testing.T) {
	q := &fakeQuerier{}
	p := NewPublisher(q)
	require.NoError(t, p.PublishBlockAdded(context.Background(), 42))
	require.Equal(t, "SELECT pg_notify($1, $2)", q.gotSQL)
	require.Equal(t, []interface{}{ChannelBlockAdded, "42"}, q.gotArgs)
}

func TestPublisher_PublishAccountUpdated(t *testing.T) {
	q := &fakeQuerier{}
	p := NewPublisher(q)
	require.NoError(t, p.PublishAccountUpdated(context.Background(), "addr1"))
	require.Equal(t, []interface{}{ChannelAccountUpdated, "addr1"}, q.gotArgs)
}

func TestPublisher_WrapsExecError(t *testing.T) {
	q := &fakeQuerier{execErr: errors.New("conn closed")}
	p := NewPublisher(q)
	err := p.PublishBlockAdded(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "notify: publish on block_added")
}
