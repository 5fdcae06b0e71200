package nodeclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestClientForHeight_EmptyPoolReturnsNoHealthyEndpoint checks that a
// pool with no endpoints refuses to hand out a client, even when a
// genesis hash is given.
func TestClientForHeight_EmptyPoolReturnsNoHealthyEndpoint(t *testing.T) {
	// ClientForHeight dials real gRPC targets, so this test only
	// exercises the bookkeeping around an empty pool; the dial and
	// genesis-check paths are not covered by this package's tests.
	p := New(Config{}, nil)
	_, err := p.ClientForHeight(context.Background(), 0, "genesis-hash")
	require.ErrorIs(t, err, ErrNoHealthyEndpoint)
}

func TestPool_RotateAdvancesCursor(t *testing.T) {
	p := &Pool{
		endpoints: []*endpoint{{addr: "a"}, {addr: "b"}, {addr: "c"}},
	}
	c := &Client{pool: p, ep: p.endpoints[1]}
	p.metrics = noopNodeMetrics{}
	p.Rotate(c)
	require.Equal(t, 2, p.next)
}

type noopNodeMetrics struct{}

func (noopNodeMetrics) IncNodeRequests(string) {}
func (noopNodeMetrics) IncNodeErrors(string)   {}
func (noopNodeMetrics) IncNodeRotations()      {}

func TestConfig_DefaultsAreSane(t *testing.T) {
	cfg := Config{
		Endpoints:      []string{"localhost:20000"},
		LagTolerance:   30 * time.Second,
		ConnectTimeout: 5 * time.Second,
		RequestTimeout: 10 * time.Second,
	}
	p := New(cfg, nil)
	require.Len(t, p.endpoints, 1)
	require.Nil(t, p.endpoints[0].limiter)
	require.Nil(t, p.endpoints[0].sem)
}
