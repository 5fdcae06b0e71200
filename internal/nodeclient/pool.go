// Package nodeclient implements the Node Client Pool (spec.md §4.1): a
// round-robin set of Concordium node gRPC v2 endpoints that rotates on
// error or when the selected node falls behind, and that refuses to
// serve a client whose genesis block hash doesn't match the one
// recorded in the database.
//
// The round-robin-with-rotation shape is grounded on the teacher's
// addrmgr endpoint bookkeeping and rpcclient connection handling,
// retargeted from Bitcoin peer addresses to gRPC dial targets.
package nodeclient

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ccdscan/backend/internal/logger"
	"github.com/ccdscan/backend/internal/metrics"
)

var log = logger.Get(logger.TagNode)

// ErrNoHealthyEndpoint is returned by ClientForHeight when the pool has
// no endpoints. When every configured endpoint fails its dial, genesis
// or height check, ClientForHeight returns the last of those errors
// instead. LagTolerance is not consulted by ClientForHeight.
var ErrNoHealthyEndpoint = errors.New("nodeclient: no healthy endpoint available")

// ErrGenesisMismatch is returned at connect time when an endpoint's
// genesis block hash doesn't match the expected one.
var ErrGenesisMismatch = errors.New("nodeclient: endpoint genesis hash does not match database")

// Config controls pool behavior.
type Config struct {
	Endpoints         []string
	LagTolerance      time.Duration
	ConnectTimeout    time.Duration
	RequestTimeout    time.Duration
	RequestsPerSecond float64 // 0 disables the per-connection rate limit
	MaxConcurrent     int     // 0 disables the per-connection concurrency cap
}

type endpoint struct {
	addr    string
	cc      *grpc.ClientConn
	client  QueriesClient
	limiter *rate.Limiter
	sem     chan struct{}

	mu          sync.Mutex
	lastChecked time.Time
	lastHeight  uint64
	healthy     bool
}

// Pool is the Node Client Pool.
type Pool struct {
	cfg       Config
	metrics   metrics.NodeMetrics
	mu        sync.Mutex
	endpoints []*endpoint
	next      int
}

// New dials every configured endpoint lazily (on first use) and
// returns a Pool ready to hand out clients.
func New(cfg Config, m metrics.NodeMetrics) *Pool {
	if m == nil {
		m = metrics.Noop{}
	}
	p := &Pool{cfg: cfg, metrics: m}
	for _, addr := range cfg.Endpoints {
		e := &endpoint{addr: addr}
		if cfg.RequestsPerSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
		}
		if cfg.MaxConcurrent > 0 {
			e.sem = make(chan struct{}, cfg.MaxConcurrent)
		}
		p.endpoints = append(p.endpoints, e)
	}
	return p
}

func (e *endpoint) dial(ctx context.Context, timeout time.Duration) error {
	if e.cc != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cc, err := grpc.DialContext(dialCtx, e.addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return errors.Wrapf(err, "dial %s", e.addr)
	}
	e.cc = cc
	e.client = NewQueriesClient(cc)
	return nil
}

// Client is a handle to one pool endpoint, used to issue a single
// logical unit of work (e.g. one block's worth of preprocessor
// queries) against a consistent QueriesClient.
type Client struct {
	Queries QueriesClient
	Addr    string

	pool *Pool
	ep   *endpoint
}

// acquire blocks on the endpoint's rate limiter and concurrency
// semaphore, if configured, before returning.
func (c *Client) acquire(ctx context.Context) error {
	if c.ep.limiter != nil {
		if err := c.ep.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if c.ep.sem != nil {
		select {
		case c.ep.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (c *Client) release() {
	if c.ep.sem != nil {
		<-c.ep.sem
	}
}

// Do runs fn with the connection's rate/concurrency limits applied and
// records request/error metrics. It does not move the pool's cursor
// when fn fails; callers that want the next endpoint call Pool.Rotate.
func (c *Client) Do(ctx context.Context, method string, fn func(QueriesClient) error) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	c.pool.metrics.IncNodeRequests(method)
	reqCtx := ctx
	var cancel context.CancelFunc
	if c.pool.cfg.RequestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.pool.cfg.RequestTimeout)
		defer cancel()
	}
	if err := fn(c.Queries); err != nil {
		c.pool.metrics.IncNodeErrors(method)
		return err
	}
	return nil
}

// ClientForHeight selects a healthy endpoint for the given finalized
// block height, dialing and verifying genesis hash on first use,
// rotating to the next endpoint on dial failure or lag.
//
// expectedGenesisHash is the genesis block hash recorded in the
// database; an empty string skips the check (used only for a brand
// new, empty database about to bootstrap from genesis).
func (p *Pool) ClientForHeight(ctx context.Context, height uint64, expectedGenesisHash string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.endpoints)
	if n == 0 {
		return nil, ErrNoHealthyEndpoint
	}

	var lastErr error
	for i := 0; i < n; i++ {
		idx := (p.next + i) % n
		ep := p.endpoints[idx]

		if err := ep.dial(ctx, p.cfg.ConnectTimeout); err != nil {
			lastErr = err
			log.Warnf("endpoint %s: dial failed: %v", ep.addr, err)
			continue
		}

		if expectedGenesisHash != "" {
			info, err := ep.client.GetConsensusInfo(ctx)
			if err != nil {
				lastErr = err
				continue
			}
			if info.GenesisBlock != expectedGenesisHash {
				lastErr = errors.Wrapf(ErrGenesisMismatch, "endpoint %s reports genesis %s, want %s",
					ep.addr, info.GenesisBlock, expectedGenesisHash)
				continue
			}
			ep.mu.Lock()
			ep.lastHeight = info.LastFinalizedBlockHeight
			ep.lastChecked = time.Now()
			ep.mu.Unlock()

			if info.LastFinalizedBlockHeight+1 < height {
				// This endpoint hasn't caught up to the height we need yet.
				lastErr = errors.Errorf("endpoint %s lags: last finalized %d < requested %d",
					ep.addr, info.LastFinalizedBlockHeight, height)
				continue
			}
		}

		p.next = (idx + 1) % n
		return &Client{Queries: ep.client, Addr: ep.addr, pool: p, ep: ep}, nil
	}

	p.metrics.IncNodeRotations()
	if lastErr != nil {
		return nil, errors.Wrap(lastErr, "nodeclient: all endpoints exhausted")
	}
	return nil, ErrNoHealthyEndpoint
}

// Rotate advances the round-robin cursor past the given client's
// endpoint, used by callers that detected a failure outside of
// ClientForHeight's own health checks (e.g. a mid-stream RPC error).
func (p *Pool) Rotate(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, ep := range p.endpoints {
		if ep == c.ep {
			p.next = (i + 1) % len(p.endpoints)
			p.metrics.IncNodeRotations()
			return
		}
	}
}

// Close tears down every dialed connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, ep := range p.endpoints {
		if ep.cc == nil {
			continue
		}
		if err := ep.cc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
