package indexer

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/ccdscan/backend/internal/metrics"
)

// reorderHeap is a min-heap of PreparedBlocks ordered by height,
// grounded in the teacher's blockdag block-heap usage for DAG tip
// ordering (blockdag/blockheap_test.go), repurposed here for strict
// linear height ordering instead of DAG blue-score ordering.
type reorderHeap []*PreparedBlock

func (h reorderHeap) Len() int            { return len(h) }
func (h reorderHeap) Less(i, j int) bool  { return h[i].Height < h[j].Height }
func (h reorderHeap) Swap(i, j int)        { h[i], h[j] = h[j], h[i] }
func (h *reorderHeap) Push(x interface{}) { *h = append(*h, x.(*PreparedBlock)) }
func (h *reorderHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Pipeline drives maxParallel concurrent preprocessors over an
// increasing sequence of heights starting at startHeight, and delivers
// PreparedBlocks to Out strictly in height order via an internal
// reorder buffer (spec.md §4.2, §5).
type Pipeline struct {
	prep                  *Preprocessor
	maxParallel           int
	batchCap              int
	maxSuccessiveFailures int
	metrics               metrics.ProcessorMetrics

	Out chan *PreparedBlock
	Err chan error
}

// NewPipeline constructs a Pipeline. batchCap sizes the bounded output
// channel (spec.md §5, typically maxProcessingBatch).
func NewPipeline(prep *Preprocessor, maxParallel, batchCap, maxSuccessiveFailures int, m metrics.ProcessorMetrics) *Pipeline {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Pipeline{
		prep: prep, maxParallel: maxParallel, batchCap: batchCap,
		maxSuccessiveFailures: maxSuccessiveFailures, metrics: m,
		Out: make(chan *PreparedBlock, batchCap),
		Err: make(chan error, 1),
	}
}

// Run starts preprocessing from startHeight and blocks until ctx is
// cancelled or a fatal error occurs; it closes Out on return. Safe to
// run in its own goroutine.
func (p *Pipeline) Run(ctx context.Context, startHeight uint64) {
	defer close(p.Out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cursor := startHeight
	var wg sync.WaitGroup

	var failures int64
	fail := func(err error) {
		if atomic.AddInt64(&failures, 1) >= int64(p.maxSuccessiveFailures) {
			select {
			case p.Err <- errors.Wrap(err, "pipeline: exceeded max successive failures"):
			default:
			}
			cancel()
		}
	}
	succeed := func() { atomic.StoreInt64(&failures, 0) }

	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	buf := &reorderHeap{}
	nextWanted := startHeight
	done := false

	// drainer delivers buffered results to Out strictly in order.
	drainerDone := make(chan struct{})
	go func() {
		defer close(drainerDone)
		mu.Lock()
		defer mu.Unlock()
		for {
			for buf.Len() > 0 && (*buf)[0].Height == nextWanted {
				pb := heap.Pop(buf).(*PreparedBlock)
				nextWanted++
				mu.Unlock()
				select {
				case p.Out <- pb:
				case <-ctx.Done():
					mu.Lock()
					return
				}
				mu.Lock()
			}
			if done && buf.Len() == 0 {
				return
			}
			if ctx.Err() != nil {
				return
			}
			cond.Wait()
		}
	}()

	heightCh := make(chan uint64)
	go func() {
		defer close(heightCh)
		h := cursor
		for {
			select {
			case heightCh <- h:
				h++
			case <-ctx.Done():
				return
			}
		}
	}()

	prepare := p.prep.Prepare(ctx)
	for i := 0; i < p.maxParallel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				var height uint64
				var ok bool
				select {
				case height, ok = <-heightCh:
					if !ok {
						return
					}
				case <-ctx.Done():
					return
				}

				pb, err := prepare(height)
				for err != nil {
					log.Warnf("pipeline: prepare height %d: %v", height, err)
					fail(err)
					if ctx.Err() != nil {
						return
					}
					pb, err = prepare(height)
				}
				succeed()

				mu.Lock()
				heap.Push(buf, pb)
				cond.Signal()
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	mu.Lock()
	done = true
	cond.Signal()
	mu.Unlock()
	<-drainerDone
}
