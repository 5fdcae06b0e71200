package indexer

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestReorderHeap_PopsInHeightOrder exercises the min-heap the pipeline
// uses to re-linearize concurrently-prepared blocks (spec.md §4.2).
func TestReorderHeap_PopsInHeightOrder(t *testing.T) {
	h := &reorderHeap{}
	heap.Init(h)
	for _, height := range []uint64{5, 1, 3, 2, 4} {
		heap.Push(h, &PreparedBlock{Height: height})
	}

	var popped []uint64
	for h.Len() > 0 {
		pb := heap.Pop(h).(*PreparedBlock)
		popped = append(popped, pb.Height)
	}
	require.Equal(t, []uint64{1, 2, 3, 4, 5}, popped)
}

func TestReorderHeap_PeekIsMinimum(t *testing.T) {
	h := &reorderHeap{}
	heap.Init(h)
	heap.Push(h, &PreparedBlock{Height: 10})
	heap.Push(h, &PreparedBlock{Height: 2})
	heap.Push(h, &PreparedBlock{Height: 7})
	require.Equal(t, uint64(2), (*h)[0].Height)
}
