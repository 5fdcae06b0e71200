package graphql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func i32(v int32) *int32 { return &v }

// TestConnectionArgs_ExactlyOneOfFirstLast checks a local copy of the
// first/last predicate expression paginateByKey applies before touching
// the database: neither both set nor both unset is a valid argument
// combination (spec.md §6).
func TestConnectionArgs_ExactlyOneOfFirstLast(t *testing.T) {
	invalid := func(a ConnectionArgs) bool { return (a.First == nil) == (a.Last == nil) }

	require.True(t, invalid(ConnectionArgs{}))
	require.True(t, invalid(ConnectionArgs{First: i32(1), Last: i32(1)}))
	require.False(t, invalid(ConnectionArgs{First: i32(1)}))
	require.False(t, invalid(ConnectionArgs{Last: i32(1)}))
}

func TestDecodeCursor_RejectsMalformed(t *testing.T) {
	_, err := decodeCursor("not-a-number")
	require.Error(t, err)
	ae, ok := err.(ApiError)
	require.True(t, ok)
	require.Equal(t, ErrInvalidID, ae.Code)
}

func TestEncodeDecodeCursor_RoundTrips(t *testing.T) {
	v, err := decodeCursor(encodeCursor(12345))
	require.NoError(t, err)
	require.Equal(t, uint64(12345), v)
}

func TestNewConnection_BuildsEdgesWithCursors(t *testing.T) {
	rows := []blockModel{{Height: 1}, {Height: 2}, {Height: 3}}
	conn := newConnection(rows, PageInfo{HasNextPage: true}, func(b blockModel) uint64 { return b.Height })
	require.Len(t, conn.Edges, 3)
	require.Equal(t, "2", conn.Edges[1].Cursor)
	require.True(t, conn.PageInfo.HasNextPage)
}
