package graphql

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

func parseField(t *testing.T, query string, vars map[string]interface{}) *ast.Field {
	t.Helper()
	op, err := parseAndValidate(query, "")
	require.NoError(t, err)
	require.Len(t, op.SelectionSet, 1)
	f, ok := op.SelectionSet[0].(*ast.Field)
	require.True(t, ok)
	return f
}

func TestArgUint64_ParsesLiteralAndVariable(t *testing.T) {
	f := parseField(t, `{ block(height: 42) { height } }`, nil)
	v, err := argUint64(f, "height", nil)
	require.NoError(t, err)
	require.Equal(t, uint64(42), *v)

	f = parseField(t, `query($h: UInt64) { block(height: $h) { height } }`, map[string]interface{}{"h": int64(7)})
	v, err = argUint64(f, "height", map[string]interface{}{"h": int64(7)})
	require.NoError(t, err)
	require.Equal(t, uint64(7), *v)
}

func TestArgUint64_MissingArgumentReturnsNil(t *testing.T) {
	f := parseField(t, `{ block(hash: "x") { height } }`, nil)
	v, err := argUint64(f, "height", nil)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestArgString_ParsesLiteral(t *testing.T) {
	f := parseField(t, `{ account(address: "4zS9") { address } }`, nil)
	v, err := argString(f, "address", nil)
	require.NoError(t, err)
	require.Equal(t, "4zS9", *v)
}

func TestConnectionArgs_ParsesAllFour(t *testing.T) {
	f := parseField(t, `{ blocks(first: 10, after: "5", last: 3, before: "20") { totalCount } }`, nil)
	args, err := connectionArgs(f, nil)
	require.NoError(t, err)
	require.Equal(t, int32(10), *args.First)
	require.Equal(t, "5", *args.After)
	require.Equal(t, int32(3), *args.Last)
	require.Equal(t, "20", *args.Before)
}

func TestErrResponse_WrapsApiError(t *testing.T) {
	resp := errResponse(ApiError{Code: ErrNotFound, Message: "block not found"})
	require.Len(t, resp.Errors, 1)
	require.Equal(t, "block not found", resp.Errors[0].Message)
	require.Equal(t, string(ErrNotFound), resp.Errors[0].Extensions["code"])
}

func TestErrResponse_WrapsPlainErrorAsInternal(t *testing.T) {
	resp := errResponse(require.AnError)
	require.Equal(t, string(ErrInternalError), resp.Errors[0].Extensions["code"])
}
