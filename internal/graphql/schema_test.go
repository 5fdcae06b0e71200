package graphql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAndValidate_AcceptsValidQuery(t *testing.T) {
	op, err := parseAndValidate(`{ block(height: 1) { height hash } }`, "")
	require.NoError(t, err)
	require.Len(t, op.SelectionSet, 1)
}

func TestParseAndValidate_RejectsUnknownField(t *testing.T) {
	_, err := parseAndValidate(`{ block(height: 1) { notAField } }`, "")
	require.Error(t, err)
}

func TestParseAndValidate_SelectsNamedOperation(t *testing.T) {
	query := `
		query First { block(height: 1) { height } }
		query Second { transaction(hash: "x") { hash } }
	`
	op, err := parseAndValidate(query, "Second")
	require.NoError(t, err)
	require.Equal(t, "Second", op.Name)
}

func TestParseAndValidate_RejectsUnknownOperationName(t *testing.T) {
	_, err := parseAndValidate(`query First { block(height: 1) { height } }`, "DoesNotExist")
	require.Error(t, err)
}
