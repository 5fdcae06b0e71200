package graphql

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"
)

// execute dispatches a single top-level query-root field to the
// matching Resolver method. This is the hand-maintained stand-in for
// gqlgen's generated executable-schema dispatch table (SPEC_FULL.md
// §6): the schema is small and stable enough that a switch over field
// names is clearer than a generated reflection table, while still
// validating every request against schema.graphql via gqlparser first.
func (s *Server) execute(ctx context.Context, field *ast.Field, vars map[string]interface{}) (interface{}, error) {
	switch field.Name {
	case "block":
		height, err := argUint64(field, "height", vars)
		if err != nil {
			return nil, err
		}
		hash, err := argString(field, "hash", vars)
		if err != nil {
			return nil, err
		}
		return s.resolver.Block(ctx, height, hash)

	case "blocks":
		args, err := connectionArgs(field, vars)
		if err != nil {
			return nil, err
		}
		return s.resolver.Blocks(ctx, args)

	case "transaction":
		hash, err := argString(field, "hash", vars)
		if err != nil {
			return nil, err
		}
		if hash == nil {
			return nil, ApiError{Code: ErrInvalidID, Message: "hash is required"}
		}
		return s.resolver.Transaction(ctx, *hash)

	case "transactions":
		args, err := connectionArgs(field, vars)
		if err != nil {
			return nil, err
		}
		return s.resolver.Transactions(ctx, args)

	case "account":
		addr, err := argString(field, "address", vars)
		if err != nil {
			return nil, err
		}
		if addr == nil {
			return nil, ApiError{Code: ErrInvalidID, Message: "address is required"}
		}
		return s.resolver.AccountByAddress(ctx, *addr)

	case "accounts":
		args, err := connectionArgs(field, vars)
		if err != nil {
			return nil, err
		}
		return s.resolver.Accounts(ctx, args)

	case "baker":
		id, err := argUint64(field, "id", vars)
		if err != nil {
			return nil, err
		}
		if id == nil {
			return nil, ApiError{Code: ErrInvalidID, Message: "id is required"}
		}
		return s.resolver.Baker(ctx, *id)

	case "bakers":
		args, err := connectionArgs(field, vars)
		if err != nil {
			return nil, err
		}
		return s.resolver.Bakers(ctx, args)

	case "contract":
		index, err := argUint64(field, "index", vars)
		if err != nil {
			return nil, err
		}
		subIndex, err := argUint64(field, "subIndex", vars)
		if err != nil {
			return nil, err
		}
		if index == nil || subIndex == nil {
			return nil, ApiError{Code: ErrInvalidID, Message: "index and subIndex are required"}
		}
		return s.resolver.Contract(ctx, *index, *subIndex)

	case "contracts":
		args, err := connectionArgs(field, vars)
		if err != nil {
			return nil, err
		}
		return s.resolver.Contracts(ctx, args)

	case "token":
		contractIndex, err := argUint64(field, "contractIndex", vars)
		if err != nil {
			return nil, err
		}
		contractSubIndex, err := argUint64(field, "contractSubIndex", vars)
		if err != nil {
			return nil, err
		}
		tokenID, err := argString(field, "tokenId", vars)
		if err != nil {
			return nil, err
		}
		if contractIndex == nil || contractSubIndex == nil || tokenID == nil {
			return nil, ApiError{Code: ErrInvalidID, Message: "contractIndex, contractSubIndex and tokenId are required"}
		}
		return s.resolver.Token(ctx, *contractIndex, *contractSubIndex, *tokenID)

	case "tokens":
		args, err := connectionArgs(field, vars)
		if err != nil {
			return nil, err
		}
		return s.resolver.Tokens(ctx, args)

	case "moduleReference":
		ref, err := argString(field, "ref", vars)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			return nil, ApiError{Code: ErrInvalidID, Message: "ref is required"}
		}
		return s.resolver.ModuleReference(ctx, *ref)

	case "metrics":
		from, err := argUint64(field, "fromBlockHeight", vars)
		if err != nil {
			return nil, err
		}
		if from == nil {
			return nil, ApiError{Code: ErrInvalidID, Message: "fromBlockHeight is required"}
		}
		return s.resolver.Metrics(ctx, *from)

	default:
		return nil, ApiError{Code: ErrInvalidID, Message: "unknown field " + field.Name}
	}
}
