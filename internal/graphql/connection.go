package graphql

import (
	"strconv"

	"gorm.io/gorm"
)

// PageInfo mirrors the Relay-style connection page info every
// Connection type in schema.graphql exposes.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// ConnectionArgs is the uniform first|last + after|before argument set
// every paginated query root field accepts (spec.md §6).
type ConnectionArgs struct {
	First  *int32
	After  *string
	Last   *int32
	Before *string
}

func encodeCursor(v uint64) string { return strconv.FormatUint(v, 10) }

func decodeCursor(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, ApiError{Code: ErrInvalidID, Message: "malformed cursor " + s}
	}
	return v, nil
}

// boundsRow is scanned out of a MIN/MAX aggregate query.
type boundsRow struct {
	Min *uint64
	Max *uint64
}

// paginateByKey implements the uniform connection rule (spec.md §6):
// exactly one of first/last is required, after/before bound a
// strictly-increasing key column, and has_{previous,next}_page are
// computed against the global min/max of the filtered table rather
// than a limit+1 fetch. filtered is the base *gorm.DB query (table +
// WHERE clauses) before cursor/ordering/limit are applied; keyCol is
// the column both cursors and ordering operate on; scan runs the final
// query and decodes rows into T; keyOf extracts keyCol's value from a
// decoded T.
func paginateByKey[T any](filtered *gorm.DB, keyCol string, args ConnectionArgs, scan func(*gorm.DB) ([]T, error), keyOf func(T) uint64) ([]T, PageInfo, error) {
	if (args.First == nil) == (args.Last == nil) {
		return nil, PageInfo{}, invalidConnectionArgs("exactly one of first or last must be set")
	}

	var bounds boundsRow
	if err := filtered.Session(&gorm.Session{}).Select("MIN(" + keyCol + ") AS min, MAX(" + keyCol + ") AS max").Scan(&bounds).Error; err != nil {
		return nil, PageInfo{}, failedDatabaseQuery(err)
	}
	if bounds.Min == nil || bounds.Max == nil {
		return nil, PageInfo{}, nil
	}

	q := filtered.Session(&gorm.Session{})
	if args.After != nil {
		after, err := decodeCursor(*args.After)
		if err != nil {
			return nil, PageInfo{}, err
		}
		q = q.Where(keyCol+" > ?", after)
	}
	if args.Before != nil {
		before, err := decodeCursor(*args.Before)
		if err != nil {
			return nil, PageInfo{}, err
		}
		q = q.Where(keyCol+" < ?", before)
	}

	var limit int
	if args.First != nil {
		limit = int(*args.First)
		q = q.Order(keyCol + " ASC").Limit(limit)
	} else {
		limit = int(*args.Last)
		q = q.Order(keyCol + " DESC").Limit(limit)
	}
	if limit < 0 {
		return nil, PageInfo{}, invalidConnectionArgs("first/last must not be negative")
	}

	rows, err := scan(q)
	if err != nil {
		return nil, PageInfo{}, failedDatabaseQuery(err)
	}
	if args.Last != nil {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	if len(rows) == 0 {
		return rows, PageInfo{}, nil
	}

	first, last := keyOf(rows[0]), keyOf(rows[len(rows)-1])
	info := PageInfo{
		HasPreviousPage: first > *bounds.Min,
		HasNextPage:     last < *bounds.Max,
	}
	startCursor, endCursor := encodeCursor(first), encodeCursor(last)
	info.StartCursor, info.EndCursor = &startCursor, &endCursor
	return rows, info, nil
}
