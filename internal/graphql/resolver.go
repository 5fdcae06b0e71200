package graphql

import (
	"context"

	"github.com/ccdscan/backend/internal/logger"
	"github.com/ccdscan/backend/internal/store"

	"gorm.io/gorm"
)

var log = logger.Get(logger.TagGQL)

// Resolver is the root of every query/mutation/subscription field,
// grounded on the teacher's thin-handler-over-dbaccess convention: no
// resolver holds business logic beyond argument validation and a
// single store call.
type Resolver struct {
	db  *store.DB
	hub *Hub
}

// NewResolver constructs a Resolver bound to db and fed subscription
// events by hub.
func NewResolver(db *store.DB, hub *Hub) *Resolver {
	return &Resolver{db: db, hub: hub}
}

// Block resolves the `block(height, hash)` query root field.
func (r *Resolver) Block(ctx context.Context, height *uint64, hash *string) (*blockModel, error) {
	var b store.Block
	q := r.db.WithContext(ctx)
	switch {
	case height != nil:
		q = q.Where("height = ?", *height)
	case hash != nil:
		q = q.Where("hash = ?", *hash)
	default:
		return nil, ApiError{Code: ErrInvalidID, Message: "one of height or hash is required"}
	}
	if err := q.Take(&b).Error; err != nil {
		return nil, notFound("block")
	}
	m := toBlockModel(b)
	return &m, nil
}

// Blocks resolves the `blocks` connection query root field in
// ascending height order; exactly one of first/last must be given
// (spec.md §6 uniform cursor rules).
func (r *Resolver) Blocks(ctx context.Context, args ConnectionArgs) (Connection[blockModel], error) {
	base := r.db.WithContext(ctx).Model(&store.Block{})
	rows, info, err := paginateByKey(base, "height", args,
		func(q *gorm.DB) ([]store.Block, error) {
			var out []store.Block
			err := q.Find(&out).Error
			return out, err
		},
		func(b store.Block) uint64 { return b.Height })
	if err != nil {
		return Connection[blockModel]{}, err
	}
	models := make([]blockModel, len(rows))
	for i, b := range rows {
		models[i] = toBlockModel(b)
	}
	conn := newConnection(models, info, func(b blockModel) uint64 { return b.Height })
	if err := base.Count(&conn.TotalCount).Error; err != nil {
		return Connection[blockModel]{}, failedDatabaseQuery(err)
	}
	return conn, nil
}

// Transaction resolves the `transaction(hash)` query root field.
func (r *Resolver) Transaction(ctx context.Context, hash string) (*transactionModel, error) {
	var t store.Transaction
	if err := r.db.WithContext(ctx).Where("hash = ?", hash).Take(&t).Error; err != nil {
		return nil, notFound("transaction")
	}
	m := toTransactionModel(t)
	return &m, nil
}

// Transactions resolves the `transactions` connection query root field.
func (r *Resolver) Transactions(ctx context.Context, args ConnectionArgs) (Connection[transactionModel], error) {
	base := r.db.WithContext(ctx).Model(&store.Transaction{})
	rows, info, err := paginateByKey(base, "index", args,
		func(q *gorm.DB) ([]store.Transaction, error) {
			var out []store.Transaction
			err := q.Find(&out).Error
			return out, err
		},
		func(t store.Transaction) uint64 { return t.Index })
	if err != nil {
		return Connection[transactionModel]{}, err
	}
	models := make([]transactionModel, len(rows))
	for i, t := range rows {
		models[i] = toTransactionModel(t)
	}
	conn := newConnection(models, info, func(t transactionModel) uint64 { return t.Index })
	if err := base.Count(&conn.TotalCount).Error; err != nil {
		return Connection[transactionModel]{}, failedDatabaseQuery(err)
	}
	return conn, nil
}

// AccountByAddress resolves the `account(address)` query root field.
func (r *Resolver) AccountByAddress(ctx context.Context, address string) (*accountModel, error) {
	var a store.Account
	if err := r.db.WithContext(ctx).Where("address = ?", address).Take(&a).Error; err != nil {
		return nil, notFound("account")
	}
	m := toAccountModel(a)
	return &m, nil
}

// Accounts resolves the `accounts` connection query root field.
func (r *Resolver) Accounts(ctx context.Context, args ConnectionArgs) (Connection[accountModel], error) {
	base := r.db.WithContext(ctx).Model(&store.Account{})
	rows, info, err := paginateByKey(base, "index", args,
		func(q *gorm.DB) ([]store.Account, error) {
			var out []store.Account
			err := q.Find(&out).Error
			return out, err
		},
		func(a store.Account) uint64 { return a.Index })
	if err != nil {
		return Connection[accountModel]{}, err
	}
	models := make([]accountModel, len(rows))
	for i, a := range rows {
		models[i] = toAccountModel(a)
	}
	conn := newConnection(models, info, func(a accountModel) uint64 { return a.Index })
	if err := base.Count(&conn.TotalCount).Error; err != nil {
		return Connection[accountModel]{}, failedDatabaseQuery(err)
	}
	return conn, nil
}

// Baker resolves the `baker(id)` query root field.
func (r *Resolver) Baker(ctx context.Context, id uint64) (*bakerModel, error) {
	var b store.Baker
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, notFound("baker")
	}
	m := toBakerModel(b)
	return &m, nil
}

// Bakers resolves the `bakers` connection query root field.
func (r *Resolver) Bakers(ctx context.Context, args ConnectionArgs) (Connection[bakerModel], error) {
	base := r.db.WithContext(ctx).Model(&store.Baker{})
	rows, info, err := paginateByKey(base, "id", args,
		func(q *gorm.DB) ([]store.Baker, error) {
			var out []store.Baker
			err := q.Find(&out).Error
			return out, err
		},
		func(b store.Baker) uint64 { return b.ID })
	if err != nil {
		return Connection[bakerModel]{}, err
	}
	models := make([]bakerModel, len(rows))
	for i, b := range rows {
		models[i] = toBakerModel(b)
	}
	conn := newConnection(models, info, func(b bakerModel) uint64 { return b.ID })
	if err := base.Count(&conn.TotalCount).Error; err != nil {
		return Connection[bakerModel]{}, failedDatabaseQuery(err)
	}
	return conn, nil
}

// Contract resolves the `contract(index, subIndex)` query root field.
func (r *Resolver) Contract(ctx context.Context, index, subIndex uint64) (*contractModel, error) {
	var c store.Contract
	if err := r.db.WithContext(ctx).Where("index = ? AND sub_index = ?", index, subIndex).Take(&c).Error; err != nil {
		return nil, notFound("contract")
	}
	m := toContractModel(c)
	return &m, nil
}

// Contracts resolves the `contracts` connection query root field.
func (r *Resolver) Contracts(ctx context.Context, args ConnectionArgs) (Connection[contractModel], error) {
	base := r.db.WithContext(ctx).Model(&store.Contract{})
	rows, info, err := paginateByKey(base, "index", args,
		func(q *gorm.DB) ([]store.Contract, error) {
			var out []store.Contract
			err := q.Find(&out).Error
			return out, err
		},
		func(c store.Contract) uint64 { return c.Index })
	if err != nil {
		return Connection[contractModel]{}, err
	}
	models := make([]contractModel, len(rows))
	for i, c := range rows {
		models[i] = toContractModel(c)
	}
	conn := newConnection(models, info, func(c contractModel) uint64 { return c.Index })
	if err := base.Count(&conn.TotalCount).Error; err != nil {
		return Connection[contractModel]{}, failedDatabaseQuery(err)
	}
	return conn, nil
}

// Token resolves the `token(contractIndex, contractSubIndex, tokenId)`
// query root field.
func (r *Resolver) Token(ctx context.Context, contractIndex, contractSubIndex uint64, tokenID string) (*tokenModel, error) {
	var t store.Token
	err := r.db.WithContext(ctx).
		Where("contract_index = ? AND contract_sub_index = ? AND token_id = ?", contractIndex, contractSubIndex, tokenID).
		Take(&t).Error
	if err != nil {
		return nil, notFound("token")
	}
	m := toTokenModel(t)
	return &m, nil
}

// Tokens resolves the `tokens` connection query root field.
func (r *Resolver) Tokens(ctx context.Context, args ConnectionArgs) (Connection[tokenModel], error) {
	base := r.db.WithContext(ctx).Model(&store.Token{})
	rows, info, err := paginateByKey(base, "index", args,
		func(q *gorm.DB) ([]store.Token, error) {
			var out []store.Token
			err := q.Find(&out).Error
			return out, err
		},
		func(t store.Token) uint64 { return t.Index })
	if err != nil {
		return Connection[tokenModel]{}, err
	}
	models := make([]tokenModel, len(rows))
	for i, t := range rows {
		models[i] = toTokenModel(t)
	}
	conn := newConnection(models, info, func(t tokenModel) uint64 { return t.Index })
	if err := base.Count(&conn.TotalCount).Error; err != nil {
		return Connection[tokenModel]{}, failedDatabaseQuery(err)
	}
	return conn, nil
}

// ModuleReference resolves the `moduleReference(ref)` query root field.
func (r *Resolver) ModuleReference(ctx context.Context, ref string) (*smartContractModuleModel, error) {
	var m store.SmartContractModule
	if err := r.db.WithContext(ctx).Where("module_reference = ?", ref).Take(&m).Error; err != nil {
		return nil, notFound("module reference")
	}
	out := toSmartContractModuleModel(m)
	return &out, nil
}

// Metrics resolves the `metrics(fromBlockHeight)` query root field,
// returning the running baker-activity rollup since the given height.
func (r *Resolver) Metrics(ctx context.Context, fromBlockHeight uint64) ([]metricsBakerModel, error) {
	var rows []store.MetricsBaker
	err := r.db.WithContext(ctx).Where("block_height >= ?", fromBlockHeight).Order("block_height ASC").Find(&rows).Error
	if err != nil {
		return nil, failedDatabaseQuery(err)
	}
	out := make([]metricsBakerModel, len(rows))
	for i, row := range rows {
		out[i] = toMetricsBakerModel(row)
	}
	return out, nil
}
