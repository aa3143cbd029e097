package db

import (
	"context"
	stdsql "database/sql"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/samber/lo"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	enttx "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/credittransaction"
	"github.com/eslsoft/skillswap/internal/core"
)

// TransactionRepository persists the append-only credit ledger using Ent.
type TransactionRepository struct {
	client *Client
}

// NewTransactionRepository constructs an Ent-backed ledger repository.
func NewTransactionRepository(client *Client) *TransactionRepository {
	return &TransactionRepository{client: client}
}

var _ core.CreditTransactionRepository = (*TransactionRepository)(nil)

// AppendTransaction inserts a ledger row. Rows are never updated.
func (r *TransactionRepository) AppendTransaction(ctx context.Context, tx core.CreditTransaction) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		builder := db.CreditTransaction.Create().
			SetID(tx.ID).
			SetUserID(tx.UserID).
			SetAmount(tx.Amount).
			SetType(string(tx.Type)).
			SetDescription(tx.Description).
			SetCreatedAt(tx.CreatedAt.UTC())
		if tx.RelatedID != "" {
			builder.SetRelatedID(tx.RelatedID)
		}
		return builder.Exec(ctx)
	})
}

// ListTransactions returns the user's rows, newest first. A limit of zero or
// less returns every row.
func (r *TransactionRepository) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]core.CreditTransaction, error) {
	rows, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.CreditTransaction, error) {
		q := db.CreditTransaction.Query().
			Where(enttx.UserID(userID)).
			Order(enttx.ByCreatedAt(entsql.OrderDesc()), enttx.ByID(entsql.OrderDesc()))
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q.All(ctx)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row *entgenerated.CreditTransaction, _ int) core.CreditTransaction {
		return toDomainTransaction(row)
	}), nil
}

// SumTransactions returns the signed sum of the user's ledger rows.
func (r *TransactionRepository) SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (int64, error) {
		var v []struct {
			Sum stdsql.NullInt64 `json:"sum"`
		}
		err := db.CreditTransaction.Query().
			Where(enttx.UserID(userID)).
			Aggregate(entgenerated.As(entgenerated.Sum(enttx.FieldAmount), "sum")).
			Scan(ctx, &v)
		if err != nil || len(v) == 0 {
			return 0, err
		}
		return v[0].Sum.Int64, nil
	})
}

func toDomainTransaction(row *entgenerated.CreditTransaction) core.CreditTransaction {
	return core.CreditTransaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Amount:      row.Amount,
		Type:        core.TransactionType(row.Type),
		Description: row.Description,
		RelatedID:   lo.FromPtr(row.RelatedID),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}
