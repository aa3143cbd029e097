package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionEarned    TransactionType = "earned"
	TransactionSpent     TransactionType = "spent"
	TransactionPurchased TransactionType = "purchased"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionEarned, TransactionSpent, TransactionPurchased:
		return true
	default:
		return false
	}
}

// User is the account record the ledger and award side effects operate on.
type User struct {
	ID            uuid.UUID
	Name          string
	CreditBalance int64
	SkillPoints   int64
	Badges        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasBadge reports whether the user already holds badge.
func (u User) HasBadge(badge string) bool {
	return lo.Contains(u.Badges, badge)
}

// CreditTransaction is one append-only ledger row. Amount is signed.
type CreditTransaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Amount      int64
	Type        TransactionType
	Description string
	RelatedID   string
	CreatedAt   time.Time
}

// CreditParams describes a single ledger mutation. Amount is always positive;
// the direction is chosen by calling Credit or Debit.
type CreditParams struct {
	UserID      uuid.UUID
	Amount      int64
	Type        TransactionType
	Description string
	RelatedID   string
}

// Reconciliation compares the stored balance with the transaction log.
type Reconciliation struct {
	UserID     uuid.UUID
	Balance    int64
	LedgerSum  int64
	Consistent bool
}

// UserRepository defines persistence for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	// AdjustBalance applies delta with a compare-and-swap guard that refuses to
	// drive the balance below zero, returning ErrInsufficientFunds instead.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64, at time.Time) (int64, error)
	AddSkillPoints(ctx context.Context, id uuid.UUID, points int64, at time.Time) error
	// AddBadge is a set union; it reports whether the badge was newly added.
	AddBadge(ctx context.Context, id uuid.UUID, badge string, at time.Time) (bool, error)
}

// CreditTransactionRepository defines persistence for the append-only log.
type CreditTransactionRepository interface {
	AppendTransaction(ctx context.Context, tx CreditTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]CreditTransaction, error)
	SumTransactions(ctx context.Context, userID uuid.UUID) (int64, error)
}

// LedgerService exposes the credit ledger use cases. There is deliberately no
// balance setter: Credit and Debit are the only mutation entry points.
type LedgerService interface {
	OpenAccount(ctx context.Context, name string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	Credit(ctx context.Context, params CreditParams) (*CreditTransaction, error)
	Debit(ctx context.Context, params CreditParams) (*CreditTransaction, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]CreditTransaction, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*Reconciliation, error)
}
