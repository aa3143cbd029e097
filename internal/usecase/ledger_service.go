package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

// maxHistoryLimit caps an explicit History page size.
const maxHistoryLimit = 500

// Policy holds the tunable credit rules.
type Policy struct {
	SignupBonus     int64
	CompletionBonus int64
}

// LedgerService owns user balances and the append-only transaction log.
type LedgerService struct {
	users  core.UserRepository
	txs    core.CreditTransactionRepository
	tx     core.Transactor
	audit  *Auditor
	policy Policy
	log    *logger.Logger
	now    func() time.Time
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(users core.UserRepository, txs core.CreditTransactionRepository, tx core.Transactor, audit *Auditor, policy Policy, log *logger.Logger) *LedgerService {
	if log == nil {
		log = logger.NewNop()
	}
	return &LedgerService{
		users:  users,
		txs:    txs,
		tx:     tx,
		audit:  audit,
		policy: policy,
		log:    log.With("component", "ledger"),
		now:    time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *LedgerService) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

var _ core.LedgerService = (*LedgerService)(nil)

// OpenAccount creates a user with a zero balance, crediting the signup bonus
// through the ledger when one is configured.
func (s *LedgerService) OpenAccount(ctx context.Context, name string) (*core.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", core.ErrValidation)
	}

	now := s.now().UTC()
	user := core.User{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.audit.run(ctx, s.tx, func(ctx context.Context) error {
		if err := s.users.CreateUser(ctx, user); err != nil {
			return err
		}
		if s.policy.SignupBonus > 0 {
			if _, err := s.Credit(ctx, core.CreditParams{
				UserID:      user.ID,
				Amount:      s.policy.SignupBonus,
				Type:        core.TransactionEarned,
				Description: "Signup bonus",
			}); err != nil {
				return err
			}
		}
		s.audit.stage(ctx, core.AuditEvent{
			Type:       core.AuditAccountOpened,
			ActorID:    user.ID,
			SubjectID:  user.ID.String(),
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.users.GetUser(ctx, user.ID)
}

// GetUser returns the account record including skill points and badges.
func (s *LedgerService) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: user id required", core.ErrValidation)
	}
	return s.users.GetUser(ctx, id)
}

// GetBalance returns the user's current credit balance.
func (s *LedgerService) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.CreditBalance, nil
}

// Credit appends +amount and raises the balance in one unit of work.
func (s *LedgerService) Credit(ctx context.Context, params core.CreditParams) (*core.CreditTransaction, error) {
	return s.apply(ctx, params, 1, core.AuditCreditsCredited)
}

// Debit appends -amount and lowers the balance in one unit of work. It fails
// with ErrInsufficientFunds, leaving state untouched, when the balance is short.
func (s *LedgerService) Debit(ctx context.Context, params core.CreditParams) (*core.CreditTransaction, error) {
	return s.apply(ctx, params, -1, core.AuditCreditsDebited)
}

func (s *LedgerService) apply(ctx context.Context, params core.CreditParams, sign int64, event string) (*core.CreditTransaction, error) {
	if err := validateCreditParams(params); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	entry := core.CreditTransaction{
		ID:          uuid.Must(uuid.NewV7()),
		UserID:      params.UserID,
		Amount:      sign * params.Amount,
		Type:        params.Type,
		Description: strings.TrimSpace(params.Description),
		RelatedID:   params.RelatedID,
		CreatedAt:   now,
	}

	err := s.audit.run(ctx, s.tx, func(ctx context.Context) error {
		balance, err := s.users.AdjustBalance(ctx, entry.UserID, entry.Amount, now)
		if err != nil {
			return err
		}
		if err := s.txs.AppendTransaction(ctx, entry); err != nil {
			return err
		}
		s.audit.stage(ctx, core.AuditEvent{
			Type:      event,
			ActorID:   entry.UserID,
			SubjectID: entry.ID.String(),
			Attributes: map[string]any{
				"amount":     entry.Amount,
				"balance":    balance,
				"type":       string(entry.Type),
				"related_id": entry.RelatedID,
			},
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// History returns the newest transactions first. A limit of zero or less
// returns the full history; larger limits are capped at 500 rows.
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, limit int) ([]core.CreditTransaction, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	switch {
	case limit < 0:
		limit = 0
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return s.txs.ListTransactions(ctx, userID, limit)
}

// Reconcile compares the stored balance with the sum of the user's transactions.
func (s *LedgerService) Reconcile(ctx context.Context, userID uuid.UUID) (*core.Reconciliation, error) {
	var out core.Reconciliation
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		user, err := s.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		sum, err := s.txs.SumTransactions(ctx, userID)
		if err != nil {
			return err
		}
		out = core.Reconciliation{
			UserID:     userID,
			Balance:    user.CreditBalance,
			LedgerSum:  sum,
			Consistent: user.CreditBalance == sum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Consistent {
		s.log.Error("balance drift detected", "user_id", userID, "balance", out.Balance, "ledger_sum", out.LedgerSum)
	}
	return &out, nil
}

func validateCreditParams(params core.CreditParams) error {
	if params.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id required", core.ErrValidation)
	}
	if params.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", core.ErrValidation)
	}
	if !params.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", core.ErrValidation, params.Type)
	}
	return nil
}
