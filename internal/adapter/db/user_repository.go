package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	entuser "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/user"
	entbadge "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/userbadge"
	"github.com/eslsoft/skillswap/internal/core"
)

// UserRepository persists accounts, balances and badges using Ent.
type UserRepository struct {
	client *Client
}

// NewUserRepository constructs an Ent-backed user repository.
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

var _ core.UserRepository = (*UserRepository)(nil)

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(ctx context.Context, user core.User) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		return db.User.Create().
			SetID(user.ID).
			SetName(user.Name).
			SetCreditBalance(user.CreditBalance).
			SetSkillPoints(user.SkillPoints).
			SetCreatedAt(user.CreatedAt.UTC()).
			SetUpdatedAt(user.UpdatedAt.UTC()).
			Exec(ctx)
	})
}

// GetUser loads an account together with its badges.
func (r *UserRepository) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	row, err := do(ctx, r.client, func(db *entgenerated.Client) (*entgenerated.User, error) {
		row, err := db.User.Get(ctx, id)
		if entgenerated.IsNotFound(err) {
			return nil, core.ErrUserNotFound
		}
		return row, err
	})
	if err != nil {
		return nil, err
	}

	badges, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.UserBadge, error) {
		return db.UserBadge.Query().
			Where(entbadge.UserID(id)).
			Order(entbadge.ByCreatedAt(), entbadge.ByBadge()).
			All(ctx)
	})
	if err != nil {
		return nil, err
	}

	user := toDomainUser(row)
	user.Badges = lo.Map(badges, func(b *entgenerated.UserBadge, _ int) string { return b.Badge })
	return user, nil
}

// AdjustBalance applies delta atomically. Debits carry a guard in the WHERE
// clause so concurrent writers can never push the balance below zero.
func (r *UserRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64, at time.Time) (int64, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (int64, error) {
		upd := db.User.UpdateOneID(id).
			AddCreditBalance(delta).
			SetUpdatedAt(at.UTC())
		if delta < 0 {
			upd.Where(entuser.CreditBalanceGTE(-delta))
		}

		row, err := upd.Save(ctx)
		if entgenerated.IsNotFound(err) {
			exists, existErr := db.User.Query().Where(entuser.ID(id)).Exist(ctx)
			if existErr != nil {
				return 0, existErr
			}
			if !exists {
				return 0, core.ErrUserNotFound
			}
			return 0, core.ErrInsufficientFunds
		}
		if err != nil {
			return 0, err
		}
		return row.CreditBalance, nil
	})
}

// AddSkillPoints increments the user's skill points.
func (r *UserRepository) AddSkillPoints(ctx context.Context, id uuid.UUID, points int64, at time.Time) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		err := db.User.UpdateOneID(id).
			AddSkillPoints(points).
			SetUpdatedAt(at.UTC()).
			Exec(ctx)
		if entgenerated.IsNotFound(err) {
			return core.ErrUserNotFound
		}
		return err
	})
}

// AddBadge inserts the badge unless the user already holds it.
func (r *UserRepository) AddBadge(ctx context.Context, id uuid.UUID, badge string, at time.Time) (bool, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (bool, error) {
		exists, err := db.User.Query().Where(entuser.ID(id)).Exist(ctx)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, core.ErrUserNotFound
		}

		held, err := db.UserBadge.Query().
			Where(entbadge.UserID(id), entbadge.Badge(badge)).
			Exist(ctx)
		if err != nil || held {
			return false, err
		}

		err = db.UserBadge.Create().
			SetID(uuid.New()).
			SetUserID(id).
			SetBadge(badge).
			SetCreatedAt(at.UTC()).
			OnConflictColumns(entbadge.FieldUserID, entbadge.FieldBadge).
			DoNothing().
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("add badge: %w", err)
		}
		return true, nil
	})
}

func toDomainUser(row *entgenerated.User) *core.User {
	return &core.User{
		ID:            row.ID,
		Name:          row.Name,
		CreditBalance: row.CreditBalance,
		SkillPoints:   row.SkillPoints,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}
