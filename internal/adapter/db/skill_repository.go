package db

import (
	"context"

	"github.com/google/uuid"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	"github.com/eslsoft/skillswap/internal/core"
)

// SkillRepository persists skills using Ent.
type SkillRepository struct {
	client *Client
}

// NewSkillRepository constructs an Ent-backed skill repository.
func NewSkillRepository(client *Client) *SkillRepository {
	return &SkillRepository{client: client}
}

var _ core.SkillRepository = (*SkillRepository)(nil)

// CreateSkill inserts a skill.
func (r *SkillRepository) CreateSkill(ctx context.Context, skill core.Skill) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		return db.Skill.Create().
			SetID(skill.ID).
			SetUserID(skill.UserID).
			SetName(skill.Name).
			SetCategory(skill.Category).
			SetCreatedAt(skill.CreatedAt.UTC()).
			Exec(ctx)
	})
}

// GetSkill loads a skill.
func (r *SkillRepository) GetSkill(ctx context.Context, id uuid.UUID) (*core.Skill, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (*core.Skill, error) {
		row, err := db.Skill.Get(ctx, id)
		if entgenerated.IsNotFound(err) {
			return nil, core.ErrSkillNotFound
		}
		if err != nil {
			return nil, err
		}
		return &core.Skill{
			ID:        row.ID,
			UserID:    row.UserID,
			Name:      row.Name,
			Category:  row.Category,
			CreatedAt: row.CreatedAt.UTC(),
		}, nil
	})
}
