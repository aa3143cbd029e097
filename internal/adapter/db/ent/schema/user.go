package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"
)

// User holds the schema definition for the User entity.
type User struct {
	ent.Schema
}

// Annotations of the User.
func (User) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Table("users")}
}

// Fields of the User.
func (User) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Unique(),
		field.String("name"),
		field.Int64("credit_balance").
			Default(0),
		field.Int64("skill_points").
			Default(0),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// UserBadge holds the schema definition for badges earned by a user.
type UserBadge struct {
	ent.Schema
}

// Annotations of the UserBadge.
func (UserBadge) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Table("user_badges")}
}

// Fields of the UserBadge.
func (UserBadge) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Unique(),
		field.UUID("user_id", uuid.UUID{}),
		field.String("badge"),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
	}
}

// Indexes of the UserBadge.
func (UserBadge) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "badge").
			Unique(),
	}
}
