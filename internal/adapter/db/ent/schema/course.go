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

// Course holds the schema definition for the Course entity.
type Course struct {
	ent.Schema
}

// Annotations of the Course.
func (Course) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Table("courses")}
}

// Fields of the Course.
func (Course) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Unique(),
		field.UUID("creator_id", uuid.UUID{}),
		field.UUID("skill_id", uuid.UUID{}),
		field.String("category").
			Default("general"),
		field.String("title"),
		field.String("description").
			Default(""),
		field.Int64("price_credits").
			Default(0),
		field.Int64("price_money").
			Optional().
			Nillable(),
		field.String("status").
			Default("draft"),
		field.Int("total_lessons").
			Default(0),
		field.Int("total_duration").
			Default(0),
		field.Float("rating").
			Default(0),
		field.Int("total_reviews").
			Default(0),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.Time("published_at").
			Optional().
			Nillable(),
	}
}

// Indexes of the Course.
func (Course) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "created_at"),
		index.Fields("creator_id"),
	}
}
