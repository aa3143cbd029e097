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

// Lesson holds the schema definition for the Lesson entity.
type Lesson struct {
	ent.Schema
}

// Annotations of the Lesson.
func (Lesson) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Table("lessons")}
}

// Fields of the Lesson.
func (Lesson) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Unique(),
		field.UUID("course_id", uuid.UUID{}),
		field.String("title"),
		field.String("description").
			Default(""),
		field.String("content_type").
			Default("video"),
		field.String("content_url").
			Default(""),
		field.Int("duration_minutes").
			Default(0),
		field.Int("order_index").
			Default(0),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the Lesson.
func (Lesson) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("course_id", "order_index"),
	}
}
