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

// Enrollment holds the schema definition for the Enrollment entity.
type Enrollment struct {
	ent.Schema
}

// Annotations of the Enrollment.
func (Enrollment) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Table("enrollments")}
}

// Fields of the Enrollment.
func (Enrollment) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Unique(),
		field.UUID("course_id", uuid.UUID{}),
		field.UUID("user_id", uuid.UUID{}),
		field.Int("progress").
			Default(0),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.String("payment_method").
			Default("credits"),
		field.Int64("price_paid").
			Default(0),
		field.String("idempotency_key").
			Optional().
			Nillable(),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the Enrollment.
func (Enrollment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "course_id").
			Unique(),
		// NULL keys never collide.
		index.Fields("user_id", "idempotency_key").
			Unique(),
		index.Fields("course_id"),
	}
}

// LessonProgress holds the schema definition for per-lesson progress rows.
type LessonProgress struct {
	ent.Schema
}

// Annotations of the LessonProgress.
func (LessonProgress) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Table("lesson_progress")}
}

// Fields of the LessonProgress.
func (LessonProgress) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Unique(),
		field.UUID("enrollment_id", uuid.UUID{}),
		field.UUID("lesson_id", uuid.UUID{}),
		field.Bool("completed").
			Default(false),
		field.Time("completed_at").
			Optional().
			Nillable(),
		field.Int("time_spent").
			Default(0),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Indexes of the LessonProgress.
func (LessonProgress) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("enrollment_id", "lesson_id").
			Unique(),
		index.Fields("lesson_id"),
	}
}
