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

// CreditTransaction holds the schema definition for the append-only ledger.
type CreditTransaction struct {
	ent.Schema
}

// Annotations of the CreditTransaction.
func (CreditTransaction) Annotations() []schema.Annotation {
	return []schema.Annotation{entsql.Table("credit_transactions")}
}

// Fields of the CreditTransaction.
func (CreditTransaction) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Unique(),
		field.UUID("user_id", uuid.UUID{}),
		field.Int64("amount"),
		field.String("type"),
		field.String("description").
			Default(""),
		field.String("related_id").
			Optional().
			Nillable(),
		field.Time("created_at").
			Immutable().
			Default(time.Now),
	}
}

// Indexes of the CreditTransaction.
func (CreditTransaction) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "created_at"),
	}
}
