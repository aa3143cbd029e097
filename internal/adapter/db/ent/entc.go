//go:build ignore

package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

func main() {
	err := entc.Generate("./schema", &gen.Config{
		Target:  "./generated",
		Package: "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated",
		Features: []gen.Feature{
			gen.FeatureLock,
			gen.FeatureModifier,
			gen.FeatureUpsert,
		},
	})
	if err != nil {
		log.Fatalf("running ent codegen: %v", err)
	}
}
