package pipeline

import (
	"context"
	"fmt"

	"memewall/internal/facets"
	"memewall/internal/glossary"
)

// GlossaryFetcher loads a hierarchy document by ID.
type GlossaryFetcher interface {
	Fetch(ctx context.Context, docID string) (glossary.Hierarchy, error)
}

// GlossaryHierarchies loads the content type and template type hierarchies
// from their glossary documents. An empty document ID yields an empty
// hierarchy, which puts every value in the Other group.
type GlossaryHierarchies struct {
	Client           GlossaryFetcher
	MemeTypesDoc     string
	TemplateTypesDoc string
}

// Hierarchies implements HierarchySource.
func (g GlossaryHierarchies) Hierarchies(ctx context.Context) (facets.Hierarchies, error) {
	var h facets.Hierarchies
	var err error

	if h.MemeTypes, err = g.load(ctx, g.MemeTypesDoc); err != nil {
		return facets.Hierarchies{}, fmt.Errorf("content type glossary: %w", err)
	}
	if h.TemplateTypes, err = g.load(ctx, g.TemplateTypesDoc); err != nil {
		return facets.Hierarchies{}, fmt.Errorf("template type glossary: %w", err)
	}
	return h, nil
}

func (g GlossaryHierarchies) load(ctx context.Context, docID string) (glossary.Hierarchy, error) {
	if docID == "" {
		return glossary.Hierarchy{Groups: []glossary.Group{}}, nil
	}
	return g.Client.Fetch(ctx, docID)
}

// StaticHierarchies serves fixed hierarchies.
type StaticHierarchies facets.Hierarchies

// Hierarchies implements HierarchySource.
func (s StaticHierarchies) Hierarchies(context.Context) (facets.Hierarchies, error) {
	return facets.Hierarchies(s), nil
}
