package knowledge

import (
	"fmt"
	"testing"

	"github.com/shopgraph/backend/pkg/catalog"
)

func facetTestGraph() *Graph {
	g := NewGraph()
	for i := 0; i < 5; i++ {
		g.AddEntity(EntityBrand, fmt.Sprintf("Brand %d", i), Properties{})
		g.AddEntity(EntityCategory, fmt.Sprintf("Category %d", i), Properties{})
	}
	for i := 0; i < 100; i++ {
		p := g.AddEntity(EntityProduct, fmt.Sprintf("Product %d", i), Properties{})
		g.AddRelationship(p, RelMadeBy, EntityID(EntityBrand, fmt.Sprintf("Brand %d", i%5)))
	}
	return g
}

func TestD3Export_FacetPrioritySelection(t *testing.T) {
	g := facetTestGraph()

	export := g.D3Export(10)
	if len(export.Nodes) != 10 {
		t.Fatalf("expected exactly 10 nodes, got %d", len(export.Nodes))
	}
	for _, n := range export.Nodes {
		if n.Type == EntityProduct {
			t.Fatalf("expected no product nodes when facets fill the budget, got %q", n.ID)
		}
	}

	selected := make(map[string]struct{})
	for _, n := range export.Nodes {
		selected[n.ID] = struct{}{}
	}
	for _, l := range export.Links {
		if _, ok := selected[l.Source]; !ok {
			t.Fatalf("link source %q not in selected nodes", l.Source)
		}
		if _, ok := selected[l.Target]; !ok {
			t.Fatalf("link target %q not in selected nodes", l.Target)
		}
	}
}

func TestD3Export_Deterministic(t *testing.T) {
	g := facetTestGraph()

	first := g.D3Export(20)
	second := g.D3Export(20)
	if len(first.Nodes) != len(second.Nodes) {
		t.Fatalf("expected identical node counts, got %d and %d", len(first.Nodes), len(second.Nodes))
	}
	for i := range first.Nodes {
		if first.Nodes[i].ID != second.Nodes[i].ID {
			t.Fatalf("expected deterministic selection, node %d differs: %q vs %q",
				i, first.Nodes[i].ID, second.Nodes[i].ID)
		}
	}
}

func TestD3Export_SmallGraphKeepsEverything(t *testing.T) {
	g := NewGraph()
	p := g.AddEntity(EntityProduct, "iPhone 15", Properties{})
	b := g.AddEntity(EntityBrand, "Apple", Properties{})
	g.AddRelationship(p, RelMadeBy, b)

	export := g.D3Export(200)
	if len(export.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(export.Nodes))
	}
	if len(export.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(export.Links))
	}
	if export.Links[0].Type != RelMadeBy {
		t.Fatalf("expected MADE_BY link, got %q", export.Links[0].Type)
	}
}

func TestD3Export_GroupNumbers(t *testing.T) {
	g := NewGraph()
	g.AddEntity(EntityProduct, "iPhone 15", Properties{})
	g.AddEntity(EntityBrand, "Apple", Properties{})

	export := g.D3Export(0)
	groups := map[string]int{}
	for _, n := range export.Nodes {
		groups[n.Type] = n.Group
	}
	if groups[EntityProduct] != 1 || groups[EntityBrand] != 2 {
		t.Fatalf("unexpected group assignment: %v", groups)
	}
}

func TestGetStats(t *testing.T) {
	g := NewGraph()
	g.BuildFromProducts([]catalog.Product{
		{Name: "iPhone 15", Brand: "Apple", Category: "Electronics", Price: 79900},
		{Name: "MacBook Air", Brand: "Apple", Category: "Electronics", Price: 114900},
		{Name: "Galaxy S24", Brand: "Samsung", Category: "Electronics", Price: 69900},
	})

	stats := g.GetStats()
	if stats.EntitiesByType[EntityProduct] != 3 {
		t.Fatalf("expected 3 products, got %d", stats.EntitiesByType[EntityProduct])
	}
	if stats.EntitiesByType[EntityBrand] != 2 {
		t.Fatalf("expected 2 brands, got %d", stats.EntitiesByType[EntityBrand])
	}
	if stats.TotalRelationships != 9 {
		t.Fatalf("expected 9 relationships, got %d", stats.TotalRelationships)
	}
	if len(stats.TopBrands) != 2 {
		t.Fatalf("expected 2 ranked brands, got %d", len(stats.TopBrands))
	}
	// Apple has two incoming MADE_BY edges, Samsung one
	if stats.TopBrands[0].Name != "Apple" || stats.TopBrands[0].Count != 2 {
		t.Fatalf("expected Apple ranked first with 2, got %+v", stats.TopBrands[0])
	}
}
