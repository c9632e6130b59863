package knowledge

import (
	"testing"
)

func TestAddEntity_Idempotent(t *testing.T) {
	g := NewGraph()

	first := g.AddEntity(EntityBrand, "Apple", Properties{})
	second := g.AddEntity(EntityBrand, "Apple", Properties{})

	if first != second {
		t.Fatalf("expected same id for same (type, name), got %q and %q", first, second)
	}
	if g.EntityCount() != 1 {
		t.Fatalf("expected 1 entity, got %d", g.EntityCount())
	}
}

func TestAddEntity_MergesNewPropertyKeys(t *testing.T) {
	g := NewGraph()

	id := g.AddEntity(EntityProduct, "iPhone 15", Properties{Price: 79900})
	g.AddEntity(EntityProduct, "iPhone 15", Properties{
		Price:  1, // existing key, must not be replaced
		Rating: 4.7,
		Extra:  map[string]string{"color": "black"},
	})

	entity, ok := g.GetEntity(id)
	if !ok {
		t.Fatal("expected entity to exist")
	}
	if entity.Properties.Price != 79900 {
		t.Fatalf("expected existing price retained, got %v", entity.Properties.Price)
	}
	if entity.Properties.Rating != 4.7 {
		t.Fatalf("expected new rating merged, got %v", entity.Properties.Rating)
	}
	if entity.Properties.Extra["color"] != "black" {
		t.Fatalf("expected extra key merged, got %v", entity.Properties.Extra)
	}
}

func TestOverwriteProperties(t *testing.T) {
	g := NewGraph()

	id := g.AddEntity(EntityProduct, "iPhone 15", Properties{Price: 79900})
	if !g.OverwriteProperties(id, Properties{Price: 74900}) {
		t.Fatal("expected overwrite to succeed")
	}

	entity, _ := g.GetEntity(id)
	if entity.Properties.Price != 74900 {
		t.Fatalf("expected overwritten price, got %v", entity.Properties.Price)
	}

	if g.OverwriteProperties("product:missing", Properties{Price: 1}) {
		t.Fatal("expected overwrite of missing entity to report false")
	}
}

func TestAddRelationship_MissingEndpointIsDropped(t *testing.T) {
	g := NewGraph()
	product := g.AddEntity(EntityProduct, "iPhone 15", Properties{})

	entitiesBefore := g.EntityCount()

	g.AddRelationship(product, RelMadeBy, "brand:missing")
	g.AddRelationship("product:missing", RelMadeBy, product)

	if g.EntityCount() != entitiesBefore {
		t.Fatalf("expected entity count unchanged, got %d", g.EntityCount())
	}
	if g.RelationshipCount() != 0 {
		t.Fatalf("expected no relationships, got %d", g.RelationshipCount())
	}
	if related := g.GetRelated(product, ""); len(related) != 0 {
		t.Fatalf("expected no related entries, got %d", len(related))
	}
}

func TestAddRelationship_DedupesTriples(t *testing.T) {
	g := NewGraph()
	product := g.AddEntity(EntityProduct, "iPhone 15", Properties{})
	brand := g.AddEntity(EntityBrand, "Apple", Properties{})

	g.AddRelationship(product, RelMadeBy, brand)
	g.AddRelationship(product, RelMadeBy, brand)

	if g.RelationshipCount() != 1 {
		t.Fatalf("expected 1 relationship, got %d", g.RelationshipCount())
	}
	if related := g.GetRelated(brand, ""); len(related) != 1 {
		t.Fatalf("expected 1 reverse entry, got %d", len(related))
	}
}

func TestGetRelated_BothDirections(t *testing.T) {
	g := NewGraph()
	product := g.AddEntity(EntityProduct, "iPhone 15", Properties{})
	brand := g.AddEntity(EntityBrand, "Apple", Properties{})
	category := g.AddEntity(EntityCategory, "Electronics", Properties{})

	g.AddRelationship(product, RelMadeBy, brand)
	g.AddRelationship(product, RelBelongsTo, category)

	related := g.GetRelated(product, "")
	if len(related) != 2 {
		t.Fatalf("expected 2 related entries, got %d", len(related))
	}
	for _, r := range related {
		if r.Direction != "outgoing" {
			t.Fatalf("expected outgoing direction, got %q", r.Direction)
		}
	}

	brandRelated := g.GetRelated(brand, "")
	if len(brandRelated) != 1 {
		t.Fatalf("expected 1 related entry for brand, got %d", len(brandRelated))
	}
	if brandRelated[0].Direction != "incoming" {
		t.Fatalf("expected incoming direction, got %q", brandRelated[0].Direction)
	}
	if brandRelated[0].Entity.Name != "iPhone 15" {
		t.Fatalf("expected iPhone 15, got %q", brandRelated[0].Entity.Name)
	}

	filtered := g.GetRelated(product, RelMadeBy)
	if len(filtered) != 1 || filtered[0].Relationship != RelMadeBy {
		t.Fatalf("expected only MADE_BY entries, got %+v", filtered)
	}
}

func TestFindEntity(t *testing.T) {
	g := NewGraph()
	g.AddEntity(EntityBrand, "Apple", Properties{})

	if _, ok := g.FindEntity("APPLE"); !ok {
		t.Fatal("expected case-insensitive name lookup to succeed")
	}
	if _, ok := g.FindEntity("Samsung"); ok {
		t.Fatal("expected missing name lookup to report false")
	}
}

func TestGetProductsByBrand(t *testing.T) {
	g := NewGraph()
	brand := g.AddEntity(EntityBrand, "Apple", Properties{})
	p1 := g.AddEntity(EntityProduct, "iPhone 15", Properties{})
	p2 := g.AddEntity(EntityProduct, "MacBook Air", Properties{})
	g.AddRelationship(p1, RelMadeBy, brand)
	g.AddRelationship(p2, RelMadeBy, brand)

	products := g.GetProductsByBrand("apple")
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	if got := g.GetProductsByBrand("Samsung"); len(got) != 0 {
		t.Fatalf("expected no products for unknown brand, got %d", len(got))
	}
}

func TestReset(t *testing.T) {
	g := NewGraph()
	p := g.AddEntity(EntityProduct, "iPhone 15", Properties{})
	b := g.AddEntity(EntityBrand, "Apple", Properties{})
	g.AddRelationship(p, RelMadeBy, b)

	g.Reset()

	if g.EntityCount() != 0 || g.RelationshipCount() != 0 {
		t.Fatalf("expected empty graph after reset, got %d entities, %d relationships",
			g.EntityCount(), g.RelationshipCount())
	}
	if _, ok := g.FindEntity("Apple"); ok {
		t.Fatal("expected name index cleared after reset")
	}
}
