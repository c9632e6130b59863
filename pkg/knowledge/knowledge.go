package knowledge

import (
	"sync"

	"github.com/shopgraph/backend/pkg/logger"
)

// Entity types known to the catalog graph. The set is open: AddEntity
// accepts any type string.
const (
	EntityProduct    = "product"
	EntityBrand      = "brand"
	EntityCategory   = "category"
	EntityPriceRange = "price_range"
	EntityFeature    = "feature"
)

// Relationship types emitted by graph construction. SIMILAR_TO is accepted
// like any other type but no construction rule emits it.
const (
	RelMadeBy       = "MADE_BY"
	RelBelongsTo    = "BELONGS_TO"
	RelInPriceRange = "IN_PRICE_RANGE"
	RelHasFeature   = "HAS_FEATURE"
	RelSimilarTo    = "SIMILAR_TO"
)

// Properties is the closed set of typed fields a catalog entity can carry,
// plus an open string map for anything not yet modeled.
type Properties struct {
	Price        float64           `json:"price,omitempty"`
	Rating       float64           `json:"rating,omitempty"`
	ReviewsCount int               `json:"reviews_count,omitempty"`
	Brand        string            `json:"brand,omitempty"`
	Category     string            `json:"category,omitempty"`
	Description  string            `json:"description,omitempty"`
	Features     []string          `json:"features,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Entity is a typed node in the graph. Identity is a pure function of
// (Type, Name); see EntityID.
type Entity struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties"`
}

// Related is one relationship touching an entity, tagged with the direction
// it was traversed in.
type Related struct {
	Entity       Entity `json:"entity"`
	Relationship string `json:"relationship"`
	Direction    string `json:"direction"` // "outgoing" or "incoming"
}

type edge struct {
	relType string
	otherID string
}

// Graph stores typed entities and directed, typed relationships with a
// reverse index for incoming traversal. It is safe for concurrent use:
// reads run under a shared lock, mutation and Reset under an exclusive one.
//
// A Graph is an explicitly owned instance; components that need it receive
// a handle rather than reaching for package state.
type Graph struct {
	mu sync.RWMutex

	entities map[string]*Entity
	order    []string // entity ids in insertion order

	byType   map[string][]string // entity ids per type, insertion order
	nameToID map[string]string   // lowercased display name -> id

	forward map[string][]edge // source id -> (type, target)
	reverse map[string][]edge // target id -> (type, source)
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	g := &Graph{}
	g.resetLocked()
	return g
}

func (g *Graph) resetLocked() {
	g.entities = make(map[string]*Entity)
	g.order = nil
	g.byType = make(map[string][]string)
	g.nameToID = make(map[string]string)
	g.forward = make(map[string][]edge)
	g.reverse = make(map[string][]edge)
}

// Reset drops every entity and relationship. It blocks all concurrent reads
// until the swap completes.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
	logger.Info("Knowledge graph reset")
}

// AddEntity inserts an entity or merges into an existing one with the same
// (type, name) identity. New property keys are filled in; keys the existing
// entity already carries are left as-is (use OverwriteProperties for the
// explicit update path). Returns the entity id.
func (g *Graph) AddEntity(entityType string, name string, props Properties) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addEntityLocked(entityType, name, props)
}

func (g *Graph) addEntityLocked(entityType string, name string, props Properties) string {
	id := EntityID(entityType, name)

	existing, ok := g.entities[id]
	if !ok {
		g.entities[id] = &Entity{
			ID:         id,
			Type:       entityType,
			Name:       name,
			Properties: props,
		}
		g.order = append(g.order, id)
		g.byType[entityType] = append(g.byType[entityType], id)
		g.nameToID[lower(name)] = id
		return id
	}

	mergeProperties(&existing.Properties, props)
	return id
}

// OverwriteProperties replaces every non-zero incoming field on the entity's
// properties. Returns false when no such entity exists.
func (g *Graph) OverwriteProperties(id string, props Properties) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entity, ok := g.entities[id]
	if !ok {
		return false
	}
	overwriteProperties(&entity.Properties, props)
	return true
}

// mergeProperties fills zero-valued fields of dst from src and adds Extra
// keys dst does not already have. Existing values are never replaced.
func mergeProperties(dst *Properties, src Properties) {
	if dst.Price == 0 {
		dst.Price = src.Price
	}
	if dst.Rating == 0 {
		dst.Rating = src.Rating
	}
	if dst.ReviewsCount == 0 {
		dst.ReviewsCount = src.ReviewsCount
	}
	if dst.Brand == "" {
		dst.Brand = src.Brand
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if len(dst.Features) == 0 {
		dst.Features = src.Features
	}
	for k, v := range src.Extra {
		if dst.Extra == nil {
			dst.Extra = make(map[string]string)
		}
		if _, ok := dst.Extra[k]; !ok {
			dst.Extra[k] = v
		}
	}
}

func overwriteProperties(dst *Properties, src Properties) {
	if src.Price != 0 {
		dst.Price = src.Price
	}
	if src.Rating != 0 {
		dst.Rating = src.Rating
	}
	if src.ReviewsCount != 0 {
		dst.ReviewsCount = src.ReviewsCount
	}
	if src.Brand != "" {
		dst.Brand = src.Brand
	}
	if src.Category != "" {
		dst.Category = src.Category
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if len(src.Features) > 0 {
		dst.Features = src.Features
	}
	for k, v := range src.Extra {
		if dst.Extra == nil {
			dst.Extra = make(map[string]string)
		}
		dst.Extra[k] = v
	}
}

// AddRelationship inserts a directed, typed relationship. When either
// endpoint is missing the call is dropped with a diagnostic rather than
// failing: graph construction must tolerate partially-inconsistent source
// records. A (source, type, target) triple is stored at most once; the
// forward and the reverse entries are inserted together.
func (g *Graph) AddRelationship(sourceID string, relType string, targetID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addRelationshipLocked(sourceID, relType, targetID)
}

func (g *Graph) addRelationshipLocked(sourceID string, relType string, targetID string) {
	if _, ok := g.entities[sourceID]; !ok {
		logger.Warn("Cannot add relationship: entity not found", "source", sourceID, "target", targetID)
		return
	}
	if _, ok := g.entities[targetID]; !ok {
		logger.Warn("Cannot add relationship: entity not found", "source", sourceID, "target", targetID)
		return
	}

	for _, e := range g.forward[sourceID] {
		if e.relType == relType && e.otherID == targetID {
			return
		}
	}

	g.forward[sourceID] = append(g.forward[sourceID], edge{relType: relType, otherID: targetID})
	g.reverse[targetID] = append(g.reverse[targetID], edge{relType: relType, otherID: sourceID})
}

// GetEntity looks an entity up by id. The second return value reports
// whether it exists.
func (g *Graph) GetEntity(id string) (Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entity, ok := g.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *entity, true
}

// FindEntity looks an entity up by exact display name, case-insensitively.
func (g *Graph) FindEntity(name string) (Entity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	id, ok := g.nameToID[lower(name)]
	if !ok {
		return Entity{}, false
	}
	entity, ok := g.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *entity, true
}

// GetRelated returns every relationship touching the entity in either
// direction, optionally filtered to one relationship type. Outgoing entries
// come first, each direction in insertion order.
func (g *Graph) GetRelated(entityID string, relType string) []Related {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var related []Related
	for _, e := range g.forward[entityID] {
		if relType != "" && e.relType != relType {
			continue
		}
		if target, ok := g.entities[e.otherID]; ok {
			related = append(related, Related{
				Entity:       *target,
				Relationship: e.relType,
				Direction:    "outgoing",
			})
		}
	}
	for _, e := range g.reverse[entityID] {
		if relType != "" && e.relType != relType {
			continue
		}
		if source, ok := g.entities[e.otherID]; ok {
			related = append(related, Related{
				Entity:       *source,
				Relationship: e.relType,
				Direction:    "incoming",
			})
		}
	}
	return related
}

// GetEntitiesByType returns all entities of a type in insertion order.
func (g *Graph) GetEntitiesByType(entityType string) []Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := g.byType[entityType]
	out := make([]Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, *g.entities[id])
	}
	return out
}

// GetProductsByBrand returns every product with a MADE_BY edge to the named
// brand. The lookup derives the brand id directly; no fuzzy matching.
func (g *Graph) GetProductsByBrand(brandName string) []Entity {
	return g.incomingProducts(EntityID(EntityBrand, brandName), RelMadeBy)
}

// GetProductsByCategory returns every product with a BELONGS_TO edge to the
// named category.
func (g *Graph) GetProductsByCategory(categoryName string) []Entity {
	return g.incomingProducts(EntityID(EntityCategory, categoryName), RelBelongsTo)
}

func (g *Graph) incomingProducts(targetID string, relType string) []Entity {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var products []Entity
	for _, e := range g.reverse[targetID] {
		if e.relType != relType {
			continue
		}
		if product, ok := g.entities[e.otherID]; ok {
			products = append(products, *product)
		}
	}
	return products
}

// EntityCount returns the number of entities.
func (g *Graph) EntityCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entities)
}

// RelationshipCount returns the number of forward relationships.
func (g *Graph) RelationshipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	total := 0
	for _, edges := range g.forward {
		total += len(edges)
	}
	return total
}
