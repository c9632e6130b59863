package knowledge

import "sort"

// D3Node is one node in the force-directed export. Group is a small integer
// keyed by entity type, used purely for presentation.
type D3Node struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Group int    `json:"group"`
}

// D3Link is one relationship in the export.
type D3Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// D3Graph is the export format consumed by the visualization frontend.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

var typeGroups = map[string]int{
	EntityProduct:    1,
	EntityBrand:      2,
	EntityCategory:   3,
	EntityPriceRange: 4,
	EntityFeature:    5,
}

// D3Export converts the graph to a bounded force-directed representation.
// When the graph exceeds maxNodes, every brand, category and price-range
// entity is kept and the remainder filled with a deterministic prefix of the
// product entities; links are emitted only between surviving nodes.
// maxNodes <= 0 means 200.
func (g *Graph) D3Export(maxNodes int) D3Graph {
	if maxNodes <= 0 {
		maxNodes = 200
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	var selected []string
	if len(g.order) > maxNodes {
		for _, etype := range []string{EntityBrand, EntityCategory, EntityPriceRange} {
			selected = append(selected, g.byType[etype]...)
		}
		remaining := maxNodes - len(selected)
		if remaining > 0 {
			productIDs := g.byType[EntityProduct]
			if len(productIDs) > remaining {
				productIDs = productIDs[:remaining]
			}
			selected = append(selected, productIDs...)
		}
	} else {
		selected = g.order
	}

	selectedSet := make(map[string]struct{}, len(selected))
	nodes := make([]D3Node, 0, len(selected))
	for _, id := range selected {
		entity := g.entities[id]
		nodes = append(nodes, D3Node{
			ID:    id,
			Name:  entity.Name,
			Type:  entity.Type,
			Group: typeGroups[entity.Type],
		})
		selectedSet[id] = struct{}{}
	}

	links := make([]D3Link, 0)
	for _, sourceID := range selected {
		for _, e := range g.forward[sourceID] {
			if _, ok := selectedSet[e.otherID]; !ok {
				continue
			}
			links = append(links, D3Link{
				Source: sourceID,
				Target: e.otherID,
				Type:   e.relType,
			})
		}
	}

	return D3Graph{Nodes: nodes, Links: links}
}

// EntityRank is a name with its relationship count, used in Stats.
type EntityRank struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the graph: totals, per-type counts, and the ten brand and
// category entities with the most relationships (a proxy for the most
// connected facets).
type Stats struct {
	TotalEntities      int            `json:"total_entities"`
	TotalRelationships int            `json:"total_relationships"`
	EntitiesByType     map[string]int `json:"entities_by_type"`
	TopBrands          []EntityRank   `json:"top_brands"`
	TopCategories      []EntityRank   `json:"top_categories"`
}

// GetStats computes the graph summary.
func (g *Graph) GetStats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	totalRels := 0
	for _, edges := range g.forward {
		totalRels += len(edges)
	}

	byType := make(map[string]int, len(g.byType))
	for etype, ids := range g.byType {
		byType[etype] = len(ids)
	}

	return Stats{
		TotalEntities:      len(g.entities),
		TotalRelationships: totalRels,
		EntitiesByType:     byType,
		TopBrands:          g.topEntitiesLocked(EntityBrand, 10),
		TopCategories:      g.topEntitiesLocked(EntityCategory, 10),
	}
}

func (g *Graph) topEntitiesLocked(entityType string, limit int) []EntityRank {
	ids := g.byType[entityType]
	ranks := make([]EntityRank, 0, len(ids))
	for _, id := range ids {
		ranks = append(ranks, EntityRank{
			Name:  g.entities[id].Name,
			Count: len(g.reverse[id]),
		})
	}

	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Count > ranks[j].Count
	})

	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}
