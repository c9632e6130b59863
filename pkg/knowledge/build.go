package knowledge

import (
	"math"
	"strings"

	"github.com/shopgraph/backend/pkg/catalog"
	"github.com/shopgraph/backend/pkg/logger"
)

const (
	maxPropertyFeatures = 5
	maxFeatureLinks     = 3
	maxDescriptionLen   = 200
)

// PriceBucket is one half-open price interval [Min, Max).
type PriceBucket struct {
	Name string
	Min  float64
	Max  float64
}

// PriceBuckets is the fixed, ordered set of price ranges. A product links to
// the first bucket whose interval contains its price, so the lowest bucket
// wins on a boundary.
var PriceBuckets = []PriceBucket{
	{Name: "Budget (Under 500)", Min: 0, Max: 500},
	{Name: "Affordable (500-1000)", Min: 500, Max: 1000},
	{Name: "Mid-Range (1000-2500)", Min: 1000, Max: 2500},
	{Name: "Premium (2500-5000)", Min: 2500, Max: 5000},
	{Name: "Luxury (5000-10000)", Min: 5000, Max: 10000},
	{Name: "Ultra Premium (Above 10000)", Min: 10000, Max: math.Inf(1)},
}

// BucketForPrice returns the first bucket containing the price.
func BucketForPrice(price float64) (PriceBucket, bool) {
	for _, b := range PriceBuckets {
		if price >= b.Min && price < b.Max {
			return b, true
		}
	}
	return PriceBucket{}, false
}

// MainCategory reduces a compound category such as "Kitchen - Pressure
// Cooker" to its first segment.
func MainCategory(category string) string {
	if idx := strings.Index(category, " - "); idx != -1 {
		return category[:idx]
	}
	return category
}

// BuildFromProducts bulk-constructs the graph from structured catalog
// records. The fixed price buckets are registered first; each product then
// becomes a product entity linked to its brand, its main category, exactly
// one price bucket, and up to its first three features.
//
// The whole build runs under one exclusive lock so concurrent readers never
// observe a half-built graph.
func (g *Graph) BuildFromProducts(products []catalog.Product) {
	logger.Info("Building knowledge graph", "products", len(products))

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, b := range PriceBuckets {
		g.addEntityLocked(EntityPriceRange, b.Name, Properties{})
	}

	for _, product := range products {
		name := product.Name
		if name == "" {
			name = "Unknown"
		}

		features := product.Features
		if len(features) > maxPropertyFeatures {
			features = features[:maxPropertyFeatures]
		}
		description := product.Description
		if len(description) > maxDescriptionLen {
			description = description[:maxDescriptionLen]
		}

		productID := g.addEntityLocked(EntityProduct, name, Properties{
			Price:        product.Price,
			Rating:       product.Rating,
			ReviewsCount: product.ReviewsCount,
			Brand:        product.Brand,
			Category:     product.Category,
			Features:     features,
			Description:  description,
		})

		if product.Brand != "" {
			brandID := g.addEntityLocked(EntityBrand, product.Brand, Properties{})
			g.addRelationshipLocked(productID, RelMadeBy, brandID)
		}

		if product.Category != "" {
			categoryID := g.addEntityLocked(EntityCategory, MainCategory(product.Category), Properties{})
			g.addRelationshipLocked(productID, RelBelongsTo, categoryID)
		}

		if bucket, ok := BucketForPrice(product.Price); ok {
			g.addRelationshipLocked(productID, RelInPriceRange, EntityID(EntityPriceRange, bucket.Name))
		}

		links := product.Features
		if len(links) > maxFeatureLinks {
			links = links[:maxFeatureLinks]
		}
		for _, feature := range links {
			featureID := g.addEntityLocked(EntityFeature, feature, Properties{})
			g.addRelationshipLocked(productID, RelHasFeature, featureID)
		}
	}

	total := 0
	for _, edges := range g.forward {
		total += len(edges)
	}
	logger.Info("Knowledge graph built", "entities", len(g.entities), "relationships", total)
}
