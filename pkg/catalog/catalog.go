package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/shopgraph/backend/pkg/logger"
)

// Product is one structured catalog record. Records typically come from
// scraped product listings, so every field except Name is optional.
type Product struct {
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Category     string   `json:"category"`
	Price        float64  `json:"price"`
	Rating       float64  `json:"rating"`
	ReviewsCount int      `json:"reviews_count"`
	Description  string   `json:"description"`
	Features     []string `json:"features"`
}

// SummaryText renders the product as a short free-text passage suitable for
// embedding alongside ingested documents.
func (p Product) SummaryText() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.Brand != "" {
		b.WriteString(" by ")
		b.WriteString(p.Brand)
	}
	if p.Category != "" {
		b.WriteString(" (")
		b.WriteString(p.Category)
		b.WriteString(")")
	}
	b.WriteString(".")
	if p.Price > 0 {
		fmt.Fprintf(&b, " Price: %.2f.", p.Price)
	}
	if p.Rating > 0 {
		fmt.Fprintf(&b, " Rating: %.1f (%d reviews).", p.Rating, p.ReviewsCount)
	}
	if p.Description != "" {
		b.WriteString(" ")
		b.WriteString(p.Description)
	}
	if len(p.Features) > 0 {
		b.WriteString(" Features: ")
		b.WriteString(strings.Join(p.Features, ", "))
		b.WriteString(".")
	}
	return b.String()
}

// ParseProducts decodes a JSON array of product records. Scraper exports are
// frequently malformed (trailing commas, single quotes, unquoted keys), so a
// failed strict parse falls back to jsonrepair before giving up.
func ParseProducts(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err == nil {
		return products, nil
	}

	repaired, err := jsonrepair.JSONRepair(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse product catalog: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &products); err != nil {
		return nil, fmt.Errorf("failed to parse repaired product catalog: %w", err)
	}

	logger.Warn("Product catalog required JSON repair before parsing", "products", len(products))
	return products, nil
}
