package catalog

import (
	"strings"
	"testing"
)

func TestParseProducts_StrictJSON(t *testing.T) {
	data := []byte(`[{"name":"iPhone 15","brand":"Apple","price":79900,"features":["5G","OLED"]}]`)

	products, err := ParseProducts(data)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].Name != "iPhone 15" {
		t.Fatalf("expected iPhone 15, got %q", products[0].Name)
	}
	if len(products[0].Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(products[0].Features))
	}
}

func TestParseProducts_RepairsMalformedJSON(t *testing.T) {
	// trailing comma and single quotes, as seen in scraper exports
	data := []byte(`[{'name': 'Mixer Grinder', 'brand': 'Philips', 'price': 2499,},]`)

	products, err := ParseProducts(data)
	if err != nil {
		t.Fatalf("expected repaired parse to succeed, got %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}
	if products[0].Brand != "Philips" {
		t.Fatalf("expected Philips, got %q", products[0].Brand)
	}
}

func TestParseProducts_Garbage(t *testing.T) {
	if _, err := ParseProducts([]byte("not even close")); err == nil {
		t.Fatal("expected error for unparseable input, got nil")
	}
}

func TestSummaryText(t *testing.T) {
	p := Product{
		Name:         "Air Fryer XL",
		Brand:        "Philips",
		Category:     "Kitchen",
		Price:        8999,
		Rating:       4.5,
		ReviewsCount: 210,
		Description:  "Large capacity air fryer.",
		Features:     []string{"Rapid Air", "Digital Display"},
	}

	text := p.SummaryText()
	for _, want := range []string{"Air Fryer XL", "Philips", "Kitchen", "4.5", "Rapid Air"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected summary to contain %q, got %q", want, text)
		}
	}
}
