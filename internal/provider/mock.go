package provider

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MockCatalog is the US-warehouse sample catalogue shown when a supplier is
// unconfigured or unreachable.
func MockCatalog(source string) []Product {
	return []Product{
		mock(source, "US0012345678", "Air Compression Hand Massager - Professional Grade", "health",
			"https://images.unsplash.com/photo-1544367567-0f2fcb009e0b?w=600", "24.99", 225,
			"Air compression hand massager with adjustable pressure settings."),
		mock(source, "US0023456789", "Smart LED Face Mask - LED Light Therapy Device", "beauty",
			"https://images.unsplash.com/photo-1616394584738-fc6e612e71b9?w=600", "45.99", 300,
			"LED light therapy face mask with 7 colors."),
		mock(source, "US0034567890", "Foldable Electric Scooter - 250W Motor", "outdoor",
			"https://images.unsplash.com/photo-1558981403-c5f9899a28bc?w=600", "189.99", 85,
			"Lightweight foldable electric scooter with a 15-20 mile range."),
		mock(source, "US0045678901", "Adjustable Measuring Cup Set - Kitchen Essential", "home",
			"https://images.unsplash.com/photo-1584992236310-6eddd3f4a94c?w=600", "12.99", 500,
			"Adjustable measuring cup with metric and imperial markings."),
		mock(source, "US0056789012", "Italian Leather Crossbody Bag", "bags",
			"https://images.unsplash.com/photo-1548036328-c9fa89d128fa?w=600", "64.50", 120,
			"Full-grain leather crossbody with adjustable strap."),
		mock(source, "US0067890123", "Silk Square Scarf - Hand Rolled Edges", "accessories",
			"https://images.unsplash.com/photo-1601924994987-69e26d50dc26?w=600", "29.99", 260,
			"Mulberry silk scarf, 90x90cm."),
		mock(source, "US0078901234", "Minimalist Steel Watch - Sapphire Glass", "watches",
			"https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=600", "89.00", 70,
			"Stainless steel case with sapphire crystal and leather strap."),
		mock(source, "US0089012345", "Polarized Aviator Sunglasses", "accessories",
			"https://images.unsplash.com/photo-1511499767150-a48a237f0083?w=600", "19.75", 410,
			"Metal-frame aviators with UV400 polarized lenses."),
	}
}

func mock(source, id, name, category, image, cost string, stock int, desc string) Product {
	return Product{
		ExternalID:  id,
		Name:        name,
		Description: desc,
		Category:    category,
		ImageURL:    image,
		SKU:         id + "-STD",
		Cost:        decimal.RequireFromString(cost),
		Stock:       stock,
		Source:      source,
	}
}

// MockPage filters the sample catalogue by keyword and category and cuts the
// requested page out of it.
func MockPage(source string, q Query) *Page {
	kw := strings.ToLower(strings.TrimSpace(q.Keyword))
	var matched []Product
	for _, p := range MockCatalog(source) {
		if kw != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.Description+" "+p.Category), kw) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		matched = append(matched, p)
	}
	// Nothing matched: show the whole sample rather than an empty page.
	if len(matched) == 0 {
		matched = MockCatalog(source)
	}

	page, limit := max(q.Page, 1), max(q.Limit, 1)
	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))
	return &Page{
		Products: append([]Product{}, matched[start:end]...),
		Total:    len(matched),
		Page:     page,
		Limit:    limit,
	}
}
