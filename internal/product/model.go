package product

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceLocal marks products created by hand rather than imported.
const SourceLocal = "local"

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"      swaggertype:"string" example:"62.48"`
	CostPrice   decimal.Decimal `json:"cost_price" swaggertype:"string" example:"24.99"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	IsActive    bool            `json:"is_active"`
	// Source is the provider name, or "local".
	Source            string    `json:"source"`
	ExternalID        string    `json:"external_id,omitempty"`
	ExternalVariantID string    `json:"external_variant_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ListResponse represents the paginated response of local products.
// swagger:model
type ListResponse struct {
	Q      string    `json:"q,omitempty"`
	Source string    `json:"source,omitempty"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Items  []Product `json:"items"`
}

// ImportRequest payload of a single provider product import.
// swagger:model ImportRequest
type ImportRequest struct {
	Provider     string           `json:"provider"      example:"cj"`
	ExternalID   string           `json:"external_id"   example:"US0012345678"`
	VariantID    string           `json:"variant_id"`
	Name         string           `json:"name"          example:"Air Compression Hand Massager"`
	Description  string           `json:"description"`
	Category     string           `json:"category"      example:"health"`
	ImageURL     string           `json:"image_url"`
	SKU          string           `json:"sku"`
	Cost         decimal.Decimal  `json:"cost"          swaggertype:"string" example:"24.99"`
	Stock        int              `json:"stock"         example:"225"`
	ProfitMargin *decimal.Decimal `json:"profit_margin" swaggertype:"string" example:"2.5"`
}

// SearchPage is a provider search result. Simulated pages come from the
// sample catalogue and carry the reason in Error.
// swagger:model SearchPage
type SearchPage struct {
	Provider  string         `json:"provider"`
	Products  []SearchResult `json:"products"`
	Total     int            `json:"total"`
	Page      int            `json:"page"`
	Limit     int            `json:"limit"`
	Simulated bool           `json:"simulated"`
	Error     string         `json:"error,omitempty"`
}

// SearchResult is a provider product with the price it would sell at.
type SearchResult struct {
	ExternalID     string          `json:"external_id"`
	VariantID      string          `json:"variant_id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	SKU            string          `json:"sku,omitempty"`
	Cost           decimal.Decimal `json:"cost"            swaggertype:"string"`
	SuggestedPrice decimal.Decimal `json:"suggested_price" swaggertype:"string"`
	Stock          int             `json:"stock"`
}
