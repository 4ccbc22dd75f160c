package domain

import (
	"github.com/shopspring/decimal"
)

// Category is a lookup row owned by another service. The catalog only reads it.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product represents a sellable item in the catalog.
// The json tags correspond to the fields returned in API responses.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	CategoryID  *int64          `json:"category_id"` // nil when the product has no category
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Description *string         `json:"description"`

	// CategoryName is filled from the categories join on reads and never written.
	// It stays nil when CategoryID is nil or points at a category that no longer exists.
	CategoryName *string `json:"category_name"`
}

// ProductInput carries the writable columns of a product, used by both create and update.
type ProductInput struct {
	Name        string          `json:"name"`
	CategoryID  *int64          `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Description *string         `json:"description"`
}

// Changes reports how many rows an update or delete touched.
// Zero means the id did not match a row, which is not an error.
type Changes struct {
	Changes int64 `json:"changes"`
}
