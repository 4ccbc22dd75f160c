package store

import (
	"context"

	"product-store-service/internal/domain"
)

// Result is what an INSERT, UPDATE or DELETE reports back.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Conn is the database handle the repositories issue statements through.
// Statements use `?` placeholders; implementations adapt them to their driver.
type Conn interface {
	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, query string, args ...any) (Result, error)
	// QueryAll returns every row in the order the store produced them.
	QueryAll(ctx context.Context, query string, args ...any) ([]Record, error)
	// QueryOne returns the first row, or a nil Record when there is none.
	QueryOne(ctx context.Context, query string, args ...any) (Record, error)
}

// ProductStorer defines the product operations used by the API layers.
type ProductStorer interface {
	Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error) // nil, nil when absent
	Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Changes, error)
	Delete(ctx context.Context, id int64) (domain.Changes, error)
	Search(ctx context.Context, keyword string) ([]domain.Product, error)
}

// CategoryStorer reads the categories lookup table.
type CategoryStorer interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
}
