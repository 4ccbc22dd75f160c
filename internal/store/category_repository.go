package store

import (
	"context"
	"fmt"

	"product-store-service/internal/domain"
)

const listCategoriesQuery = `SELECT id, name FROM categories ORDER BY name ASC`

// CategoryRepository reads categories. The table is owned elsewhere, so there are no writes.
type CategoryRepository struct {
	conn Conn
}

func NewCategoryRepository(conn Conn) *CategoryRepository {
	return &CategoryRepository{conn: conn}
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	records, err := r.conn.QueryAll(ctx, listCategoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(records))
	for _, rec := range records {
		var c domain.Category
		if c.ID, err = rec.Int64("id"); err != nil {
			return nil, err
		}
		if c.Name, err = rec.Text("name"); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}
