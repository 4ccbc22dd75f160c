package store

import (
	"context"
	"fmt"

	"product-store-service/internal/domain"
)

const (
	insertProductQuery = `INSERT INTO products (name, category_id, price, stock, description) VALUES (?, ?, ?, ?, ?)`

	selectProductsQuery = `SELECT p.*, c.name AS category_name FROM products p LEFT JOIN categories c ON p.category_id = c.id`
	listProductsQuery   = selectProductsQuery + ` ORDER BY p.id DESC`
	getProductByIDQuery = selectProductsQuery + ` WHERE p.id = ?`
	searchProductsQuery = selectProductsQuery + ` WHERE p.name LIKE ? OR p.description LIKE ? ORDER BY p.id DESC`

	updateProductQuery = `UPDATE products SET name=?, category_id=?, price=?, stock=?, description=? WHERE id=?`
	deleteProductQuery = `DELETE FROM products WHERE id = ?`
)

// ProductRepository maps product operations onto single SQL statements.
// It does no validation, retrying or logging; store errors are returned wrapped
// with %w so callers can still inspect the driver error.
type ProductRepository struct {
	conn Conn
}

// NewProductRepository creates a repository issuing statements through conn.
func NewProductRepository(conn Conn) *ProductRepository {
	return &ProductRepository{conn: conn}
}

// Create inserts a product. A nil or empty description is stored as "".
// The returned product carries the new id and the description as stored.
func (r *ProductRepository) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	description := ""
	if in.Description != nil {
		description = *in.Description
	}

	res, err := r.conn.Execute(ctx, insertProductQuery,
		in.Name, in.CategoryID, in.Price, in.Stock, description,
	)
	if err != nil {
		return nil, fmt.Errorf("store: Create failed to insert product: %w", err)
	}

	return &domain.Product{
		ID:          res.LastInsertID,
		Name:        in.Name,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: &description,
	}, nil
}

// FindAll returns every product, newest id first.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	records, err := r.conn.QueryAll(ctx, listProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("store: FindAll failed to query products: %w", err)
	}
	return productsFromRecords(records)
}

// FindByID returns the product with the given id, or nil when no row matches.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	rec, err := r.conn.QueryOne(ctx, getProductByIDQuery, id)
	if err != nil {
		return nil, fmt.Errorf("store: FindByID failed to query product %d: %w", id, err)
	}
	if rec == nil {
		return nil, nil
	}
	p, err := productFromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update overwrites every writable column of the product.
//
// Unlike Create, a nil description is written as NULL rather than "".
// Zero changes means no row had that id.
func (r *ProductRepository) Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Changes, error) {
	res, err := r.conn.Execute(ctx, updateProductQuery,
		in.Name, in.CategoryID, in.Price, in.Stock, in.Description, id,
	)
	if err != nil {
		return domain.Changes{}, fmt.Errorf("store: Update failed for product %d: %w", id, err)
	}
	return domain.Changes{Changes: res.RowsAffected}, nil
}

// Delete removes the product. Zero changes means no row had that id.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (domain.Changes, error) {
	res, err := r.conn.Execute(ctx, deleteProductQuery, id)
	if err != nil {
		return domain.Changes{}, fmt.Errorf("store: Delete failed for product %d: %w", id, err)
	}
	return domain.Changes{Changes: res.RowsAffected}, nil
}

// Search returns products whose name or description contains keyword, newest id first.
// Case sensitivity follows the database's LIKE collation. An empty keyword matches everything.
func (r *ProductRepository) Search(ctx context.Context, keyword string) ([]domain.Product, error) {
	term := "%" + keyword + "%"
	records, err := r.conn.QueryAll(ctx, searchProductsQuery, term, term)
	if err != nil {
		return nil, fmt.Errorf("store: Search failed to query products: %w", err)
	}
	return productsFromRecords(records)
}

func productsFromRecords(records []Record) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		p, err := productFromRecord(rec)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func productFromRecord(rec Record) (domain.Product, error) {
	var (
		p   domain.Product
		err error
	)
	if p.ID, err = rec.Int64("id"); err != nil {
		return domain.Product{}, err
	}
	if p.Name, err = rec.Text("name"); err != nil {
		return domain.Product{}, err
	}
	if p.CategoryID, err = rec.NullInt64("category_id"); err != nil {
		return domain.Product{}, err
	}
	if p.Price, err = rec.Decimal("price"); err != nil {
		return domain.Product{}, err
	}
	stock, err := rec.NullInt64("stock")
	if err != nil {
		return domain.Product{}, err
	}
	if stock != nil {
		p.Stock = *stock
	}
	if p.Description, err = rec.NullText("description"); err != nil {
		return domain.Product{}, err
	}
	if p.CategoryName, err = rec.NullText("category_name"); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
