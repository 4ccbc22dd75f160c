//go:build cgo

package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"product-store-service/internal/config"
	"product-store-service/internal/domain"
)

// newSQLiteRepo opens a private in-memory database with the schema applied.
func newSQLiteRepo(t *testing.T) (*sql.DB, *ProductRepository) {
	t.Helper()
	db, err := sql.Open(config.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db, config.DriverSQLite))
	return db, NewProductRepository(NewSQLConn(db, DialectSQLite))
}

func insertCategory(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO categories (name) VALUES (?)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestSQLite_CreateThenFindByID(t *testing.T) {
	db, repo := newSQLiteRepo(t)
	ctx := context.Background()
	toolsID := insertCategory(t, db, "Tools")

	in := domain.ProductInput{
		Name:        "Widget",
		CategoryID:  &toolsID,
		Price:       decimal.RequireFromString("9.99"),
		Stock:       10,
		Description: PtrTo("A small widget"),
	}
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, in.Name, found.Name)
	assert.Equal(t, in.CategoryID, found.CategoryID)
	assert.True(t, in.Price.Equal(found.Price), "price %s", found.Price)
	assert.Equal(t, in.Stock, found.Stock)
	assert.Equal(t, in.Description, found.Description)
	assert.Equal(t, PtrTo("Tools"), found.CategoryName)
	assert.Nil(t, created.CategoryName, "create does not join the category")
}

func TestSQLite_CreateWithoutDescriptionStoresEmptyString(t *testing.T) {
	_, repo := newSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.ProductInput{Name: "X", Price: decimal.NewFromInt(1), Stock: 0})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, PtrTo(""), found.Description)
	assert.Nil(t, found.CategoryID)
	assert.Nil(t, found.CategoryName)
}

func TestSQLite_FindAllIsReverseInsertionOrder(t *testing.T) {
	_, repo := newSQLiteRepo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		p, err := repo.Create(ctx, domain.ProductInput{Name: fmt.Sprintf("item-%d", i), Price: decimal.NewFromInt(int64(i))})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	products, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, len(ids))
	for i, p := range products {
		assert.Equal(t, ids[len(ids)-1-i], p.ID)
	}
}

func TestSQLite_UpdateOverwritesEveryField(t *testing.T) {
	db, repo := newSQLiteRepo(t)
	ctx := context.Background()
	gardenID := insertCategory(t, db, "Garden")

	created, err := repo.Create(ctx, domain.ProductInput{
		Name: "Hose", Price: decimal.RequireFromString("15"), Stock: 2, Description: PtrTo("green"),
	})
	require.NoError(t, err)

	update := domain.ProductInput{
		Name:        "Hose 20m",
		CategoryID:  &gardenID,
		Price:       decimal.RequireFromString("21.5"),
		Stock:       7,
		Description: nil,
	}
	changes, err := repo.Update(ctx, created.ID, update)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changes.Changes)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Hose 20m", found.Name)
	assert.Equal(t, &gardenID, found.CategoryID)
	assert.True(t, update.Price.Equal(found.Price))
	assert.Equal(t, int64(7), found.Stock)
	assert.Nil(t, found.Description, "update writes a nil description as NULL")
	assert.Equal(t, PtrTo("Garden"), found.CategoryName)

	changes, err = repo.Update(ctx, created.ID, domain.ProductInput{Name: "Hose 20m", Description: PtrTo("")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changes.Changes)
	found, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, PtrTo(""), found.Description)
}

func TestSQLite_UpdateAndDeleteMissingRow(t *testing.T) {
	_, repo := newSQLiteRepo(t)
	ctx := context.Background()

	changes, err := repo.Update(ctx, 12345, domain.ProductInput{Name: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), changes.Changes)

	changes, err = repo.Delete(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, int64(0), changes.Changes)
}

func TestSQLite_DeleteThenFindByID(t *testing.T) {
	_, repo := newSQLiteRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, domain.ProductInput{Name: "Temp", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	changes, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changes.Changes)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSQLite_Search(t *testing.T) {
	_, repo := newSQLiteRepo(t)
	ctx := context.Background()

	seed := []domain.ProductInput{
		{Name: "Red widget", Price: decimal.NewFromInt(1)},
		{Name: "Hammer", Price: decimal.NewFromInt(2), Description: PtrTo("pairs well with a widget")},
		{Name: "Saw", Price: decimal.NewFromInt(3), Description: PtrTo("sharp")},
	}
	var ids []int64
	for _, in := range seed {
		p, err := repo.Create(ctx, in)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	matches, err := repo.Search(ctx, "widget")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, ids[1], matches[0].ID, "newest match first")
	assert.Equal(t, ids[0], matches[1].ID)

	none, err := repo.Search(ctx, "chisel")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(seed))

	injection, err := repo.Search(ctx, "' OR 1=1 --")
	require.NoError(t, err)
	assert.Empty(t, injection)
}

func TestSQLite_DeletedCategoryLeavesNullCategoryName(t *testing.T) {
	db, repo := newSQLiteRepo(t)
	ctx := context.Background()

	toolsID := insertCategory(t, db, "Tools")
	created, err := repo.Create(ctx, domain.ProductInput{
		Name: "Widget", CategoryID: &toolsID, Price: decimal.RequireFromString("9.99"), Stock: 10,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, PtrTo("Tools"), found.CategoryName)

	_, err = db.Exec(`DELETE FROM categories WHERE id = ?`, toolsID)
	require.NoError(t, err)

	found, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found, "the product outlives its category")
	assert.Equal(t, &toolsID, found.CategoryID)
	assert.Nil(t, found.CategoryName)
}

func TestSQLite_CategoryRepository(t *testing.T) {
	db, _ := newSQLiteRepo(t)
	insertCategory(t, db, "Tools")
	insertCategory(t, db, "Garden")

	categories, err := NewCategoryRepository(NewSQLConn(db, DialectSQLite)).ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Garden", categories[0].Name)
	assert.Equal(t, "Tools", categories[1].Name)
}
