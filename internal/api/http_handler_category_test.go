package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"product-store-service/internal/domain"
	"product-store-service/internal/store"
)

// MockCategoryStorer is a mock implementation of store.CategoryStorer
type MockCategoryStorer struct {
	mock.Mock
}

func (m *MockCategoryStorer) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var categories []domain.Category
	if arg0 := args.Get(0); arg0 != nil {
		categories = arg0.([]domain.Category)
	}
	return categories, args.Error(1)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, cs store.CategoryStorer, ps store.ProductStorer) *httptest.Server {
	t.Helper()
	handler := NewHTTPHandler(cs, ps)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// PtrTo returns a pointer to v, for the optional fields of domain structs.
func PtrTo[T any](v T) *T {
	return &v
}

func TestHTTPHandler_ListCategories_Success(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil)

	expectedCategories := []domain.Category{
		{ID: 2, Name: "Garden"},
		{ID: 1, Name: "Tools"},
	}
	mockCatStore.On("ListCategories", mock.Anything).Return(expectedCategories, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/categories")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var categories []domain.Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&categories))
	assert.Equal(t, expectedCategories, categories)

	mockCatStore.AssertExpectations(t)
}

func TestHTTPHandler_ListCategories_EmptyIsArray(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil)

	mockCatStore.On("ListCategories", mock.Anything).Return(nil, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/categories")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(res.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw))
}

func TestHTTPHandler_ListCategories_StoreError(t *testing.T) {
	mockCatStore := new(MockCategoryStorer)
	server := setupTestChiServer(t, mockCatStore, nil)

	mockCatStore.On("ListCategories", mock.Anything).Return(nil, errors.New("db down")).Once()

	res, err := http.Get(server.URL + "/api/v1/categories")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, "Failed to retrieve categories", errResp.Error)

	mockCatStore.AssertExpectations(t)
}
