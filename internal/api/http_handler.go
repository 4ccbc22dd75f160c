package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"product-store-service/internal/domain"
	"product-store-service/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categoryStore store.CategoryStorer
	productStore  store.ProductStorer
	validate      *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(cs store.CategoryStorer, ps store.ProductStorer) *HTTPHandler {
	return &HTTPHandler{
		categoryStore: cs,
		productStore:  ps,
		validate:      validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

func productIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Product Handlers ---

// ProductInput defines the expected body for creating and updating a product.
// Both operations write every column, so they share one shape.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	CategoryID  *int64          `json:"category_id" validate:"omitempty,gt=0"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock" validate:"gte=0"`
	Description *string         `json:"description" validate:"omitempty"`
}

// maxPrice is the first value the NUMERIC(12, 2) price column cannot hold.
var maxPrice = decimal.New(1, 10)

// validatePrice accepts only prices the store keeps exactly, so a created
// product reads back with the price it was given.
func validatePrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return errors.New("price must not be negative")
	case !price.Equal(price.Round(2)):
		return errors.New("price must have at most two decimal places")
	case price.GreaterThanOrEqual(maxPrice):
		return fmt.Errorf("price must be less than %s", maxPrice)
	}
	return nil
}

// decodeProductInput reads and validates the body, writing a 400 when it is unusable.
func (h *HTTPHandler) decodeProductInput(w http.ResponseWriter, r *http.Request) (domain.ProductInput, bool) {
	defer r.Body.Close()

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return domain.ProductInput{}, false
	}
	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return domain.ProductInput{}, false
	}
	if err := validatePrice(input.Price); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return domain.ProductInput{}, false
	}

	return input.toDomain(), true
}

func (in ProductInput) toDomain() domain.ProductInput {
	return domain.ProductInput{
		Name:        in.Name,
		CategoryID:  in.CategoryID,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
	}
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	created, err := h.productStore.Create(r.Context(), input)
	if err != nil {
		log.Printf("ERROR: Create product store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.FindAll(r.Context())
	if err != nil {
		log.Printf("ERROR: FindAll products store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondWithJSON(w, http.StatusOK, products)
}

// SearchProducts matches ?q= against name and description. A missing q lists everything.
func (h *HTTPHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")

	products, err := h.productStore.Search(r.Context(), keyword)
	if err != nil {
		log.Printf("ERROR: Search products store operation for %q failed: %v", keyword, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to search products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondWithJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.productStore.FindByID(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: FindByID store operation for ID %d failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}
	if product == nil {
		respondWithError(w, http.StatusNotFound, "product not found")
		return
	}
	respondWithJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	changes, err := h.productStore.Update(r.Context(), productID, input)
	if err != nil {
		log.Printf("ERROR: Update store operation for ID %d failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}
	if changes.Changes == 0 {
		respondWithError(w, http.StatusNotFound, "product not found")
		return
	}
	respondWithJSON(w, http.StatusOK, changes)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	changes, err := h.productStore.Delete(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: Delete store operation for ID %d failed: %v", productID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if changes.Changes == 0 {
		respondWithError(w, http.StatusNotFound, "product not found")
		return
	}
	respondWithJSON(w, http.StatusOK, changes)
}

// --- Category Handlers ---

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryStore.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: ListCategories store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	respondWithJSON(w, http.StatusOK, categories)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/categories", h.ListCategories)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		r.Get("/search", h.SearchProducts)

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})
}
