/**
 * @description
 * This file contains the HTTP handlers for the merchant's product catalog:
 * create, list, fetch, update, delete, and publish/unpublish toggling. Every
 * handler runs behind the bearer-auth middleware and scopes its queries to
 * the authenticated merchant, so ownership checks live in the store queries.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/domain, internal/store: For models and data access.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/productr/merchant-service/internal/domain"
	"github.com/productr/merchant-service/internal/store"
)

// ProductHandlers holds the repository used by the catalog handlers.
type ProductHandlers struct {
	repo store.ProductRepository
}

// NewProductHandlers creates a new set of product handlers.
func NewProductHandlers(repo store.ProductRepository) *ProductHandlers {
	return &ProductHandlers{repo: repo}
}

type productResponse struct {
	Message string          `json:"message"`
	Product *domain.Product `json:"product,omitempty"`
}

// CreateProductHandler handles POST /api/products.
func (h *ProductHandlers) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	var req domain.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductName == "" || req.ProductType == "" {
		writeError(w, http.StatusBadRequest, "Product name and type are required")
		return
	}

	product := &domain.Product{
		UserID:         userID,
		ProductName:    req.ProductName,
		ProductType:    req.ProductType,
		QuantityStock:  req.QuantityStock,
		MRP:            req.MRP,
		SellingPrice:   req.SellingPrice,
		BrandName:      req.BrandName,
		Images:         req.Images,
		ExchangeReturn: req.ExchangeReturn,
		Status:         domain.ProductUnpublished,
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.ExchangeReturn == "" {
		product.ExchangeReturn = "Yes"
	}

	productID, err := h.repo.Create(r.Context(), product)
	if err != nil {
		log.Printf("Create product error: %v", err)
		writeError(w, http.StatusInternalServerError, "Product creation failed")
		return
	}

	created, err := h.repo.FindByID(r.Context(), productID, userID)
	if err != nil {
		log.Printf("Failed to load created product %s: %v", productID, err)
		writeError(w, http.StatusInternalServerError, "Product creation failed")
		return
	}

	writeJSON(w, http.StatusCreated, productResponse{Message: "Product created", Product: created})
}

// ListProductsHandler handles GET /api/products.
func (h *ProductHandlers) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	products, err := h.repo.ListByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProductHandler handles GET /api/products/{id}.
func (h *ProductHandlers) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	product, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// UpdateProductHandler handles PUT /api/products/{id}. Absent fields keep
// their stored values.
func (h *ProductHandlers) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	var req domain.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Product update failed")
		return
	}

	if err := applyProductUpdate(product, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Update(r.Context(), product); err != nil {
		log.Printf("Update product error: %v", err)
		writeError(w, http.StatusInternalServerError, "Product update failed")
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Message: "Product updated", Product: product})
}

// DeleteProductHandler handles DELETE /api/products/{id}.
func (h *ProductHandlers) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	err := h.repo.Delete(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Product deletion failed")
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Message: "Product deleted"})
}

// ToggleStatusHandler handles PATCH /api/products/{id}/toggle-status.
func (h *ProductHandlers) ToggleStatusHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	product, err := h.repo.FindByID(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Status update failed")
		return
	}

	product.ToggleStatus()

	if err := h.repo.Update(r.Context(), product); err != nil {
		log.Printf("Toggle product status error: %v", err)
		writeError(w, http.StatusInternalServerError, "Status update failed")
		return
	}

	writeJSON(w, http.StatusOK, productResponse{Message: "Product status updated", Product: product})
}

// applyProductUpdate copies the provided fields onto the stored product.
func applyProductUpdate(product *domain.Product, req *domain.UpdateProductRequest) error {
	if req.ProductName != nil && *req.ProductName != "" {
		product.ProductName = *req.ProductName
	}
	if req.ProductType != nil && *req.ProductType != "" {
		product.ProductType = *req.ProductType
	}
	if req.QuantityStock != nil {
		product.QuantityStock = *req.QuantityStock
	}
	if req.MRP != nil {
		product.MRP = *req.MRP
	}
	if req.SellingPrice != nil {
		product.SellingPrice = *req.SellingPrice
	}
	if req.BrandName != nil && *req.BrandName != "" {
		product.BrandName = *req.BrandName
	}
	if req.Images != nil {
		product.Images = *req.Images
	}
	if req.ExchangeReturn != nil && *req.ExchangeReturn != "" {
		product.ExchangeReturn = *req.ExchangeReturn
	}
	if req.Status != nil && *req.Status != "" {
		status := domain.ProductStatus(*req.Status)
		if status != domain.ProductPublished && status != domain.ProductUnpublished {
			return errors.New("Status must be either published or unpublished")
		}
		product.Status = status
	}
	return nil
}
