package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"inventory-api/internal/domain"
	"inventory-api/internal/middleware"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultPriceIncreasePercentage applies when no percentage is given
var DefaultPriceIncreasePercentage = decimal.NewFromInt(5)

// CreateProductRequest represents the product creation payload. Price and stock are
// pointers so that an explicit zero is accepted while a missing field is not.
type CreateProductRequest struct {
	Brand         string           `json:"brand" validate:"omitempty,max=50"`
	Name          string           `json:"name" validate:"required,notblank,max=100"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	StockQuantity *int             `json:"stockQuantity" validate:"required"`
}

func (r CreateProductRequest) toInput() service.CreateProductInput {
	return service.CreateProductInput{
		Brand:         r.Brand,
		Name:          r.Name,
		Price:         *r.Price,
		StockQuantity: *r.StockQuantity,
	}
}

// UpdateProductRequest represents the full product update payload
type UpdateProductRequest struct {
	Name          string           `json:"name" validate:"required,notblank,max=100"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	StockQuantity *int             `json:"stockQuantity" validate:"required"`
	IsActive      *bool            `json:"isActive" validate:"required"`
}

// MessageResponse is returned by operations that report a summary
type MessageResponse struct {
	Message string `json:"message"`
}

// BulkCreateResponse reports how many products a bulk insert stored
type BulkCreateResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// PriceIncreaseResponse summarizes a price increase
type PriceIncreaseResponse struct {
	Message            string `json:"message"`
	BrandTargeted      string `json:"brandTargeted"`
	IncreasePercentage string `json:"increasePercentage"`
	AffectedRows       int64  `json:"affectedRows"`
}

// BrandFixResponse summarizes a brand backfill
type BrandFixResponse struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes. writeGate wraps every mutating route,
// bulkLimit additionally wraps the set-based operations.
func (h *ProductHandler) RegisterRoutes(r chi.Router, writeGate, bulkLimit func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		// Public routes
		r.Get("/", h.ListProducts)
		r.Get("/low-stock", h.GetLowStockAlert)
		r.Get("/{id}", h.GetProduct)

		// Mutating routes
		r.Group(func(r chi.Router) {
			r.Use(writeGate)
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)

			r.Group(func(r chi.Router) {
				r.Use(bulkLimit)
				r.Post("/bulk-create", h.BulkCreateProducts)
				r.Post("/increase-price-by-brand", h.IncreasePriceByBrand)
				r.Post("/auto-fix-brands", h.AutoFixBrands)
			})
		})
	})
}

// CreateProduct handles single product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.respondDecodeError(w, "Create product validation failed", err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		h.respondServiceError(w, r, "Failed to create product", err)
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID))
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// BulkCreateProducts handles batch creation; either every product is stored or none
func (h *ProductHandler) BulkCreateProducts(w http.ResponseWriter, r *http.Request) {
	reqs, err := middleware.DecodeAndValidateList[CreateProductRequest](r)
	if err != nil {
		h.respondDecodeError(w, "Bulk create validation failed", err)
		return
	}

	inputs := make([]service.CreateProductInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, req.toInput())
	}

	result, err := h.productService.BulkCreateProducts(r.Context(), inputs)
	if err != nil {
		h.respondServiceError(w, r, "Failed to create products", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BulkCreateResponse{
		Message: fmt.Sprintf("%d products added successfully!", result.Count),
		Count:   result.Count,
	})
}

// ListProducts handles paginated listing of active products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	// unparsable values coerce to the defaults
	pageNumber, _ := strconv.Atoi(r.URL.Query().Get("pageNumber"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	page, err := h.productService.ListActiveProducts(r.Context(), pageNumber, pageSize)
	if err != nil {
		h.respondServiceError(w, r, "Failed to list products", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// GetProduct handles fetching one active product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.productService.GetProductByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, "Failed to get product", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// UpdateProduct handles a full update, which may also reactivate a product
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.respondDecodeError(w, "Update product validation failed", err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:          req.Name,
		Price:         *req.Price,
		StockQuantity: *req.StockQuantity,
		IsActive:      *req.IsActive,
	})
	if err != nil {
		h.respondServiceError(w, r, "Failed to update product", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct handles soft deletion
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		h.respondServiceError(w, r, "Failed to delete product", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLowStockAlert handles listing active products at or below a stock threshold
func (h *ProductHandler) GetLowStockAlert(w http.ResponseWriter, r *http.Request) {
	threshold := domain.DefaultLowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "threshold must be an integer")
			return
		}
		threshold = parsed
	}

	alert, err := h.productService.GetLowStockAlert(r.Context(), threshold)
	if err != nil {
		h.respondServiceError(w, r, "Failed to build low stock alert", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, alert)
}

// IncreasePriceByBrand handles the set-based price increase
func (h *ProductHandler) IncreasePriceByBrand(w http.ResponseWriter, r *http.Request) {
	brand := r.URL.Query().Get("brand")

	percentage := DefaultPriceIncreasePercentage
	if raw := r.URL.Query().Get("percentage"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "percentage must be a number")
			return
		}
		percentage = parsed
	}

	result, err := h.productService.IncreasePriceByBrand(r.Context(), brand, percentage)
	if err != nil {
		if errors.Is(err, service.ErrNoMatchingProducts) {
			middleware.RespondWithError(w, http.StatusNotFound,
				fmt.Sprintf("No active products found containing the brand name '%s'.", brand))
			return
		}
		h.respondServiceError(w, r, "Failed to increase prices", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PriceIncreaseResponse{
		Message:            fmt.Sprintf("Successfully updated %d products.", result.AffectedRows),
		BrandTargeted:      result.Brand,
		IncreasePercentage: result.Percentage.String() + "%",
		AffectedRows:       result.AffectedRows,
	})
}

// AutoFixBrands handles the brand backfill
func (h *ProductHandler) AutoFixBrands(w http.ResponseWriter, r *http.Request) {
	result, err := h.productService.AutoFixBrands(r.Context())
	if err != nil {
		h.respondServiceError(w, r, "Failed to fix brands", err)
		return
	}

	if result.Scanned == 0 {
		middleware.RespondWithJSON(w, http.StatusOK, MessageResponse{
			Message: "No products found that need a brand update.",
		})
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, BrandFixResponse{
		Message: fmt.Sprintf("Successfully updated brands for %d products.", result.Updated),
		Updated: result.Updated,
	})
}

func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.logger.Debug("Invalid product id", zap.String("id", chi.URLParam(r, "id")))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

func (h *ProductHandler) respondDecodeError(w http.ResponseWriter, msg string, err error) {
	h.logger.Debug(msg, zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

func (h *ProductHandler) respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		middleware.RespondWithError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrNoMatchingProducts):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(msg,
			zap.Error(err),
			zap.String("path", r.URL.Path),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
