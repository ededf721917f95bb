package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PriceScale is the number of fractional digits stored for prices
const PriceScale = 2

var (
	ErrNoMatchingProducts = errors.New("no active products match the brand")
)

// ValidationError is returned for missing or blank required input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CreateProductInput carries the fields of a new product. A blank Brand becomes domain.DefaultBrand.
type CreateProductInput struct {
	Brand         string
	Name          string
	Price         decimal.Decimal
	StockQuantity int
}

// UpdateProductInput replaces every mutable field of a product
type UpdateProductInput struct {
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	IsActive      bool
}

// ProductService defines the interface for product business logic
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	BulkCreateProducts(ctx context.Context, inputs []CreateProductInput) (*domain.BulkCreateResult, error)
	ListActiveProducts(ctx context.Context, pageNumber, pageSize int) (*domain.ProductPage, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetLowStockAlert(ctx context.Context, threshold int) (*domain.LowStockAlert, error)
	IncreasePriceByBrand(ctx context.Context, brand string, percentage decimal.Decimal) (*domain.PriceIncreaseResult, error)
	AutoFixBrands(ctx context.Context) (*domain.BrandFixResult, error)
}

type productService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *productService) newProduct(input CreateProductInput, createdAt time.Time) *domain.Product {
	return &domain.Product{
		Brand:         domain.BrandOrDefault(input.Brand),
		Name:          input.Name,
		Price:         input.Price.Round(PriceScale),
		StockQuantity: input.StockQuantity,
		IsActive:      true,
		CreatedAt:     createdAt,
	}
}

// CreateProduct stores a new active product
func (s *productService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	product := s.newProduct(input, s.now())

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return product, nil
}

// BulkCreateProducts stores every product in one batch; either all are stored or none
func (s *productService) BulkCreateProducts(ctx context.Context, inputs []CreateProductInput) (*domain.BulkCreateResult, error) {
	if len(inputs) == 0 {
		return nil, &ValidationError{Message: "The product list is empty."}
	}

	createdAt := s.now()
	products := make([]*domain.Product, 0, len(inputs))
	for _, input := range inputs {
		products = append(products, s.newProduct(input, createdAt))
	}

	if err := s.productRepo.CreateBatch(ctx, products); err != nil {
		return nil, fmt.Errorf("failed to create products: %w", err)
	}

	s.logger.Info("Products created in bulk", zap.Int("count", len(products)))

	return &domain.BulkCreateResult{Count: len(products)}, nil
}

// ListActiveProducts returns one page of active products ordered by ID
func (s *productService) ListActiveProducts(ctx context.Context, pageNumber, pageSize int) (*domain.ProductPage, error) {
	pageNumber, pageSize = domain.NormalizePagination(pageNumber, pageSize)

	total, err := s.productRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	products, err := s.productRepo.ListActive(ctx, domain.PageOffset(pageNumber, pageSize), pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if products == nil {
		products = []*domain.Product{}
	}

	return &domain.ProductPage{
		TotalCount: total,
		Page:       pageNumber,
		PageSize:   pageSize,
		TotalPages: domain.TotalPages(total, pageSize),
		Data:       products,
	}, nil
}

// GetProductByID returns an active product. Inactive products are reported as not found.
func (s *productService) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if !product.IsActive {
		return nil, repository.ErrProductNotFound
	}

	return product, nil
}

// UpdateProduct overwrites name, price, stock and active flag of any product
func (s *productService) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*domain.Product, error) {
	product := &domain.Product{
		ID:            id,
		Name:          input.Name,
		Price:         input.Price.Round(PriceScale),
		StockQuantity: input.StockQuantity,
		IsActive:      input.IsActive,
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return product, nil
}

// DeleteProduct marks a product inactive
func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.productRepo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return repository.ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deactivated", zap.Int64("product_id", id))
	return nil
}

// GetLowStockAlert lists active products with stock at or below threshold
func (s *productService) GetLowStockAlert(ctx context.Context, threshold int) (*domain.LowStockAlert, error) {
	products, err := s.productRepo.ListActiveLowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}

	items := make([]domain.LowStockItem, 0, len(products))
	for _, product := range products {
		items = append(items, domain.NewLowStockItem(product, threshold))
	}

	return &domain.LowStockAlert{
		AlertCount:    len(items),
		ThresholdUsed: threshold,
		Products:      items,
		Timestamp:     s.now(),
	}, nil
}

// IncreasePriceByBrand raises the price of every active product whose name contains brand
func (s *productService) IncreasePriceByBrand(ctx context.Context, brand string, percentage decimal.Decimal) (*domain.PriceIncreaseResult, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, &ValidationError{Message: "Brand name is required."}
	}

	affected, err := s.productRepo.IncreasePriceByNameMatch(ctx, brand, domain.PriceMultiplier(percentage))
	if err != nil {
		return nil, fmt.Errorf("failed to increase prices: %w", err)
	}

	if affected == 0 {
		return nil, ErrNoMatchingProducts
	}

	s.logger.Info("Prices increased",
		zap.String("brand", brand),
		zap.String("percentage", percentage.String()),
		zap.Int64("affected_rows", affected),
	)

	return &domain.PriceIncreaseResult{
		AffectedRows: affected,
		Brand:        brand,
		Percentage:   percentage,
	}, nil
}

// AutoFixBrands fills missing brands from the first word of the product name
func (s *productService) AutoFixBrands(ctx context.Context) (*domain.BrandFixResult, error) {
	scanned, updated, err := s.productRepo.FillMissingBrands(ctx, domain.InferBrand)
	if err != nil {
		return nil, fmt.Errorf("failed to fix brands: %w", err)
	}

	if scanned > 0 {
		s.logger.Info("Brands backfilled", zap.Int("scanned", scanned), zap.Int("updated", updated))
	}

	return &domain.BrandFixResult{Scanned: scanned, Updated: updated}, nil
}
