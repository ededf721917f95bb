package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBrand is stored when a product is created without a brand
	DefaultBrand = "Unknown"

	// MaxBrandLength matches the width of the brand column
	MaxBrandLength = 50

	DefaultPageNumber = 1
	DefaultPageSize   = 10

	// DefaultLowStockThreshold is used when the caller does not supply one
	DefaultLowStockThreshold = 5
)

// Stock statuses reported by the low-stock alert
const (
	StockStatusOutOfStock = "out of stock"
	StockStatusLowStock   = "low stock"
)

// Reorder urgencies reported by the low-stock alert
const (
	ReorderUrgencyHigh   = "high"
	ReorderUrgencyMedium = "medium"
)

// Product represents an inventory item
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Brand         string          `json:"brand" db:"brand"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	IsActive      bool            `json:"isActive" db:"is_active"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// ProductPage is one page of active products with its pagination envelope
type ProductPage struct {
	TotalCount int        `json:"totalCount"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
	Data       []*Product `json:"data"`
}

// LowStockItem is the projection of a product returned by the low-stock alert
type LowStockItem struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	StockQuantity  int    `json:"stockQuantity"`
	Status         string `json:"status"`
	ReorderUrgency string `json:"reorderUrgency"`
}

// LowStockAlert lists active products at or below a stock threshold
type LowStockAlert struct {
	AlertCount    int            `json:"alertCount"`
	ThresholdUsed int            `json:"thresholdUsed"`
	Products      []LowStockItem `json:"products"`
	Timestamp     time.Time      `json:"timestamp"`
}

// BulkCreateResult reports how many products a batch insert stored
type BulkCreateResult struct {
	Count int `json:"count"`
}

// PriceIncreaseResult reports the outcome of a brand price increase
type PriceIncreaseResult struct {
	AffectedRows int64           `json:"affectedRows"`
	Brand        string          `json:"brand"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// BrandFixResult reports the outcome of a brand backfill.
// Scanned is the number of products that lacked a brand, Updated the number that received one.
type BrandFixResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
}

// NormalizePagination coerces out-of-range paging input to the defaults
func NormalizePagination(pageNumber, pageSize int) (int, int) {
	if pageNumber < 1 {
		pageNumber = DefaultPageNumber
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return pageNumber, pageSize
}

// PageOffset returns the number of rows to skip before the given page
func PageOffset(pageNumber, pageSize int) int {
	return (pageNumber - 1) * pageSize
}

// TotalPages returns ceil(totalCount / pageSize)
func TotalPages(totalCount, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(pageSize)))
}

// StockStatus classifies a stock level for the low-stock alert
func StockStatus(stockQuantity int) string {
	if stockQuantity == 0 {
		return StockStatusOutOfStock
	}
	return StockStatusLowStock
}

// ReorderUrgency is high when stock is at or below half the threshold (integer division)
func ReorderUrgency(stockQuantity, threshold int) string {
	if stockQuantity <= threshold/2 {
		return ReorderUrgencyHigh
	}
	return ReorderUrgencyMedium
}

// NewLowStockItem projects a product into a low-stock alert entry
func NewLowStockItem(p *Product, threshold int) LowStockItem {
	return LowStockItem{
		ID:             p.ID,
		Name:           p.Name,
		StockQuantity:  p.StockQuantity,
		Status:         StockStatus(p.StockQuantity),
		ReorderUrgency: ReorderUrgency(p.StockQuantity, threshold),
	}
}

// NeedsBrand reports whether a stored brand should be backfilled
func NeedsBrand(brand string) bool {
	return brand == "" || brand == DefaultBrand
}

// InferBrand takes the first whitespace-delimited word of the product name.
// ok is false when the name has no words.
func InferBrand(name string) (brand string, ok bool) {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "", false
	}

	brand = fields[0]
	if utf8.RuneCountInString(brand) > MaxBrandLength {
		brand = string([]rune(brand)[:MaxBrandLength])
	}
	return brand, true
}

// BrandOrDefault returns DefaultBrand for a blank brand
func BrandOrDefault(brand string) string {
	if strings.TrimSpace(brand) == "" {
		return DefaultBrand
	}
	return brand
}

// PriceMultiplier converts a percentage increase into a multiplier, 5 -> 1.05
func PriceMultiplier(percentage decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(percentage.Div(decimal.NewFromInt(100)))
}
