package domain

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProperty_TotalPagesIsCeilingOfQuotient(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("totalPages * pageSize covers totalCount with less than one spare page", prop.ForAll(
		func(totalCount int, pageSize int) bool {
			pages := TotalPages(totalCount, pageSize)
			if pages*pageSize < totalCount {
				return false
			}
			if totalCount == 0 {
				return pages == 0
			}
			return (pages-1)*pageSize < totalCount
		},
		gen.IntRange(0, 100000),
		gen.IntRange(1, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_NormalizePaginationNeverReturnsInvalidValues(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("page number and size are always at least one", prop.ForAll(
		func(pageNumber int, pageSize int) bool {
			page, size := NormalizePagination(pageNumber, pageSize)
			if page < 1 || size < 1 {
				return false
			}
			if pageNumber >= 1 && page != pageNumber {
				return false
			}
			if pageSize >= 1 && size != pageSize {
				return false
			}
			return true
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNormalizePagination(t *testing.T) {
	page, size := NormalizePagination(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	page, size = NormalizePagination(3, 25)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, size)

	assert.Equal(t, 0, PageOffset(1, 10))
	assert.Equal(t, 20, PageOffset(3, 10))
}

func TestLowStockClassification(t *testing.T) {
	testCases := []struct {
		stock     int
		status    string
		urgency   string
		threshold int
	}{
		{stock: 0, status: StockStatusOutOfStock, urgency: ReorderUrgencyHigh, threshold: 5},
		{stock: 2, status: StockStatusLowStock, urgency: ReorderUrgencyHigh, threshold: 5},
		{stock: 3, status: StockStatusLowStock, urgency: ReorderUrgencyMedium, threshold: 5},
		{stock: 5, status: StockStatusLowStock, urgency: ReorderUrgencyMedium, threshold: 5},
		{stock: 0, status: StockStatusOutOfStock, urgency: ReorderUrgencyHigh, threshold: 1},
		{stock: 1, status: StockStatusLowStock, urgency: ReorderUrgencyMedium, threshold: 1},
	}

	for _, tc := range testCases {
		item := NewLowStockItem(&Product{ID: 1, Name: "Widget", StockQuantity: tc.stock}, tc.threshold)
		assert.Equal(t, tc.status, item.Status, "stock %d", tc.stock)
		assert.Equal(t, tc.urgency, item.ReorderUrgency, "stock %d threshold %d", tc.stock, tc.threshold)
	}
}

func TestInferBrand(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "first word", input: "Sony WH-1000", expected: "Sony", ok: true},
		{name: "leading spaces", input: "   Samsung Galaxy A54", expected: "Samsung", ok: true},
		{name: "tabs between words", input: "Apple\tiPhone", expected: "Apple", ok: true},
		{name: "single word", input: "Logitech", expected: "Logitech", ok: true},
		{name: "empty", input: "", expected: "", ok: false},
		{name: "whitespace only", input: " \t ", expected: "", ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			brand, ok := InferBrand(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, brand)
		})
	}
}

func TestInferBrandTruncatesToColumnWidth(t *testing.T) {
	brand, ok := InferBrand(strings.Repeat("x", 80) + " model")
	assert.True(t, ok)
	assert.Len(t, brand, MaxBrandLength)
}

func TestProperty_InferredBrandIsPrefixOfName(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("inferred brand is the first word of the name", prop.ForAll(
		func(first string, rest string) bool {
			brand, ok := InferBrand("  " + first + " " + rest)
			return ok && brand == first
		},
		gen.RegexMatch(`[A-Za-z0-9-]{1,20}`),
		gen.RegexMatch(`[A-Za-z0-9 ]{0,40}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNeedsBrandAndDefault(t *testing.T) {
	assert.True(t, NeedsBrand(""))
	assert.True(t, NeedsBrand(DefaultBrand))
	assert.False(t, NeedsBrand("unknown"))
	assert.False(t, NeedsBrand("Sony"))

	assert.Equal(t, DefaultBrand, BrandOrDefault(""))
	assert.Equal(t, DefaultBrand, BrandOrDefault("  "))
	assert.Equal(t, "Sony", BrandOrDefault("Sony"))
}

func TestPriceMultiplier(t *testing.T) {
	assert.True(t, PriceMultiplier(decimal.NewFromInt(5)).Equal(decimal.RequireFromString("1.05")))
	assert.True(t, PriceMultiplier(decimal.NewFromInt(10)).Equal(decimal.RequireFromString("1.1")))
	assert.True(t, PriceMultiplier(decimal.Zero).Equal(decimal.NewFromInt(1)))

	increased := decimal.RequireFromString("100.00").Mul(PriceMultiplier(decimal.NewFromInt(10)))
	assert.Equal(t, "110.00", increased.StringFixed(2))
}
