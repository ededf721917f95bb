package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventory-api/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// BrandInferer derives a brand from a product name. ok is false when nothing can be derived.
type BrandInferer func(name string) (brand string, ok bool)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	CreateBatch(ctx context.Context, products []*domain.Product) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	ListActive(ctx context.Context, offset, limit int) ([]*domain.Product, error)
	CountActive(ctx context.Context) (int, error)
	ListActiveLowStock(ctx context.Context, threshold int) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) error
	Deactivate(ctx context.Context, id int64) error
	IncreasePriceByNameMatch(ctx context.Context, fragment string, multiplier decimal.Decimal) (int64, error)
	FillMissingBrands(ctx context.Context, infer BrandInferer) (scanned int, updated int, err error)
}

const productColumns = `id, COALESCE(brand, ''), name, price, stock_quantity, is_active, created_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Brand,
		&product.Name,
		&product.Price,
		&product.StockQuantity,
		&product.IsActive,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.CreatedAt = product.CreatedAt.UTC()
	return product, nil
}

func scanProducts(rows *sql.Rows) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Create inserts a new product and stores the generated ID on it
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (brand, name, price, stock_quantity, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Brand,
		product.Name,
		product.Price,
		product.StockQuantity,
		product.IsActive,
		product.CreatedAt,
	).Scan(&product.ID)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// CreateBatch inserts all products in a single transaction
func (r *productRepository) CreateBatch(ctx context.Context, products []*domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (brand, name, price, stock_quantity, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer stmt.Close()

	for i, product := range products {
		err := stmt.QueryRowContext(
			ctx,
			product.Brand,
			product.Name,
			product.Price,
			product.StockQuantity,
			product.IsActive,
			product.CreatedAt,
		).Scan(&product.ID)
		if err != nil {
			return fmt.Errorf("failed to create product %d of %d: %w", i+1, len(products), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product batch: %w", err)
	}

	return nil
}

// FindByID retrieves a product by ID whether or not it is active
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// ListActive returns a window of active products ordered by ID
func (r *productRepository) ListActive(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// CountActive counts active products
func (r *productRepository) CountActive(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE is_active`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// ListActiveLowStock returns active products whose stock is at or below threshold
func (r *productRepository) ListActiveLowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active AND stock_quantity <= $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Update overwrites the mutable fields of a product and reloads it
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, price = $3, stock_quantity = $4, is_active = $5
		WHERE id = $1
		RETURNING ` + productColumns

	updated, err := scanProduct(r.db.QueryRowContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Price,
		product.StockQuantity,
		product.IsActive,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	*product = *updated
	return nil
}

// Deactivate soft-deletes a product
func (r *productRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// IncreasePriceByNameMatch multiplies the price of every active product whose name
// contains fragment (case-sensitive) in one statement
func (r *productRepository) IncreasePriceByNameMatch(ctx context.Context, fragment string, multiplier decimal.Decimal) (int64, error) {
	query := `
		UPDATE products
		SET price = ROUND(price * $2::numeric, 2)
		WHERE is_active AND strpos(name, $1) > 0
	`

	result, err := r.db.ExecContext(ctx, query, fragment, multiplier)
	if err != nil {
		return 0, fmt.Errorf("failed to increase prices: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// FillMissingBrands sets the brand of every product without one (NULL, empty or the
// default) to the value infer derives from its name. The rows stay locked until commit.
func (r *productRepository) FillMissingBrands(ctx context.Context, infer BrandInferer) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, name
		FROM products
		WHERE brand IS NULL OR brand = '' OR brand = $1
		ORDER BY id ASC
		FOR UPDATE
	`, domain.DefaultBrand)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to select products without brand: %w", err)
	}

	type candidate struct {
		id   int64
		name string
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.name); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, 0, fmt.Errorf("error iterating products: %w", err)
	}
	rows.Close()

	if len(candidates) == 0 {
		return 0, 0, nil
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE products SET brand = $2 WHERE id = $1`)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to prepare brand update: %w", err)
	}
	defer stmt.Close()

	updated := 0
	for _, c := range candidates {
		brand, ok := infer(c.name)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, c.id, brand); err != nil {
			return 0, 0, fmt.Errorf("failed to update brand of product %d: %w", c.id, err)
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit brand updates: %w", err)
	}

	return len(candidates), updated, nil
}
