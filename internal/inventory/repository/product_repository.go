package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStock is the slice of the products table the inventory service
// needs to seed its counters.
type ProductStock struct {
	ProductID    string `db:"id"`
	Name         string `db:"name"`
	CurrentStock int64  `db:"current_stock"`
}

type ProductRepository interface {
	ListProductStocks(ctx context.Context) ([]ProductStock, error)
	GetProductName(ctx context.Context, productID string) (string, error)
}

type productRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("inventory_product_repository"),
	}
}

func (r *productRepo) ListProductStocks(ctx context.Context) ([]ProductStock, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ListProductStocks")
	defer span.End()

	query := `
		SELECT id, name, current_stock
		FROM products
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []ProductStock
	for rows.Next() {
		var p ProductStock
		if err := rows.Scan(&p.ProductID, &p.Name, &p.CurrentStock); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning product: %w", err)
		}

		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return result, nil
}

func (r *productRepo) GetProductName(ctx context.Context, productID string) (string, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetProductName")
	defer span.End()

	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM products WHERE id = $1`, productID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrProductNotFound
	}
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to query product name: %w", err)
	}

	return name, nil
}
