package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deshiwear/storefront/internal/entities"
	"github.com/deshiwear/storefront/internal/repo"
	"github.com/deshiwear/storefront/pkg/trm"

	"github.com/google/uuid"
)

type ProductRepo interface {
	ListProducts(ctx context.Context, f repo.ProductFilter) ([]entities.Product, int, error)
	GetProductByID(ctx context.Context, id string) (entities.Product, error)
	CreateProduct(ctx context.Context, p entities.Product) error
	UpdateProduct(ctx context.Context, p entities.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type catalogService struct {
	logger    *slog.Logger
	txManager trm.Manager
	products  ProductRepo
}

func NewCatalogService(logger *slog.Logger, txManager trm.Manager, products ProductRepo) *catalogService {
	return &catalogService{
		logger:    logger.With(slog.String("service", "catalog")),
		txManager: txManager,
		products:  products,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, f repo.ProductFilter) ([]entities.Product, int, error) {
	return s.products.ListProducts(ctx, f)
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (entities.Product, error) {
	return s.products.GetProductByID(ctx, id)
}

func (s *catalogService) CreateProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	p.ID = uuid.NewString()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.TotalSales = 0

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.products.CreateProduct(ctx, p)
	})
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Debug("product created", slog.String("product_id", p.ID))
	return p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	p.UpdatedAt = time.Now()

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		return s.products.UpdateProduct(ctx, p)
	})
	if err != nil {
		return entities.Product{}, err
	}

	return s.products.GetProductByID(ctx, p.ID)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.DeleteProduct(ctx, id)
}
