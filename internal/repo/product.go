package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/deshiwear/storefront/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var productColumns = []string{
	"id", "name_en", "name_bn", "description_en", "description_bn",
	"price", "original_price", "category", "images", "colors",
	"featured", "active", "total_sales", "rating", "created_at", "updated_at",
}

type ProductFilter struct {
	Category     string
	FeaturedOnly bool
	ActiveOnly   bool
	Limit        uint64
	Offset       uint64
}

type productRepo struct {
	database
}

func NewProductRepo(db *sqlx.DB) *productRepo {
	return &productRepo{database: newDatabase(db)}
}

func (r *productRepo) ListProducts(ctx context.Context, f ProductFilter) ([]entities.Product, int, error) {
	where := sq.And{}
	if f.Category != "" {
		where = append(where, sq.Eq{"category": f.Category})
	}
	if f.FeaturedOnly {
		where = append(where, sq.Eq{"featured": true})
	}
	if f.ActiveOnly {
		where = append(where, sq.Eq{"active": true})
	}

	q := r.qb.Select(productColumns...).
		From("products").
		OrderBy("created_at DESC")
	if len(where) > 0 {
		q = q.Where(where)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	query, args := q.MustSql()

	var products []Product
	if err := r.selectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select products: %w", err)
	}

	cq := r.qb.Select("COUNT(*)").From("products")
	if len(where) > 0 {
		cq = cq.Where(where)
	}
	query, args = cq.MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if len(products) == 0 {
		return []entities.Product{}, total, nil
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	sizes, err := r.loadSizes(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductToEntity(p, sizes[p.ID]))
	}
	return result, total, nil
}

func (r *productRepo) GetProductByID(ctx context.Context, id string) (entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}

	sizes, err := r.loadSizes(ctx, []string{id})
	if err != nil {
		return entities.Product{}, err
	}

	return ProductToEntity(product, sizes[id]), nil
}

func (r *productRepo) CreateProduct(ctx context.Context, p entities.Product) error {
	query, args := r.qb.Insert("products").
		Columns(productColumns...).
		Values(
			p.ID, p.Name.EN, p.Name.BN, nullString(p.Description.EN), nullString(p.Description.BN),
			p.Price, nullInt64(p.OriginalPrice), p.Category, pq.StringArray(p.Images), pq.StringArray(p.Colors),
			p.Featured, p.Active, p.TotalSales, nullFloat64(p.Rating), p.CreatedAt, p.UpdatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return r.replaceSizes(ctx, p.ID, p.Sizes, false)
}

func (r *productRepo) UpdateProduct(ctx context.Context, p entities.Product) error {
	query, args := r.qb.Update("products").
		SetMap(map[string]any{
			"name_en":        p.Name.EN,
			"name_bn":        p.Name.BN,
			"description_en": nullString(p.Description.EN),
			"description_bn": nullString(p.Description.BN),
			"price":          p.Price,
			"original_price": nullInt64(p.OriginalPrice),
			"category":       p.Category,
			"images":         pq.StringArray(p.Images),
			"colors":         pq.StringArray(p.Colors),
			"featured":       p.Featured,
			"active":         p.Active,
			"updated_at":     p.UpdatedAt,
		}).
		Where(sq.Eq{"id": p.ID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ErrProductNotFound
	}

	return r.replaceSizes(ctx, p.ID, p.Sizes, true)
}

func (r *productRepo) DeleteProduct(ctx context.Context, id string) error {
	query, args := r.qb.Delete("products").Where(sq.Eq{"id": id}).MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}

// ApplySale decrements per-size stock and increments the sales counter for
// one confirmed line item. The decrement is guarded so stock never goes
// negative even if availability changed since the order was assembled.
func (r *productRepo) ApplySale(ctx context.Context, productID, size string, quantity int) error {
	query, args := r.qb.Update("product_sizes").
		Set("stock", sq.Expr("stock - ?", quantity)).
		Where(sq.And{
			sq.Eq{"product_id": productID, "size": size},
			sq.GtOrEq{"stock": quantity},
		}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entities.ErrInsufficientStock
	}

	query, args = r.qb.Update("products").
		Set("total_sales", sq.Expr("total_sales + ?", quantity)).
		Where(sq.Eq{"id": productID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to increment sales: %w", err)
	}
	return nil
}

func (r *productRepo) loadSizes(ctx context.Context, ids []string) (map[string][]ProductSize, error) {
	query, args := r.qb.Select("product_id", "size", "stock", "position").
		From("product_sizes").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("product_id", "position").
		MustSql()

	var sizes []ProductSize
	if err := r.selectContext(ctx, &sizes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select sizes: %w", err)
	}

	out := make(map[string][]ProductSize, len(ids))
	for _, s := range sizes {
		out[s.ProductID] = append(out[s.ProductID], s)
	}
	return out, nil
}

func (r *productRepo) replaceSizes(ctx context.Context, productID string, sizes []entities.SizeStock, purge bool) error {
	if purge {
		query, args := r.qb.Delete("product_sizes").
			Where(sq.Eq{"product_id": productID}).
			MustSql()
		if _, err := r.execContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to delete sizes: %w", err)
		}
	}

	if len(sizes) == 0 {
		return nil
	}

	q := r.qb.Insert("product_sizes").Columns("product_id", "size", "stock", "position")
	for i, s := range sizes {
		q = q.Values(productID, s.Size, s.Stock, i)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert sizes: %w", err)
	}
	return nil
}
