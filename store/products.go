package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
)

type ProductRepository struct {
	db     *sql.DB
	logger types.Logger
}

const productColumns = "id, slug, title, vendor_id, collection_id, price_cents, status, created_at, updated_at"

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*types.Product, error) {
	if id == "" {
		return nil, types.ErrEntityIDEmpty
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)

	return scanProduct(row)
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*types.Product, error) {
	if slug == "" {
		return nil, types.ErrInvalidParameter
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE slug = ?", slug)

	return scanProduct(row)
}

// List filters by role scope: vendors see only their own products,
// admins and devs everything, users and anonymous only active listings.
func (r *ProductRepository) List(ctx context.Context, scope types.RoleScope) ([]types.Product, error) {
	query := "SELECT " + productColumns + " FROM products"
	var args []interface{}

	switch {
	case scope.Kind == types.RoleVendor:
		query += " WHERE vendor_id = ?"
		args = append(args, scope.ID)
	case !isPrivileged(scope):
		query += " WHERE status = 'active'"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(err, "failed to list products")
	}
	defer rows.Close()

	var products []types.Product
	for rows.Next() {
		var p types.Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.VendorID, &p.CollectionID, &p.PriceCents, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, types.WrapError(err, "failed to scan product")
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *ProductRepository) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	query := "SELECT COUNT(*) FROM products"
	var args []interface{}

	switch {
	case scope.Kind == types.RoleVendor:
		query += " WHERE vendor_id = ?"
		args = append(args, scope.ID)
	case !isPrivileged(scope):
		query += " WHERE status = 'active'"
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, types.WrapError(err, "failed to count products")
	}

	return count, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *types.Product) (*types.Product, error) {
	if p == nil {
		return nil, types.ErrInvalidParameter
	}

	created := *p
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.Status == "" {
		created.Status = "draft"
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO products ("+productColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		created.ID, created.Slug, created.Title, created.VendorID, created.CollectionID,
		created.PriceCents, created.Status, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create product",
			zap.String("slug", created.Slug), zap.Error(err))
		return nil, types.WrapError(err, "failed to create product")
	}

	return &created, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *types.Product) (*types.Product, error) {
	if p == nil || p.ID == "" {
		return nil, types.ErrEntityIDEmpty
	}

	updated := *p
	updated.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		"UPDATE products SET slug = ?, title = ?, vendor_id = ?, collection_id = ?, price_cents = ?, status = ?, updated_at = ? WHERE id = ?",
		updated.Slug, updated.Title, updated.VendorID, updated.CollectionID,
		updated.PriceCents, updated.Status, updated.UpdatedAt, updated.ID)
	if err != nil {
		r.logger.Error("failed to update product",
			zap.String("id", updated.ID), zap.Error(err))
		return nil, types.WrapError(err, "failed to update product")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, types.ErrEntityNotFound
	}

	return &updated, nil
}

func (r *ProductRepository) SetStatus(ctx context.Context, id, status string) (*types.Product, error) {
	if id == "" {
		return nil, types.ErrEntityIDEmpty
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE products SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("failed to set product status",
			zap.String("id", id), zap.String("status", status), zap.Error(err))
		return nil, types.WrapError(err, "failed to set product status")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, types.ErrEntityNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrEntityIDEmpty
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		r.logger.Error("failed to delete product", zap.String("id", id), zap.Error(err))
		return types.WrapError(err, "failed to delete product")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.ErrEntityNotFound
	}

	return nil
}

func scanProduct(row *sql.Row) (*types.Product, error) {
	var p types.Product
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.VendorID, &p.CollectionID, &p.PriceCents, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if types.IsError(err, sql.ErrNoRows) {
			return nil, types.ErrEntityNotFound
		}
		return nil, types.WrapError(err, "failed to scan product")
	}
	return &p, nil
}
