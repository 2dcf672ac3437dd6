package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
)

type CollectionRepository struct {
	db     *sql.DB
	logger types.Logger
}

const collectionColumns = "id, slug, title, description, published, created_at, updated_at"

func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*types.Collection, error) {
	if id == "" {
		return nil, types.ErrEntityIDEmpty
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+collectionColumns+" FROM collections WHERE id = ?", id)

	return scanCollection(row)
}

func (r *CollectionRepository) GetBySlug(ctx context.Context, slug string) (*types.Collection, error) {
	if slug == "" {
		return nil, types.ErrInvalidParameter
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+collectionColumns+" FROM collections WHERE slug = ?", slug)

	return scanCollection(row)
}

// List filters by role scope: admins and devs see everything, everyone
// else only published collections.
func (r *CollectionRepository) List(ctx context.Context, scope types.RoleScope) ([]types.Collection, error) {
	query := "SELECT " + collectionColumns + " FROM collections"
	if !isPrivileged(scope) {
		query += " WHERE published = 1"
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, types.WrapError(err, "failed to list collections")
	}
	defer rows.Close()

	var collections []types.Collection
	for rows.Next() {
		var c types.Collection
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, types.WrapError(err, "failed to scan collection")
		}
		collections = append(collections, c)
	}

	return collections, rows.Err()
}

func (r *CollectionRepository) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	query := "SELECT COUNT(*) FROM collections"
	if !isPrivileged(scope) {
		query += " WHERE published = 1"
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, types.WrapError(err, "failed to count collections")
	}

	return count, nil
}

func (r *CollectionRepository) Create(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	if c == nil {
		return nil, types.ErrInvalidParameter
	}

	created := *c
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO collections ("+collectionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		created.ID, created.Slug, created.Title, created.Description, created.Published,
		created.CreatedAt, created.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create collection",
			zap.String("slug", created.Slug), zap.Error(err))
		return nil, types.WrapError(err, "failed to create collection")
	}

	return &created, nil
}

func (r *CollectionRepository) Update(ctx context.Context, c *types.Collection) (*types.Collection, error) {
	if c == nil || c.ID == "" {
		return nil, types.ErrEntityIDEmpty
	}

	updated := *c
	updated.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		"UPDATE collections SET slug = ?, title = ?, description = ?, published = ?, updated_at = ? WHERE id = ?",
		updated.Slug, updated.Title, updated.Description, updated.Published,
		updated.UpdatedAt, updated.ID)
	if err != nil {
		r.logger.Error("failed to update collection",
			zap.String("id", updated.ID), zap.Error(err))
		return nil, types.WrapError(err, "failed to update collection")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, types.ErrEntityNotFound
	}

	return &updated, nil
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrEntityIDEmpty
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		r.logger.Error("failed to delete collection", zap.String("id", id), zap.Error(err))
		return types.WrapError(err, "failed to delete collection")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.ErrEntityNotFound
	}

	return nil
}

func scanCollection(row *sql.Row) (*types.Collection, error) {
	var c types.Collection
	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.Published, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if types.IsError(err, sql.ErrNoRows) {
			return nil, types.ErrEntityNotFound
		}
		return nil, types.WrapError(err, "failed to scan collection")
	}
	return &c, nil
}

func isPrivileged(scope types.RoleScope) bool {
	return scope.Kind == types.RoleAdmin || scope.Kind == types.RoleDev
}
