package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saiset-co/sai-storecache/types"
)

type InvitationRepository struct {
	db     *sql.DB
	logger types.Logger
}

const invitationColumns = "id, email, vendor_name, status, created_at, updated_at"

var invitationTransitions = map[string][]string{
	types.InvitationPending:  {types.InvitationAccepted, types.InvitationDeclined, types.InvitationRevoked},
	types.InvitationAccepted: {types.InvitationRevoked},
	types.InvitationDeclined: {},
	types.InvitationRevoked:  {},
}

func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*types.VendorInvitation, error) {
	if id == "" {
		return nil, types.ErrEntityIDEmpty
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+invitationColumns+" FROM vendor_invitations WHERE id = ?", id)

	return scanInvitation(row)
}

// List is admin-only data except for vendor scope, which sees
// invitations addressed to its own vendor name.
func (r *InvitationRepository) List(ctx context.Context, scope types.RoleScope) ([]types.VendorInvitation, error) {
	query := "SELECT " + invitationColumns + " FROM vendor_invitations"
	var args []interface{}

	if scope.Kind == types.RoleVendor {
		query += " WHERE vendor_name = ?"
		args = append(args, scope.ID)
	} else if !isPrivileged(scope) {
		return nil, nil
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(err, "failed to list invitations")
	}
	defer rows.Close()

	var invitations []types.VendorInvitation
	for rows.Next() {
		var inv types.VendorInvitation
		if err := rows.Scan(&inv.ID, &inv.Email, &inv.VendorName, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, types.WrapError(err, "failed to scan invitation")
		}
		invitations = append(invitations, inv)
	}

	return invitations, rows.Err()
}

func (r *InvitationRepository) Count(ctx context.Context, scope types.RoleScope) (int64, error) {
	query := "SELECT COUNT(*) FROM vendor_invitations"
	var args []interface{}

	if scope.Kind == types.RoleVendor {
		query += " WHERE vendor_name = ?"
		args = append(args, scope.ID)
	} else if !isPrivileged(scope) {
		return 0, nil
	}

	var count int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, types.WrapError(err, "failed to count invitations")
	}

	return count, nil
}

func (r *InvitationRepository) Create(ctx context.Context, inv *types.VendorInvitation) (*types.VendorInvitation, error) {
	if inv == nil {
		return nil, types.ErrInvalidParameter
	}

	created := *inv
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.Status == "" {
		created.Status = types.InvitationPending
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO vendor_invitations ("+invitationColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		created.ID, created.Email, created.VendorName, created.Status,
		created.CreatedAt, created.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create invitation",
			zap.String("email", created.Email), zap.Error(err))
		return nil, types.WrapError(err, "failed to create invitation")
	}

	return &created, nil
}

func (r *InvitationRepository) SetStatus(ctx context.Context, id, status string) (*types.VendorInvitation, error) {
	if id == "" {
		return nil, types.ErrEntityIDEmpty
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(current.Status, status) {
		return nil, types.Errorf(types.ErrInvalidStatus, "%s -> %s", current.Status, status)
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE vendor_invitations SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("failed to set invitation status",
			zap.String("id", id), zap.String("status", status), zap.Error(err))
		return nil, types.WrapError(err, "failed to set invitation status")
	}

	return r.GetByID(ctx, id)
}

func (r *InvitationRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrEntityIDEmpty
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM vendor_invitations WHERE id = ?", id)
	if err != nil {
		r.logger.Error("failed to delete invitation", zap.String("id", id), zap.Error(err))
		return types.WrapError(err, "failed to delete invitation")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return types.ErrEntityNotFound
	}

	return nil
}

func scanInvitation(row *sql.Row) (*types.VendorInvitation, error) {
	var inv types.VendorInvitation
	err := row.Scan(&inv.ID, &inv.Email, &inv.VendorName, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if types.IsError(err, sql.ErrNoRows) {
			return nil, types.ErrEntityNotFound
		}
		return nil, types.WrapError(err, "failed to scan invitation")
	}
	return &inv, nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range invitationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
