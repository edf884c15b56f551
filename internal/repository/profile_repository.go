package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/models"
)

const profileColumns = `id, login, role, client_scope_id, active, last_access, create_time,
	       see_quotes, see_receipts, see_delivery_notes,
	       see_account_statements, see_work_orders, see_reminders`

// ProfileRepository handles database operations for account profiles.
// The access core treats profiles as read-only apart from the
// last-access stamp and the explicit delete path.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves a profile by id.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileColumns)

	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.E(apperrors.KindNotFound, "profile_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &profile, nil
}

// FindClientProfile retrieves the profile owning a client scope id.
func (r *ProfileRepository) FindClientProfile(ctx context.Context, clientScopeID string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE client_scope_id = $1`, profileColumns)

	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, query, clientScopeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.E(apperrors.KindNotFound, "profile_not_found")
	}
	if err != nil {
		return nil, fmt.Errorf("find client profile %s: %w", clientScopeID, err)
	}
	return &profile, nil
}

// CountActiveAdmins counts the active admin profiles; the deletion
// safeguards depend on it.
func (r *ProfileRepository) CountActiveAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM profiles WHERE role = $1 AND active = true`, models.RoleAdmin)
	if err != nil {
		return 0, fmt.Errorf("count active admins: %w", err)
	}
	return count, nil
}

// TouchLastAccess stamps the profile's last access time. Best effort;
// callers treat failures as log-only.
func (r *ProfileRepository) TouchLastAccess(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET last_access = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("touch last access %s: %w", id, err)
	}
	return nil
}

// Delete removes a profile. The router's safeguards must have passed
// before this is called.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	if affected == 0 {
		return apperrors.E(apperrors.KindNotFound, "profile_not_found")
	}
	return nil
}
