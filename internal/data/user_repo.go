package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/openboard/auth-api/internal/data/pgxutil"
	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
)

// UserRepo provides database operations for local users and their group
// memberships.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

type userRow struct {
	ID         string `db:"id"`
	ProviderID string `db:"provider_id"`
	Username   string `db:"username"`
	Fullname   string `db:"fullname"`
	Email      string `db:"email"`
	IsAdmin    bool   `db:"is_admin"`
}

// GetByProviderID retrieves the local user for a provider-issued id.
func (r *UserRepo) GetByProviderID(ctx context.Context, providerID string) (domainauth.User, error) {
	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, provider_id, username, fullname, email, is_admin
			FROM users
			WHERE provider_id = $1
		`, providerID)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.User{}, apperrors.NotFoundf("user with provider id %q not found", providerID)
		}
		return domainauth.User{}, apperrors.MapDBError(err)
	}
	return domainauth.User(row), nil
}

// Upsert creates or refreshes the local user record for an identity and
// returns it. Runs on every completed login so provisioning can resolve the
// user; empty identity fields leave the stored value untouched.
func (r *UserRepo) Upsert(ctx context.Context, identity domainauth.Identity) (domainauth.User, error) {
	var row userRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (provider_id, username, fullname, email)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (provider_id) DO UPDATE SET
				username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
				fullname = COALESCE(NULLIF(EXCLUDED.fullname, ''), users.fullname),
				email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
				updated_at = now()
			RETURNING id, provider_id, username, fullname, email, is_admin
		`, identity.ID, identity.Username, identity.Fullname, identity.Email)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[userRow])
		return err
	})
	if err != nil {
		return domainauth.User{}, apperrors.MapDBError(err)
	}
	return domainauth.User(row), nil
}

// SyncProfile updates email, fullname and username on the local user.
// Empty identity fields leave the stored value untouched.
func (r *UserRepo) SyncProfile(ctx context.Context, userID string, identity domainauth.Identity) error {
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			UPDATE users SET
				email = COALESCE(NULLIF($2, ''), email),
				fullname = COALESCE(NULLIF($3, ''), fullname),
				username = COALESCE(NULLIF($4, ''), username),
				updated_at = now()
			WHERE id = $1
		`, userID, identity.Email, identity.Fullname, identity.Username)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// ReplaceGroups swaps the user's group memberships for the given set and
// lifts is_admin when any group carries the admin attribute. Runs in one
// transaction so re-running with the same groups is a no-op.
func (r *UserRepo) ReplaceGroups(ctx context.Context, userID string, groups []domainauth.GroupRef) error {
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_groups WHERE user_id = $1`, userID); err != nil {
			return err
		}
		admin := false
		for i, g := range groups {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_groups (user_id, display_name, is_admin, position)
				VALUES ($1, $2, $3, $4)
			`, userID, g.DisplayName, g.IsAdmin, i); err != nil {
				return err
			}
			admin = admin || g.IsAdmin
		}
		if admin {
			if _, err := tx.Exec(ctx, `UPDATE users SET is_admin = TRUE, updated_at = now() WHERE id = $1`, userID); err != nil {
				return err
			}
		}
		return nil
	}})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
