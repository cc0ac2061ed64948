package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/openboard/auth-api/internal/data/cryptoutil"
	"github.com/openboard/auth-api/internal/data/pgxutil"
	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
)

// OidcSettingsRepo loads the persisted OIDC provider configuration.
// The table holds at most one row; its absence means the service is
// unconfigured and every login attempt must fail fast.
type OidcSettingsRepo struct {
	DB        *sql.DB
	Encryptor cryptoutil.Encryptor
}

// NewOidcSettingsRepo creates a new OidcSettingsRepo.
func NewOidcSettingsRepo(db *sql.DB, enc cryptoutil.Encryptor) *OidcSettingsRepo {
	return &OidcSettingsRepo{DB: db, Encryptor: enc}
}

type oidcSettingsRow struct {
	ServerURL            string   `db:"server_url"`
	AuthEndpoint         string   `db:"auth_endpoint"`
	TokenEndpoint        string   `db:"token_endpoint"`
	UserinfoEndpoint     string   `db:"userinfo_endpoint"`
	ClientID             string   `db:"client_id"`
	ClientSecretEnc      string   `db:"client_secret_enc"`
	RedirectURI          string   `db:"redirect_uri"`
	TokenWhitelistFields []string `db:"token_whitelist_fields"`
}

// Load returns the provider configuration with the client secret decrypted.
func (r *OidcSettingsRepo) Load(ctx context.Context) (domainauth.OidcConfig, error) {
	var row oidcSettingsRow
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT server_url, auth_endpoint, token_endpoint, userinfo_endpoint,
			       client_id, client_secret_enc, redirect_uri, token_whitelist_fields
			FROM oidc_settings
			WHERE id = 1
		`)
		if err != nil {
			return err
		}
		defer rows.Close()
		row, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[oidcSettingsRow])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainauth.OidcConfig{}, apperrors.Config("OIDC service is not configured")
		}
		return domainauth.OidcConfig{}, apperrors.MapDBError(err)
	}

	secret, err := r.Encryptor.Decrypt(row.ClientSecretEnc)
	if err != nil {
		return domainauth.OidcConfig{}, apperrors.Wrap(err, apperrors.ErrCodeConfig, "decrypt OIDC client secret")
	}

	return domainauth.OidcConfig{
		ServerURL:            row.ServerURL,
		AuthEndpoint:         row.AuthEndpoint,
		TokenEndpoint:        row.TokenEndpoint,
		UserinfoEndpoint:     row.UserinfoEndpoint,
		ClientID:             row.ClientID,
		ClientSecret:         string(secret),
		RedirectURI:          row.RedirectURI,
		TokenWhitelistFields: row.TokenWhitelistFields,
	}, nil
}

// Save upserts the provider configuration, encrypting the client secret.
func (r *OidcSettingsRepo) Save(ctx context.Context, cfg domainauth.OidcConfig) error {
	enc, err := r.Encryptor.Encrypt([]byte(cfg.ClientSecret))
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfig, "encrypt OIDC client secret")
	}
	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO oidc_settings (
				id, server_url, auth_endpoint, token_endpoint, userinfo_endpoint,
				client_id, client_secret_enc, redirect_uri, token_whitelist_fields, updated_at
			) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (id) DO UPDATE SET
				server_url = EXCLUDED.server_url,
				auth_endpoint = EXCLUDED.auth_endpoint,
				token_endpoint = EXCLUDED.token_endpoint,
				userinfo_endpoint = EXCLUDED.userinfo_endpoint,
				client_id = EXCLUDED.client_id,
				client_secret_enc = EXCLUDED.client_secret_enc,
				redirect_uri = EXCLUDED.redirect_uri,
				token_whitelist_fields = EXCLUDED.token_whitelist_fields,
				updated_at = now()
		`,
			cfg.ServerURL, cfg.AuthEndpoint, cfg.TokenEndpoint, cfg.UserinfoEndpoint,
			cfg.ClientID, enc, cfg.RedirectURI, cfg.TokenWhitelistFields,
		)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}
