package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openboard/auth-api/internal/data/cryptoutil"
	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/testutil"
)

func TestOidcSettingsRepo(t *testing.T) {
	db := testutil.SetupTestDB(t)

	enc, err := cryptoutil.NewAESGCMEncryptor([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	repo := NewOidcSettingsRepo(db, enc)
	ctx := context.Background()

	t.Run("missing row is a config error", func(t *testing.T) {
		_, err := repo.Load(ctx)
		require.Error(t, err)
		assert.True(t, apperrors.IsConfig(err))
	})

	cfg := domainauth.OidcConfig{
		ServerURL:            "https://idp.example.com",
		AuthEndpoint:         "https://idp.example.com/authorize",
		TokenEndpoint:        "oauth/token",
		UserinfoEndpoint:     "oauth/userinfo",
		ClientID:             "client-1",
		ClientSecret:         "s3cret",
		RedirectURI:          "https://board.example.com/auth/callback",
		TokenWhitelistFields: []string{"tenant", "roles"},
	}

	t.Run("save and load round trip", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, cfg))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, cfg, loaded)

		// Secret is stored encrypted, never in the clear.
		var stored string
		require.NoError(t, db.QueryRowContext(ctx,
			"SELECT client_secret_enc FROM oidc_settings WHERE id = 1").Scan(&stored))
		assert.NotContains(t, stored, "s3cret")
	})

	t.Run("save again overwrites the single row", func(t *testing.T) {
		cfg.ClientID = "client-2"
		require.NoError(t, repo.Save(ctx, cfg))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "client-2", loaded.ClientID)

		var count int
		require.NoError(t, db.QueryRowContext(ctx,
			"SELECT count(*) FROM oidc_settings").Scan(&count))
		assert.Equal(t, 1, count)
	})
}
