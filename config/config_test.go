package config

import (
	"testing"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthConfig_Defaults(t *testing.T) {
	var cfg AuthConfig
	require.NoError(t, env.Parse(&cfg))

	assert.Equal(t, "sub", cfg.IDMap)
	assert.Equal(t, "preferred_username", cfg.UsernameMap)
	assert.Equal(t, "name", cfg.FullnameMap)
	assert.Equal(t, "email", cfg.EmailMap)
	assert.Equal(t, "groups", cfg.GroupsMap)
	assert.Equal(t, "boardGroups", cfg.MappedGroupsClaim)
	assert.False(t, cfg.ClaimsInAccessToken())
}

func TestAuthConfig_ClaimsInAccessToken(t *testing.T) {
	tests := []struct {
		name string
		cfg  AuthConfig
		want bool
	}{
		{"neither", AuthConfig{}, false},
		{"adfs", AuthConfig{ADFSEnabled: true}, true},
		{"b2c", AuthConfig{B2CEnabled: true}, true},
		{"both", AuthConfig{ADFSEnabled: true, B2CEnabled: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ClaimsInAccessToken())
		})
	}
}

func TestAuthConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OAUTH2_ID_MAP", "uid")
	t.Setenv("OAUTH2_EMAIL_MAP", "mail")
	t.Setenv("OAUTH2_B2C_ENABLED", "true")
	t.Setenv("ORACLE_OIM_ENABLED", "true")

	var cfg AuthConfig
	require.NoError(t, env.Parse(&cfg))

	assert.Equal(t, "uid", cfg.IDMap)
	assert.Equal(t, "mail", cfg.EmailMap)
	assert.True(t, cfg.B2CEnabled)
	assert.True(t, cfg.OracleOIMEnabled)
	assert.True(t, cfg.ClaimsInAccessToken())
}

func TestProvisioningConfig_Env(t *testing.T) {
	t.Setenv("PROPAGATE_OIDC_DATA", "true")
	t.Setenv("DEFAULT_BOARD_ID", "b1:isAdmin:isWorker")

	var cfg ProvisioningConfig
	require.NoError(t, env.Parse(&cfg))

	assert.True(t, cfg.PropagateData)
	assert.Equal(t, "b1:isAdmin:isWorker", cfg.DefaultBoard)
}

func TestDirectoryConfig_Sanitize(t *testing.T) {
	cfg := DirectoryConfig{Database: "directory"}
	cfg.Sanitize()

	assert.Equal(t, "users", cfg.Table)
	assert.Equal(t, "email", cfg.EmailField)
	assert.True(t, cfg.Enabled())

	empty := DirectoryConfig{}
	assert.False(t, empty.Enabled())
}

func TestAppConfig_Sanitize(t *testing.T) {
	cfg := AppConfig{}
	cfg.Sanitize()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	cfg := AppConfig{}
	cfg.Sanitize()

	assert.True(t, cfg.IsDev)
}
