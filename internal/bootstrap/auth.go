package bootstrap

import (
	"crypto/x509"
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/openboard/auth-api/config"
	"github.com/openboard/auth-api/internal/adapters/directory"
	"github.com/openboard/auth-api/internal/adapters/oidc"
	redisadapter "github.com/openboard/auth-api/internal/adapters/redis"
	"github.com/openboard/auth-api/internal/data"
	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	"github.com/openboard/auth-api/internal/ports"
	"github.com/openboard/auth-api/internal/service"
)

// LoginServiceConfig groups dependencies for BuildLoginService.
type LoginServiceConfig struct {
	AppConfig   config.AppConfig
	DB          *sql.DB
	DirectoryDB *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildLoginService wires the full login pipeline.
func BuildLoginService(cfg LoginServiceConfig) (*service.LoginService, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// CA bundle load failure is a warning; the default trust store still works.
	var pool *x509.CertPool
	if cfg.AppConfig.Auth.CACert != "" {
		loaded, err := oidc.LoadCAPool(cfg.AppConfig.Auth.CACert)
		if err != nil {
			logger.Warn("failed to load CA certificate, using system trust store",
				"path", cfg.AppConfig.Auth.CACert, "error", err)
		} else {
			pool = loaded
		}
	}
	httpClient := oidc.NewHTTPClient(pool)

	encryptor := CreateEncryptor(cfg.AppConfig.SettingsEncryptionKey, logger)
	settings := data.NewOidcSettingsRepo(cfg.DB, encryptor)
	configProvider := oidc.NewDiscoveryProvider(settings, httpClient)

	gate, err := directory.NewGate(cfg.DirectoryDB,
		cfg.AppConfig.Directory.Table, cfg.AppConfig.Directory.EmailField)
	if err != nil {
		return nil, err
	}

	users := data.NewUserRepo(cfg.DB)
	boards := data.NewBoardRepo(cfg.DB)
	resolver := oidc.NewResolver(httpClient)

	boardJoin := domainauth.ParseBoardJoinSpec(cfg.AppConfig.Provisioning.DefaultBoard)

	mapper := service.NewMapper(service.MapperConfig{
		IDClaim:           cfg.AppConfig.Auth.IDMap,
		UsernameClaim:     cfg.AppConfig.Auth.UsernameMap,
		FullnameClaim:     cfg.AppConfig.Auth.FullnameMap,
		EmailClaim:        cfg.AppConfig.Auth.EmailMap,
		GroupsClaim:       cfg.AppConfig.Auth.GroupsMap,
		MappedGroupsClaim: cfg.AppConfig.Auth.MappedGroupsClaim,
		B2CEnabled:        cfg.AppConfig.Auth.B2CEnabled,
		OracleOIMEnabled:  cfg.AppConfig.Auth.OracleOIMEnabled,
	}, users, resolver)

	provisioner := service.NewProvisioner(
		users, boards,
		cfg.AppConfig.Provisioning.PropagateData,
		boardJoin,
		logger,
	)

	claimsMode := ports.ClaimsViaUserInfo
	if cfg.AppConfig.Auth.ClaimsInAccessToken() {
		claimsMode = ports.ClaimsInAccessToken
	}

	return service.NewLoginService(service.LoginServiceOptions{
		Config:      configProvider,
		Tokens:      oidc.NewClient(httpClient),
		Claims:      resolver,
		Mapper:      mapper,
		Gate:        gate,
		Users:       users,
		Provisioner: provisioner,
		Sessions:    redisadapter.NewSessionStore(cfg.RedisClient),
		ClaimsMode:  claimsMode,
		Logger:      logger,
	}), nil
}
