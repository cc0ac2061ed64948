package oidc

import (
	"context"
	"net/http"
	"sync"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/ports"
)

// DiscoveryProvider decorates a ConfigProvider, filling endpoints the
// persisted settings omit from the issuer's OIDC discovery document.
// Settings that spell out all three endpoints never trigger a discovery
// fetch.
type DiscoveryProvider struct {
	inner      ports.ConfigProvider
	httpClient *http.Client

	mu           sync.Mutex
	cachedIssuer string
	cached       *gooidc.Provider
}

// NewDiscoveryProvider wraps inner with discovery-based endpoint resolution.
func NewDiscoveryProvider(inner ports.ConfigProvider, httpClient *http.Client) *DiscoveryProvider {
	return &DiscoveryProvider{inner: inner, httpClient: httpClient}
}

// Load returns the persisted configuration, with missing endpoints resolved
// via discovery against the configured server URL.
func (p *DiscoveryProvider) Load(ctx context.Context) (domainauth.OidcConfig, error) {
	cfg, err := p.inner.Load(ctx)
	if err != nil {
		return domainauth.OidcConfig{}, err
	}
	if cfg.AuthEndpoint != "" && cfg.TokenEndpoint != "" && cfg.UserinfoEndpoint != "" {
		return cfg, nil
	}

	provider, err := p.discover(ctx, cfg.ServerURL)
	if err != nil {
		return domainauth.OidcConfig{}, apperrors.Wrap(err, apperrors.ErrCodeConfig,
			"discover OIDC endpoints for "+cfg.ServerURL)
	}

	if cfg.AuthEndpoint == "" {
		cfg.AuthEndpoint = provider.Endpoint().AuthURL
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = provider.Endpoint().TokenURL
	}
	if cfg.UserinfoEndpoint == "" {
		var meta struct {
			UserinfoEndpoint string `json:"userinfo_endpoint"`
		}
		if claimsErr := provider.Claims(&meta); claimsErr == nil {
			cfg.UserinfoEndpoint = meta.UserinfoEndpoint
		}
	}
	return cfg, nil
}

func (p *DiscoveryProvider) discover(ctx context.Context, issuer string) (*gooidc.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil && p.cachedIssuer == issuer {
		return p.cached, nil
	}

	if p.httpClient != nil {
		ctx = gooidc.ClientContext(ctx, p.httpClient)
	}
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	p.cached = provider
	p.cachedIssuer = issuer
	return provider, nil
}
