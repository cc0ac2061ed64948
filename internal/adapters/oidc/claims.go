package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/ports"
)

// Resolver obtains the claim set for a token set, either by decoding the
// token locally or by calling the userinfo endpoint.
type Resolver struct {
	httpClient *http.Client
}

var (
	_ ports.ClaimsResolver = (*Resolver)(nil)
	_ ports.TokenDecoder   = (*Resolver)(nil)
)

// NewResolver creates a claims resolver sharing the provider HTTP client.
func NewResolver(httpClient *http.Client) *Resolver {
	if httpClient == nil {
		httpClient = NewHTTPClient(nil)
	}
	return &Resolver{httpClient: httpClient}
}

// Resolve returns the flat claim set for the token set. Provider envelopes
// (Nextcloud ocs.data, OpenShift metadata) are unwrapped before returning.
func (r *Resolver) Resolve(
	ctx context.Context,
	tokens domainauth.TokenSet,
	cfg domainauth.OidcConfig,
	mode ports.ClaimsMode,
) (domainauth.ClaimSet, error) {
	var claims domainauth.ClaimSet

	switch mode {
	case ports.ClaimsInAccessToken:
		// Local decode. A malformed token degrades to an already-expired
		// claim marker instead of failing the attempt here; the mapper
		// reports the missing fields.
		claims = decodeLenient(tokens.BearerToken())
	default:
		fetched, err := r.fetchUserInfo(ctx, tokens, cfg)
		if err != nil {
			return nil, err
		}
		claims = fetched
	}

	return claims.Unwrapped(), nil
}

// DecodeClaims decodes a JWT payload into claims without verifying the
// signature. The token arrived over a provider-authenticated TLS channel;
// signature verification is an accepted trust boundary here.
func (r *Resolver) DecodeClaims(token string) (domainauth.ClaimSet, error) {
	if token == "" {
		return nil, apperrors.ClaimsDecode(errors.New("empty token"))
	}
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, apperrors.ClaimsDecode(err)
	}
	return domainauth.ClaimSet(mapClaims), nil
}

// decodeLenient decodes the token payload, mapping any failure to the
// expired-claim marker {"exp": 0}.
func decodeLenient(token string) domainauth.ClaimSet {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return domainauth.ClaimSet{"exp": float64(0)}
	}
	return domainauth.ClaimSet(mapClaims)
}

func (r *Resolver) fetchUserInfo(
	ctx context.Context,
	tokens domainauth.TokenSet,
	cfg domainauth.OidcConfig,
) (domainauth.ClaimSet, error) {
	endpoint := resolveEndpoint(cfg.ServerURL, cfg.UserinfoEndpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.ClaimsFetch(endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+tokens.BearerToken())
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.ClaimsFetch(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.ClaimsFetch(endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.ClaimsFetch(endpoint, errors.New("unexpected status "+strconv.Itoa(resp.StatusCode)))
	}

	var claims domainauth.ClaimSet
	if unmarshalErr := json.Unmarshal(body, &claims); unmarshalErr != nil {
		return nil, apperrors.ClaimsFetch(endpoint, fmt.Errorf("decode userinfo response: %w", unmarshalErr))
	}
	return claims, nil
}
