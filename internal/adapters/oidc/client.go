package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/ports"
	"golang.org/x/oauth2"
)

// Client performs the authorization-code → token exchange. One exchange per
// login attempt, no retry: a failed exchange is a failed login.
type Client struct {
	httpClient *http.Client
}

var _ ports.TokenClient = (*Client)(nil)

// NewClient creates a token client. httpClient may carry a pinned CA pool;
// nil falls back to a default client.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(nil)
	}
	return &Client{httpClient: httpClient}
}

// AuthCodeURL builds the IdP authorization redirect URL for the login flow.
func (c *Client) AuthCodeURL(cfg domainauth.OidcConfig, state string) string {
	conf := oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI,
		Scopes:      []string{"openid", "profile", "email"},
		Endpoint: oauth2.Endpoint{
			AuthURL: resolveEndpoint(cfg.ServerURL, cfg.AuthEndpoint),
		},
	}
	return conf.AuthCodeURL(state, oauth2.SetAuthURLParam("response_type", "code"))
}

// tokenResponse is the provider's token-endpoint reply. Providers signal
// handshake failures with an error field even on 2xx responses.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	IDToken          string `json:"id_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchange swaps the authorization code for a token set via a form POST to
// the provider's token endpoint.
func (c *Client) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.TokenSet, error) {
	endpoint := resolveEndpoint(in.Config.ServerURL, in.Config.TokenEndpoint)

	form := url.Values{
		"code":          {in.Code},
		"client_id":     {in.Config.ClientID},
		"client_secret": {in.Config.ClientSecret},
		"redirect_uri":  {in.Config.RedirectURI},
		"grant_type":    {"authorization_code"},
		"state":         {in.State},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domainauth.TokenSet{}, apperrors.TokenExchange(endpoint, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domainauth.TokenSet{}, apperrors.TokenExchange(endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domainauth.TokenSet{}, apperrors.TokenExchange(endpoint, err)
	}

	var tok tokenResponse
	if unmarshalErr := json.Unmarshal(body, &tok); unmarshalErr != nil {
		return domainauth.TokenSet{}, apperrors.TokenExchange(endpoint,
			fmt.Errorf("decode token response (status %d): %w", resp.StatusCode, unmarshalErr))
	}

	if tok.Error != "" {
		return domainauth.TokenSet{}, apperrors.TokenExchange(endpoint,
			fmt.Errorf("handshake failed: %s %s", tok.Error, tok.ErrorDescription))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domainauth.TokenSet{}, apperrors.TokenExchange(endpoint,
			errors.New("unexpected status "+strconv.Itoa(resp.StatusCode)))
	}
	if tok.AccessToken == "" && tok.IDToken == "" {
		return domainauth.TokenSet{}, apperrors.TokenExchange(endpoint,
			errors.New("token response carries neither access_token nor id_token"))
	}

	// A provider that omits expires_in leaves ExpiresAt zero; session
	// lifetime then falls back to the configured TTL.
	var expiresAt time.Time
	if tok.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	return domainauth.TokenSet{
		AccessToken:  tok.AccessToken,
		IDToken:      tok.IDToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
