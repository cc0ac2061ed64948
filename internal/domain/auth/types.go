package auth

// Package auth contains domain-level types for the OIDC login pipeline.
// It is pure and free of framework/adapter concerns.

import "time"

// OidcConfig is the persisted OIDC service configuration for the deployment.
// It is loaded once per login attempt and immutable for that attempt.
type OidcConfig struct {
	ServerURL        string
	AuthEndpoint     string
	TokenEndpoint    string
	UserinfoEndpoint string
	ClientID         string
	// ClientSecret is the decrypted secret, ready to send to the token endpoint.
	ClientSecret string
	RedirectURI  string
	// TokenWhitelistFields lists extra token claims copied into Identity.Extra.
	TokenWhitelistFields []string
}

// TokenSet is the result of the authorization-code exchange.
// It is attempt-scoped and never persisted by this service.
type TokenSet struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// BearerToken returns the token used for claims resolution: the access token,
// falling back to the ID token when the provider issued only the latter.
func (t TokenSet) BearerToken() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.IDToken
}

// GroupRef is a single provider-supplied group membership.
// Ordering matters only for the admin-preservation rule at index 0.
type GroupRef struct {
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin,omitempty"`
}

// Identity is the canonical representation of an authenticated user,
// independent of provider-specific claim naming.
type Identity struct {
	ID           string
	Username     string
	Fullname     string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Groups       []GroupRef
	// Extra holds whitelisted token claims propagated to the host verbatim.
	Extra map[string]any
}

// Profile is the subset of the identity handed to the host login framework
// for display purposes.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the server-side record persisted for an authenticated user.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User is the application's local user record, owned by the host user store.
type User struct {
	ID         string
	ProviderID string
	Username   string
	Fullname   string
	Email      string
	IsAdmin    bool
}
