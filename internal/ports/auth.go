package ports

// Package ports defines interfaces (hexagonal ports) for the login pipeline.
// Implementations live in internal/adapters and internal/data; orchestration
// in internal/service.

import (
	"context"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
)

// ConfigProvider supplies the persisted OIDC service configuration.
// Load fails fast with a config error when the service is unconfigured.
type ConfigProvider interface {
	Load(ctx context.Context) (domainauth.OidcConfig, error)
}

// ExchangeInput groups parameters for the authorization-code exchange.
type ExchangeInput struct {
	Code   string
	State  string
	Config domainauth.OidcConfig
}

// TokenClient builds the provider redirect URL and performs the
// authorization-code → token exchange against the provider's token endpoint.
type TokenClient interface {
	AuthCodeURL(cfg domainauth.OidcConfig, state string) string
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.TokenSet, error)
}

// ClaimsMode selects how the claim set is obtained.
type ClaimsMode int

const (
	// ClaimsViaUserInfo fetches claims from the userinfo endpoint (default).
	ClaimsViaUserInfo ClaimsMode = iota
	// ClaimsInAccessToken decodes the access token locally without a network
	// call (ADFS/B2C-style issuers).
	ClaimsInAccessToken
)

// ClaimsResolver obtains the flat claim set for a token set.
type ClaimsResolver interface {
	Resolve(ctx context.Context, tokens domainauth.TokenSet, cfg domainauth.OidcConfig, mode ClaimsMode) (domainauth.ClaimSet, error)
}

// TokenDecoder decodes a JWT payload into claims without verifying the
// signature. Used for the whitelisted-extras re-decode.
type TokenDecoder interface {
	DecodeClaims(token string) (domainauth.ClaimSet, error)
}

// AuthorizationGate answers whether an email is allow-listed. A false result
// is a normal denial; an error means the lookup itself failed and must abort
// the login attempt.
type AuthorizationGate interface {
	Allowed(ctx context.Context, email string) (bool, error)
}

// UserStore resolves and updates local users by their provider-issued id.
type UserStore interface {
	// GetByProviderID returns the local user for a provider id, or a
	// not-found error when no such user exists yet.
	GetByProviderID(ctx context.Context, providerID string) (domainauth.User, error)

	// Upsert creates or refreshes the local user record for an identity and
	// returns it.
	Upsert(ctx context.Context, identity domainauth.Identity) (domainauth.User, error)

	// SyncProfile updates email, fullname and username on the local user.
	// Empty fields are left untouched.
	SyncProfile(ctx context.Context, userID string, identity domainauth.Identity) error

	// ReplaceGroups upserts the user's group memberships and attribute flags.
	// Calling it again with the same groups is a no-op.
	ReplaceGroups(ctx context.Context, userID string, groups []domainauth.GroupRef) error
}

// BoardStore answers board membership questions for the default-board hook.
type BoardStore interface {
	// BoardExists reports whether the board is present.
	BoardExists(ctx context.Context, boardID string) (bool, error)

	// IsMember reports whether the user is already a member of the board.
	IsMember(ctx context.Context, boardID, userID string) (bool, error)

	// AddMember adds the user to the board with the given permission flags.
	AddMember(ctx context.Context, userID string, spec domainauth.BoardJoinSpec) error
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}
