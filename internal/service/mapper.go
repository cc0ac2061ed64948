package service

import (
	"context"
	"fmt"
	"strconv"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/ports"
)

// MapperConfig carries the claim-name indirection table and the
// provider-quirk switches. Claim names may be JMESPath expressions.
type MapperConfig struct {
	IDClaim       string
	UsernameClaim string
	FullnameClaim string
	EmailClaim    string
	GroupsClaim   string
	// MappedGroupsClaim wins over GroupsClaim when both are present.
	MappedGroupsClaim string

	B2CEnabled       bool
	OracleOIMEnabled bool
}

// Mapper projects a raw claim set into the canonical identity. Provider
// quirks are a fixed, ordered list of override rules rather than scattered
// conditionals; see mapEmail and mapGroups for the precedence order.
type Mapper struct {
	cfg     MapperConfig
	users   ports.UserStore
	decoder ports.TokenDecoder
}

// NewMapper constructs a Mapper. users resolves pre-existing local users for
// the admin-preservation rule; decoder re-decodes the access token for the
// whitelisted extras.
func NewMapper(cfg MapperConfig, users ports.UserStore, decoder ports.TokenDecoder) *Mapper {
	return &Mapper{cfg: cfg, users: users, decoder: decoder}
}

// MapResult is the canonical identity plus the display profile handed back
// to the host.
type MapResult struct {
	Identity domainauth.Identity
	Profile  domainauth.Profile
}

// Map builds the canonical identity from the flat claim set.
// Returns a mapping error when id, username or email is missing afterwards.
func (m *Mapper) Map(
	ctx context.Context,
	claims domainauth.ClaimSet,
	tokens domainauth.TokenSet,
	cfg domainauth.OidcConfig,
) (MapResult, error) {
	identity := domainauth.Identity{
		ID:           claimString(claims, m.cfg.IDClaim),
		Username:     claimString(claims, m.cfg.UsernameClaim),
		Fullname:     claimString(claims, m.cfg.FullnameClaim),
		AccessToken:  tokens.BearerToken(),
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
	identity.Email = m.mapEmail(claims)

	groups, err := m.mapGroups(ctx, claims, identity.ID)
	if err != nil {
		return MapResult{}, err
	}
	identity.Groups = groups
	identity.Extra = m.whitelistedExtras(tokens, cfg)

	if identity.ID == "" {
		return MapResult{}, apperrors.Mappingf("claim %q yielded no user id", m.cfg.IDClaim)
	}
	if identity.Username == "" {
		return MapResult{}, apperrors.Mappingf("claim %q yielded no username", m.cfg.UsernameClaim)
	}
	if identity.Email == "" {
		return MapResult{}, apperrors.Mappingf("claim %q yielded no email", m.cfg.EmailClaim)
	}

	return MapResult{
		Identity: identity,
		Profile:  domainauth.Profile{Name: identity.Fullname, Email: m.profileEmail(claims)},
	}, nil
}

// mapEmail applies the email override rules in precedence order:
//  1. Oracle OIM: a missing email claim falls back to the username claim.
//  2. B2C: email is emails[0], overriding rule 1.
func (m *Mapper) mapEmail(claims domainauth.ClaimSet) string {
	email := claimString(claims, m.cfg.EmailClaim)
	if m.cfg.OracleOIMEnabled && email == "" {
		email = claimString(claims, m.cfg.UsernameClaim)
	}
	if m.cfg.B2CEnabled {
		if first := claimString(claims, "emails[0]"); first != "" {
			email = first
		}
	}
	return email
}

// profileEmail mirrors mapEmail minus the Oracle fallback: the display
// profile carries the mapped email claim as-is.
func (m *Mapper) profileEmail(claims domainauth.ClaimSet) string {
	if m.cfg.B2CEnabled {
		if first := claimString(claims, "emails[0]"); first != "" {
			return first
		}
	}
	return claimString(claims, m.cfg.EmailClaim)
}

// mapGroups picks the group claim (mapped claim wins when both are present)
// and normalizes plain string lists into GroupRefs. When normalizing, index 0
// inherits isAdmin from a pre-existing local admin with the same provider id.
func (m *Mapper) mapGroups(
	ctx context.Context,
	claims domainauth.ClaimSet,
	providerID string,
) ([]domainauth.GroupRef, error) {
	raw := lookupClaim(claims, m.cfg.GroupsClaim)
	if raw != nil {
		if mapped := lookupClaim(claims, m.cfg.MappedGroupsClaim); mapped != nil {
			raw = mapped
		}
	}

	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, nil
	}

	if _, isString := list[0].(string); isString {
		return m.normalizeStringGroups(ctx, list, providerID)
	}

	// Attribute form: objects with displayName and optional flags.
	groups := make([]domainauth.GroupRef, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["displayName"].(string)
		if name == "" {
			continue
		}
		isAdmin, _ := obj["isAdmin"].(bool)
		groups = append(groups, domainauth.GroupRef{DisplayName: name, IsAdmin: isAdmin})
	}
	return groups, nil
}

func (m *Mapper) normalizeStringGroups(
	ctx context.Context,
	list []any,
	providerID string,
) ([]domainauth.GroupRef, error) {
	// Privilege preservation applies to index 0 only, and only when the
	// local user already holds admin.
	preserveAdmin := false
	if providerID != "" {
		user, err := m.users.GetByProviderID(ctx, providerID)
		switch {
		case err == nil:
			preserveAdmin = user.IsAdmin
		case apperrors.IsNotFound(err):
			// first login, nothing to preserve
		default:
			return nil, apperrors.Wrap(err, apperrors.ErrCodeMapping, "resolve local user for group mapping")
		}
	}

	groups := make([]domainauth.GroupRef, 0, len(list))
	for i, entry := range list {
		name, ok := entry.(string)
		if !ok {
			continue
		}
		ref := domainauth.GroupRef{DisplayName: name}
		if i == 0 && preserveAdmin {
			ref.IsAdmin = true
		}
		groups = append(groups, ref)
	}
	return groups, nil
}

// whitelistedExtras re-decodes the bearer token and copies only the
// configured whitelist keys. A token that cannot be decoded yields empty
// extras; this path is deliberately silent, unlike the claims-resolution
// decode which surfaces an expired-claim marker.
func (m *Mapper) whitelistedExtras(tokens domainauth.TokenSet, cfg domainauth.OidcConfig) map[string]any {
	if len(cfg.TokenWhitelistFields) == 0 {
		return nil
	}
	decoded, err := m.decoder.DecodeClaims(tokens.BearerToken())
	if err != nil {
		return map[string]any{}
	}
	extras := make(map[string]any, len(cfg.TokenWhitelistFields))
	for _, field := range cfg.TokenWhitelistFields {
		if v, ok := decoded[field]; ok {
			extras[field] = v
		}
	}
	return extras
}

// lookupClaim resolves a claim name against the claim set. Plain names hit
// the map directly; anything else is evaluated as a JMESPath expression so
// configured names like "emails[0]" or "address.email" work.
func lookupClaim(claims domainauth.ClaimSet, name string) any {
	if name == "" {
		return nil
	}
	if v, ok := claims[name]; ok {
		return v
	}
	v, err := jmespath.Search(name, map[string]any(claims))
	if err != nil {
		return nil
	}
	return v
}

// claimString resolves a claim to a string, stringifying numeric ids.
func claimString(claims domainauth.ClaimSet, name string) string {
	switch v := lookupClaim(claims, name).(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}
