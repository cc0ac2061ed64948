package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/ports"
)

// LoginServiceOptions groups dependencies for LoginService.
type LoginServiceOptions struct {
	Config      ports.ConfigProvider
	Tokens      ports.TokenClient
	Claims      ports.ClaimsResolver
	Mapper      *Mapper
	Gate        ports.AuthorizationGate
	Users       ports.UserStore
	Provisioner *Provisioner
	Sessions    ports.SessionStore

	// ClaimsMode selects local token decode vs userinfo fetch.
	ClaimsMode ports.ClaimsMode
	// SessionTTL bounds session lifetime; tokens expiring sooner win.
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// LoginService orchestrates the OIDC login pipeline: code exchange, claims
// resolution, identity mapping, the directory allow-list gate, provisioning
// hooks, and session persistence.
type LoginService struct {
	config      ports.ConfigProvider
	tokens      ports.TokenClient
	claims      ports.ClaimsResolver
	mapper      *Mapper
	gate        ports.AuthorizationGate
	users       ports.UserStore
	provisioner *Provisioner
	sessions    ports.SessionStore

	claimsMode ports.ClaimsMode
	sessionTTL time.Duration
	logger     *slog.Logger
}

var errSessionExpired = errors.New("session expired")

// ErrSessionExpired reports whether err means the session existed but has expired.
func ErrSessionExpired(err error) bool { return errors.Is(err, errSessionExpired) }

// NewLoginService constructs a new LoginService.
func NewLoginService(opts LoginServiceOptions) *LoginService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &LoginService{
		config:      opts.Config,
		tokens:      opts.Tokens,
		claims:      opts.Claims,
		mapper:      opts.Mapper,
		gate:        opts.Gate,
		users:       opts.Users,
		provisioner: opts.Provisioner,
		sessions:    opts.Sessions,
		claimsMode:  opts.ClaimsMode,
		sessionTTL:  ttl,
		logger:      logger,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
}

// BeginLogin loads the provider configuration and returns the authorization
// redirect URL with a fresh anti-forgery state.
func (s *LoginService) BeginLogin(ctx context.Context) (*BeginLoginResult, error) {
	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, err
	}
	state, err := generateState()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generate login state")
	}
	return &BeginLoginResult{
		AuthURL: s.tokens.AuthCodeURL(cfg, state),
		State:   state,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Identity domainauth.Identity
	Profile  domainauth.Profile
	Session  domainauth.Session
}

// CompleteLogin runs the full pipeline for an authorization-code callback.
// Provisioning failures are logged but do not fail the login; every earlier
// stage failure aborts with a typed error.
func (s *LoginService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, apperrors.Mapping("authorization code is required")
	}

	cfg, err := s.config.Load(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.Exchange(ctx, ports.ExchangeInput{
		Code:   input.Code,
		State:  input.State,
		Config: cfg,
	})
	if err != nil {
		return nil, err
	}

	claims, err := s.claims.Resolve(ctx, tokens, cfg, s.claimsMode)
	if err != nil {
		return nil, err
	}

	mapped, err := s.mapper.Map(ctx, claims, tokens, cfg)
	if err != nil {
		return nil, err
	}
	identity := mapped.Identity

	allowed, err := s.gate.Allowed(ctx, identity.Email)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.AuthzDenied(identity.Email)
	}

	// The local record must exist before the provisioning hooks can resolve
	// the user; this also refreshes username/fullname/email on every login.
	if _, err := s.users.Upsert(ctx, identity); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "create local user")
	}

	if hookErrs := s.provisioner.Run(ctx, identity); len(hookErrs) > 0 {
		s.logger.Warn("login succeeded with provisioning failures",
			"provider_id", identity.ID, "failures", len(hookErrs))
	}

	session := domainauth.Session{
		ID:        uuid.New().String(),
		UserID:    identity.ID,
		Username:  identity.Username,
		Fullname:  identity.Fullname,
		Email:     identity.Email,
		ExpiresAt: s.sessionExpiry(identity.ExpiresAt),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "save session")
	}

	s.logger.Info("login completed", "provider_id", identity.ID, "username", identity.Username)

	return &CompleteLoginResult{
		Identity: identity,
		Profile:  mapped.Profile,
		Session:  session,
	}, nil
}

// GetSession retrieves a session by ID, deleting it when expired.
func (s *LoginService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NotFound("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session.
func (s *LoginService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// sessionExpiry caps the session lifetime at the token expiry when the
// provider supplied one earlier than the configured TTL.
func (s *LoginService) sessionExpiry(tokenExpiry time.Time) time.Time {
	expiry := time.Now().Add(s.sessionTTL)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiry) {
		expiry = tokenExpiry
	}
	return expiry
}

// generateState creates a cryptographically random anti-forgery state value.
func generateState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
