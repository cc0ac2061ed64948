package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	mockauth "github.com/openboard/auth-api/internal/mocks/auth"
	"github.com/openboard/auth-api/internal/ports"
)

type loginFixture struct {
	config   *mockauth.StaticConfigProvider
	tokens   *mockauth.MockTokenClient
	claims   *mockauth.MockClaimsResolver
	gate     *mockauth.MockAuthorizationGate
	users    *mockauth.MemoryUserStore
	boards   *mockauth.MemoryBoardStore
	sessions *mockauth.MemorySessionStore
}

func newLoginFixture() *loginFixture {
	return &loginFixture{
		config: &mockauth.StaticConfigProvider{
			Config: domainauth.OidcConfig{
				ServerURL:    "https://idp.example.com",
				AuthEndpoint: "https://idp.example.com/authorize",
				ClientID:     "client-1",
			},
		},
		tokens: &mockauth.MockTokenClient{
			Tokens: domainauth.TokenSet{AccessToken: "at", ExpiresAt: time.Now().Add(time.Hour)},
		},
		claims: &mockauth.MockClaimsResolver{
			Claims: domainauth.ClaimSet{
				"sub":                "u-1",
				"preferred_username": "alice",
				"name":               "Alice Smith",
				"email":              "alice@example.com",
				"groups":             []any{"eng"},
			},
		},
		gate:     &mockauth.MockAuthorizationGate{AllowedEmails: map[string]bool{"alice@example.com": true}},
		users:    mockauth.NewMemoryUserStore(domainauth.User{ID: "local-1", ProviderID: "u-1"}),
		boards:   mockauth.NewMemoryBoardStore("b1"),
		sessions: mockauth.NewMemorySessionStore(),
	}
}

func (f *loginFixture) service(mode ports.ClaimsMode, boardJoin domainauth.BoardJoinSpec) *LoginService {
	return NewLoginService(LoginServiceOptions{
		Config: f.config,
		Tokens: f.tokens,
		Claims: f.claims,
		Mapper: NewMapper(defaultMapperConfig(), f.users, &mockauth.MockTokenDecoder{}),
		Gate:   f.gate,
		Users:  f.users,
		Provisioner: NewProvisioner(
			f.users, f.boards, true, boardJoin, discardLogger(),
		),
		Sessions:   f.sessions,
		ClaimsMode: mode,
		Logger:     discardLogger(),
	})
}

func TestLoginService_CompleteLogin(t *testing.T) {
	f := newLoginFixture()
	svc := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{BoardID: "b1", IsWorker: true})

	res, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "code-1", State: "state-1"})
	require.NoError(t, err)

	assert.Equal(t, "u-1", res.Identity.ID)
	assert.Equal(t, "alice", res.Identity.Username)
	assert.Equal(t, "Alice Smith", res.Profile.Name)
	assert.NotEmpty(t, res.Session.ID)
	assert.Equal(t, "alice@example.com", res.Session.Email)

	// Exchange received code, state and the loaded config.
	assert.Equal(t, "code-1", f.tokens.LastInput.Code)
	assert.Equal(t, "state-1", f.tokens.LastInput.State)
	assert.Equal(t, "client-1", f.tokens.LastInput.Config.ClientID)
	assert.Equal(t, ports.ClaimsViaUserInfo, f.claims.LastMode)

	// Local record refreshed, then provisioning ran: groups synced, board
	// joined, session persisted.
	assert.Equal(t, 1, f.users.UpsertCalls)
	assert.Equal(t, 1, f.users.ReplaceGroupsCalls)
	_, joined := f.boards.Member("b1", "local-1")
	assert.True(t, joined)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestLoginService_CompleteLogin_FirstLoginCreatesUser(t *testing.T) {
	f := newLoginFixture()
	f.users = mockauth.NewMemoryUserStore() // no local record yet
	svc := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{BoardID: "b1"})

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "code-1"})
	require.NoError(t, err)

	created, err := f.users.GetByProviderID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "alice@example.com", created.Email)

	// The fresh user is resolvable by the provisioning hooks in the same login.
	assert.Equal(t, 1, f.users.ReplaceGroupsCalls)
	_, joined := f.boards.Member("b1", created.ID)
	assert.True(t, joined)
}

func TestLoginService_CompleteLogin_NoTokenExpiry(t *testing.T) {
	f := newLoginFixture()
	f.tokens.Tokens = domainauth.TokenSet{AccessToken: "at"} // provider omitted expires_in
	svc := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{})

	res, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c"})
	require.NoError(t, err)

	// The session falls back to the service TTL instead of expiring at once.
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), res.Session.ExpiresAt, time.Minute)

	sess, err := svc.GetSession(context.Background(), res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
}

func TestLoginService_CompleteLogin_TokenClaimsMode(t *testing.T) {
	f := newLoginFixture()
	svc := f.service(ports.ClaimsInAccessToken, domainauth.BoardJoinSpec{})

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "code-1"})
	require.NoError(t, err)
	assert.Equal(t, ports.ClaimsInAccessToken, f.claims.LastMode)
}

func TestLoginService_CompleteLogin_DeniedStopsProvisioning(t *testing.T) {
	f := newLoginFixture()
	f.gate.AllowedEmails = nil
	svc := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{BoardID: "b1"})

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "code-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthzDenied(err))

	// Denial must stop the pipeline before any user write or provisioning
	// side effect.
	assert.Zero(t, f.users.UpsertCalls)
	assert.Zero(t, f.users.ReplaceGroupsCalls)
	assert.Zero(t, f.users.SyncProfileCalls)
	assert.Zero(t, f.boards.AddMemberCalls)
	assert.Zero(t, f.sessions.Len())
}

func TestLoginService_CompleteLogin_GateTransportError(t *testing.T) {
	f := newLoginFixture()
	f.gate.Err = apperrors.AuthzTransport(errors.New("dial tcp: refused"))
	svc := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{})

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "code-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthzTransport(err))
	assert.False(t, apperrors.IsAuthzDenied(err))
}

func TestLoginService_CompleteLogin_StageFailures(t *testing.T) {
	t.Run("missing code", func(t *testing.T) {
		f := newLoginFixture()
		_, err := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{}).
			CompleteLogin(context.Background(), CompleteLoginInput{})
		require.Error(t, err)
	})

	t.Run("unconfigured service", func(t *testing.T) {
		f := newLoginFixture()
		f.config.Err = apperrors.Config("OIDC service not configured")
		_, err := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{}).
			CompleteLogin(context.Background(), CompleteLoginInput{Code: "c"})
		require.Error(t, err)
		assert.True(t, apperrors.IsConfig(err))
		assert.Zero(t, f.tokens.Calls)
	})

	t.Run("exchange failure", func(t *testing.T) {
		f := newLoginFixture()
		f.tokens.Err = apperrors.TokenExchange("https://idp.example.com/token", errors.New("boom"))
		_, err := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{}).
			CompleteLogin(context.Background(), CompleteLoginInput{Code: "c"})
		require.Error(t, err)
		assert.True(t, apperrors.IsTokenExchange(err))
		assert.Zero(t, f.claims.Calls)
	})

	t.Run("user creation failure fails the login", func(t *testing.T) {
		f := newLoginFixture()
		f.users.UpsertErr = errors.New("db down")
		_, err := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{}).
			CompleteLogin(context.Background(), CompleteLoginInput{Code: "c"})
		require.Error(t, err)
		assert.Zero(t, f.sessions.Len())
	})

	t.Run("provisioning failure does not fail login", func(t *testing.T) {
		f := newLoginFixture()
		f.users.ReplaceGroupsErr = errors.New("db down")
		res, err := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{}).
			CompleteLogin(context.Background(), CompleteLoginInput{Code: "c"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Session.ID)
	})
}

func TestLoginService_BeginLogin(t *testing.T) {
	f := newLoginFixture()
	svc := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{})

	res, err := svc.BeginLogin(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.State)
	assert.Contains(t, res.AuthURL, "https://idp.example.com/authorize")
	assert.Contains(t, res.AuthURL, res.State)

	// Fresh state every attempt.
	res2, err := svc.BeginLogin(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, res.State, res2.State)
}

func TestLoginService_Sessions(t *testing.T) {
	f := newLoginFixture()
	svc := f.service(ports.ClaimsViaUserInfo, domainauth.BoardJoinSpec{})

	res, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c"})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		sess, err := svc.GetSession(context.Background(), res.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", sess.Username)
	})

	t.Run("expired session is deleted", func(t *testing.T) {
		expired := domainauth.Session{ID: "old", UserID: "u-1", ExpiresAt: time.Now().Add(-time.Minute)}
		require.NoError(t, f.sessions.Save(context.Background(), expired))

		_, err := svc.GetSession(context.Background(), "old")
		require.Error(t, err)
		assert.True(t, ErrSessionExpired(err))

		_, err = f.sessions.Get(context.Background(), "old")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("logout removes the session", func(t *testing.T) {
		require.NoError(t, svc.Logout(context.Background(), res.Session.ID))
		_, err := svc.GetSession(context.Background(), res.Session.ID)
		require.Error(t, err)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := svc.GetSession(context.Background(), "")
		require.Error(t, err)
		assert.NoError(t, svc.Logout(context.Background(), ""))
	})
}
