package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.ConfigProvider    = (*StaticConfigProvider)(nil)
	_ ports.TokenClient       = (*MockTokenClient)(nil)
	_ ports.ClaimsResolver    = (*MockClaimsResolver)(nil)
	_ ports.TokenDecoder      = (*MockTokenDecoder)(nil)
	_ ports.AuthorizationGate = (*MockAuthorizationGate)(nil)
	_ ports.UserStore         = (*MemoryUserStore)(nil)
	_ ports.BoardStore        = (*MemoryBoardStore)(nil)
	_ ports.SessionStore      = (*MemorySessionStore)(nil)
)

// StaticConfigProvider returns a fixed configuration, or Err when set.
type StaticConfigProvider struct {
	Config domainauth.OidcConfig
	Err    error
}

func (p *StaticConfigProvider) Load(context.Context) (domainauth.OidcConfig, error) {
	if p.Err != nil {
		return domainauth.OidcConfig{}, p.Err
	}
	return p.Config, nil
}

// MockTokenClient returns canned tokens and records the last exchange input.
type MockTokenClient struct {
	Tokens domainauth.TokenSet
	Err    error

	LastInput ports.ExchangeInput
	Calls     int
}

func (m *MockTokenClient) AuthCodeURL(cfg domainauth.OidcConfig, state string) string {
	return cfg.AuthEndpoint + "?state=" + state
}

func (m *MockTokenClient) Exchange(_ context.Context, in ports.ExchangeInput) (domainauth.TokenSet, error) {
	m.Calls++
	m.LastInput = in
	if m.Err != nil {
		return domainauth.TokenSet{}, m.Err
	}
	return m.Tokens, nil
}

// MockClaimsResolver returns canned claims and records the mode it was asked for.
type MockClaimsResolver struct {
	Claims domainauth.ClaimSet
	Err    error

	LastMode ports.ClaimsMode
	Calls    int
}

func (m *MockClaimsResolver) Resolve(
	_ context.Context,
	_ domainauth.TokenSet,
	_ domainauth.OidcConfig,
	mode ports.ClaimsMode,
) (domainauth.ClaimSet, error) {
	m.Calls++
	m.LastMode = mode
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Claims, nil
}

// MockTokenDecoder maps token strings to claim sets.
type MockTokenDecoder struct {
	Claims map[string]domainauth.ClaimSet
	Err    error
}

func (m *MockTokenDecoder) DecodeClaims(token string) (domainauth.ClaimSet, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if c, ok := m.Claims[token]; ok {
		return c, nil
	}
	return nil, apperrors.ClaimsDecode(errors.New("unknown token"))
}

// MockAuthorizationGate allows the configured set of emails and records lookups.
type MockAuthorizationGate struct {
	AllowedEmails map[string]bool
	Err           error

	Lookups []string
}

func (m *MockAuthorizationGate) Allowed(_ context.Context, email string) (bool, error) {
	m.Lookups = append(m.Lookups, email)
	if m.Err != nil {
		return false, m.Err
	}
	return m.AllowedEmails[email], nil
}

// MemoryUserStore is an in-memory user store keyed by provider id.
type MemoryUserStore struct {
	mu     sync.Mutex
	users  map[string]domainauth.User
	nextID int

	UpsertCalls        int
	SyncProfileCalls   int
	ReplaceGroupsCalls int
	LastGroups         []domainauth.GroupRef
	LastSyncedIdentity domainauth.Identity

	UpsertErr        error
	SyncProfileErr   error
	ReplaceGroupsErr error
}

// NewMemoryUserStore creates a store seeded with the given users.
func NewMemoryUserStore(users ...domainauth.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[string]domainauth.User)}
	for _, u := range users {
		s.users[u.ProviderID] = u
	}
	return s
}

func (s *MemoryUserStore) GetByProviderID(_ context.Context, providerID string) (domainauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[providerID]
	if !ok {
		return domainauth.User{}, apperrors.NotFoundf("user with provider id %q not found", providerID)
	}
	return u, nil
}

func (s *MemoryUserStore) Upsert(_ context.Context, identity domainauth.Identity) (domainauth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpsertCalls++
	if s.UpsertErr != nil {
		return domainauth.User{}, s.UpsertErr
	}
	u, ok := s.users[identity.ID]
	if !ok {
		s.nextID++
		u = domainauth.User{ID: fmt.Sprintf("mem-%d", s.nextID), ProviderID: identity.ID}
	}
	if identity.Username != "" {
		u.Username = identity.Username
	}
	if identity.Fullname != "" {
		u.Fullname = identity.Fullname
	}
	if identity.Email != "" {
		u.Email = identity.Email
	}
	s.users[identity.ID] = u
	return u, nil
}

func (s *MemoryUserStore) SyncProfile(_ context.Context, userID string, identity domainauth.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SyncProfileCalls++
	s.LastSyncedIdentity = identity
	if s.SyncProfileErr != nil {
		return s.SyncProfileErr
	}
	for pid, u := range s.users {
		if u.ID != userID {
			continue
		}
		if identity.Email != "" {
			u.Email = identity.Email
		}
		if identity.Fullname != "" {
			u.Fullname = identity.Fullname
		}
		if identity.Username != "" {
			u.Username = identity.Username
		}
		s.users[pid] = u
	}
	return nil
}

func (s *MemoryUserStore) ReplaceGroups(_ context.Context, _ string, groups []domainauth.GroupRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReplaceGroupsCalls++
	s.LastGroups = groups
	return s.ReplaceGroupsErr
}

// MemoryBoardStore is an in-memory board membership store.
type MemoryBoardStore struct {
	mu      sync.Mutex
	boards  map[string]bool
	members map[string]map[string]domainauth.BoardJoinSpec

	AddMemberCalls int
	AddMemberErr   error
}

// NewMemoryBoardStore creates a store containing the given boards.
func NewMemoryBoardStore(boardIDs ...string) *MemoryBoardStore {
	s := &MemoryBoardStore{
		boards:  make(map[string]bool),
		members: make(map[string]map[string]domainauth.BoardJoinSpec),
	}
	for _, id := range boardIDs {
		s.boards[id] = true
	}
	return s
}

func (s *MemoryBoardStore) BoardExists(_ context.Context, boardID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boards[boardID], nil
}

func (s *MemoryBoardStore) IsMember(_ context.Context, boardID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[boardID][userID]
	return ok, nil
}

func (s *MemoryBoardStore) AddMember(_ context.Context, userID string, spec domainauth.BoardJoinSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AddMemberCalls++
	if s.AddMemberErr != nil {
		return s.AddMemberErr
	}
	if s.members[spec.BoardID] == nil {
		s.members[spec.BoardID] = make(map[string]domainauth.BoardJoinSpec)
	}
	s.members[spec.BoardID][userID] = spec
	return nil
}

// Member returns the stored join spec for a user, if any.
func (s *MemoryBoardStore) Member(boardID, userID string) (domainauth.BoardJoinSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.members[boardID][userID]
	return spec, ok
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (s *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domainauth.Session{}, apperrors.NotFoundf("session %q not found", id)
	}
	return sess, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
