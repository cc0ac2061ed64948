package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/openboard/auth-api/internal/domain/auth"
	apperrors "github.com/openboard/auth-api/internal/errors"
	"github.com/openboard/auth-api/internal/service"
)

// stubAuthService implements AuthServiceInterface with canned responses.
type stubAuthService struct {
	beginResult    *service.BeginLoginResult
	beginErr       error
	completeResult *service.CompleteLoginResult
	completeErr    error
	session        *domainauth.Session
	sessionErr     error

	completeInput service.CompleteLoginInput
	logoutCalls   []string
}

func (s *stubAuthService) BeginLogin(context.Context) (*service.BeginLoginResult, error) {
	return s.beginResult, s.beginErr
}

func (s *stubAuthService) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	s.completeInput = in
	return s.completeResult, s.completeErr
}

func (s *stubAuthService) GetSession(context.Context, string) (*domainauth.Session, error) {
	return s.session, s.sessionErr
}

func (s *stubAuthService) Logout(_ context.Context, id string) error {
	s.logoutCalls = append(s.logoutCalls, id)
	return nil
}

func cookieByName(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_Login(t *testing.T) {
	svc := &stubAuthService{
		beginResult: &service.BeginLoginResult{
			AuthURL: "https://idp.example.com/authorize?state=abc",
			State:   "abc",
		},
	}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/boards", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	resp := rec.Result()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://idp.example.com/authorize?state=abc", resp.Header.Get("Location"))

	state := cookieByName(t, resp, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, "abc", state.Value)
	assert.True(t, state.HttpOnly)

	redirect := cookieByName(t, resp, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/boards", redirect.Value)
}

func TestAuthHandlers_Login_RejectsAbsoluteRedirect(t *testing.T) {
	svc := &stubAuthService{
		beginResult: &service.BeginLoginResult{AuthURL: "https://idp.example.com/a", State: "s"},
	}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https://evil.example.com/", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	redirect := cookieByName(t, rec.Result(), "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/", redirect.Value)
}

func TestAuthHandlers_Login_Unconfigured(t *testing.T) {
	svc := &stubAuthService{beginErr: apperrors.Config("OIDC service is not configured")}
	h := &AuthHandlers{Svc: svc, Logger: testLogger()}

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "login_unavailable")
}

func TestAuthHandlers_Callback(t *testing.T) {
	session := domainauth.Session{
		ID: "sess-1", UserID: "u-1", Username: "alice",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	svc := &stubAuthService{
		completeResult: &service.CompleteLoginResult{Session: session},
	}
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c1&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})
	req.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/boards"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	resp := rec.Result()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/boards", resp.Header.Get("Location"))
	assert.Equal(t, "c1", svc.completeInput.Code)
	assert.Equal(t, "abc", svc.completeInput.State)

	sessCookie := cookieByName(t, resp, "session_id")
	require.NotNil(t, sessCookie)
	assert.Equal(t, "sess-1", sessCookie.Value)

	// State cookie is cleared after use.
	state := cookieByName(t, resp, "oauth_state")
	require.NotNil(t, state)
	assert.Empty(t, state.Value)
	assert.Negative(t, state.MaxAge)
}

func TestAuthHandlers_Callback_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		cookie   string
		wantCode string
	}{
		{name: "missing code", target: "/auth/callback?state=abc", cookie: "abc", wantCode: "missing_code"},
		{name: "state mismatch", target: "/auth/callback?code=c&state=evil", cookie: "abc", wantCode: "invalid_state"},
		{name: "missing state cookie", target: "/auth/callback?code=c&state=abc", wantCode: "invalid_state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AuthHandlers{Svc: &stubAuthService{}}
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "oauth_state", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.Callback(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestAuthHandlers_Callback_DeniedVersusFailed(t *testing.T) {
	t.Run("denied email gets a distinct response", func(t *testing.T) {
		svc := &stubAuthService{completeErr: apperrors.AuthzDenied("bad@example.com")}
		h := &AuthHandlers{Svc: svc, Logger: testLogger()}

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=abc", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})
		rec := httptest.NewRecorder()
		h.Callback(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "email_not_authorized")
		// The offending email never leaks to the client.
		assert.NotContains(t, rec.Body.String(), "bad@example.com")
	})

	t.Run("transport failure stays generic", func(t *testing.T) {
		svc := &stubAuthService{
			completeErr: apperrors.AuthzTransport(errors.New("dial tcp 10.0.0.5: connection refused")),
		}
		h := &AuthHandlers{Svc: svc, Logger: testLogger()}

		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c&state=abc", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc"})
		rec := httptest.NewRecorder()
		h.Callback(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "login_failed")
		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	})
}

func TestAuthHandlers_Logout(t *testing.T) {
	svc := &stubAuthService{}
	h := &AuthHandlers{Svc: svc, Logger: testLogger()}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	ctx := SetSessionInContext(req.Context(), &domainauth.Session{ID: "sess-1", UserID: "u-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sess-1"}, svc.logoutCalls)

	cleared := cookieByName(t, rec.Result(), "session_id")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestAuthHandlers_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		svc := &stubAuthService{
			session: &domainauth.Session{
				ID: "sess-1", UserID: "u-1", Username: "alice",
				Email: "alice@example.com", ExpiresAt: time.Now().Add(time.Hour),
			},
		}
		h := &AuthHandlers{Svc: svc}

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, true, body["authenticated"])
		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", user["username"])
	})

	t.Run("no cookie", func(t *testing.T) {
		h := &AuthHandlers{Svc: &stubAuthService{}}
		rec := httptest.NewRecorder()
		h.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})

	t.Run("stale session clears the cookie", func(t *testing.T) {
		svc := &stubAuthService{sessionErr: apperrors.NotFound("session not found")}
		h := &AuthHandlers{Svc: svc}

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "gone"})
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
		cleared := cookieByName(t, rec.Result(), "session_id")
		require.NotNil(t, cleared)
		assert.Negative(t, cleared.MaxAge)
	})
}
