package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "message only",
			err:  Config("service oidc not configured"),
			want: "service oidc not configured",
		},
		{
			name: "message with cause",
			err:  TokenExchange("https://idp.example.com/token", errors.New("connection refused")),
			want: "failed to get token from OIDC https://idp.example.com/token: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := AuthzTransport(cause)

	assert.ErrorIs(t, err, cause)
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
	}{
		{Config("missing"), IsConfig},
		{TokenExchange("e", errors.New("x")), IsTokenExchange},
		{ClaimsFetch("e", errors.New("x")), IsClaimsFetch},
		{Mapping("no email"), IsMapping},
		{AuthzTransport(errors.New("x")), IsAuthzTransport},
		{AuthzDenied("a@b.com"), IsAuthzDenied},
		{Provisioning("group_sync", errors.New("x")), IsProvisioning},
		{NotFound("gone"), IsNotFound},
		{Internal("oops"), IsInternal},
	}

	for _, tt := range tests {
		t.Run(string(GetCode(tt.err)), func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestCodePredicates_WrappedChain(t *testing.T) {
	inner := AuthzDenied("a@b.com")
	outer := fmt.Errorf("complete login: %w", inner)

	assert.True(t, IsAuthzDenied(outer))
	assert.Equal(t, ErrCodeAuthzDenied, GetCode(outer))
}

func TestGetEndpoint(t *testing.T) {
	err := TokenExchange("https://idp.example.com/token", errors.New("x"))
	assert.Equal(t, "https://idp.example.com/token", GetEndpoint(err))
	assert.Empty(t, GetEndpoint(errors.New("plain")))
}

func TestWrap_NilError(t *testing.T) {
	require.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	require.Nil(t, Wrapf(nil, ErrCodeInternal, "ignored %d", 1))
}
