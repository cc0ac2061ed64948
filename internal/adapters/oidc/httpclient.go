package oidc

// Package oidc talks to the identity provider: authorization URL
// construction, the authorization-code token exchange, and claims
// resolution from either the token itself or the userinfo endpoint.

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
)

const userAgent = "openboard-auth"

// LoadCAPool reads a PEM bundle and returns the system pool extended with it.
// The caller decides how to treat errors; a missing trust anchor file is a
// warning, not a hard failure.
func LoadCAPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CA bundle %s: %w", path, err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates parsed from %s", path)
	}
	return pool, nil
}

// NewHTTPClient builds the HTTP client shared by all provider calls.
// A nil pool means default trust. The client is built once at startup and is
// safe for concurrent use; timeout enforcement for the whole pipeline lives
// here rather than in the individual calls.
func NewHTTPClient(pool *x509.CertPool) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	if pool != nil {
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: &userAgentTransport{base: transport},
	}
}

// userAgentTransport stamps a User-Agent on outbound requests that lack one.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	return t.base.RoundTrip(req)
}
