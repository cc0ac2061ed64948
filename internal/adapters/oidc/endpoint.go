package oidc

import "strings"

// resolveEndpoint returns the endpoint verbatim when it is already an
// absolute HTTPS URL, otherwise resolves it relative to the provider base URL.
func resolveEndpoint(serverURL, endpoint string) string {
	if strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return strings.TrimSuffix(serverURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")
}
