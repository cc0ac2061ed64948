package auth

// ClaimSet maps claim names to raw JSON values as returned by the provider.
type ClaimSet map[string]any

// Unwrapped strips provider-specific envelopes: Nextcloud wraps claims in
// ocs.data and OpenShift wraps them in metadata. The result is always the
// flat claims object.
func (c ClaimSet) Unwrapped() ClaimSet {
	if ocs, ok := c["ocs"].(map[string]any); ok {
		if data, ok := ocs["data"].(map[string]any); ok {
			return ClaimSet(data)
		}
	}
	if meta, ok := c["metadata"].(map[string]any); ok {
		return ClaimSet(meta)
	}
	return c
}

// Expired reports whether the claim set carries an exp claim at or before
// the Unix epoch offset now. A decode failure produces ClaimSet{"exp": 0},
// which is always expired.
func (c ClaimSet) Expired(now int64) bool {
	switch v := c["exp"].(type) {
	case float64:
		return int64(v) <= now
	case int64:
		return v <= now
	case int:
		return int64(v) <= now
	default:
		return false
	}
}

// StringVal returns the claim as a string, or empty when absent or not a string.
func (c ClaimSet) StringVal(name string) string {
	s, _ := c[name].(string)
	return s
}
