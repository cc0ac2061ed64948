package config

// AuthConfig groups OIDC claim mapping and provider-quirk configuration.
//
// Claim names are indirect on purpose: IdP claim schemas vary, so the
// deployment declares "the email field is named mail" instead of the code
// hardcoding a key. Map values may be JMESPath expressions, so nested
// claims ("address.email") and list elements ("emails[0]") work too.
type AuthConfig struct {
	// CACert is a path to a PEM bundle used as an additional trust anchor
	// for provider HTTPS calls. A missing or unreadable file is a warning,
	// not an error; the default trust store is used instead.
	CACert string `env:"OAUTH2_CA_CERT"`

	// ADFSEnabled and B2CEnabled switch claims resolution to decoding the
	// access token locally instead of calling the userinfo endpoint.
	ADFSEnabled bool `env:"OAUTH2_ADFS_ENABLED" envDefault:"false"`
	B2CEnabled  bool `env:"OAUTH2_B2C_ENABLED"  envDefault:"false"`

	// OracleOIMEnabled falls the email claim back to the username claim
	// when the mapped email claim is absent.
	OracleOIMEnabled bool `env:"ORACLE_OIM_ENABLED" envDefault:"false"`

	// Claim-name indirection for the canonical identity fields.
	IDMap       string `env:"OAUTH2_ID_MAP"       envDefault:"sub"`
	UsernameMap string `env:"OAUTH2_USERNAME_MAP" envDefault:"preferred_username"`
	FullnameMap string `env:"OAUTH2_FULLNAME_MAP" envDefault:"name"`
	EmailMap    string `env:"OAUTH2_EMAIL_MAP"    envDefault:"email"`
	GroupsMap   string `env:"OAUTH2_GROUPS_MAP"   envDefault:"groups"`

	// MappedGroupsClaim names the provider-side claim carrying groups already
	// translated to this application's group names. When both it and the raw
	// groups claim are present, it wins.
	MappedGroupsClaim string `env:"OAUTH2_MAPPED_GROUPS_CLAIM" envDefault:"boardGroups"`
}

// ClaimsInAccessToken reports whether claims should be decoded from the
// access token instead of fetched from the userinfo endpoint.
func (a AuthConfig) ClaimsInAccessToken() bool {
	return a.ADFSEnabled || a.B2CEnabled
}
