package config

// ProvisioningConfig controls the post-login provisioning hooks.
type ProvisioningConfig struct {
	// PropagateData enables the group/attribute sync hook.
	PropagateData bool `env:"PROPAGATE_OIDC_DATA" envDefault:"false"`

	// DefaultBoard is the board auto-join setting in the form
	// "<boardID>[:flag]*" with flags among isAdmin, isNoComments,
	// isCommentsOnly and isWorker. Empty disables the hook.
	DefaultBoard string `env:"DEFAULT_BOARD_ID" envDefault:""`
}
