package config

// DBConfig contains PostgreSQL database configuration for the application's
// own user/board/settings store.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"openboard"`
	Password string `env:"PASSWORD" envDefault:"openboard"`
	Name     string `env:"NAME"     envDefault:"openboard"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DirectoryConfig contains the connection parameters for the external email
// allow-list directory. The table and email field are configurable because
// the directory schema is owned elsewhere.
type DirectoryConfig struct {
	Host       string `env:"HOST"        envDefault:"localhost"`
	Port       int    `env:"PORT"        envDefault:"5432"`
	User       string `env:"USER"`
	Password   string `env:"PASSWORD"`
	Database   string `env:"DATABASE"`
	Table      string `env:"TABLE"       envDefault:"users"`
	EmailField string `env:"EMAIL_FIELD" envDefault:"email"`
	SSLMode    string `env:"SSL_MODE"    envDefault:"disable"`
}

// Enabled reports whether a directory database is configured. Without one the
// allow-list gate cannot run and login must fail closed.
func (d DirectoryConfig) Enabled() bool {
	return d.Database != ""
}

// Sanitize applies guardrails to directory configuration values.
func (d *DirectoryConfig) Sanitize() {
	if d.Table == "" {
		d.Table = "users"
	}
	if d.EmailField == "" {
		d.EmailField = "email"
	}
}

// RedisConfig contains Redis configuration for the session store.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}
