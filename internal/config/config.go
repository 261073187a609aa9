package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Identity provider and token verifier backends.
const (
	BackendKratos = "kratos"
	BackendLocal  = "local"
	BackendJWT    = "jwt"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	Version        string `envconfig:"VERSION" default:"dev"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	IdentityProvider string        `envconfig:"IDENTITY_PROVIDER" default:"kratos"`
	KratosAdminURL   string        `envconfig:"KRATOS_ADMIN_URL" default:""`
	KratosPublicURL  string        `envconfig:"KRATOS_PUBLIC_URL" default:""`
	KratosSchemaID   string        `envconfig:"KRATOS_SCHEMA_ID" default:"default"`
	IdentityTimeout  time.Duration `envconfig:"IDENTITY_TIMEOUT" default:"10s"`
	BcryptCost       int           `envconfig:"BCRYPT_COST" default:"12"`

	TokenVerifier string        `envconfig:"TOKEN_VERIFIER" default:"kratos"`
	JWTSecret     string        `envconfig:"JWT_SECRET" default:""`
	JWTIssuer     string        `envconfig:"JWT_ISSUER" default:"roster"`
	JWTTTL        time.Duration `envconfig:"JWT_TTL" default:"1h"`

	LeadScopeRule       string `envconfig:"LEAD_SCOPE_RULE" default:"office"`
	RequireCallerActive bool   `envconfig:"REQUIRE_CALLER_ACTIVE" default:"true"`
	PendingStatus       string `envconfig:"PENDING_STATUS" default:"inactive"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	BootstrapDirectorEmail    string `envconfig:"BOOTSTRAP_DIRECTOR_EMAIL" default:""`
	BootstrapDirectorPassword string `envconfig:"BOOTSTRAP_DIRECTOR_PASSWORD" default:""`
	BootstrapDirectorName     string `envconfig:"BOOTSTRAP_DIRECTOR_NAME" default:"Director"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cross-field rules envconfig cannot express.
func (c *Config) Validate() error {
	switch c.IdentityProvider {
	case BackendKratos:
		if c.KratosAdminURL == "" {
			return fmt.Errorf("KRATOS_ADMIN_URL is required when IDENTITY_PROVIDER=%s", BackendKratos)
		}
	case BackendLocal:
	default:
		return fmt.Errorf("IDENTITY_PROVIDER must be %q or %q, got %q", BackendKratos, BackendLocal, c.IdentityProvider)
	}

	switch c.TokenVerifier {
	case BackendKratos:
		if c.KratosPublicURL == "" {
			return fmt.Errorf("KRATOS_PUBLIC_URL is required when TOKEN_VERIFIER=%s", BackendKratos)
		}
	case BackendJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when TOKEN_VERIFIER=%s", BackendJWT)
		}
	default:
		return fmt.Errorf("TOKEN_VERIFIER must be %q or %q, got %q", BackendKratos, BackendJWT, c.TokenVerifier)
	}

	switch c.LeadScopeRule {
	case "office", "reportingTo":
	default:
		return fmt.Errorf("LEAD_SCOPE_RULE must be \"office\" or \"reportingTo\", got %q", c.LeadScopeRule)
	}

	switch c.PendingStatus {
	case "inactive", "pending_approval":
	default:
		return fmt.Errorf("PENDING_STATUS must be \"inactive\" or \"pending_approval\", got %q", c.PendingStatus)
	}

	if c.BootstrapDirectorEmail != "" && c.BootstrapDirectorPassword == "" {
		return fmt.Errorf("BOOTSTRAP_DIRECTOR_PASSWORD is required when BOOTSTRAP_DIRECTOR_EMAIL is set")
	}

	return nil
}

// BootstrapEnabled reports whether a first director should be created on an empty store.
func (c *Config) BootstrapEnabled() bool {
	return c.BootstrapDirectorEmail != "" && c.BootstrapDirectorPassword != ""
}
