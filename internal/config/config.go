package config

// Version information, set at build time

var Version = "development"
var CommitHash = "development"
var BuildTimestamp = "0000-00-00T00:00:00Z"

// Main app config

type Config struct {
	Port              int    `mapstructure:"port" validate:"required"`
	Address           string `validate:"required,ip4_addr" mapstructure:"address"`
	AppURL            string `validate:"required,url" mapstructure:"app-url"`
	LoginURL          string `validate:"required,url" mapstructure:"login-url"`
	Secret            string `validate:"required,min=32" mapstructure:"secret"`
	DatabasePath      string `mapstructure:"database-path" validate:"required"`
	LogLevel          string `mapstructure:"log-level" validate:"oneof=trace debug info warn error fatal panic"`
	AccessTokenExpiry int    `mapstructure:"access-token-expiry"`
	AuthCodeExpiry    int    `mapstructure:"auth-code-expiry"`
	SessionCookieName string `mapstructure:"session-cookie-name"`
	TrustedProxies    string `mapstructure:"trusted-proxies"`
}

// Roles understood by the directory. Anything else is unprivileged and
// is never issued a token.

const (
	RoleAdmin       = "admin"
	RoleContributor = "contributor"
)

// McpIdentity is the authenticated caller of an RPC request, derived
// per request from a bearer token. A nil identity is an anonymous,
// read-only caller.

type McpIdentity struct {
	SubjectID string
	Role      string
}

func (i *McpIdentity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func (i *McpIdentity) CanWrite() bool {
	return i != nil && (i.Role == RoleAdmin || i.Role == RoleContributor)
}

// The client id bound to codes when the caller did not declare one.
// There is no client registry, only the public-client model.

const AnonymousClientID = "anonymous"

const (
	SupportedGrantType    = "authorization_code"
	SupportedResponseType = "code"
	DefaultScope          = "directory"
)

var SupportedCodeChallengeMethods = []string{"S256", "plain"}
