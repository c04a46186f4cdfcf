package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// EnvVars is the env-parsed configuration backing every config interface.
type EnvVars struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	AppName            string        `env:"APP_NAME" envDefault:"Auth Bridge"`
	Env                string        `env:"ENV" envDefault:"DEV"`
	StatePath          string        `env:"AUTH_STATE_PATH"`
	ProviderBaseURL    string        `env:"PROVIDER_BASE_URL" envDefault:"https://dummyjson.com"`
	TokenExpiryMinutes int           `env:"TOKEN_EXPIRY_MINS" envDefault:"30"`
	UserCacheTTL       time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`
	AllowedOrigins     []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	AllowedMethods     string        `env:"ALLOWED_METHODS" envDefault:"GET, POST, OPTIONS"`
	AllowedHeaders     string        `env:"ALLOWED_HEADERS" envDefault:"Content-Type, Authorization"`
}

var _ Config = EnvVars{}

// New parses the environment into a Config.
func New() (Config, error) {
	var vars EnvVars
	if err := env.Parse(&vars); err != nil {
		return nil, errors.Wrap(err, "[config.New] parsing environment")
	}
	return vars, nil
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetStatePath() string {
	return e.StatePath
}

func (e EnvVars) GetProviderBaseURL() string {
	return e.ProviderBaseURL
}

func (e EnvVars) GetTokenExpiryMinutes() int {
	return e.TokenExpiryMinutes
}

func (e EnvVars) GetUserCacheTTL() time.Duration {
	return e.UserCacheTTL
}

func (e EnvVars) GetAllowedOrigins() AllowedOrigins {
	origins := make(AllowedOrigins, len(e.AllowedOrigins))
	for _, origin := range e.AllowedOrigins {
		origins[strings.TrimSpace(origin)] = nullValue{}
	}
	return origins
}

func (e EnvVars) GetAllowedMethods() string {
	return e.AllowedMethods
}

func (e EnvVars) GetAllowedHeaders() string {
	return e.AllowedHeaders
}
