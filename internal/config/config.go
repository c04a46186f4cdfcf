// Package config exposes the bridge's configuration as one interface per
// concern, all backed by environment variables.
package config

import "time"

type Config interface {
	EnvConfig
	ProviderConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetStatePath() string
}

// ProviderConfig covers the external identity provider and the client-side
// read cache.
type ProviderConfig interface {
	GetProviderBaseURL() string
	GetTokenExpiryMinutes() int
	GetUserCacheTTL() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}
