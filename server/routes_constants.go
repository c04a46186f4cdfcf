package server

// RPC surface. Every operation is a JSON POST; the session route sits behind
// the bearer-token middleware.
const (
	RouteRPCLogin   = "/rpc/auth/login"
	RouteRPCMe      = "/rpc/auth/me"
	RouteRPCRefresh = "/rpc/auth/refresh"
	RouteRPCSession = "/rpc/auth/session"

	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)
