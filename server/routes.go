package server

import "github.com/prometheus/client_golang/prometheus/promhttp"

func (s *Server) initRoutes() {
	// Auth RPC routes
	s.RegisterRouteHandler("POST "+RouteRPCLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRPCMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRPCRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))

	// Protected routes (require a valid bearer token)
	s.RegisterRouteHandler("GET "+RouteRPCSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
