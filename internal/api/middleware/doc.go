// Package middleware provides the HTTP middleware stack for the minicode server.
//
// Middleware stack includes:
//   - RequestID: assigns a req_ ULID to each request and echoes it in X-Request-ID
//   - Logger: one zap line per request, level chosen by status
//   - CORS: cross-origin access for the host UI
//   - RateLimit: per-IP token bucket with idle client eviction
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.CORSForOrigins(cfg.CORS.Origins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
