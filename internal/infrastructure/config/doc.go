// Package config provides 12-factor configuration management for the minicode server.
//
// Values are layered: built-in defaults, then an optional TOML or YAML file,
// then environment variables. cmd/server applies CLI flags last.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - CORS: Origins allowed to reach the API
//   - Preview: Debounce quiet period and console capacity
//   - Sandbox: Headless execution limits and runtime pool size
//   - Storage: Persistence backend, location and record key
//
// Example Usage:
//
//	cfg, err := config.Load("minicode.toml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Server running on %s\n", cfg.Address())
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CORS_ORIGINS (comma separated)
//   - PREVIEW_DEBOUNCE, CONSOLE_MAX_ENTRIES
//   - SANDBOX_TIMEOUT, SANDBOX_HEADLESS, SANDBOX_POOL_SIZE, SANDBOX_MAX_TIMERS, SANDBOX_MAX_REPEATS,
//     SANDBOX_MAX_CALL_STACK
//   - STORAGE_BACKEND (file, sqlite, memory), STORAGE_PATH, STORAGE_KEY
package config
