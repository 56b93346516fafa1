// Package auth provides authentication for the bookmarks API.
//
// It supports two authentication modes:
//   - "none": every request runs as DefaultUserID
//   - "local": local user accounts; API clients send a JWT bearer token and
//     browsers may use the session cookie set at sign-in
//
// # Configuration
//
//	AUTH_MODE=local                # or none
//	AUTH_JWT_SECRET=<hex>          # Auto-generated if empty (tokens die on restart)
//	AUTH_TOKEN_EXPIRY=720h         # Access token lifetime
//	AUTH_SESSION_SECRET=<hex>      # CSRF key, auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//	AUTH_LOCKOUT_THRESHOLD=5
//	AUTH_LOCKOUT_DURATION=30m
//
// # Usage
//
//	authService := auth.NewService(usersRepo, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager, cfg.Auth)
//	api.Use(authMiddleware.Handler())
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c) // DefaultUserID in "none" mode
package auth
