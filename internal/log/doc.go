// Package log provides structured logging with automatic sanitization of
// sensitive values, built on top of the standard slog package.
//
// A crawler's logs carry fetched URLs, response headers, and request
// metadata, any of which can contain credentials: session cookies,
// bearer tokens in Authorization headers, API keys embedded in query
// strings. The SecureHandler masks these before they reach the
// underlying handler, so even verbose debug logs are safe to share.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("page fetched",
//	    "cookie", "session=abc123",  // masked
//	    "url", "http://example.com", // logged as-is
//	)
//
//	slog.SetDefault(logger)
package log
