// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard
// slog package.
//
// A crawler routinely handles authentication material: session cookies
// from the scope file, Authorization headers attached to fetches, and
// tokens that appear in discovered URLs. The SecureHandler masks these
// before any record reaches the underlying handler, so even debug logs
// are safe to share.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("fetching",
//	    "cookie", "session=abc123", // masked in output
//	    "url", "http://app.example.com/",
//	)
//
//	slog.SetDefault(logger)
package log
