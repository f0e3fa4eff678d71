// Package log provides the slog setup used by every showcase surface.
//
// All loggers are built around SecureHandler, a slog.Handler wrapper that
// masks sensitive attributes before they reach the output. showcase handles
// two kinds of secrets:
//   - the reading gate password and its bcrypt hash
//   - request credentials seen by the HTTP server (Authorization, Cookie)
//
// Values are masked by key name ("password", "gate_hash", "cookie") and by
// value shape (bcrypt hashes, bearer tokens, JWTs), so a secret logged under an
// innocent key is still hidden.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	// the server logs JSON at Info level
//	logger = log.New(os.Stderr, log.Options{JSON: true, Level: slog.LevelInfo})
package log
