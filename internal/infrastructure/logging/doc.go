// Package logging provides structured logging for Student Ally Core.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the API, repositories and
// background publishers.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 5000)
//	logger.Error("failed to connect", "error", err)
//
// # Security
//
// Never log passwords, password hashes, or tokens. Log identity ids and
// roles instead.
package logging
