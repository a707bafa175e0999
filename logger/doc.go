// Package logger provides structured logging on top of zerolog.
//
// It supports console and JSON output, level configuration, and
// component-scoped loggers that carry structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.WithComponent("voice")
//	log.Error("step failed", logger.ErrorFields("fetch", err))
package logger
