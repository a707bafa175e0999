// Package server provides the optional ops HTTP server: a Gin engine with
// h2c support, recovery, request-ID and request-logging middleware, and the
// /health, /alive, /ready and /version endpoints.
package server
