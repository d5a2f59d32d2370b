// Package handler implements the wololo HTTP API.
//
// # Handlers
//
// Handler serves the device registry (list, wake, status) and the discovery
// workflow (scan, latest result, config generation and download). Events are
// streamed separately by the hub package.
//
// Middleware provides panic recovery, request logging and security headers.
//
// # API Design
//
// All endpoints exchange JSON except the generated config, which is served as
// YAML. Errors use ErrorResponse with an HTTP status derived from the service
// sentinel errors.
package handler
