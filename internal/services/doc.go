// Package services defines shared utilities consumed by the readiness
// controller and the engine adapters.
//
// Key responsibilities:
//   - Context helpers that stamp remediation actions and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate adapter
//     failures into stable diagnostic codes.
//
// Use these helpers when wiring new adapter logic so error classification and
// observability stay uniform across the repository.
package services
