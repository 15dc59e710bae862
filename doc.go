// Package naseps decodes NAS-EPS (3GPP TS 24.301) signaling messages.
//
// Ownership boundary:
// - public decode entry point and decode configuration
// - ciphering key / direction / force-plain settings, including the
//   TOML file form
// - re-exported result and error types
//
// The engine itself lives under internal/: cursor primitives, wire
// shapes and grammar evaluation, the security envelope, and the
// EMM/ESM dispatch tables.
//
// A decode call never fails outright on malformed network input; it
// returns a partial message carrying an error marker instead.
package naseps
