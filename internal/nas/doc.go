// Package nas owns the NAS-EPS decoding engine.
//
// Ownership boundary:
// - element id enumerations and codec tables (EMM, ESM, common)
// - message dispatch tables and grammars
// - security envelope orchestration and ciphered-body fallback
// - top-level decode entry point
//
// Decoding never aborts on malformed network input: the caller always
// receives a DecodedMessage, possibly partial with an error marker.
// document version: 3GPP TS 24.301 v12 era message layouts
package nas
