// Package ir provides the shared data model for the lookahead search engine.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal, so the node model stays the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Nodes reference each other by dense integer id, never by pointer
//   - Positions are identified by their fingerprint; the dedup key is
//     (fingerprint, parity)
//   - Evaluations are side-A positive (Top is side A)
//   - All JSON tags use snake_case
package ir
