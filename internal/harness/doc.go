// Package harness runs search scenarios described in YAML and checks the
// resulting node sets.
//
// # Scenario Format
//
//	name: transposition
//	description: "Second path to a position is recorded as a relative"
//	side: top
//	game:
//	  start: root
//	  positions:
//	    - id: root
//	      moves: [a, b]
//	    - id: a
//	      eval: 3
//	      moves: [c]
//	options:
//	  checkpoint_interval: 2
//	steps:
//	  - budget: 3
//	  - until: 10
//	assertions:
//	  - type: node
//	    fingerprint: c
//	    expect: { parent: a, relatives: [b] }
//
// A scenario either scripts a position graph (game) or searches a real
// board (xiangqi, with start "initial" or a 90-character fingerprint).
// Files are checked against an embedded CUE schema before decoding, and
// unknown fields are rejected.
//
// # Assertion Types
//
//   - node_count, consumed, saves: compare a counter with count
//   - stopped: the last call's stop reason
//   - best: fingerprint of the best eligible node
//   - node: subset match on one node's fields; urgencies may be written as
//     sentinel or -sentinel
//   - principal_line: fingerprints along the highest-urgency line
//
// # Determinism
//
// Each scenario runs against a fresh in-memory SQLite store with fixed run
// ids. Every step opens a new session, so multi-step scenarios exercise
// resume from checkpoint. Golden snapshots live in testdata/golden.
package harness
