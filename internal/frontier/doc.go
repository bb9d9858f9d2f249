// Package frontier provides the position node store used by the search engine.
//
// The store owns every node of a session in an arena indexed by node id,
// deduplicates positions by (fingerprint, parity), and keeps the eligible
// nodes (open and not terminated) in a B-tree ordered by rank:
//
//   - urgency descending
//   - depth ascending
//   - id ascending (total order, so resumed runs select identically)
//
// Insert, Reinsert and Best are O(log n). Reinsert is the only way to change
// a node after insertion: the node is removed from the ranking, mutated and
// re-ranked in one call, so the ordering can never go stale.
//
// All read methods return copies. Callers must re-read a node after any
// Reinsert rather than holding on to an earlier copy.
package frontier
