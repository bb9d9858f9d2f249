// Package engine implements the lookahead best-first search loop.
//
// The engine repeatedly picks the most urgent open position from the node
// store and refines the estimate of the best line of play from the root.
//
// ARCHITECTURE:
//
// Single-Threaded Step Loop:
// Every unit of work is one step, executed synchronously:
// 1. SELECT: take the best open, non-terminated node and close it
// 2. EXPAND: if it has no children, generate them through the Rules
// collaborator, reusing positions already in the store
// 3. RESCORE: urgency = -max(child urgency), then classify termination
// 4. PROPAGATE: if urgency moved, reopen the parent at +Sentinel and
// reopen every relative
//
// Propagation is lazy. A parent forced to +Sentinel is rescored only when it
// is selected again, usually on the very next step. This is what a unit of
// work budget counts, so it must not be replaced by eager backpropagation.
//
// Checkpoints:
// The session is checkpointed every CheckpointInterval consumed steps and
// once more at the end of any run that executed steps. A run with a zero
// budget neither selects nor writes.
//
// CRITICAL PATTERNS:
//
// Dense Ids:
// Node ids come from the store's NextID and strictly increase. Nodes never
// hold pointers to each other; parent, children and relatives are ids.
//
// Determinism:
// Ranking ties break on depth then id, and Rules must be deterministic, so
// run(N) followed by run(M) reaches the same node set as run(N+M).
package engine
