package ir

// Version constants for the snapshot schema and engine.
const (
	// SnapshotVersion is the persisted node-set schema version.
	SnapshotVersion = "1"

	// EngineVersion is the lookahead engine version.
	EngineVersion = "0.1.0"
)
