package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/roach88/lookahead/internal/ir"
)

// saveAttempts bounds how often a save is retried on SQLITE_BUSY.
const saveAttempts = 3

// Save writes a snapshot atomically. The session row is created on first
// save (with a new UUIDv7 id) and updated afterwards. The stored node set is
// replaced by the snapshot's. Either the whole snapshot lands or none of it
// does.
func (s *Store) Save(ctx context.Context, snap *ir.Snapshot) error {
	if !snap.Key.Side.Valid() {
		return fmt.Errorf("save session: invalid side %v", snap.Key.Side)
	}
	err := retry.Do(
		func() error { return s.save(ctx, snap) },
		retry.Context(ctx),
		retry.Attempts(saveAttempts),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(isBusy),
		retry.OnRetry(func(n uint, err error) {
			zerolog.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("save-busy-retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, snap *ir.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	sessionID, err := upsertSession(ctx, tx, snap)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes
		(session_id, id, fingerprint, short_hash, parity, depth, evaluation, winner,
		 urgency, open, terminated, parent, relatives, children)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare node insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range snap.Nodes {
		relatives, err := marshalIDs(n.Relatives)
		if err != nil {
			return err
		}
		children, err := marshalIDs(n.Children)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			sessionID,
			n.ID,
			n.Fingerprint,
			ir.ShortHashHex(n.Fingerprint),
			n.Parity,
			n.Depth,
			n.Evaluation,
			n.Winner.String(),
			n.Urgency,
			boolToInt(n.Open),
			boolToInt(n.Terminated),
			n.Parent,
			relatives,
			children,
		)
		if err != nil {
			return fmt.Errorf("insert node %d: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// upsertSession creates or updates the session row and returns its id.
func upsertSession(ctx context.Context, tx *sql.Tx, snap *ir.Snapshot) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM sessions WHERE side = ? AND root_fingerprint = ?
	`, snap.Key.Side.String(), snap.Key.Fingerprint).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.Must(uuid.NewV7()).String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions
			(id, side, root_fingerprint, root_short_hash, consumed, total,
			 highest_urgency_node, deepest_node, snapshot_version, engine_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			snap.Key.Side.String(),
			snap.Key.Fingerprint,
			ir.ShortHashHex(snap.Key.Fingerprint),
			snap.Consumed,
			snap.Summary.Total,
			snap.Summary.HighestUrgency,
			snap.Summary.Deepest,
			ir.SnapshotVersion,
			ir.EngineVersion,
		)
		if err != nil {
			return "", fmt.Errorf("insert session: %w", err)
		}
		return id, nil
	case err != nil:
		return "", fmt.Errorf("find session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE sessions SET
			consumed = ?, total = ?, highest_urgency_node = ?, deepest_node = ?,
			snapshot_version = ?, engine_version = ?
		WHERE id = ?
	`,
		snap.Consumed,
		snap.Summary.Total,
		snap.Summary.HighestUrgency,
		snap.Summary.Deepest,
		ir.SnapshotVersion,
		ir.EngineVersion,
		id,
	)
	if err != nil {
		return "", fmt.Errorf("update session: %w", err)
	}
	return id, nil
}

// isBusy reports whether err is a transient SQLite lock error.
func isBusy(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrBusy || sqlErr.Code == sqlite3.ErrLocked
	}
	return false
}
