package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/lookahead/internal/ir"
)

// SessionInfo describes a stored session without its nodes.
type SessionInfo struct {
	ID      string        `json:"id"`
	Key     ir.SessionKey `json:"key"`
	Summary ir.Summary    `json:"summary"`
}

// Load returns the snapshot stored for key, or ErrNotFound.
// Nodes are returned in id order.
func (s *Store) Load(ctx context.Context, key ir.SessionKey) (*ir.Snapshot, error) {
	var (
		id      string
		summary ir.Summary
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, consumed, total, highest_urgency_node, deepest_node
		FROM sessions
		WHERE side = ? AND root_fingerprint = ?
	`, key.Side.String(), key.Fingerprint).Scan(
		&id, &summary.Consumed, &summary.Total, &summary.HighestUrgency, &summary.Deepest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s/%s: %w", key.Side, ir.ShortHashHex(key.Fingerprint), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	nodes, err := s.readNodes(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ir.Snapshot{
		Key:      key,
		Nodes:    nodes,
		Consumed: summary.Consumed,
		Summary:  summary,
	}, nil
}

// readNodes returns all nodes of a session ordered by id.
func (s *Store) readNodes(ctx context.Context, sessionID string) ([]*ir.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fingerprint, parity, depth, evaluation, winner, urgency,
		       open, terminated, parent, relatives, children
		FROM nodes
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []*ir.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

func scanNode(rows *sql.Rows) (*ir.Node, error) {
	var (
		n                   ir.Node
		winner              string
		open, terminated    int
		relatives, children string
	)
	err := rows.Scan(
		&n.ID, &n.Fingerprint, &n.Parity, &n.Depth, &n.Evaluation, &winner, &n.Urgency,
		&open, &terminated, &n.Parent, &relatives, &children,
	)
	if err != nil {
		return nil, fmt.Errorf("scan node: %w", err)
	}
	if n.Winner, err = ir.ParseSide(winner); err != nil {
		return nil, fmt.Errorf("scan node %d: %w", n.ID, err)
	}
	n.Open = open != 0
	n.Terminated = terminated != 0
	if n.Relatives, err = unmarshalIDs(relatives); err != nil {
		return nil, fmt.Errorf("scan node %d: %w", n.ID, err)
	}
	if n.Children, err = unmarshalIDs(children); err != nil {
		return nil, fmt.Errorf("scan node %d: %w", n.ID, err)
	}
	return &n, nil
}

// FindByShortHash returns the ids of a session's nodes whose fingerprint
// hashes to shortHash (hex form, as printed by the CLI).
func (s *Store) FindByShortHash(ctx context.Context, key ir.SessionKey, shortHash string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id
		FROM nodes n
		JOIN sessions s ON n.session_id = s.id
		WHERE s.side = ? AND s.root_fingerprint = ? AND n.short_hash = ?
		ORDER BY n.id ASC
	`, key.Side.String(), key.Fingerprint, shortHash)
	if err != nil {
		return nil, fmt.Errorf("query short hash: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

// List returns every stored session ordered by id (creation order).
func (s *Store) List(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, side, root_fingerprint, consumed, total, highest_urgency_node, deepest_node
		FROM sessions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	infos := []SessionInfo{}
	for rows.Next() {
		var (
			info SessionInfo
			side string
		)
		err := rows.Scan(
			&info.ID, &side, &info.Key.Fingerprint,
			&info.Summary.Consumed, &info.Summary.Total,
			&info.Summary.HighestUrgency, &info.Summary.Deepest,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if info.Key.Side, err = ir.ParseSide(side); err != nil {
			return nil, fmt.Errorf("scan session %s: %w", info.ID, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return infos, nil
}
