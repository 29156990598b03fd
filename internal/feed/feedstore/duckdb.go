// FeedStream - Activity Feed Aggregation Service
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DuckDBStore is the embedded-SQL-backed durable store. One instance
// serves every registered feed; rows are scoped by feed_name. Relations,
// Flat, and Activities return thin adapters over the same connection,
// each satisfying the corresponding interface.
type DuckDBStore struct {
	conn *sql.DB
}

// Open opens (or creates) the DuckDB database at path — pass ":memory:"
// for a throwaway instance — and creates the schema if it doesn't
// already exist.
func Open(path string) (*DuckDBStore, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	s := &DuckDBStore{conn: conn}
	if err := s.createSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *DuckDBStore) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS relations (
			feed_name TEXT NOT NULL,
			producer_id TEXT NOT NULL,
			consumer_id TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS relations_unique
			ON relations(feed_name, consumer_id, producer_id)`,
		`CREATE TABLE IF NOT EXISTS flat_events (
			id BIGINT GENERATED ALWAYS AS IDENTITY,
			feed_name TEXT NOT NULL,
			item_id TEXT NOT NULL,
			producer_id TEXT NOT NULL,
			verb TEXT NOT NULL,
			timestamp BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS flat_events_unique
			ON flat_events(feed_name, producer_id, item_id, verb)`,
		`CREATE INDEX IF NOT EXISTS flat_events_item_id
			ON flat_events(feed_name, item_id)`,
		`CREATE TABLE IF NOT EXISTS activity_events (
			id BIGINT GENERATED ALWAYS AS IDENTITY,
			feed_name TEXT NOT NULL,
			item_id TEXT NOT NULL,
			consumer_id TEXT NOT NULL,
			producer_id TEXT NOT NULL,
			verb TEXT NOT NULL,
			timestamp BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS activity_events_unique
			ON activity_events(feed_name, producer_id, item_id, verb, consumer_id)`,
		`CREATE INDEX IF NOT EXISTS activity_events_item_id
			ON activity_events(feed_name, item_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.conn.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *DuckDBStore) Close() error { return s.conn.Close() }

// Ping checks the connection is alive.
func (s *DuckDBStore) Ping(ctx context.Context) error { return s.conn.PingContext(ctx) }

// Relations returns a RelationStore view over this connection.
func (s *DuckDBStore) Relations() *DuckDBRelationStore { return &DuckDBRelationStore{conn: s.conn} }

// Flat returns a FlatEventStore view over this connection.
func (s *DuckDBStore) Flat() *DuckDBFlatStore { return &DuckDBFlatStore{conn: s.conn} }

// Activities returns an ActivityEventStore view over this connection.
func (s *DuckDBStore) Activities() *DuckDBActivityStore { return &DuckDBActivityStore{conn: s.conn} }

// DuckDBRelationStore implements RelationStore.
type DuckDBRelationStore struct{ conn *sql.DB }

func (s *DuckDBRelationStore) Insert(ctx context.Context, feedName, producerID, consumerID string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO relations(feed_name, producer_id, consumer_id)
			SELECT ?, ?, ?
			WHERE NOT EXISTS (
				SELECT 1 FROM relations
				WHERE feed_name = ? AND producer_id = ? AND consumer_id = ?
			)`,
		feedName, producerID, consumerID, feedName, producerID, consumerID)
	return err
}

func (s *DuckDBRelationStore) Delete(ctx context.Context, feedName, producerID, consumerID string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM relations WHERE feed_name = ? AND producer_id = ? AND consumer_id = ?`,
		feedName, producerID, consumerID)
	return err
}

func (s *DuckDBRelationStore) ConsumersOf(ctx context.Context, feedName, producerID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT consumer_id FROM relations WHERE feed_name = ? AND producer_id = ?`,
		feedName, producerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DuckDBFlatStore implements FlatEventStore.
type DuckDBFlatStore struct{ conn *sql.DB }

func (s *DuckDBFlatStore) Insert(ctx context.Context, feedName string, item FlatItem) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM flat_events WHERE feed_name = ? AND producer_id = ? AND item_id = ? AND verb = ?`,
		feedName, item.ProducerID, item.ItemID, item.Verb)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO flat_events(feed_name, item_id, producer_id, verb, timestamp) VALUES (?, ?, ?, ?, ?)`,
		feedName, item.ItemID, item.ProducerID, item.Verb, item.Timestamp)
	return err
}

func (s *DuckDBFlatStore) Delete(ctx context.Context, feedName, producerID, itemID, verb string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM flat_events WHERE feed_name = ? AND producer_id = ? AND item_id = ? AND verb = ?`,
		feedName, producerID, itemID, verb)
	return err
}

func (s *DuckDBFlatStore) ByItemID(ctx context.Context, feedName, itemID string) (FlatItem, bool, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT item_id, producer_id, verb, timestamp FROM flat_events
			WHERE feed_name = ? AND item_id = ? LIMIT 1`,
		feedName, itemID)
	var item FlatItem
	if err := row.Scan(&item.ItemID, &item.ProducerID, &item.Verb, &item.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return FlatItem{}, false, nil
		}
		return FlatItem{}, false, err
	}
	return item, true, nil
}

func (s *DuckDBFlatStore) ForProducer(ctx context.Context, feedName, producerID string) ([]FlatItem, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT item_id, producer_id, verb, timestamp FROM flat_events
			WHERE feed_name = ? AND producer_id = ?
			ORDER BY timestamp DESC, item_id ASC`,
		feedName, producerID)
	if err != nil {
		return nil, err
	}
	return scanFlatRows(rows)
}

func (s *DuckDBFlatStore) ForConsumerRebuild(ctx context.Context, feedName, consumerID string, includeActor bool, limit int) ([]FlatItem, error) {
	query := `
		SELECT e.item_id, e.producer_id, e.verb, e.timestamp FROM flat_events e
		WHERE e.feed_name = ? AND (
			EXISTS (SELECT 1 FROM relations r
				WHERE r.feed_name = ? AND r.producer_id = e.producer_id AND r.consumer_id = ?)`
	args := []interface{}{feedName, feedName, consumerID}
	if includeActor {
		query += ` OR e.producer_id = ?`
		args = append(args, consumerID)
	}
	query += `)
		ORDER BY e.timestamp DESC, e.item_id ASC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanFlatRows(rows)
}

func (s *DuckDBFlatStore) AllForPreload(ctx context.Context, feedName string) ([]FlatItem, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT item_id, producer_id, verb, timestamp FROM flat_events
			WHERE feed_name = ? ORDER BY id ASC`,
		feedName)
	if err != nil {
		return nil, err
	}
	return scanFlatRows(rows)
}

func scanFlatRows(rows *sql.Rows) ([]FlatItem, error) {
	defer rows.Close()
	var out []FlatItem
	for rows.Next() {
		var item FlatItem
		if err := rows.Scan(&item.ItemID, &item.ProducerID, &item.Verb, &item.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// DuckDBActivityStore implements ActivityEventStore.
type DuckDBActivityStore struct{ conn *sql.DB }

func (s *DuckDBActivityStore) Insert(ctx context.Context, feedName string, item ActivityItem) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM activity_events
			WHERE feed_name = ? AND producer_id = ? AND item_id = ? AND verb = ? AND consumer_id = ?`,
		feedName, item.ProducerID, item.ItemID, item.Verb, item.ConsumerID)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO activity_events(feed_name, item_id, consumer_id, producer_id, verb, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)`,
		feedName, item.ItemID, item.ConsumerID, item.ProducerID, item.Verb, item.Timestamp)
	return err
}

func (s *DuckDBActivityStore) Delete(ctx context.Context, feedName, producerID, itemID, verb, consumerID string) error {
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM activity_events
			WHERE feed_name = ? AND producer_id = ? AND item_id = ? AND verb = ? AND consumer_id = ?`,
		feedName, producerID, itemID, verb, consumerID)
	return err
}

func (s *DuckDBActivityStore) ByItemID(ctx context.Context, feedName, itemID string) (ActivityItem, bool, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT item_id, producer_id, consumer_id, verb, timestamp FROM activity_events
			WHERE feed_name = ? AND item_id = ? LIMIT 1`,
		feedName, itemID)
	var item ActivityItem
	if err := row.Scan(&item.ItemID, &item.ProducerID, &item.ConsumerID, &item.Verb, &item.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return ActivityItem{}, false, nil
		}
		return ActivityItem{}, false, err
	}
	return item, true, nil
}

func (s *DuckDBActivityStore) ForProducerConsumer(ctx context.Context, feedName, producerID, consumerID string) ([]ActivityItem, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT item_id, producer_id, consumer_id, verb, timestamp FROM activity_events
			WHERE feed_name = ? AND producer_id = ? AND consumer_id = ?
			ORDER BY timestamp DESC, item_id ASC`,
		feedName, producerID, consumerID)
	if err != nil {
		return nil, err
	}
	return scanActivityRows(rows)
}

func (s *DuckDBActivityStore) ForConsumerRebuild(ctx context.Context, feedName, consumerID string, limit int) ([]ActivityItem, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT item_id, producer_id, consumer_id, verb, timestamp FROM activity_events
			WHERE feed_name = ? AND consumer_id = ?
			ORDER BY timestamp DESC, item_id ASC
			LIMIT ?`,
		feedName, consumerID, limit)
	if err != nil {
		return nil, err
	}
	return scanActivityRows(rows)
}

func (s *DuckDBActivityStore) AllForPreload(ctx context.Context, feedName string) ([]ActivityItem, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT item_id, producer_id, consumer_id, verb, timestamp FROM activity_events
			WHERE feed_name = ? ORDER BY id ASC`,
		feedName)
	if err != nil {
		return nil, err
	}
	return scanActivityRows(rows)
}

func scanActivityRows(rows *sql.Rows) ([]ActivityItem, error) {
	defer rows.Close()
	var out []ActivityItem
	for rows.Next() {
		var item ActivityItem
		if err := rows.Scan(&item.ItemID, &item.ProducerID, &item.ConsumerID, &item.Verb, &item.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
