package adapters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"whereis/internal/core/database"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
)

// querier is the subset of *sql.DB and *sql.Tx used by the store.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLRepository implements ports.Repository on PostgreSQL or SQLite.
type SQLRepository struct {
	sqlStore
}

// NewSQLRepository creates a SQLRepository on db.
func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{sqlStore: sqlStore{q: db, db: db}}
}

// RunInTx runs fn in a transaction. The transaction is rolled back when fn
// fails or the commit does not happen.
func (r *SQLRepository) RunInTx(ctx context.Context, fn func(ports.Store) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("transaction aborted: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&sqlStore{q: tx, db: r.db, inTx: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqlStore struct {
	q    querier
	db   *database.DB
	inTx bool
}

func (s *sqlStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.db.Rebind(query), args...)
}

func (s *sqlStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.db.Rebind(query), args...)
}

func (s *sqlStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.db.Rebind(query), args...)
}

// GetEntity loads an entity and its events ordered by insertion.
func (s *sqlStore) GetEntity(ctx context.Context, id domain.TrackingID) (*domain.Entity, error) {
	var (
		e             domain.Entity
		carrier       string
		params, extra string
	)

	err := s.queryRow(ctx, `
SELECT uuid, carrier, tracking_num, type, params, extra
FROM entities
WHERE id = ?`, id.String()).Scan(&e.UUID, &carrier, &e.ID.Number, &e.Type, &params, &extra)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}
	e.ID.Carrier = domain.Carrier(carrier)

	if e.Params, err = decodeStringMap(params); err != nil {
		return nil, fmt.Errorf("decode params of %s: %w", id, err)
	}
	if e.Extra, err = decodeStringMap(extra); err != nil {
		return nil, fmt.Errorf("decode extra of %s: %w", id, err)
	}

	if e.Events, err = s.listEvents(ctx, id); err != nil {
		return nil, err
	}

	return &e, nil
}

func (s *sqlStore) listEvents(ctx context.Context, id domain.TrackingID) ([]domain.Event, error) {
	rows, err := s.query(ctx, `
SELECT event_id, carrier, tracking_num, status, what, event_time, location, whom, notes,
       data_provider, update_method, update_time, source
FROM events
WHERE entity_id = ?
ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list events of %s: %w", id, err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			ev               domain.Event
			carrier, method  string
			when, updateTime string
			source           sql.NullString
		)
		if err := rows.Scan(&ev.Fingerprint, &carrier, &ev.TrackingNumber, &ev.Status, &ev.What, &when,
			&ev.Where, &ev.Whom, &ev.Notes, &ev.Provenance.DataProvider, &method, &updateTime, &source); err != nil {
			return nil, fmt.Errorf("scan event of %s: %w", id, err)
		}

		ev.Carrier = domain.Carrier(carrier)
		ev.Provenance.UpdateMethod = domain.UpdateMethod(method)
		if ev.When, err = time.Parse(time.RFC3339Nano, when); err != nil {
			return nil, fmt.Errorf("parse time of event %s: %w", ev.Fingerprint, err)
		}
		if updateTime != "" {
			if ev.Provenance.UpdateTime, err = time.Parse(time.RFC3339Nano, updateTime); err != nil {
				return nil, fmt.Errorf("parse update time of event %s: %w", ev.Fingerprint, err)
			}
		}
		if source.Valid {
			ev.Source = json.RawMessage(source.String)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events of %s: %w", id, err)
	}
	return events, nil
}

// Fingerprints returns the stored fingerprints of id, locking the entity row
// inside a PostgreSQL transaction.
func (s *sqlStore) Fingerprints(ctx context.Context, id domain.TrackingID) (map[string]struct{}, error) {
	lock := ""
	if s.inTx {
		lock = s.db.LockClause()
	}

	var found string
	err := s.queryRow(ctx, `SELECT id FROM entities WHERE id = ?`+lock, id.String()).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrEntityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock entity %s: %w", id, err)
	}

	rows, err := s.query(ctx, `SELECT event_id FROM events WHERE entity_id = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("list fingerprints of %s: %w", id, err)
	}
	defer rows.Close()

	fingerprints := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint of %s: %w", id, err)
		}
		fingerprints[fp] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fingerprints of %s: %w", id, err)
	}
	return fingerprints, nil
}

// InsertEntity stores a new entity and its events.
func (s *sqlStore) InsertEntity(ctx context.Context, e *domain.Entity, source json.RawMessage) error {
	params, err := encodeStringMap(e.Params)
	if err != nil {
		return fmt.Errorf("encode params of %s: %w", e.ID, err)
	}
	extra, err := encodeStringMap(e.Extra)
	if err != nil {
		return fmt.Errorf("encode extra of %s: %w", e.ID, err)
	}

	now := nowText()
	res, err := s.exec(ctx, `
INSERT INTO entities (id, uuid, carrier, tracking_num, type, completed, params, extra, source, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`,
		e.ID.String(), e.UUID, string(e.ID.Carrier), e.ID.Number, e.Type, e.IsCompleted(),
		params, extra, nullJSON(source), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert entity %s: %w", e.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert entity %s: %w", e.ID, err)
	}
	if n == 0 {
		return ports.ErrEntityExists
	}

	return s.insertEvents(ctx, e.ID, 1, e.Events)
}

// AppendEvents stores events after the last stored one.
func (s *sqlStore) AppendEvents(ctx context.Context, id domain.TrackingID, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	var last int
	if err := s.queryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events WHERE entity_id = ?`, id.String()).Scan(&last); err != nil {
		return fmt.Errorf("last event seq of %s: %w", id, err)
	}

	return s.insertEvents(ctx, id, last+1, events)
}

func (s *sqlStore) insertEvents(ctx context.Context, id domain.TrackingID, seq int, events []domain.Event) error {
	for _, ev := range events {
		updateTime := ""
		if !ev.Provenance.UpdateTime.IsZero() {
			updateTime = ev.Provenance.UpdateTime.UTC().Format(time.RFC3339Nano)
		}

		_, err := s.exec(ctx, `
INSERT INTO events (entity_id, event_id, seq, carrier, tracking_num, status, what, event_time, location, whom,
                    notes, data_provider, update_method, update_time, source)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (entity_id, event_id) DO NOTHING`,
			id.String(), ev.Fingerprint, seq, string(ev.Carrier), ev.TrackingNumber, int(ev.Status), ev.What,
			ev.When.Format(time.RFC3339Nano), ev.Where, ev.Whom, ev.Notes,
			ev.Provenance.DataProvider, string(ev.Provenance.UpdateMethod), updateTime, nullJSON(ev.Source),
		)
		if err != nil {
			return fmt.Errorf("insert event %s of %s: %w", ev.Fingerprint, id, err)
		}
		seq++
	}
	return nil
}

// UpdateEntity writes extra, completed and, when given, the latest carrier response.
func (s *sqlStore) UpdateEntity(ctx context.Context, e *domain.Entity, source json.RawMessage) error {
	extra, err := encodeStringMap(e.Extra)
	if err != nil {
		return fmt.Errorf("encode extra of %s: %w", e.ID, err)
	}

	res, err := s.exec(ctx, `
UPDATE entities
SET completed = ?, extra = ?, source = COALESCE(?, source), updated_at = ?
WHERE id = ?`,
		e.IsCompleted(), extra, nullJSON(source), nowText(), e.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update entity %s: %w", e.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entity %s: %w", e.ID, err)
	}
	if n == 0 {
		return ports.ErrEntityNotFound
	}
	return nil
}

// Pending lists shipments that are not completed, oldest first.
func (s *sqlStore) Pending(ctx context.Context) ([]ports.PendingShipment, error) {
	rows, err := s.query(ctx, `
SELECT carrier, tracking_num, params
FROM entities
WHERE completed = ?
ORDER BY created_at, id`, false)
	if err != nil {
		return nil, fmt.Errorf("list pending entities: %w", err)
	}
	defer rows.Close()

	var pending []ports.PendingShipment
	for rows.Next() {
		var carrier, number, params string
		if err := rows.Scan(&carrier, &number, &params); err != nil {
			return nil, fmt.Errorf("scan pending entity: %w", err)
		}

		decoded, err := decodeStringMap(params)
		if err != nil {
			return nil, fmt.Errorf("decode params of %s-%s: %w", carrier, number, err)
		}

		pending = append(pending, ports.PendingShipment{
			ID:     domain.TrackingID{Carrier: domain.Carrier(carrier), Number: number},
			Params: decoded,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending entities: %w", err)
	}
	return pending, nil
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// nullJSON passes JSON as text so PostgreSQL can cast it to JSONB.
func nullJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func encodeStringMap(m map[string]string) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeStringMap(s string) (map[string]string, error) {
	m := map[string]string{}
	if s == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
