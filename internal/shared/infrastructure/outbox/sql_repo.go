package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/autopay/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const columns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, next_retry_at, retry_count,
	last_error, dead_lettered_at, dead_letter_reason`

// pending matches rows still waiting to be published whose retry time, if
// any, has come.
const pending = `published_at IS NULL AND dead_lettered_at IS NULL
	AND (next_retry_at IS NULL OR next_retry_at <= ?)`

// SQLRepository keeps the outbox in the same database as the ledgers, so
// events commit atomically with the state change that raised them.
// SQLite stores ids, JSON and RFC3339 times as text; PostgreSQL uses native
// column types.
type SQLRepository struct {
	conn database.Connection
	text bool
	now  func() time.Time
}

// NewRepository creates the outbox for conn's driver.
func NewRepository(conn database.Connection) (*SQLRepository, error) {
	switch conn.Driver() {
	case database.DriverSQLite, database.DriverPostgres:
		return &SQLRepository{conn: conn, text: conn.Driver() == database.DriverSQLite, now: time.Now}, nil
	default:
		return nil, fmt.Errorf("no outbox repository for driver: %s", conn.Driver())
	}
}

func (r *SQLRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLRepository) bind(query string) string {
	return database.Rebind(r.conn.Driver(), query)
}

func (r *SQLRepository) timeArg(t time.Time) any {
	if r.text {
		return t.UTC().Format(time.RFC3339)
	}
	return t.UTC()
}

func (r *SQLRepository) jsonArg(raw json.RawMessage) any {
	switch {
	case len(raw) == 0:
		return nil
	case r.text:
		return string(raw)
	default:
		return []byte(raw)
	}
}

func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, r.exec(ctx), msg)
}

// SaveBatch inserts msgs in the caller's unit of work, or in a transaction
// of its own when there is none.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if tx := database.TxFromContext(ctx); tx != nil {
		return r.insertAll(ctx, tx, msgs)
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := r.insertAll(ctx, tx, msgs); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (r *SQLRepository) insertAll(ctx context.Context, exec database.Executor, msgs []*Message) error {
	for _, msg := range msgs {
		if err := r.insert(ctx, exec, msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	var eventID any = msg.EventID
	if r.text {
		eventID = msg.EventID.String()
	}
	err := exec.QueryRow(ctx, r.bind(`
		INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type, routing_key,
			payload, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		eventID, msg.AggregateType, msg.AggregateID, msg.EventType, msg.RoutingKey,
		r.jsonArg(msg.Payload), r.jsonArg(msg.Metadata), r.timeArg(msg.CreatedAt),
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
	}
	return nil
}

// GetUnpublished returns up to limit pending rows, oldest first.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	return r.query(ctx, `SELECT `+columns+` FROM outbox WHERE `+pending+`
		ORDER BY created_at, id LIMIT ?`, r.timeArg(r.now()), limit)
}

// GetFailed returns pending rows that have failed at least once but fewer
// than maxRetries times.
func (r *SQLRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	return r.query(ctx, `SELECT `+columns+` FROM outbox WHERE `+pending+`
		AND retry_count > 0 AND retry_count < ?
		ORDER BY created_at, id LIMIT ?`, r.timeArg(r.now()), maxRetries, limit)
}

func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.exec(ctx).Exec(ctx, r.bind(
		`UPDATE outbox SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`),
		r.timeArg(r.now()), id)
	return err
}

func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.exec(ctx).Exec(ctx, r.bind(
		`UPDATE outbox SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ? WHERE id = ?`),
		errMsg, r.timeArg(nextRetryAt), id)
	return err
}

func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.exec(ctx).Exec(ctx, r.bind(
		`UPDATE outbox SET dead_lettered_at = ?, dead_letter_reason = ? WHERE id = ?`),
		r.timeArg(r.now()), reason, id)
	return err
}

// DeleteOld removes rows published more than olderThanDays ago.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := r.now().AddDate(0, 0, -olderThanDays)
	res, err := r.exec(ctx).Exec(ctx, r.bind(
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`),
		r.timeArg(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := r.exec(ctx).Query(ctx, r.bind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	scan := scanNative
	if r.text {
		scan = scanText
	}
	var messages []*Message
	for rows.Next() {
		msg, err := scan(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanNative(row database.Row) (*Message, error) {
	var (
		msg               Message
		payload, metadata []byte
	)
	err := row.Scan(&msg.ID, &msg.EventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &msg.CreatedAt, &msg.PublishedAt, &msg.NextRetryAt, &msg.RetryCount,
		&msg.LastError, &msg.DeadLetteredAt, &msg.DeadLetterReason)
	if err != nil {
		return nil, err
	}
	msg.Payload = payload
	if len(metadata) > 0 {
		msg.Metadata = metadata
	}
	return &msg, nil
}

func scanText(row database.Row) (*Message, error) {
	var (
		msg                                Message
		eventID, payload, createdAt        string
		metadata, publishedAt, nextRetryAt sql.NullString
		lastError, deadAt, deadReason      sql.NullString
	)
	err := row.Scan(&msg.ID, &eventID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &nextRetryAt, &msg.RetryCount,
		&lastError, &deadAt, &deadReason)
	if err != nil {
		return nil, err
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("outbox row %d: %w", msg.ID, err)
	}
	if msg.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("outbox row %d: %w", msg.ID, err)
	}
	msg.Payload = json.RawMessage(payload)
	if metadata.Valid {
		msg.Metadata = json.RawMessage(metadata.String)
	}
	msg.PublishedAt = textTime(publishedAt)
	msg.NextRetryAt = textTime(nextRetryAt)
	msg.DeadLetteredAt = textTime(deadAt)
	msg.LastError = textString(lastError)
	msg.DeadLetterReason = textString(deadReason)
	return &msg, nil
}

func textTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func textString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
