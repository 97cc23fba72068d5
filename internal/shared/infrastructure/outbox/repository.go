package outbox

import (
	"context"
	"time"
)

// Repository stores ledger events until the processor has relayed them.
// SaveBatch joins the transaction in ctx, so events commit with the state
// change that raised them.
type Repository interface {
	Save(ctx context.Context, msg *Message) error
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns relayable messages, oldest first. Failed
	// messages are included once their retry time has passed.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	// GetFailed returns messages that failed at least once and have
	// attempts left.
	GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error)

	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld drops published messages older than the retention period.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
