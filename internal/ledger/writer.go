// Package ledger runs ledger mutations: one per-group transaction per write,
// retried once on a serialization conflict, followed by cache invalidation and
// event publishing once the write has committed.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/apperr"
	"github.com/fkhayef/groupledger/internal/events"
	"github.com/fkhayef/groupledger/internal/metrics"
	"github.com/fkhayef/groupledger/internal/storage"
)

// ErrGroupNotFound is returned when the target group does not exist.
var ErrGroupNotFound = apperr.NotFound("group not found")

// DefaultTimeout bounds a write when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Invalidator drops derived state of a group after its ledger changed.
type Invalidator interface {
	Invalidate(groupID uuid.UUID)
}

// Writer is shared by the services that mutate group ledgers.
type Writer struct {
	store     storage.Store
	balances  Invalidator
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	timeout   time.Duration
}

// NewWriter wires a writer. balances, publisher and m may be nil.
func NewWriter(store storage.Store, balances Invalidator, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger, timeout time.Duration) *Writer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Writer{
		store:     store,
		balances:  balances,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		timeout:   timeout,
	}
}

// Store returns the underlying store for reads.
func (w *Writer) Store() storage.Store { return w.store }

// Logger returns the writer's logger.
func (w *Writer) Logger() *slog.Logger { return w.logger }

// Op names one kind of write for metrics and logs.
type Op struct {
	Entity string
	Name   string
}

// Mutation does the work inside the transaction and describes the change.
// It may run twice when the first attempt hits a conflict.
type Mutation func(ctx context.Context, tx storage.GroupTx) (*events.Event, error)

// Write runs fn under the group's write lock. Once started, the transaction
// ignores cancellation of ctx and is bounded by the writer's timeout instead,
// so a disconnecting client can never leave a partial write behind.
func (w *Writer) Write(ctx context.Context, groupID uuid.UUID, op Op, fn Mutation) error {
	var evt *events.Event
	err := apperr.RetryOnConflict(func() error {
		txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
		defer cancel()

		evt = nil
		return w.store.InGroupTx(txCtx, groupID, func(tx storage.GroupTx) error {
			e, err := fn(txCtx, tx)
			if err != nil {
				return err
			}
			evt = e
			return nil
		})
	})
	if apperr.KindOf(err) == apperr.KindInternal && errors.Is(err, storage.ErrNotFound) {
		err = ErrGroupNotFound
	}
	w.metrics.LedgerWrite(op.Entity, op.Name, err)
	if err != nil {
		return err
	}

	if w.balances != nil {
		w.balances.Invalidate(groupID)
	}
	if evt != nil {
		w.logger.InfoContext(ctx, "ledger updated",
			"event", evt.Type,
			"group_id", groupID,
			"entity_id", evt.EntityID,
			"actor_id", evt.ActorID,
		)
		if evt.OccurredAt.IsZero() {
			evt.OccurredAt = time.Now().UTC()
		}
		if err := w.publisher.Publish(context.WithoutCancel(ctx), *evt); err != nil {
			w.logger.WarnContext(ctx, "failed to publish ledger event", "event", evt.Type, "group_id", groupID, "error", err)
		}
	}
	return nil
}
