package persistence

import (
	"RouterLedger/internal/core"
	"RouterLedger/internal/observability"
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"
)

// Worker drains the persist channel and batch-writes the op log to
// Postgres. The engine sends on that channel with a BLOCKING send, so if
// this worker falls behind, the engine stalls — no applied operation is
// ever lost.
type Worker struct {
	writer       *OpLogWriter
	db           *sql.DB
	inputChan    <-chan core.Output
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
}

func NewWorker(
	db *sql.DB,
	inputChan <-chan core.Output,
	batchSize int,
	flushTimeout time.Duration,
	metrics *observability.Metrics,
) *Worker {
	return &Worker{
		writer:       NewOpLogWriter(db),
		db:           db,
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
	}
}

// Run starts the worker loop. It batches incoming outputs and flushes
// either when the batch is full or the flush timeout expires. Blocks until
// ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	batch := make([]OpRow, 0, w.batchSize)

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				if err := w.flush(context.Background(), batch); err != nil {
					log.Printf("ERROR: final flush failed: %v", err)
				}
			}
			return ctx.Err()

		case output, ok := <-w.inputChan:
			if !ok {
				if len(batch) > 0 {
					if err := w.flush(context.Background(), batch); err != nil {
						log.Printf("ERROR: final flush failed: %v", err)
					}
				}
				return nil
			}

			batch = append(batch, BuildOpRow(output))

			if len(batch) >= w.batchSize {
				if err := w.flushWithRetry(ctx, batch); err != nil {
					log.Printf("ERROR: batch flush failed after retries: %v", err)
				}
				batch = batch[:0]
				timer.Reset(w.flushTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				if err := w.flushWithRetry(ctx, batch); err != nil {
					log.Printf("ERROR: timeout flush failed after retries: %v", err)
				}
				batch = batch[:0]
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

// flushWithRetry retries with exponential backoff. The worker never drops
// rows — it retries until the write succeeds or the context is cancelled,
// and even then attempts one final flush so the batch survives shutdown.
func (w *Worker) flushWithRetry(ctx context.Context, ops []OpRow) error {
	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			log.Printf("WARN: persistence retry attempt %d (backoff=%v, ops=%d)",
				attempt, backoff, len(ops))
			if w.metrics != nil {
				w.metrics.PersistRetry.Inc()
			}
			select {
			case <-ctx.Done():
				finalErr := w.flush(context.Background(), ops)
				if finalErr != nil {
					return fmt.Errorf("final flush on shutdown failed: %w", finalErr)
				}
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		err := w.flush(ctx, ops)
		if err == nil {
			if attempt > 0 {
				log.Printf("INFO: persistence flush succeeded after %d retries", attempt)
			}
			return nil
		}
	}
}

func (w *Worker) flush(ctx context.Context, ops []OpRow) error {
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_begin").Inc()
		}
		return err
	}
	defer tx.Rollback()

	if err := w.writer.WriteOpBatch(ctx, tx, ops); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("write_ops").Inc()
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if w.metrics != nil {
			w.metrics.PersistErrors.WithLabelValues("tx_commit").Inc()
		}
		return err
	}

	if w.metrics != nil {
		w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
		w.metrics.PersistBatchSize.Observe(float64(len(ops)))
		w.metrics.PersistOpsWritten.Add(float64(len(ops)))
		w.metrics.PersistLastSequence.Set(float64(ops[len(ops)-1].Sequence))
	}

	return nil
}

// Writer returns the underlying op log writer.
func (w *Worker) Writer() *OpLogWriter {
	return w.writer
}
