package persistence

import (
	"RouterLedger/internal/core"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
)

// OpLogWriter writes applied operations to Postgres using batch inserts.
// Multi-row INSERT keeps this portable; switch to pgx CopyFrom if the op
// rate ever makes it the bottleneck.
type OpLogWriter struct {
	db *sql.DB
}

// OpRow represents a row in router_log.operations.
type OpRow struct {
	Sequence   int64
	Method     string
	Sender     string
	CommandID  string
	Attributes []byte // JSON-encoded attribute list
	Transfers  []byte // JSON-encoded transfer list
	StateHash  []byte
	Timestamp  time.Time
}

// BuildOpRow converts an engine output into its op log row.
func BuildOpRow(out core.Output) OpRow {
	return OpRow{
		Sequence:   out.Sequence,
		Method:     out.Envelope.Type.String(),
		Sender:     out.Envelope.Sender,
		CommandID:  out.Envelope.ID.String(),
		Attributes: marshalJSON(out.Response.Attributes),
		Transfers:  marshalJSON(out.Response.Transfers),
		StateHash:  append([]byte(nil), out.StateHash[:]...),
		Timestamp:  out.Envelope.Timestamp,
	}
}

func NewOpLogWriter(db *sql.DB) *OpLogWriter {
	return &OpLogWriter{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// WriteOpBatch writes a batch of operations using a multi-row INSERT.
// Re-delivered sequences are ignored, which makes replays idempotent.
func (w *OpLogWriter) WriteOpBatch(ctx context.Context, tx execer, ops []OpRow) error {
	if len(ops) == 0 {
		return nil
	}

	query := `INSERT INTO router_log.operations
		(sequence, method, sender, command_id, attributes, transfers, state_hash, timestamp)
		VALUES `

	values := make([]string, 0, len(ops))
	args := make([]interface{}, 0, len(ops)*8)

	for i, op := range ops {
		base := i * 8
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			op.Sequence, op.Method, op.Sender, op.CommandID,
			op.Attributes, op.Transfers, op.StateHash, op.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// RecentCommandKeys returns the newest "method:command_id" composite keys,
// used to warm the engine's dedup LRU after a restart.
func (w *OpLogWriter) RecentCommandKeys(ctx context.Context, limit int) ([]string, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT method, command_id
		FROM router_log.operations
		ORDER BY sequence DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var method, commandID string
		if err := rows.Scan(&method, &commandID); err != nil {
			return nil, err
		}
		keys = append(keys, method+":"+commandID)
	}
	return keys, rows.Err()
}

func marshalJSON(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("WARN: failed to marshal op log payload: %v", err)
		return []byte("[]")
	}
	return data
}
