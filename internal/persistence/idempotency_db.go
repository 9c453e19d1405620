package persistence

import (
	"context"
	"database/sql"
	"time"
)

// PostgresIdempotencyChecker is the cold-path dedup lookup against the op
// log, used when a command id misses the engine's in-memory LRU.
type PostgresIdempotencyChecker struct {
	db *sql.DB
}

func NewPostgresIdempotencyChecker(db *sql.DB) *PostgresIdempotencyChecker {
	return &PostgresIdempotencyChecker{
		db: db,
	}
}

// IsDuplicate checks whether the command id already exists in the op log.
func (pic *PostgresIdempotencyChecker) IsDuplicate(method string, commandID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	query := `
        SELECT 1
        FROM router_log.operations
        WHERE method = $1 AND command_id = $2
        LIMIT 1
    `

	var exists int
	err := pic.db.QueryRowContext(ctx, query, method, commandID).Scan(&exists)

	if err == sql.ErrNoRows {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
