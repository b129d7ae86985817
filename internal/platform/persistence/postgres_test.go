package persistence

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

// The pool itself needs a live server, so coverage here stops at the
// accessor. Transactional behavior is exercised through the repository
// tests against pgxmock.
func TestPostgresDB_Pool(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var pool *pgxpool.Pool
	db := &PostgresDB{pool: pool, logger: logger}

	assert.Equal(t, pool, db.Pool())
}
