//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/videosnap/internal/platform/postgres"
)

// setupTimeout bounds the connection check and migrations.
const setupTimeout = 30 * time.Second

// Open connects to the test database and applies all migrations. The
// connection is closed when the test ends. Without a configured URL the test
// is skipped, except under CI where it fails.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := DatabaseURL()
	if dbURL == "" {
		if isCI() {
			t.Fatalf("no test database configured; set one of %v", urlEnvVars)
		}
		t.Skipf("skipping database test: none of %v is set", urlEnvVars)
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "open %s", maskURL(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	require.NoError(t, db.PingContext(ctx), "ping %s", maskURL(dbURL))
	require.NoError(t, postgres.Migrate(ctx, db, "up", nil), "apply migrations")
	return db
}
