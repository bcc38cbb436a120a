//go:build integration

// Package testdb provides helpers for tests that need a real PostgreSQL
// database.
//
// Tests open a migrated connection with Open, then isolate their writes with
// WithTx, which rolls the transaction back when the test function returns:
//
//	func TestSomething(t *testing.T) {
//	    db := testdb.Open(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := postgres.NewPostgresTaskStore(tx)
//	        // ...
//	    })
//	}
//
// When none of the database URL variables is set the test is skipped, so the
// integration suite can run on machines without PostgreSQL.
package testdb
