// Package pg opens the PostgreSQL pool that holds the device directory
// (users and their registered notification devices).
//
// Connect wraps github.com/jackc/pgx/v5/pgxpool with retries; OpenDB exposes
// the pool as *sql.DB for the squirrel-built directory queries.
package pg
