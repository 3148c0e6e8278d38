package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

// EnsurePgvector installs the vector extension the contents embedding
// column needs. A role without CREATE EXTENSION rights is accepted as
// long as a DBA installed pgvector beforehand.
func EnsurePgvector(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err == nil {
		return nil
	} else if !isInsufficientPrivilege(err) {
		return fmt.Errorf("create pgvector extension: %w", err)
	}

	var installed bool
	if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')`).Scan(&installed); err != nil {
		return fmt.Errorf("check pgvector: %w", err)
	}
	if !installed {
		return errors.New("pgvector is not installed and this role cannot create it; run CREATE EXTENSION vector as a superuser first")
	}
	return nil
}

func isInsufficientPrivilege(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "insufficient_privilege"
}

// RunMigrations applies the SQL migrations under sourceURL (e.g.
// "file://migrations") to the mirror database. Already-applied
// migrations are skipped.
func RunMigrations(dsn, sourceURL string) error {
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
