package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

const createLedger = `CREATE TABLE IF NOT EXISTS schema_migrations (
  name       TEXT        PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_applicants",
		SQL: `CREATE TABLE IF NOT EXISTS applicants (
  id               UUID          PRIMARY KEY DEFAULT uuid_generate_v4(),
  first_name       TEXT          NOT NULL,
  last_name        TEXT          NOT NULL,
  email            TEXT          NOT NULL,
  phone            TEXT          NOT NULL DEFAULT '',
  birth_date       DATE          NOT NULL,
  plz              CHAR(4)       NOT NULL,
  canton           CHAR(2)       NOT NULL,
  franchise        INTEGER       NOT NULL CHECK (franchise >= 0),
  accident         BOOLEAN       NOT NULL DEFAULT false,
  model            TEXT          NOT NULL DEFAULT 'standard',
  current_insurer  TEXT          NOT NULL DEFAULT '',
  selected_insurer TEXT          NOT NULL DEFAULT '',
  selected_premium NUMERIC(10,2) NOT NULL DEFAULT 0,
  status           TEXT          NOT NULL DEFAULT 'draft'
                   CHECK (status IN ('draft','documents_uploaded','signature_pending','signed','declined')),
  created_at       TIMESTAMPTZ   NOT NULL DEFAULT now(),
  updated_at       TIMESTAMPTZ   NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_applicants_email",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_applicants_email ON applicants (lower(email));`,
	},
	{
		Name: "create_index_applicants_status_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_applicants_status_created_at ON applicants (status, created_at DESC);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  applicant_id      UUID        NOT NULL REFERENCES applicants (id) ON DELETE CASCADE,
  kind              TEXT        NOT NULL,
  filename          TEXT        NOT NULL,
  original_filename TEXT        NOT NULL DEFAULT '',
  storage_path      TEXT        NOT NULL UNIQUE,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  content_type      TEXT        NOT NULL,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (applicant_id, kind)
);`,
	},
	{
		Name: "create_table_signature_requests",
		SQL: `CREATE TABLE IF NOT EXISTS signature_requests (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  applicant_id UUID        NOT NULL REFERENCES applicants (id) ON DELETE CASCADE,
  document_id  UUID        NOT NULL,
  provider_id  TEXT        NOT NULL UNIQUE,
  signing_url  TEXT        NOT NULL,
  status       TEXT        NOT NULL DEFAULT 'pending',
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_signature_requests_applicant",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_signature_requests_applicant ON signature_requests (applicant_id, created_at DESC);`,
	},
	{
		Name: "create_table_page_views",
		SQL: `CREATE TABLE IF NOT EXISTS page_views (
  id          TEXT        PRIMARY KEY,
  session_id  TEXT        NOT NULL,
  type        TEXT        NOT NULL,
  path        TEXT        NOT NULL,
  referrer    TEXT        NOT NULL DEFAULT '',
  user_agent  TEXT        NOT NULL DEFAULT '',
  duration_ms BIGINT      NOT NULL DEFAULT 0,
  new_session BOOLEAN     NOT NULL DEFAULT false,
  occurred_at TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_page_views_occurred_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_page_views_occurred_at ON page_views (occurred_at);`,
	},
	{
		Name: "create_table_admins",
		SQL: `CREATE TABLE IF NOT EXISTS admins (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
}

// EnsureMigrated applies every step not yet recorded in schema_migrations.
// Each step runs in its own transaction together with its ledger row.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(slog.String("component", "database"), slog.String("db_host", dbHost))
	start := time.Now()

	log.Info("db_migration_check", slog.String("status", "starting"))

	if _, err := db.ExecContext(ctx, createLedger); err != nil {
		log.Error("db_migration_failed",
			slog.String("status", "error"),
			slog.String("error_message", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("create migration ledger: %w", err)
	}

	applied := 0
	for _, step := range steps {
		stepStart := time.Now()
		done, err := apply(ctx, db, step)
		if err != nil {
			log.Error("db_migration_failed",
				slog.String("status", "error"),
				slog.String("migration_step", step.Name),
				slog.String("error_message", err.Error()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		if !done {
			continue
		}
		applied++
		log.Info("db_migration_step",
			slog.String("status", "success"),
			slog.String("migration_step", step.Name),
			slog.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	event := "db_migration_success"
	if applied == 0 {
		event = "db_migration_skip"
	}
	log.Info(event,
		slog.String("status", "success"),
		slog.Int("applied_steps", applied),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// apply runs step unless already recorded. It reports whether it ran.
func apply(ctx context.Context, db *sql.DB, step migrationStep) (bool, error) {
	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, step.Name,
	).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, step.Name); err != nil {
		_ = tx.Rollback()
		return false, err
	}
	return true, tx.Commit()
}
