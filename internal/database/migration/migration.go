package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  username      TEXT        NOT NULL UNIQUE,
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  role          TEXT        NOT NULL CHECK (role IN ('admin', 'employee', 'viewer', 'client')),
  is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_customers",
		SQL: `CREATE TABLE IF NOT EXISTS customers (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name           TEXT        NOT NULL,
  phone          TEXT        NOT NULL DEFAULT '',
  email          TEXT        NOT NULL DEFAULT '',
  address        TEXT        NOT NULL DEFAULT '',
  policy_number  TEXT        NOT NULL DEFAULT '',
  custom_fields  JSONB,
  folder_name    TEXT        NOT NULL UNIQUE,
  parent_id      UUID        REFERENCES customers(id) ON DELETE SET NULL,
  linked_user_id UUID        REFERENCES users(id) ON DELETE SET NULL,
  created_by     UUID,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_document_types",
		SQL: `CREATE TABLE IF NOT EXISTS document_types (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name        TEXT        NOT NULL UNIQUE,
  description TEXT        NOT NULL DEFAULT '',
  is_active   BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  customer_id       UUID        NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
  document_type_id  UUID        NOT NULL REFERENCES document_types(id),
  original_filename TEXT        NOT NULL,
  stored_filename   TEXT        NOT NULL,
  file_path         TEXT        NOT NULL,
  file_size         BIGINT      NOT NULL CHECK (file_size >= 0),
  mime_type         TEXT        NOT NULL,
  current_version   INT         NOT NULL DEFAULT 1 CHECK (current_version >= 1),
  uploaded_by       UUID        REFERENCES users(id) ON DELETE SET NULL,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (customer_id, document_type_id)
);`,
	},
	{
		Name: "create_table_document_versions",
		SQL: `CREATE TABLE IF NOT EXISTS document_versions (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id    UUID        NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
  version_number INT         NOT NULL CHECK (version_number >= 1),
  file_path      TEXT        NOT NULL,
  file_size      BIGINT      NOT NULL CHECK (file_size >= 0),
  uploaded_by    UUID        REFERENCES users(id) ON DELETE SET NULL,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (document_id, version_number)
);`,
	},
	{
		Name: "create_table_settings",
		SQL: `CREATE TABLE IF NOT EXISTS settings (
  key        TEXT        PRIMARY KEY,
  value      TEXT        NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit_logs (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id     UUID,
  username    TEXT        NOT NULL DEFAULT '',
  action      TEXT        NOT NULL,
  entity_type TEXT        NOT NULL DEFAULT '',
  entity_id   TEXT        NOT NULL DEFAULT '',
  entity_name TEXT        NOT NULL DEFAULT '',
  old_values  JSONB,
  new_values  JSONB,
  ip_address  TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_customers_parent_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_customers_parent_id ON customers (parent_id);`,
	},
	{
		Name: "create_index_customers_linked_user_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_customers_linked_user_id ON customers (linked_user_id);`,
	},
	{
		Name: "create_index_customers_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_customers_name ON customers (name);`,
	},
	{
		Name: "create_index_documents_customer_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_customer_id ON documents (customer_id);`,
	},
	{
		Name: "create_index_documents_document_type_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_document_type_id ON documents (document_type_id);`,
	},
	{
		Name: "create_index_document_versions_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_versions_document_id ON document_versions (document_id);`,
	},
	{
		Name: "create_index_audit_logs_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at);`,
	},
	{
		Name: "seed_default_document_types",
		SQL: `INSERT INTO document_types (name, description) VALUES
  ('ID Document', 'Passport, National ID, Driver License'),
  ('Financial Record', 'Bank statements, Tax documents, Invoices'),
  ('Legal Contract', 'Agreements, Deeds, Contracts'),
  ('Medical Record', 'Medical reports, Prescriptions'),
  ('Education Certificate', 'Degrees, Diplomas, Transcripts'),
  ('Employment Record', 'Offer letters, Payslips'),
  ('Utility Bill', 'Electricity, Water, Gas bills'),
  ('Correspondence', 'Letters, Emails, Memos'),
  ('Other', 'Miscellaneous documents')
ON CONFLICT (name) DO NOTHING;`,
	},
}

// EnsureMigrated checks if the 'customers' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.customers') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
