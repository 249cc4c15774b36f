package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// exportTables lists the tables included in every backup archive, in
// dependency order so a restore can replay them top to bottom.
var exportTables = []string{
	"users",
	"customers",
	"document_types",
	"documents",
	"document_versions",
	"settings",
	"audit_logs",
}

// Exporter produces a logical JSON dump of the application tables. The dump
// goes into backup archives alongside the upload tree so one archive restores
// both metadata and files.
type Exporter struct {
	db *sql.DB
}

// NewExporter creates an Exporter over the given database handle.
func NewExporter(db *sql.DB) *Exporter {
	return &Exporter{db: db}
}

// ExportTable returns all rows of one table as a JSON array of objects keyed
// by column name.
func (e *Exporter) ExportTable(ctx context.Context, table string) ([]byte, error) {
	rows, err := e.db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}

	return json.MarshalIndent(out, "", "  ")
}

// Tables returns the names of the exported tables in dump order.
func (e *Exporter) Tables() []string {
	tables := make([]string, len(exportTables))
	copy(tables, exportTables)
	return tables
}

// normalizeValue converts driver values into JSON-friendly types. Byte
// slices arrive for text columns under some drivers and would otherwise
// marshal as base64.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
