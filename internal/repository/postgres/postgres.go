package postgres

import (
	"database/sql"
	"errors"
)

// IsNoRowsError reports whether err is the database/sql "no rows" sentinel,
// possibly wrapped.
func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
