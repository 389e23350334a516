// internal/app/store/pgstore/errors.go
package pgstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the stores react to.
const (
	codeUndefinedTable         = "42P01"
	codeInvalidColumnReference = "42P10" // ON CONFLICT target has no matching unique constraint
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUndefinedTable(err error) bool {
	return pgCode(err) == codeUndefinedTable
}

// mapError translates SQLSTATE codes into the sentinels the callers branch
// on, keeping the driver error in the chain.
func mapError(op string, err error, relationMissing, noConflict error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeUndefinedTable:
		if relationMissing != nil {
			return fmt.Errorf("%s: %w: %w", op, relationMissing, err)
		}
	case codeInvalidColumnReference:
		if noConflict != nil {
			return fmt.Errorf("%s: %w: %w", op, noConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
