package repositories

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/studentserving/backend/internal/apperrors"
)

// MySQL server error numbers the repositories translate
const (
	mysqlErrDuplicateEntry   = 1062
	mysqlErrNoReferencedRow  = 1452
	mysqlErrRowIsReferenced2 = 1451
)

// wrapDBError attaches the matching sentinel to a database error.
// Constraint violations become client errors, everything else is a persistence failure.
func wrapDBError(op string, err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry:
			return fmt.Errorf("%w: %s: duplicate entry", apperrors.ErrConflict, op)
		case mysqlErrNoReferencedRow:
			return fmt.Errorf("%w: %s: referenced record does not exist", apperrors.ErrNotFound, op)
		case mysqlErrRowIsReferenced2:
			return fmt.Errorf("%w: %s: record is still referenced", apperrors.ErrConflict, op)
		}
	}
	return fmt.Errorf("%w: %s: %w", apperrors.ErrPersistence, op, err)
}
