package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgNoDataFound     = "P0002"
)

// MapError translates storage errors into domain sentinels.
// A missing row, or a stored function raising no_data_found, becomes notFoundErr.
// A unique violation becomes duplicateErr. Anything else is returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicateErr
		case pgNoDataFound:
			return notFoundErr
		}
	}

	return err
}
