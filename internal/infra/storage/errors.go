// Package storage maps local database failures into the application's error
// taxonomy.
package storage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"agentdesk/internal/apperr"
)

// SQLSTATE class 23 covers integrity constraint violations.
const constraintClass = "23"

// ClassifyPostgres converts a pgx/pgconn error into a classified error.
// Connection-level failures that pgconn marks safe to retry come back
// recoverable so the retry layer can act on them.
func ClassifyPostgres(err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var ce *apperr.Error
	if errors.As(err, &ce) {
		return ce
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == constraintClass {
			return apperr.Wrap(apperr.StorageConstraintViolation, pgErr.Message, err).
				WithDetails(map[string]any{
					"sqlstate":   pgErr.Code,
					"constraint": pgErr.ConstraintName,
					"table":      pgErr.TableName,
				})
		}
		return apperr.Wrap(apperr.StorageError, pgErr.Message, err).
			WithDetail("sqlstate", pgErr.Code)
	}

	classified := apperr.Wrap(apperr.StorageError, err.Error(), err)
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		classified = classified.WithRecoverable(true)
	}
	return classified
}
