package bunstore

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/goliatone/go-poetry-cache/pkg/apperrors"
)

// Postgres SQLSTATE codes reported as constraint violations.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeDuplicateObject     = "42710"
)

// translateError maps constraint failures to apperrors; everything else passes through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeForeignKeyViolation, codeCheckViolation:
		constraint := pgErr.ConstraintName
		if constraint == "" {
			constraint = pgErr.Code
		}
		return apperrors.NewConstraintViolation(constraint, err)
	default:
		return err
	}
}

func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeDuplicateObject
}
