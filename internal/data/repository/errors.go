package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrSeatAlreadyHeld is returned when the booking_seats unique key rejects an insert.
var ErrSeatAlreadyHeld = errors.New("seat already held by another booking")

const uniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
