package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate signals that an insert hit a row-level unique constraint.
// Callers rely on the constraint being enforced by the store, not by
// application-level existence checks: pre-read-then-insert races resolve
// here, and the caller decides whether to retry (handle allocation) or
// treat the conflict as a no-op (toggles) or a rejection (reports).
var ErrDuplicate = errors.New("duplicate row")

// ErrLimitExceeded signals that a conditional insert found its per-owner
// ceiling already reached. The ceiling is re-checked inside the insert's
// transaction so it holds regardless of what the caller read beforehand.
var ErrLimitExceeded = errors.New("row limit reached")

// translateUnique maps PostgreSQL unique-violation errors (23505) to
// ErrDuplicate, preserving the constraint name for logs.
func translateUnique(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("constraint %s: %w", pgErr.ConstraintName, ErrDuplicate)
	}
	return err
}
