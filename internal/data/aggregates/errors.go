package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error taxonomy for the progression engine. Services tag failures with
// exactly one of these sentinels; handlers map them to HTTP statuses.
var (
	// ErrNotFound indicates a referenced account/challenge/reward/redemption is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness or concurrency conflict (duplicate enrollment).
	ErrConflict = errors.New("conflict")
	// ErrInsufficientBalance indicates a spend exceeding available points.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidState indicates an operation against a row in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnauthorized indicates the caller does not own the row it is mutating.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("validation")
	// ErrRetryable indicates a transient failure safe to retry.
	ErrRetryable = errors.New("retryable")
)

func NotFoundError(msg string) error {
	return errors.Join(ErrNotFound, errors.New(strings.TrimSpace(msg)))
}

func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

func InsufficientBalanceError(msg string) error {
	return errors.Join(ErrInsufficientBalance, errors.New(strings.TrimSpace(msg)))
}

func InvalidStateError(msg string) error {
	return errors.Join(ErrInvalidState, errors.New(strings.TrimSpace(msg)))
}

func UnauthorizedError(msg string) error {
	return errors.Join(ErrUnauthorized, errors.New(strings.TrimSpace(msg)))
}

func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// Tagged reports whether err already carries one of the taxonomy sentinels.
func Tagged(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound, ErrConflict, ErrInsufficientBalance,
		ErrInvalidState, ErrUnauthorized, ErrValidation, ErrRetryable,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// MapError maps infrastructure failures into the taxonomy, preserving
// already-tagged errors. op names the failing operation for context.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if Tagged(err) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrNotFound, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrRetryable, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return fmt.Errorf("%s: %w", op, errors.Join(ErrConflict, err)) // unique_violation
		case "23503":
			return fmt.Errorf("%s: %w", op, errors.Join(ErrInvalidState, err)) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%s: %w", op, errors.Join(ErrRetryable, err)) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrConflict, err))
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"):
		return fmt.Errorf("%s: %w", op, errors.Join(ErrRetryable, err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
