package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"context canceled is retryable", context.Canceled, ErrRetryable},
		{"deadline exceeded is retryable", context.DeadlineExceeded, ErrRetryable},
		{"unique violation", &pgconn.PgError{Code: "23505"}, ErrConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, ErrInvalidState},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, ErrRetryable},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, ErrRetryable},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, ErrRetryable},
		{"duplicate key message", errors.New("duplicate key value violates unique constraint"), ErrConflict},
		{"deadlock message", errors.New("deadlock detected somewhere"), ErrRetryable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("op", tc.in)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("MapError(nil) = %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("MapError(%v) = %v, want tagged with %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMapErrorPreservesTags(t *testing.T) {
	tagged := InsufficientBalanceError("too poor")
	if got := MapError("op", tagged); got != tagged {
		t.Fatalf("already-tagged error must pass through unchanged, got %v", got)
	}
	wrapped := fmt.Errorf("outer: %w", NotFoundError("gone"))
	if got := MapError("op", wrapped); got != wrapped {
		t.Fatalf("wrapped tagged error must pass through unchanged, got %v", got)
	}
}

func TestMapErrorUnknownStaysUntagged(t *testing.T) {
	got := MapError("op", errors.New("mystery failure"))
	if Tagged(got) {
		t.Fatalf("unknown error must not gain a taxonomy tag: %v", got)
	}
	if got.Error() != "op: mystery failure" {
		t.Fatalf("unexpected message: %q", got.Error())
	}
}

func TestTagged(t *testing.T) {
	if Tagged(errors.New("plain")) {
		t.Fatal("plain error must not be tagged")
	}
	for _, err := range []error{
		NotFoundError("x"), ConflictError("x"), InsufficientBalanceError("x"),
		InvalidStateError("x"), UnauthorizedError("x"), ValidationError("x"), RetryableError("x"),
	} {
		if !Tagged(err) {
			t.Fatalf("constructor result must be tagged: %v", err)
		}
	}
}
