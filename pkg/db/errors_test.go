package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolationPgx(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_order_number_key",
	})
	if !IsUniqueViolation(err, "orders_order_number_key") {
		t.Fatal("expected unique violation for matching constraint")
	}
	if IsUniqueViolation(err, "carts_session_key") {
		t.Fatal("constraint mismatch must not match")
	}
	if !IsUniqueViolation(err, "") {
		t.Fatal("empty constraint must match any unique violation")
	}
}

func TestIsUniqueViolationPq(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("insert: %w", &pq.Error{
		Code:       "23505",
		Constraint: "orders_order_number_key",
	})
	if !IsUniqueViolation(err, "orders_order_number_key") {
		t.Fatal("expected unique violation for matching constraint")
	}
}

func TestIsUniqueViolationOtherErrors(t *testing.T) {
	t.Parallel()

	if IsUniqueViolation(errors.New("duplicate key value"), "") {
		t.Fatal("plain errors must not match on message text")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Fatal("foreign key violation is not a unique violation")
	}
}
