package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapPreservesChain(t *testing.T) {
	cause := stdErrors.New("socket closed")
	err := Wrap(CodeDependency, cause, "query notifications")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause in chain")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("unexpected code %s", As(err).Code())
	}
	if err.Error() != "query notifications: socket closed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	inner := New(CodeConflict, "already friends")
	outer := fmt.Errorf("send request: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeConflict {
		t.Fatalf("expected conflict code through chain, got %v", typed)
	}
	if !HasCode(outer, CodeConflict) {
		t.Fatal("HasCode should see the conflict")
	}
}

func TestMetadataForUnknownCode(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must map to 500, got %d", meta.HTTPStatus)
	}
}

func TestIsUndefinedColumn(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42703", ColumnName: "is_read"}
	if !IsUndefinedColumn(fmt.Errorf("probe: %w", pgErr)) {
		t.Fatal("expected 42703 to classify as undefined column")
	}
	if !IsUndefinedColumn(stdErrors.New("no such column: is_read")) {
		t.Fatal("expected sqlite message to classify as undefined column")
	}
	if IsUndefinedColumn(stdErrors.New("connection refused")) {
		t.Fatal("unrelated errors must not classify")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "friendships_pair_key"}
	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected 23505 to classify as unique violation")
	}
	if !IsUniqueViolation(pgErr, "friendships_pair_key") {
		t.Fatal("expected constraint-scoped match")
	}
	if IsUniqueViolation(pgErr, "other_key") {
		t.Fatal("constraint scope must exclude other constraints")
	}
	if !IsUniqueViolation(stdErrors.New("UNIQUE constraint failed: friendships.user_id"), "") {
		t.Fatal("expected sqlite message to classify")
	}
}
