package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestPredicatesTraverseWrapping(t *testing.T) {
	base := UnknownFieldType("money")
	wrapped := fmt.Errorf("create field price: %w", base)

	if !IsUnknownFieldType(wrapped) {
		t.Error("IsUnknownFieldType should see through fmt.Errorf wrapping")
	}
	if IsValidation(wrapped) {
		t.Error("IsValidation should be false")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors have KindUnknown")
	}
}

func TestReasons(t *testing.T) {
	err := &Error{Kind: KindSchemaOperation, Subject: "lc_product", Reason: ReasonAlreadyExists, Message: "create table"}

	if !IsSchemaOperation(err) || !IsAlreadyExists(err) {
		t.Errorf("expected schema operation / already exists, got %v", err)
	}
	if IsNotFound(err) {
		t.Error("IsNotFound should be false")
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("table lc_product already exists")
	err := Wrap(KindSchemaOperation, "lc_product", "create table", cause)

	want := "[schema_operation_failure] create table (lc_product): table lc_product already exists"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestValidation(t *testing.T) {
	err := Validation([]FieldError{{Field: "age", Rule: "integer", Value: "x"}})

	if !IsValidation(err) {
		t.Fatal("expected validation kind")
	}
	if len(err.Fields) != 1 || err.Fields[0].Error() != `age: failed rule "integer"` {
		t.Errorf("unexpected fields: %+v", err.Fields)
	}
}
