// Package errs provides the error type shared by every core package.
//
// Each package wraps its failures into *errs.Error so that callers can branch
// on the Kind without importing driver packages or matching message text:
//
//	f, err := reg.Create("money", "price", field.Options{})
//	if errs.IsUnknownFieldType(err) {
//	    // err.(*errs.Error).Subject == "money"
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error.
type Kind int

const (
	KindUnknown             Kind = iota
	KindUnknownFieldType         // type tag never registered
	KindValidation               // value rejected by a field or rule
	KindSchemaOperation          // DDL rejected by storage
	KindMalformedSchema          // input shape violates the expected structure
	KindInvalidRelationship      // relationship kind outside the closed set
	KindDuplicateField           // field name already present in a collection
	KindInvalidIdentifier        // table, column or collection name not allow-listed
)

func (k Kind) String() string {
	switch k {
	case KindUnknownFieldType:
		return "unknown_field_type"
	case KindValidation:
		return "validation_failure"
	case KindSchemaOperation:
		return "schema_operation_failure"
	case KindMalformedSchema:
		return "malformed_schema"
	case KindInvalidRelationship:
		return "invalid_relationship_kind"
	case KindDuplicateField:
		return "duplicate_field"
	case KindInvalidIdentifier:
		return "invalid_identifier"
	default:
		return "unknown"
	}
}

// Reason refines a KindSchemaOperation error when the engine tells us why.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonAlreadyExists
	ReasonNotFound
)

func (r Reason) String() string {
	switch r {
	case ReasonAlreadyExists:
		return "already_exists"
	case ReasonNotFound:
		return "not_found"
	default:
		return ""
	}
}

// Error is the single error type returned by the core packages.
type Error struct {
	Kind    Kind
	Message string
	// Subject is the offending tag, table, column or field name.
	Subject string
	Reason  Reason
	// Fields carries per-field failures for KindValidation.
	Fields []FieldError
	Cause  error
}

// FieldError is one rejected value.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Value any    `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: failed rule %q", e.Field, e.Rule)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.Subject != "" {
		msg += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with no cause.
func New(kind Kind, subject, msg string) *Error {
	return &Error{Kind: kind, Subject: subject, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind Kind, subject, format string, args ...any) *Error {
	return &Error{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error around an underlying cause.
func Wrap(kind Kind, subject, msg string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Message: msg, Cause: cause}
}

// UnknownFieldType reports a type tag that was never registered.
func UnknownFieldType(tag string) *Error {
	return New(KindUnknownFieldType, tag, "unknown field type")
}

// Malformed reports a structurally invalid schema input.
func Malformed(subject, format string, args ...any) *Error {
	return Newf(KindMalformedSchema, subject, format, args...)
}

// Validation reports rejected values.
func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("%d field(s) failed validation", len(fields)), Fields: fields}
}

// IsUnknownFieldType reports whether err is an unregistered type tag.
func IsUnknownFieldType(err error) bool { return KindOf(err) == KindUnknownFieldType }

// IsValidation reports whether err is a rejected value.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsSchemaOperation reports whether err is a failed DDL operation.
func IsSchemaOperation(err error) bool { return KindOf(err) == KindSchemaOperation }

// IsMalformedSchema reports whether err is a structurally invalid schema.
func IsMalformedSchema(err error) bool { return KindOf(err) == KindMalformedSchema }

// IsInvalidRelationship reports whether err is a relationship kind outside the closed set.
func IsInvalidRelationship(err error) bool { return KindOf(err) == KindInvalidRelationship }

// IsDuplicateField reports whether err is a repeated field name.
func IsDuplicateField(err error) bool { return KindOf(err) == KindDuplicateField }

// IsInvalidIdentifier reports whether err is a rejected table or column name.
func IsInvalidIdentifier(err error) bool { return KindOf(err) == KindInvalidIdentifier }

// IsAlreadyExists reports whether a schema operation failed because the object exists.
func IsAlreadyExists(err error) bool { return reasonOf(err) == ReasonAlreadyExists }

// IsNotFound reports whether a schema operation failed because the object is missing.
func IsNotFound(err error) bool { return reasonOf(err) == ReasonNotFound }

// KindOf extracts the Kind from any error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func reasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ReasonNone
}
