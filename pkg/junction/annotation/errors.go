package annotation

import (
	"errors"
	"fmt"
)

// ErrInvalidExtension is matched by every *ValidationError.
var ErrInvalidExtension = errors.New("invalid extension declaration")

// ErrDuplicateExtension indicates an extension registered twice under the same qualified name.
var ErrDuplicateExtension = errors.New("duplicate extension")

// ErrorKind classifies a validation failure.
type ErrorKind int

// Validation failure kinds.
const (
	EmptyName ErrorKind = iota + 1
	EmptyDescription
	NamespaceMissingOrEmpty
	NamespaceMismatch
	ParameterNameEmpty
	ParameterNameMalformed
	ParameterDescriptionEmpty
	ParameterTypeEmpty
	DynamicParameterNotAllowed
	OptionalParameterMissingDefault
	ReturnAttributeNotAllowed
	UnknownKind
)

var errorKindNames = map[ErrorKind]string{
	EmptyName:                       "EmptyName",
	EmptyDescription:                "EmptyDescription",
	NamespaceMissingOrEmpty:         "NamespaceMissingOrEmpty",
	NamespaceMismatch:               "NamespaceMismatch",
	ParameterNameEmpty:              "ParameterNameEmpty",
	ParameterNameMalformed:          "ParameterNameMalformed",
	ParameterDescriptionEmpty:       "ParameterDescriptionEmpty",
	ParameterTypeEmpty:              "ParameterTypeEmpty",
	DynamicParameterNotAllowed:      "DynamicParameterNotAllowed",
	OptionalParameterMissingDefault: "OptionalParameterMissingDefault",
	ReturnAttributeNotAllowed:       "ReturnAttributeNotAllowed",
	UnknownKind:                     "UnknownKind",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ValidationError reports an invalid extension declaration.
type ValidationError struct {
	Kind ErrorKind
	// Class is the fully qualified name of the declaring implementation.
	Class string
	// Parameter is the offending parameter name, if any.
	Parameter string
	Message   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches ErrInvalidExtension.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidExtension
}
