package ql

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructuralSelection reports a malformed selection tree: an
	// operation in an illegal position, a missing selector, an empty field
	// list.
	ErrStructuralSelection = errors.New("structural selection error")

	// ErrUnregisteredModel reports a model referenced by a selection,
	// fragment or mutation that has no registry entry.
	ErrUnregisteredModel = errors.New("unregistered model")

	// ErrUnsupportedValue reports an argument value of a kind the document
	// grammar cannot express.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrMissingTypename reports a response object without __typename.
	ErrMissingTypename = errors.New("missing __typename")

	// ErrUnresolvableTypename reports a response object whose __typename
	// does not resolve to a registered (or allowed) model.
	ErrUnresolvableTypename = errors.New("unresolvable __typename")

	// ErrInvalidModel reports a type that cannot be registered as a model.
	ErrInvalidModel = errors.New("invalid model")

	// ErrNoTransport reports a client used without a transport.
	ErrNoTransport = errors.New("no transport configured")

	// ErrConflictingFieldFilters reports IncludeFields and ExcludeFields
	// used together.
	ErrConflictingFieldFilters = errors.New("include and exclude field filters cannot be combined")
)

// Errors represents the "errors" array in a response from a GraphQL server.
// If returned via error interface, the slice is expected to contain at least 1 element.
//
// Specification: https://facebook.github.io/graphql/#sec-Errors.
type Errors []Error

// Error is a single entry of a response error list.
type Error struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Location is a line/column position in the document that caused an error.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Error implements error interface.
func (e Error) Error() string {
	return fmt.Sprintf("Message: %s, Locations: %+v", e.Message, e.Locations)
}

// Error implements error interface. Each entry renders on its own line.
func (e Errors) Error() string {
	lines := make([]string, 0, len(e))
	for _, err := range e {
		lines = append(lines, err.Error())
	}
	return strings.Join(lines, "\n")
}

// Messages returns the message of every entry, in order.
func (e Errors) Messages() []string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Message)
	}
	return messages
}

// GetCode returns the error code from the extensions, or an empty string if
// not present.
func (e Error) GetCode() string {
	if e.Extensions == nil {
		return ""
	}
	code, ok := e.Extensions["code"].(string)
	if !ok {
		return ""
	}
	return code
}

// ConstructionError reports a model instance that could not be built from
// a response object.
type ConstructionError struct {
	Model string // typename of the model being built
	Field string // Go field name, empty when the failure is not field specific
	Err   error
}

func (e *ConstructionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("failed to construct %s: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("failed to construct %s: field %s: %v", e.Model, e.Field, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
