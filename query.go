package ql

import (
	"fmt"
	"io"
	"reflect"

	"github.com/llehouerou/go-ql/internal/docfmt"
	"github.com/llehouerou/go-ql/types"
)

// OperationType is the kind of document: query or mutation.
type OperationType uint8

const (
	QueryOperation OperationType = iota
	MutationOperation
)

func (o OperationType) String() string {
	switch o {
	case QueryOperation:
		return types.QueryKeyword
	case MutationOperation:
		return types.MutationKeyword
	default:
		return fmt.Sprintf("OperationType(%d)", uint8(o))
	}
}

// Document is rendered document text with the registered models it
// references.
type Document struct {
	Operation OperationType
	Name      string
	Text      string
	// Models are the registered models met while rendering, in first-seen
	// order.
	Models []reflect.Type
}

func (d *Document) String() string {
	return d.Text
}

// Pretty returns the document text reformatted with one field per line.
func (d *Document) Pretty() (string, error) {
	return docfmt.Pretty(d.Text)
}

// Option configures document construction.
type Option func(*constructOptions)

type constructOptions struct {
	includeTypename bool
	fragments       []Fragment
	operationName   string
}

func newConstructOptions(options []Option) *constructOptions {
	output := &constructOptions{includeTypename: true}
	for _, option := range options {
		option(output)
	}
	return output
}

// IncludeTypename controls whether __typename is appended to every field
// list. It is enabled by default.
func IncludeTypename(include bool) Option {
	return func(o *constructOptions) { o.includeTypename = include }
}

// WithFragments adds fragment definitions, rendered after the operation
// body.
func WithFragments(fragments ...Fragment) Option {
	return func(o *constructOptions) { o.fragments = append(o.fragments, fragments...) }
}

// OperationName names the operation: "query Name{...}".
func OperationName(name string) Option {
	return func(o *constructOptions) { o.operationName = name }
}

// ConstructQuery renders selections into a query document.
//
// E.g., Select(Model[Point](), Field("x"), Field("y")) ->
// "query{Point{x,y,__typename}}".
func (r *Registry) ConstructQuery(selections []Selection, options ...Option) (*Document, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: query without selections", ErrStructuralSelection)
	}
	opts := newConstructOptions(options)
	qw := newQueryWriter(r, opts.includeTypename)

	qw.writeHeader(types.QueryKeyword, opts.operationName)
	_, _ = io.WriteString(&qw.buf, "{")
	for _, sel := range selections {
		if err := qw.writeSelection(sel); err != nil {
			return nil, fmt.Errorf("failed to write query: %w", err)
		}
	}
	_, _ = io.WriteString(&qw.buf, "}")

	if err := writeFragments(qw, opts.fragments); err != nil {
		return nil, err
	}

	return &Document{
		Operation: QueryOperation,
		Name:      opts.operationName,
		Text:      qw.buf.String(),
		Models:    qw.models,
	}, nil
}

func writeFragments(qw *queryWriter, fragments []Fragment) error {
	for _, f := range fragments {
		if err := qw.writeFragment(f); err != nil {
			return fmt.Errorf("failed to write fragment: %w", err)
		}
	}
	return nil
}
