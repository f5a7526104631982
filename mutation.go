package ql

import (
	"fmt"
	"io"
	"reflect"
	"slices"

	"github.com/llehouerou/go-ql/internal/reflectutil"
	"github.com/llehouerou/go-ql/types"
)

// Mutation is one entry of a mutation document: "name(args){return}".
// The parentheses are written even when Args is empty.
type Mutation struct {
	Name   string
	Args   ArgumentList
	Return Returning
}

// Returning is the return selection of a Mutation: nil, ReturnFields,
// ReturnText or ReturnNodes.
type Returning interface {
	isReturning()
}

// ReturnFields selects flat fields: "{a,b}".
type ReturnFields []string

// ReturnText is a pre-rendered return selection, written verbatim.
type ReturnText string

// ReturnNodes is a field list rendered like a query field list.
type ReturnNodes []Node

func (ReturnFields) isReturning() {}
func (ReturnText) isReturning()   {}
func (ReturnNodes) isReturning()  {}

// ConstructMutation renders mutations into a single mutation document.
//
// E.g., Mutation{Name: "addPoint", Args: ArgumentList{{"x", 1}}, Return: ReturnFields{"x"}}
// -> "mutation{addPoint(x:1){x}}".
func (r *Registry) ConstructMutation(mutations []Mutation, options ...Option) (*Document, error) {
	if len(mutations) == 0 {
		return nil, fmt.Errorf("%w: mutation document without mutations", ErrStructuralSelection)
	}
	opts := newConstructOptions(options)
	qw := newQueryWriter(r, opts.includeTypename)

	qw.writeHeader(types.MutationKeyword, opts.operationName)
	_, _ = io.WriteString(&qw.buf, "{")
	for _, m := range mutations {
		if err := qw.writeMutation(m); err != nil {
			return nil, fmt.Errorf("failed to write mutation %s: %w", m.Name, err)
		}
	}
	_, _ = io.WriteString(&qw.buf, "}")

	if err := writeFragments(qw, opts.fragments); err != nil {
		return nil, err
	}

	return &Document{
		Operation: MutationOperation,
		Name:      opts.operationName,
		Text:      qw.buf.String(),
		Models:    qw.models,
	}, nil
}

func (qw *queryWriter) writeMutation(m Mutation) error {
	if m.Name == "" {
		return fmt.Errorf("%w: mutation without a name", ErrStructuralSelection)
	}
	_, _ = io.WriteString(&qw.buf, m.Name)
	_, _ = io.WriteString(&qw.buf, "(")
	if err := writeArguments(&qw.buf, m.Args, true); err != nil {
		return err
	}
	_, _ = io.WriteString(&qw.buf, ")")

	switch ret := m.Return.(type) {
	case nil:
		_, _ = io.WriteString(&qw.buf, "{}")
	case ReturnFields:
		_, _ = io.WriteString(&qw.buf, "{")
		for i, f := range ret {
			if i != 0 {
				_, _ = io.WriteString(&qw.buf, ",")
			}
			_, _ = io.WriteString(&qw.buf, f)
		}
		_, _ = io.WriteString(&qw.buf, "}")
	case ReturnText:
		_, _ = io.WriteString(&qw.buf, string(ret))
	case ReturnNodes:
		return qw.writeFieldList(ret)
	default:
		return fmt.Errorf("%w: unknown return selection %T", ErrStructuralSelection, m.Return)
	}
	return nil
}

// MutationOption configures MutationFor.
type MutationOption func(*mutationOptions)

type mutationOptions struct {
	include []string
	exclude []string
}

// IncludeFields restricts MutationFor to the named Go fields.
func IncludeFields(names ...string) MutationOption {
	return func(o *mutationOptions) { o.include = append(o.include, names...) }
}

// ExcludeFields drops the named Go fields from MutationFor.
func ExcludeFields(names ...string) MutationOption {
	return func(o *mutationOptions) { o.exclude = append(o.exclude, names...) }
}

// MutationFor builds a mutation named after the model's mutate name, with
// one argument per mutable field of instance under its mutate alias.
// Nil pointers are omitted and registered nested models become nested
// argument lists. List fields cannot be expressed and are an error.
func (r *Registry) MutationFor(instance any, ret Returning, options ...MutationOption) (Mutation, error) {
	var opts mutationOptions
	for _, option := range options {
		option(&opts)
	}
	if len(opts.include) > 0 && len(opts.exclude) > 0 {
		return Mutation{}, ErrConflictingFieldFilters
	}

	v := reflectutil.UnwrapToConcreteValue(reflect.ValueOf(instance))
	if !v.IsValid() {
		return Mutation{}, fmt.Errorf("%w: nil instance", ErrInvalidModel)
	}
	d, err := r.descriptor(v.Type())
	if err != nil {
		return Mutation{}, err
	}

	for _, name := range slices.Concat(opts.include, opts.exclude) {
		if _, ok := d.Mutable.Get(name); !ok {
			return Mutation{}, fmt.Errorf("%s has no mutable field %q", d.Typename, name)
		}
	}

	args, err := r.mutationArguments(d, v, func(name string) bool {
		if len(opts.include) > 0 {
			return slices.Contains(opts.include, name)
		}
		return !slices.Contains(opts.exclude, name)
	})
	if err != nil {
		return Mutation{}, err
	}
	return Mutation{Name: d.MutateName, Args: args, Return: ret}, nil
}

func (r *Registry) mutationArguments(d *Descriptor, v reflect.Value, keep func(string) bool) (ArgumentList, error) {
	var args ArgumentList
	for _, f := range d.Mutable.fields {
		if !keep(f.Name) {
			continue
		}
		fv := reflectutil.FieldByIndexSafe(v, f.Index)
		value, ok, err := r.mutationValue(fv)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if !ok {
			continue
		}
		args = append(args, Argument{Name: f.Alias, Value: value})
	}
	return args, nil
}

// mutationValue converts a field value to an argument value. ok is false
// when the value is nil and must be omitted.
func (r *Registry) mutationValue(v reflect.Value) (value any, ok bool, err error) {
	if reflectutil.IsNilValue(v) {
		return nil, false, nil
	}
	v = reflectutil.UnwrapToConcreteValue(v)
	if !v.IsValid() {
		return nil, false, nil
	}

	switch v.Kind() {
	case reflect.Struct:
		d, found := r.lookup(v.Type())
		if !found {
			return nil, false, fmt.Errorf("%w: %v", ErrUnregisteredModel, v.Type())
		}
		args, err := r.mutationArguments(d, v, func(string) bool { return true })
		if err != nil {
			return nil, false, err
		}
		return args, true, nil
	case reflect.Slice, reflect.Array:
		return nil, false, fmt.Errorf("%w: list %v", ErrUnsupportedValue, v.Type())
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false, fmt.Errorf("%w: %v", ErrUnsupportedValue, v.Type())
		}
		m := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			item, ok, err := r.mutationValue(iter.Value())
			if err != nil {
				return nil, false, fmt.Errorf("key %s: %w", iter.Key().String(), err)
			}
			if ok {
				m[iter.Key().String()] = item
			}
		}
		return m, true, nil
	default:
		return v.Interface(), true, nil
	}
}
