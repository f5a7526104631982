package ql

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/llehouerou/go-ql/internal/reflectutil"
	"github.com/llehouerou/go-ql/pkg/jsonutil"
	"github.com/llehouerou/go-ql/types"
)

// Response is a decoded response envelope.
type Response struct {
	Data   map[string]any `json:"data"`
	Errors Errors         `json:"errors,omitempty"`
}

// Result mirrors Response.Data with every model-shaped object replaced by
// a *T instance of its registered model and model lists by []any.
type Result map[string]any

// DecodeResponse decodes a JSON response envelope. Numbers are kept as
// json.Number so no precision is lost before they reach typed fields.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := jsonutil.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, nil
}

// ScalarizeOption configures Scalarize.
type ScalarizeOption func(*scalarizeOptions)

type scalarizeOptions struct {
	allowed []any
	doc     *Document
	strict  bool
}

// AllowedModels restricts typename resolution to the given models and
// their registered subtypes.
func AllowedModels(models ...any) ScalarizeOption {
	return func(o *scalarizeOptions) { o.allowed = append(o.allowed, models...) }
}

// ForDocument restricts typename resolution to the models doc references
// and their registered subtypes.
func ForDocument(doc *Document) ScalarizeOption {
	return func(o *scalarizeOptions) { o.doc = doc }
}

// StrictFields rejects response keys that match no model field instead of
// dropping them.
func StrictFields() ScalarizeOption {
	return func(o *scalarizeOptions) { o.strict = true }
}

// Scalarize materializes resp.Data into model instances, resolving every
// object through its __typename. When resp carries errors they are
// returned as Errors and nothing is materialized.
func (r *Registry) Scalarize(resp *Response, options ...ScalarizeOption) (Result, error) {
	if resp == nil {
		return Result{}, nil
	}
	if len(resp.Errors) > 0 {
		return nil, resp.Errors
	}

	var opts scalarizeOptions
	for _, option := range options {
		option(&opts)
	}
	s := &scalarizer{reg: r, strict: opts.strict}
	if opts.doc != nil || len(opts.allowed) > 0 {
		models := slices.Clone(opts.allowed)
		if opts.doc != nil {
			for _, t := range opts.doc.Models {
				models = append(models, t)
			}
		}
		if err := s.allow(models); err != nil {
			return nil, err
		}
	}

	result := make(Result, len(resp.Data))
	for _, key := range slices.Sorted(maps.Keys(resp.Data)) {
		v, err := s.entry(resp.Data[key], key)
		if err != nil {
			return nil, err
		}
		result[key] = v
	}
	return result, nil
}

type scalarizer struct {
	reg    *Registry
	strict bool

	// allowed is nil when every registered model may be resolved.
	allowed map[string]*Descriptor
}

func (s *scalarizer) allow(models []any) error {
	s.allowed = make(map[string]*Descriptor)
	for _, m := range models {
		d, err := s.reg.descriptor(m)
		if err != nil {
			return err
		}
		s.allowed[d.Typename] = d
		for _, sub := range d.Implements {
			if sd, ok := s.reg.lookup(sub); ok {
				s.allowed[sd.Typename] = sd
			}
		}
	}
	return nil
}

func (s *scalarizer) resolve(typename string) (*Descriptor, bool) {
	if s.allowed != nil {
		d, ok := s.allowed[typename]
		return d, ok
	}
	return s.reg.lookupName(typename)
}

// entry converts a top-level data entry. A top-level list is converted
// element by element whatever its first element is; only nested lists
// pass through when they do not start with an object.
func (s *scalarizer) entry(v any, path string) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return s.value(v, path)
	}
	out := make([]any, len(items))
	for i, item := range items {
		conv, err := s.entry(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = conv
	}
	return out, nil
}

// value converts one response value: objects become instances, lists of
// objects become lists of instances, anything else is returned as is.
func (s *scalarizer) value(v any, path string) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		return s.instance(val, path)
	case []any:
		return s.list(val, path)
	default:
		return v, nil
	}
}

func (s *scalarizer) list(items []any, path string) (any, error) {
	if len(items) == 0 {
		return items, nil
	}
	if _, ok := items[0].(map[string]any); !ok {
		return items, nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		switch val := item.(type) {
		case nil:
		case map[string]any:
			inst, err := s.instance(val, itemPath)
			if err != nil {
				return nil, err
			}
			out[i] = inst
		default:
			return nil, fmt.Errorf("%w: %s: %T in a list of objects", ErrStructuralSelection, itemPath, item)
		}
	}
	return out, nil
}

func (s *scalarizer) instance(obj map[string]any, path string) (any, error) {
	typename, _ := obj[types.TypenameField].(string)
	if typename == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingTypename, path)
	}
	d, ok := s.resolve(typename)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %q", ErrUnresolvableTypename, path, typename)
	}

	ptr := reflect.New(d.Type)
	elem := ptr.Elem()
	assigned := make(map[string]bool, len(obj))

	for _, key := range slices.Sorted(maps.Keys(obj)) {
		if key == types.TypenameField {
			continue
		}
		f, ok := d.fieldForKey(key)
		if !ok {
			if s.strict {
				return nil, &ConstructionError{Model: d.Typename, Field: key, Err: errors.New("unknown field")}
			}
			continue
		}

		v, err := s.value(obj[key], path+"."+key)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		if err := assignField(reflectutil.FieldByIndexAlloc(elem, f.Index), v); err != nil {
			return nil, &ConstructionError{Model: d.Typename, Field: f.Name, Err: err}
		}
		assigned[f.Name] = true
	}

	for _, f := range d.Queryable.fields {
		if f.Required && !assigned[f.Name] {
			return nil, &ConstructionError{
				Model: d.Typename,
				Field: f.Name,
				Err:   fmt.Errorf("required field %q is missing or null", f.Alias),
			}
		}
	}

	if v, ok := ptr.Interface().(types.Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &ConstructionError{Model: d.Typename, Err: err}
		}
	}
	return ptr.Interface(), nil
}

// fieldForKey maps a response key back to a model field: through the
// queryable aliases first, then by Go field name, then by Go field name
// ignoring case.
func (d *Descriptor) fieldForKey(key string) (ModelField, bool) {
	if f, ok := d.Queryable.lookupAlias(key); ok {
		return f, true
	}
	if f, ok := d.exported.lookupName(key); ok {
		return f, true
	}
	for _, f := range d.exported.fields {
		if strings.EqualFold(f.Name, key) {
			return f, true
		}
	}
	return ModelField{}, false
}

// assignField stores a converted response value into dst. Instances are
// assigned by reflection, lists element by element, and everything else
// is decoded into the field type through encoding/json.
func assignField(dst reflect.Value, v any) error {
	rv := reflect.ValueOf(v)

	if dst.Kind() == reflect.Interface && containsInstance(rv) {
		if !rv.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("cannot assign %v to %v", rv.Type(), dst.Type())
		}
		dst.Set(rv)
		return nil
	}

	switch {
	case isInstance(rv):
		return assignInstance(dst, rv)
	case rv.Kind() == reflect.Slice && containsInstance(rv):
		target := dst
		if dst.Kind() == reflect.Ptr {
			target = reflect.New(dst.Type().Elem()).Elem()
		}
		if target.Kind() != reflect.Slice {
			return fmt.Errorf("cannot assign a list to %v", dst.Type())
		}
		out := reflect.MakeSlice(target.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item := rv.Index(i).Interface()
			if item == nil {
				continue
			}
			if err := assignField(out.Index(i), item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		target.Set(out)
		if dst.Kind() == reflect.Ptr {
			dst.Set(target.Addr())
		}
		return nil
	default:
		return jsonutil.AssignValue(v, dst)
	}
}

func assignInstance(dst reflect.Value, rv reflect.Value) error {
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Elem().Type().AssignableTo(dst.Type()):
		dst.Set(rv.Elem())
	default:
		return fmt.Errorf("cannot assign %v to %v", rv.Type(), dst.Type())
	}
	return nil
}

func isInstance(rv reflect.Value) bool {
	return rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
}

func containsInstance(rv reflect.Value) bool {
	if isInstance(rv) {
		return true
	}
	if rv.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if isInstance(reflect.ValueOf(rv.Index(i).Interface())) {
			return true
		}
	}
	return false
}
