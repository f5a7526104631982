package reflectutil

import "reflect"

// IsNillable returns true if the given kind can hold a nil value.
func IsNillable(kind reflect.Kind) bool {
	switch kind {
	case reflect.Ptr,
		reflect.Interface,
		reflect.Slice,
		reflect.Map,
		reflect.Chan,
		reflect.Func:
		return true
	default:
		return false
	}
}

// UnwrapToConcreteValue unwraps pointers and interfaces to get to the concrete value.
// Returns the concrete value, or an invalid reflect.Value if unwrapping hits a nil.
//
// Example:
//
//	var x **int
//	v := reflect.ValueOf(x)
//	concrete := UnwrapToConcreteValue(v) // returns the int value (if not nil)
func UnwrapToConcreteValue(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// IsNilValue safely checks if a reflect.Value is nil.
// Returns true if:
// - The value is invalid
// - The value's kind can hold nil (pointer, interface, slice, map, chan, func) AND it is nil
// Returns false for non-nillable kinds (int, string, struct, etc.)
func IsNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return IsNillable(v.Kind()) && v.IsNil()
}

// IndirectType strips every pointer level from t.
func IndirectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// FieldByIndexAlloc returns the nested field of struct v at index,
// allocating nil embedded struct pointers along the way. v must be
// addressable.
func FieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem())) // v = new(T).
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

// FieldByIndexSafe returns the nested field of struct v at index, or an
// invalid reflect.Value when a nil embedded pointer is in the way.
func FieldByIndexSafe(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}
