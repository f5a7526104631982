package reflectutil

import (
	"reflect"

	"github.com/llehouerou/go-ql/types"
)

// IsSignedKind reports whether kind is a signed integer kind.
func IsSignedKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	default:
		return false
	}
}

// IsUnsignedKind reports whether kind is an unsigned integer kind.
func IsUnsignedKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

var typenamerInterface = reflect.TypeOf((*types.Typenamer)(nil)).Elem()

// TypenameFromType returns the typename declared by a type implementing
// types.Typenamer on its value or pointer receiver.
// This creates a zero value to call QLTypename().
func TypenameFromType(t reflect.Type) (string, bool) {
	var typenamer types.Typenamer
	var ok bool

	switch {
	case t.Implements(typenamerInterface):
		typenamer, ok = reflect.Zero(t).Interface().(types.Typenamer)
	case reflect.PointerTo(t).Implements(typenamerInterface):
		typenamer, ok = reflect.New(t).Interface().(types.Typenamer)
	}

	if !ok {
		return "", false
	}
	name := typenamer.QLTypename()
	return name, name != ""
}
