package ql

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"

	"github.com/llehouerou/go-ql/internal/reflectutil"
)

// writeArguments writes args as "k:v,k:v" in declaration order.
// Nested argument lists and maps are only accepted when nested is true
// (mutation arguments). Lists are never accepted.
//
// E.g., ArgumentList{{"id", 1}, {"name", "x"}} -> `id:1,name:"x"`.
func writeArguments(w io.Writer, args ArgumentList, nested bool) error {
	for i, arg := range args {
		if arg.Name == "" {
			return fmt.Errorf("%w: argument %d has no name", ErrStructuralSelection, i)
		}
		if i != 0 {
			_, _ = io.WriteString(w, ",")
		}
		_, _ = io.WriteString(w, arg.Name)
		_, _ = io.WriteString(w, ":")
		if err := writeArgumentValue(w, arg.Value, nested); err != nil {
			return fmt.Errorf("argument %q: %w", arg.Name, err)
		}
	}
	return nil
}

// writeArgumentsFromMap writes a map as an argument list.
// Keys are sorted alphabetically for deterministic output.
func writeArgumentsFromMap(w io.Writer, m map[string]any, nested bool) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make(ArgumentList, 0, len(keys))
	for _, k := range keys {
		args = append(args, Argument{Name: k, Value: m[k]})
	}
	return writeArguments(w, args, nested)
}

// writeArgumentValue writes a single argument value: strings quoted,
// integers bare, booleans lowercase.
func writeArgumentValue(w io.Writer, v any, nested bool) error {
	switch val := v.(type) {
	case ArgumentList:
		if !nested {
			return fmt.Errorf("%w: nested argument list outside a mutation", ErrUnsupportedValue)
		}
		_, _ = io.WriteString(w, "{")
		if err := writeArguments(w, val, nested); err != nil {
			return err
		}
		_, _ = io.WriteString(w, "}")
		return nil
	case map[string]any:
		if !nested {
			return fmt.Errorf("%w: map argument outside a mutation", ErrUnsupportedValue)
		}
		_, _ = io.WriteString(w, "{")
		if err := writeArgumentsFromMap(w, val, nested); err != nil {
			return err
		}
		_, _ = io.WriteString(w, "}")
		return nil
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return fmt.Errorf("%w: nil", ErrUnsupportedValue)
	}

	kind := rv.Kind()
	switch {
	case kind == reflect.String:
		writeString(w, rv.String())
	case kind == reflect.Bool:
		_, _ = io.WriteString(w, strconv.FormatBool(rv.Bool()))
	case reflectutil.IsSignedKind(kind):
		_, _ = io.WriteString(w, strconv.FormatInt(rv.Int(), 10))
	case reflectutil.IsUnsignedKind(kind):
		_, _ = io.WriteString(w, strconv.FormatUint(rv.Uint(), 10))
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
	return nil
}

const hex = "0123456789abcdef"

// writeString writes s as a quoted string literal. Quotes, backslashes and
// control characters are escaped; everything else is written as is.
func writeString(w io.Writer, s string) {
	_, _ = io.WriteString(w, `"`)
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		_, _ = io.WriteString(w, s[start:i])
		switch c {
		case '"':
			_, _ = io.WriteString(w, `\"`)
		case '\\':
			_, _ = io.WriteString(w, `\\`)
		case '\n':
			_, _ = io.WriteString(w, `\n`)
		case '\r':
			_, _ = io.WriteString(w, `\r`)
		case '\t':
			_, _ = io.WriteString(w, `\t`)
		default:
			_, _ = io.WriteString(w, `\u00`)
			_, _ = io.WriteString(w, string([]byte{hex[c>>4], hex[c&0xf]}))
		}
		start = i + 1
	}
	_, _ = io.WriteString(w, s[start:])
	_, _ = io.WriteString(w, `"`)
}
