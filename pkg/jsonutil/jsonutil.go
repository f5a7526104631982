// Package jsonutil provides JSON helpers for decoding protocol responses
// and assigning untyped JSON values to typed model fields.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// Unmarshal parses the JSON-encoded data and stores the result in the value
// pointed to by v. Numbers are decoded as json.Number when v holds
// interfaces, and any token after the top-level value is an error.
func Unmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	tok, err := dec.Token()
	switch err {
	case io.EOF:
		// Expect to get io.EOF. There shouldn't be any more
		// tokens left after we've decoded v successfully.
		return nil
	case nil:
		return fmt.Errorf("invalid token '%v' after top-level value", tok)
	default:
		return err
	}
}

// AssignValue converts an untyped JSON value (as produced by Unmarshal into
// an interface) to the type of v and stores it. v must be settable.
//
// The conversion round-trips through encoding/json so custom
// UnmarshalJSON methods and numeric conversions behave as they would for
// a direct decode.
func AssignValue(value any, v reflect.Value) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	ty := v.Type()
	if ty.Kind() == reflect.Interface {
		if !v.Elem().IsValid() {
			return json.Unmarshal(b, v.Addr().Interface())
		}
		ty = v.Elem().Type()
	}
	newVal := reflect.New(ty)
	if err := json.Unmarshal(b, newVal.Interface()); err != nil {
		return err
	}
	v.Set(newVal.Elem())
	return nil
}
