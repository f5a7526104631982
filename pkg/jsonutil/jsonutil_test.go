package jsonutil_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/llehouerou/go-ql/pkg/jsonutil"
)

func TestUnmarshal(t *testing.T) {
	var got map[string]any
	err := jsonutil.Unmarshal([]byte(`{"count": 12345678901234567890, "name": "x"}`), &got)
	if err != nil {
		t.Fatal(err)
	}
	n, ok := got["count"].(json.Number)
	if !ok {
		t.Fatalf("count = %T, want json.Number", got["count"])
	}
	if n.String() != "12345678901234567890" {
		t.Errorf("count = %q, want %q", n.String(), "12345678901234567890")
	}
}

func TestUnmarshal_trailingToken(t *testing.T) {
	var got map[string]any
	err := jsonutil.Unmarshal([]byte(`{"a": 1} {"b": 2}`), &got)
	if err == nil {
		t.Fatal("got error: nil, want: non-nil")
	}
	if got, want := err.Error(), "invalid token '{' after top-level value"; got != want {
		t.Errorf("got error: %v, want: %v", got, want)
	}
}

func TestUnmarshal_invalid(t *testing.T) {
	var got map[string]any
	if err := jsonutil.Unmarshal([]byte(`{"a": `), &got); err == nil {
		t.Fatal("got error: nil, want: non-nil")
	}
}

func TestAssignValue(t *testing.T) {
	var s struct {
		Count int
		Ratio float64
		Name  *string
		Tags  []string
		When  time.Time
		Any   any
	}
	v := reflect.ValueOf(&s).Elem()

	assign := func(field string, value any) {
		t.Helper()
		if err := jsonutil.AssignValue(value, v.FieldByName(field)); err != nil {
			t.Fatalf("AssignValue(%v) into %s: %v", value, field, err)
		}
	}
	assign("Count", json.Number("42"))
	assign("Ratio", json.Number("0.5"))
	assign("Name", "gopher")
	assign("Tags", []any{"a", "b"})
	assign("When", "2024-01-02T03:04:05Z")
	assign("Any", map[string]any{"k": json.Number("1")})

	if s.Count != 42 {
		t.Errorf("Count = %d, want 42", s.Count)
	}
	if s.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", s.Ratio)
	}
	if s.Name == nil || *s.Name != "gopher" {
		t.Errorf("Name = %v, want gopher", s.Name)
	}
	if !reflect.DeepEqual(s.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %v, want [a b]", s.Tags)
	}
	if want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC); !s.When.Equal(want) {
		t.Errorf("When = %v, want %v", s.When, want)
	}
	if m, ok := s.Any.(map[string]any); !ok || m["k"] != float64(1) {
		t.Errorf("Any = %#v, want map with k=1", s.Any)
	}
}

func TestAssignValue_typeMismatch(t *testing.T) {
	var n int
	err := jsonutil.AssignValue("not a number", reflect.ValueOf(&n).Elem())
	if err == nil {
		t.Fatal("got error: nil, want: non-nil")
	}
}
