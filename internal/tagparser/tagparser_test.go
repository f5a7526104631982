package tagparser

import (
	"testing"
)

func TestParseQLTag_Alias(t *testing.T) {
	tag := "first_name"

	parsed, err := ParseQLTag(tag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Alias != "first_name" {
		t.Errorf("expected Alias 'first_name', got '%s'", parsed.Alias)
	}
	if parsed.QueryAlias() != "first_name" {
		t.Errorf("expected QueryAlias 'first_name', got '%s'", parsed.QueryAlias())
	}
	if parsed.MutateAlias() != "first_name" {
		t.Errorf("expected MutateAlias 'first_name', got '%s'", parsed.MutateAlias())
	}
	if !parsed.Queryable() || !parsed.Mutable() {
		t.Error("expected field to be queryable and mutable")
	}
}

func TestParseQLTag_SeparateNames(t *testing.T) {
	tag := ",query=firstName,mutate=first_name"

	parsed, err := ParseQLTag(tag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Alias != "" {
		t.Errorf("expected empty Alias, got '%s'", parsed.Alias)
	}
	if parsed.QueryAlias() != "firstName" {
		t.Errorf("expected QueryAlias 'firstName', got '%s'", parsed.QueryAlias())
	}
	if parsed.MutateAlias() != "first_name" {
		t.Errorf("expected MutateAlias 'first_name', got '%s'", parsed.MutateAlias())
	}
}

func TestParseQLTag_OverrideKeepsAliasForOtherPath(t *testing.T) {
	parsed, err := ParseQLTag("name,mutate=newName")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.QueryAlias() != "name" {
		t.Errorf("expected QueryAlias 'name', got '%s'", parsed.QueryAlias())
	}
	if parsed.MutateAlias() != "newName" {
		t.Errorf("expected MutateAlias 'newName', got '%s'", parsed.MutateAlias())
	}
}

func TestParseQLTag_Flags(t *testing.T) {
	tests := []struct {
		tag           string
		wantQueryable bool
		wantMutable   bool
		wantRequired  bool
	}{
		{tag: "id,readonly", wantQueryable: true, wantMutable: false},
		{tag: "password,writeonly", wantQueryable: false, wantMutable: true},
		{tag: ",required", wantQueryable: true, wantMutable: true, wantRequired: true},
		{tag: "-", wantQueryable: false, wantMutable: false},
		{tag: "", wantQueryable: true, wantMutable: true},
	}

	for _, tc := range tests {
		parsed, err := ParseQLTag(tc.tag)
		if err != nil {
			t.Fatalf("tag %q: unexpected error: %v", tc.tag, err)
		}
		if parsed.Queryable() != tc.wantQueryable {
			t.Errorf("tag %q: Queryable() = %v, want %v", tc.tag, parsed.Queryable(), tc.wantQueryable)
		}
		if parsed.Mutable() != tc.wantMutable {
			t.Errorf("tag %q: Mutable() = %v, want %v", tc.tag, parsed.Mutable(), tc.wantMutable)
		}
		if parsed.Required != tc.wantRequired {
			t.Errorf("tag %q: Required = %v, want %v", tc.tag, parsed.Required, tc.wantRequired)
		}
	}
}

func TestParseQLTag_WithWhitespace(t *testing.T) {
	parsed, err := ParseQLTag("  count , readonly ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if parsed.Alias != "count" {
		t.Errorf("expected Alias 'count', got '%s'", parsed.Alias)
	}
	if !parsed.ReadOnly {
		t.Error("expected ReadOnly to be true")
	}
}

func TestParseQLTag_Errors(t *testing.T) {
	tests := []string{
		"name,unknown",
		"name,query=",
		"name,readonly,writeonly",
	}

	for _, tag := range tests {
		if _, err := ParseQLTag(tag); err == nil {
			t.Errorf("tag %q: expected error, got nil", tag)
		}
	}
}

func TestJSONName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{tag: "", want: ""},
		{tag: "name", want: "name"},
		{tag: "name,omitempty", want: "name"},
		{tag: ",omitempty", want: ""},
		{tag: "-", want: ""},
	}

	for _, tc := range tests {
		if got := JSONName(tc.tag); got != tc.want {
			t.Errorf("JSONName(%q) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}
