package tagparser

import (
	"fmt"
	"strings"
)

// ParsedTag represents a parsed ql struct tag.
type ParsedTag struct {
	// Alias is the wire name used for both query and mutate paths, if any.
	Alias string
	// QueryName overrides Alias on the query path.
	QueryName string
	// MutateName overrides Alias on the mutate path.
	MutateName string
	// Skip marks the field as neither queryable nor mutable ("-").
	Skip bool
	// ReadOnly marks the field as queryable but not mutable.
	ReadOnly bool
	// WriteOnly marks the field as mutable but not queryable.
	WriteOnly bool
	// Required makes scalarization fail when the field is absent or null.
	Required bool
}

// Queryable reports whether the tag leaves the field on the query path.
func (p ParsedTag) Queryable() bool {
	return !p.Skip && !p.WriteOnly
}

// Mutable reports whether the tag leaves the field on the mutate path.
func (p ParsedTag) Mutable() bool {
	return !p.Skip && !p.ReadOnly
}

// QueryAlias returns the query-path alias, or "" when the tag does not
// name one.
func (p ParsedTag) QueryAlias() string {
	if p.QueryName != "" {
		return p.QueryName
	}
	return p.Alias
}

// MutateAlias returns the mutate-path alias, or "" when the tag does not
// name one.
func (p ParsedTag) MutateAlias() string {
	if p.MutateName != "" {
		return p.MutateName
	}
	return p.Alias
}

// ParseQLTag parses a ql struct tag value and returns structured information.
// Examples:
//   - "first_name" -> {Alias: "first_name"}
//   - ",query=firstName,mutate=first_name" -> {QueryName: "firstName", MutateName: "first_name"}
//   - "id,readonly" -> {Alias: "id", ReadOnly: true}
//   - "-" -> {Skip: true}
func ParseQLTag(tag string) (ParsedTag, error) {
	tag = strings.TrimSpace(tag)

	var parsed ParsedTag

	// Handle empty string
	if tag == "" {
		return parsed, nil
	}

	// Handle skip field
	if tag == "-" {
		parsed.Skip = true
		return parsed, nil
	}

	parts := strings.Split(tag, ",")
	parsed.Alias = strings.TrimSpace(parts[0])
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch {
		case hasValue && key == "query":
			parsed.QueryName = value
		case hasValue && key == "mutate":
			parsed.MutateName = value
		case !hasValue && key == "readonly":
			parsed.ReadOnly = true
		case !hasValue && key == "writeonly":
			parsed.WriteOnly = true
		case !hasValue && key == "required":
			parsed.Required = true
		default:
			return ParsedTag{}, fmt.Errorf("unknown ql tag option %q", part)
		}
		if hasValue && value == "" {
			return ParsedTag{}, fmt.Errorf("empty value for ql tag option %q", key)
		}
	}

	if parsed.ReadOnly && parsed.WriteOnly {
		return ParsedTag{}, fmt.Errorf("ql tag %q cannot be both readonly and writeonly", tag)
	}

	return parsed, nil
}

// JSONName extracts the field name from a json tag value, returning "" for
// an absent or skipped name.
func JSONName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}
