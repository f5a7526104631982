package ql

import (
	"fmt"
	"reflect"
)

// FieldSpec declares one model field explicitly, replacing the ql struct
// tag table when passed to WithFields.
type FieldSpec struct {
	Name       string // Go field name
	QueryName  string // defaults to the tag-derived alias
	MutateName string // defaults to the tag-derived alias
	SkipQuery  bool
	SkipMutate bool
	Required   bool
}

// ModelField is one entry of a model's alias table.
type ModelField struct {
	Name     string // Go field name
	Alias    string // wire name
	Index    []int  // reflect index path, through flattened embedded structs
	Type     reflect.Type
	Required bool
}

// FieldMap is an ordered mapping from Go field name to wire alias.
// The zero value is an empty map.
type FieldMap struct {
	fields  []ModelField
	byName  map[string]int
	byAlias map[string]int
}

func newFieldMap(fields []ModelField) FieldMap {
	m := FieldMap{
		fields:  fields,
		byName:  make(map[string]int, len(fields)),
		byAlias: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		m.byName[f.Name] = i
		if _, ok := m.byAlias[f.Alias]; !ok {
			m.byAlias[f.Alias] = i
		}
	}
	return m
}

// Len returns the number of fields.
func (m FieldMap) Len() int {
	return len(m.fields)
}

// Get returns the wire alias of the Go field name.
func (m FieldMap) Get(name string) (string, bool) {
	i, ok := m.byName[name]
	if !ok {
		return "", false
	}
	return m.fields[i].Alias, true
}

// Alias returns the wire alias of the Go field name, or "" when the field
// is not part of the map.
func (m FieldMap) Alias(name string) string {
	alias, _ := m.Get(name)
	return alias
}

// MustField returns a selection leaf for the Go field name.
// It panics when the field is not part of the map.
func (m FieldMap) MustField(name string) Field {
	alias, ok := m.Get(name)
	if !ok {
		panic(fmt.Sprintf("ql: field %q is not in %v", name, m.Names()))
	}
	return Field(alias)
}

// Leaves returns selection leaves for the given Go field names, or for
// every field when no name is given.
func (m FieldMap) Leaves(names ...string) []Node {
	if len(names) == 0 {
		names = m.Names()
	}
	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		nodes = append(nodes, m.MustField(name))
	}
	return nodes
}

// Name returns the Go field name of the wire alias.
func (m FieldMap) Name(alias string) (string, bool) {
	f, ok := m.lookupAlias(alias)
	if !ok {
		return "", false
	}
	return f.Name, true
}

func (m FieldMap) lookupAlias(alias string) (ModelField, bool) {
	i, ok := m.byAlias[alias]
	if !ok {
		return ModelField{}, false
	}
	return m.fields[i], true
}

func (m FieldMap) lookupName(name string) (ModelField, bool) {
	i, ok := m.byName[name]
	if !ok {
		return ModelField{}, false
	}
	return m.fields[i], true
}

// Names returns the Go field names in declaration order.
func (m FieldMap) Names() []string {
	names := make([]string, len(m.fields))
	for i, f := range m.fields {
		names[i] = f.Name
	}
	return names
}

// Aliases returns the wire aliases in declaration order.
func (m FieldMap) Aliases() []string {
	aliases := make([]string, len(m.fields))
	for i, f := range m.fields {
		aliases[i] = f.Alias
	}
	return aliases
}

// Fields returns a copy of the entries in declaration order.
func (m FieldMap) Fields() []ModelField {
	return append([]ModelField(nil), m.fields...)
}
