package ql

import (
	"fmt"
	"reflect"
)

// Node is an element of a field list: a Field, a Selection or an
// *Operation.
type Node interface {
	isNode()
}

// Selector names what a Selection selects from: a ModelSelector, a Name
// or an *Operation.
type Selector interface {
	isSelector()
}

// Field is a leaf of a field list, rendered verbatim.
type Field string

func (Field) isNode() {}

// Name is a selector for a plain nested field, rendered verbatim.
type Name string

func (Name) isSelector() {}

// Selection is a selector followed by a braced field list.
type Selection struct {
	Selector Selector
	Fields   []Node
}

func (Selection) isNode() {}

// Select builds a Selection.
func Select(selector Selector, fields ...Node) Selection {
	return Selection{Selector: selector, Fields: fields}
}

// ModelSelector selects a registered model by its query name.
type ModelSelector struct {
	Type reflect.Type
}

func (ModelSelector) isSelector() {}

// Model returns the selector of model T.
func Model[T any]() ModelSelector {
	return ModelSelector{Type: reflect.TypeFor[T]()}
}

// ModelOf returns the selector of the model type of v, which may be a
// value, a pointer or a reflect.Type.
func ModelOf(v any) ModelSelector {
	return ModelSelector{Type: typeOf(v)}
}

// OperationKind identifies what an Operation renders.
type OperationKind int

const (
	// OperationArguments renders a model selector with an argument list.
	OperationArguments OperationKind = iota + 1
	// OperationInlineFragment renders "...on Typename".
	OperationInlineFragment
	// OperationReferenceFragment renders "...name".
	OperationReferenceFragment
)

func (k OperationKind) String() string {
	switch k {
	case OperationArguments:
		return "arguments"
	case OperationInlineFragment:
		return "inline fragment"
	case OperationReferenceFragment:
		return "fragment reference"
	default:
		return fmt.Sprintf("OperationKind(%d)", int(k))
	}
}

// Operation is a selector or field list entry that renders more than a
// name. Build it with Args, On or FragmentRef.
type Operation struct {
	Kind     OperationKind
	Model    reflect.Type // Args and On
	Args     ArgumentList // Args
	Fragment string       // FragmentRef
}

func (*Operation) isNode()     {}
func (*Operation) isSelector() {}

// Args selects model T with arguments: "queryName(k:v,...)".
func Args[T any](args ...Argument) *Operation {
	return &Operation{Kind: OperationArguments, Model: reflect.TypeFor[T](), Args: args}
}

// ArgsOf is like Args for a model given as a value or reflect.Type.
func ArgsOf(model any, args ...Argument) *Operation {
	return &Operation{Kind: OperationArguments, Model: typeOf(model), Args: args}
}

// On selects the fields of model T inside a polymorphic field:
// "...on Typename".
func On[T any]() *Operation {
	return &Operation{Kind: OperationInlineFragment, Model: reflect.TypeFor[T]()}
}

// OnModel is like On for a model given as a value or reflect.Type.
func OnModel(model any) *Operation {
	return &Operation{Kind: OperationInlineFragment, Model: typeOf(model)}
}

// FragmentRef spreads a named fragment into a field list: "...name".
func FragmentRef(name string) *Operation {
	return &Operation{Kind: OperationReferenceFragment, Fragment: name}
}

// Argument is one name:value pair of an argument list.
type Argument struct {
	Name  string
	Value any
}

// Arg builds an Argument.
func Arg(name string, value any) Argument {
	return Argument{Name: name, Value: value}
}

// ArgumentList is an ordered argument list.
type ArgumentList []Argument

// Fragment is a named fragment definition, rendered after the query body
// as "fragment name on Typename{fields}".
type Fragment struct {
	Name   string
	Model  reflect.Type
	Fields []Node
}

// DefineFragment builds a fragment on model T.
func DefineFragment[T any](name string, fields ...Node) Fragment {
	return Fragment{Name: name, Model: reflect.TypeFor[T](), Fields: fields}
}

// NewFragment is like DefineFragment for a model given as a value or
// reflect.Type.
func NewFragment(name string, model any, fields ...Node) Fragment {
	return Fragment{Name: name, Model: typeOf(model), Fields: fields}
}

func typeOf(v any) reflect.Type {
	if t, ok := v.(reflect.Type); ok {
		return t
	}
	return reflect.TypeOf(v)
}
