package types

// Protocol and tag constants used throughout the codebase.
// Centralizing these prevents typos and makes refactoring safer.
const (
	// QLTag is the struct tag name used to declare a model field's wire
	// aliases and flags.
	QLTag = "ql"

	// JSONTag is consulted for the default wire alias when a field has no
	// ql tag name.
	JSONTag = "json"

	// TypenameField is the protocol field used for type discrimination of
	// polymorphic objects.
	TypenameField = "__typename"

	// FragmentPrefix is the prefix of a fragment spread ("...name").
	FragmentPrefix = "..."

	// FragmentOnPrefix is the prefix of a typed inline fragment
	// ("...on Male"); the typename follows it directly.
	FragmentOnPrefix = "...on "

	// QueryKeyword and MutationKeyword open a document.
	QueryKeyword    = "query"
	MutationKeyword = "mutation"

	// FragmentKeyword opens a named fragment definition.
	FragmentKeyword = "fragment"
)

// Typenamer is implemented by models that choose their own typename.
// Registration uses it when no explicit typename option is given.
type Typenamer interface {
	QLTypename() string
}

// Validator is implemented by models that check their own invariants
// after being materialized from a response.
type Validator interface {
	Validate() error
}
