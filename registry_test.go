package ql

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	humanType  = reflect.TypeFor[Human]()
	maleType   = reflect.TypeFor[Male]()
	femaleType = reflect.TypeFor[Female]()
	childType  = reflect.TypeFor[Child]()
)

func TestRegister_Defaults(t *testing.T) {
	r := NewRegistry()
	d, err := Register[Point](r)
	require.NoError(t, err)

	assert.Equal(t, "Point", d.Typename)
	assert.Equal(t, "Point", d.QueryName)
	assert.Equal(t, "Point", d.MutateName)
	assert.Equal(t, []string{"X", "Y"}, d.Queryable.Names())
	assert.Equal(t, []string{"x", "y"}, d.Queryable.Aliases())
	assert.Equal(t, []string{"x", "y"}, d.Mutable.Aliases())
	assert.Empty(t, d.Implements)
}

func TestRegister_Options(t *testing.T) {
	r := NewRegistry()
	d, err := r.Register(&Family{},
		WithTypename("Household"),
		WithQueryName("family"),
		WithMutateName("updateFamily"),
	)
	require.NoError(t, err)

	assert.Equal(t, "Household", d.Typename)
	assert.Equal(t, "family", d.QueryName)
	assert.Equal(t, "updateFamily", d.MutateName)

	got, ok := r.Lookup("Household")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[Family](), got.Type)

	name, err := r.Typename(Family{})
	require.NoError(t, err)
	assert.Equal(t, "Household", name)
}

func TestRegister_FieldTags(t *testing.T) {
	r := NewRegistry()
	d := MustRegister[Account](r)

	if diff := cmp.Diff([]string{"id", "email", "nick", "age_years", "profile"}, d.Queryable.Aliases()); diff != "" {
		t.Errorf("queryable aliases mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"email", "password", "nickname", "age_years", "profile"}, d.Mutable.Aliases()); diff != "" {
		t.Errorf("mutable aliases mismatch (-want +got):\n%s", diff)
	}

	name, ok := d.Queryable.Name("nick")
	assert.True(t, ok)
	assert.Equal(t, "Nickname", name)

	_, ok = d.Queryable.Get("Internal")
	assert.False(t, ok)
	assert.Equal(t, "", d.Queryable.Alias("Password"))
	assert.Equal(t, Field("email"), d.Queryable.MustField("Email"))
	assert.Panics(t, func() { d.Queryable.MustField("Missing") })
}

func TestRegister_Embedded(t *testing.T) {
	r := NewRegistry()
	d := MustRegister[Child](r)

	assert.Equal(t, []string{"first_name", "last_name", "alive", "sick", "age"}, d.Queryable.Aliases())

	f := d.Queryable.Fields()[0]
	assert.Equal(t, "FirstName", f.Name)
	assert.Equal(t, []int{0, 0, 0}, f.Index)
}

func TestRegister_ShallowestFieldWins(t *testing.T) {
	type base struct {
		Name string `ql:"base_name"`
		Kind string `ql:"kind"`
	}
	type derived struct {
		base
		Name string `ql:"name"`
	}

	r := NewRegistry()
	d, err := r.Register(derived{}, WithTypename("Derived"))
	require.NoError(t, err)

	assert.Equal(t, []string{"kind", "name"}, d.Queryable.Aliases())
}

func TestRegister_DefaultAliases(t *testing.T) {
	type repo struct {
		DatabaseID int
		AvatarURL  string
		Login      string `json:"login_name,omitempty"`
	}

	r := NewRegistry()
	d, err := r.Register(repo{}, WithTypename("Repository"))
	require.NoError(t, err)

	assert.Equal(t, []string{"databaseId", "avatarUrl", "login_name"}, d.Queryable.Aliases())
}

func TestRegister_WithFields(t *testing.T) {
	r := NewRegistry()
	d, err := Register[Account](r, WithFields(
		FieldSpec{Name: "ID", SkipMutate: true},
		FieldSpec{Name: "Email", QueryName: "mail", Required: true},
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "mail"}, d.Queryable.Aliases())
	assert.Equal(t, []string{"email"}, d.Mutable.Aliases())
	assert.True(t, d.Queryable.Fields()[1].Required)

	_, err = Register[Account](r, WithFields(FieldSpec{Name: "Nope"}))
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestRegister_Invalid(t *testing.T) {
	type empty struct{}
	type hidden struct {
		name string
	}
	type badTag struct {
		Name string `ql:"name,sideways"`
	}

	tests := []struct {
		name  string
		model any
		opts  []ModelOption
	}{
		{name: "nil", model: nil},
		{name: "not a struct", model: 42},
		{name: "no fields", model: empty{}},
		{name: "no exported fields", model: hidden{}},
		{name: "unknown tag option", model: badTag{}},
		{name: "anonymous struct", model: struct{ A int }{}},
		{name: "empty supertype name", model: Point{}, opts: []ModelOption{Implements("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry().Register(tt.model, tt.opts...)
			if !errors.Is(err, ErrInvalidModel) {
				t.Errorf("Register() error = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestImplements_Transitive(t *testing.T) {
	r := newFamilyRegistry(t)

	got, err := r.Implements(Human{})
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{maleType, femaleType, childType}, got)

	got, err = r.Implements(Male{})
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{childType}, got)

	got, err = r.Implements(Child{})
	require.NoError(t, err)
	assert.Empty(t, got)

	d, err := r.Descriptor(Child{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Male"}, d.Supertypes)
}

func TestImplements_RegistrationOrder(t *testing.T) {
	// Subtypes first, supertypes named by typename.
	r := NewRegistry()
	MustRegister[Child](r, Implements("Male"))
	MustRegister[Female](r, Implements(humanType))
	MustRegister[Male](r, Implements("Human"))

	d := MustRegister[Human](r)
	assert.Equal(t, []reflect.Type{childType, femaleType, maleType}, d.Implements)
}

func TestImplements_Unregistered(t *testing.T) {
	r := NewRegistry()
	_, err := r.Implements(Human{})
	assert.ErrorIs(t, err, ErrUnregisteredModel)

	_, err = r.QueryableFields(Human{})
	assert.ErrorIs(t, err, ErrUnregisteredModel)
	_, err = r.MutableFields(Human{})
	assert.ErrorIs(t, err, ErrUnregisteredModel)
}

func TestRegister_Idempotent(t *testing.T) {
	r := newFamilyRegistry(t)
	before := r.Models()

	MustRegister[Male](r, Implements(Human{}))
	MustRegister[Male](r, Implements(Human{}))

	assert.Equal(t, before, r.Models())
	got, err := r.Implements(Human{})
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{maleType, femaleType, childType}, got)
}

func TestRegister_Overwrite(t *testing.T) {
	r := NewRegistry()
	MustRegister[Point](r)
	MustRegister[Point](r, WithTypename("Coordinate"))

	_, ok := r.Lookup("Point")
	assert.False(t, ok)
	d, ok := r.Lookup("Coordinate")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeFor[Point](), d.Type)

	// Another type taking over a typename replaces the previous owner.
	type other struct {
		Z int
	}
	_, err := r.Register(other{}, WithTypename("Coordinate"))
	require.NoError(t, err)
	assert.Len(t, r.Models(), 1)
	_, err = r.Descriptor(Point{})
	assert.ErrorIs(t, err, ErrUnregisteredModel)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	MustRegister[Human](r)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			MustRegister[Male](r, Implements(Human{}))
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Implements(Human{})
			_, _ = r.ConstructQuery([]Selection{Select(Model[Human](), Field("first_name"))})
		}()
	}
	wg.Wait()

	got, err := r.Implements(Human{})
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{maleType}, got)
}
