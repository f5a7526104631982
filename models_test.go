package ql

import (
	"errors"
	"testing"
)

type Point struct {
	X int `ql:"x"`
	Y int `ql:"y"`
}

type Person interface {
	GetFirstName() string
}

type Human struct {
	FirstName string `ql:"first_name"`
	LastName  string `ql:"last_name"`
	Alive     bool   `ql:"alive"`
}

func (h Human) GetFirstName() string { return h.FirstName }

type Male struct {
	Human
	Sick bool `ql:"sick"`
}

type Female struct {
	Human
	Pregnant bool `ql:"pregnant"`
}

type Child struct {
	Male
	Age int `ql:"age"`
}

type Family struct {
	Count  int      `ql:"count"`
	People []Person `ql:"people"`
}

type Account struct {
	ID       string `ql:"id,readonly"`
	Email    string `ql:"email,required"`
	Password string `ql:"password,writeonly"`
	Nickname string `ql:",query=nick,mutate=nickname"`
	Internal string `ql:"-"`
	Age      *int   `json:"age_years"`
	Profile  *Profile
}

type Profile struct {
	Bio string `ql:"bio"`
}

var errNegativeCount = errors.New("count must not be negative")

type Counter struct {
	Count int `ql:"count"`
}

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errNegativeCount
	}
	return nil
}

// newFamilyRegistry registers the Human hierarchy, Point and Family.
func newFamilyRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	MustRegister[Point](r)
	MustRegister[Human](r)
	MustRegister[Male](r, Implements(Human{}))
	MustRegister[Female](r, Implements(Human{}))
	MustRegister[Child](r, Implements(Male{}))
	MustRegister[Family](r, WithQueryName("family"))
	return r
}
