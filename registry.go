package ql

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/llehouerou/go-ql/internal/ident"
	"github.com/llehouerou/go-ql/internal/reflectutil"
	"github.com/llehouerou/go-ql/internal/tagparser"
	"github.com/llehouerou/go-ql/types"
)

// Descriptor is the registration record of one model type.
type Descriptor struct {
	Type       reflect.Type
	Typename   string
	QueryName  string
	MutateName string

	// Queryable maps Go field names to their query-path aliases.
	Queryable FieldMap
	// Mutable maps Go field names to their mutate-path aliases.
	Mutable FieldMap

	// Supertypes are the typenames declared with Implements.
	Supertypes []string
	// Implements lists every registered model that declares this one as a
	// supertype, directly or transitively, in registration order.
	Implements []reflect.Type

	exported FieldMap // every exported field under its default alias
	supers   []modelRef
}

// modelRef names a supertype either by Go type or by typename.
type modelRef struct {
	typ  reflect.Type
	name string
}

// Registry holds model descriptors keyed by Go type and by typename.
// It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	byType map[reflect.Type]*Descriptor
	byName map[string]reflect.Type

	// order keeps registration order for Models and Implements.
	order []reflect.Type
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]*Descriptor),
		byName: make(map[string]reflect.Type),
	}
}

// ModelOption customizes the registration of one model.
type ModelOption func(*modelConfig)

type modelConfig struct {
	typename   string
	queryName  string
	mutateName string
	supers     []any
	fields     []FieldSpec
	hasFields  bool
}

// WithTypename sets the typename, overriding the Go type name and
// types.Typenamer.
func WithTypename(name string) ModelOption {
	return func(c *modelConfig) { c.typename = name }
}

// WithQueryName sets the name used for the model in query selectors.
func WithQueryName(name string) ModelOption {
	return func(c *modelConfig) { c.queryName = name }
}

// WithMutateName sets the name used for mutations derived from the model.
func WithMutateName(name string) ModelOption {
	return func(c *modelConfig) { c.mutateName = name }
}

// Implements declares the supertypes of the model. Each supertype is a
// model value, a reflect.Type or a typename string. Supertypes do not need
// to be registered first.
func Implements(supertypes ...any) ModelOption {
	return func(c *modelConfig) { c.supers = append(c.supers, supertypes...) }
}

// WithFields replaces the struct tag field table with explicit specs.
func WithFields(fields ...FieldSpec) ModelOption {
	return func(c *modelConfig) {
		c.fields = append(c.fields, fields...)
		c.hasFields = true
	}
}

// Register adds model to the registry, or replaces the descriptor of an
// already registered type or typename.
//
// The model must be a struct (or a pointer to one) with at least one
// exported field.
func (r *Registry) Register(model any, opts ...ModelOption) (Descriptor, error) {
	t, err := modelType(model)
	if err != nil {
		return Descriptor{}, err
	}

	var cfg modelConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	d, err := newDescriptor(t, cfg)
	if err != nil {
		return Descriptor{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byName[d.Typename]; ok && prev != t {
		r.remove(prev)
	}
	if old, ok := r.byType[t]; ok {
		delete(r.byName, old.Typename)
	} else {
		r.order = append(r.order, t)
	}
	r.byType[t] = d
	r.byName[d.Typename] = t

	r.rebuild()
	return r.byType[t].snapshot(), nil
}

// Register adds T to r. See Registry.Register.
func Register[T any](r *Registry, opts ...ModelOption) (Descriptor, error) {
	return r.Register(reflect.TypeFor[T](), opts...)
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry, opts ...ModelOption) Descriptor {
	d, err := Register[T](r, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// remove drops t from every index. The caller must hold the write lock.
func (r *Registry) remove(t reflect.Type) {
	if d, ok := r.byType[t]; ok {
		delete(r.byName, d.Typename)
	}
	delete(r.byType, t)
	for i, o := range r.order {
		if o == t {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// rebuild recomputes supertype names and implements sets of every
// descriptor. Descriptors are replaced, not mutated, so readers holding an
// older pointer keep a consistent view. The caller must hold the write
// lock.
func (r *Registry) rebuild() {
	implements := make(map[reflect.Type][]reflect.Type, len(r.order))
	for _, t := range r.order {
		for _, ancestor := range r.ancestors(t) {
			implements[ancestor] = append(implements[ancestor], t)
		}
	}

	for _, t := range r.order {
		d := *r.byType[t]
		d.Implements = implements[t]
		d.Supertypes = make([]string, 0, len(d.supers))
		for _, ref := range d.supers {
			d.Supertypes = append(d.Supertypes, r.refName(ref))
		}
		r.byType[t] = &d
	}
}

// ancestors returns the registered supertypes reachable from t, excluding
// t itself, in discovery order.
func (r *Registry) ancestors(t reflect.Type) []reflect.Type {
	seen := map[reflect.Type]bool{t: true}
	var out []reflect.Type
	queue := []reflect.Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, ref := range r.byType[cur].supers {
			st, ok := r.resolveRef(ref)
			if !ok || seen[st] {
				continue
			}
			seen[st] = true
			out = append(out, st)
			queue = append(queue, st)
		}
	}
	return out
}

func (r *Registry) resolveRef(ref modelRef) (reflect.Type, bool) {
	if ref.typ != nil {
		_, ok := r.byType[ref.typ]
		return ref.typ, ok
	}
	t, ok := r.byName[ref.name]
	return t, ok
}

func (r *Registry) refName(ref modelRef) string {
	if ref.typ == nil {
		return ref.name
	}
	if d, ok := r.byType[ref.typ]; ok {
		return d.Typename
	}
	return defaultTypename(ref.typ)
}

// lookup returns the current descriptor of t.
func (r *Registry) lookup(t reflect.Type) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[reflectutil.IndirectType(t)]
	return d, ok
}

// lookupName returns the current descriptor registered under typename.
func (r *Registry) lookupName(typename string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[typename]
	if !ok {
		return nil, false
	}
	return r.byType[t], true
}

func (r *Registry) descriptor(model any) (*Descriptor, error) {
	t, err := modelType(model)
	if err != nil {
		return nil, err
	}
	d, ok := r.lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnregisteredModel, t)
	}
	return d, nil
}

// Descriptor returns a copy of the descriptor of model.
func (r *Registry) Descriptor(model any) (Descriptor, error) {
	d, err := r.descriptor(model)
	if err != nil {
		return Descriptor{}, err
	}
	return d.snapshot(), nil
}

// Lookup returns a copy of the descriptor registered under typename.
func (r *Registry) Lookup(typename string) (Descriptor, bool) {
	d, ok := r.lookupName(typename)
	if !ok {
		return Descriptor{}, false
	}
	return d.snapshot(), true
}

// Models returns every registered model type in registration order.
func (r *Registry) Models() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reflect.Type(nil), r.order...)
}

// Typename returns the typename of a registered model.
func (r *Registry) Typename(model any) (string, error) {
	d, err := r.descriptor(model)
	if err != nil {
		return "", err
	}
	return d.Typename, nil
}

// Implements returns every registered subtype of model, transitively, in
// registration order.
func (r *Registry) Implements(model any) ([]reflect.Type, error) {
	d, err := r.descriptor(model)
	if err != nil {
		return nil, err
	}
	return append([]reflect.Type(nil), d.Implements...), nil
}

// QueryableFields returns the query-path alias table of model.
func (r *Registry) QueryableFields(model any) (FieldMap, error) {
	d, err := r.descriptor(model)
	if err != nil {
		return FieldMap{}, err
	}
	return d.Queryable, nil
}

// MutableFields returns the mutate-path alias table of model.
func (r *Registry) MutableFields(model any) (FieldMap, error) {
	d, err := r.descriptor(model)
	if err != nil {
		return FieldMap{}, err
	}
	return d.Mutable, nil
}

func (d *Descriptor) snapshot() Descriptor {
	s := *d
	s.Supertypes = append([]string(nil), d.Supertypes...)
	s.Implements = append([]reflect.Type(nil), d.Implements...)
	return s
}

// modelType normalizes a model argument (value, pointer or reflect.Type)
// to its struct type.
func modelType(model any) (reflect.Type, error) {
	var t reflect.Type
	switch m := model.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil model", ErrInvalidModel)
	case reflect.Type:
		t = m
	default:
		t = reflect.TypeOf(model)
	}
	t = reflectutil.IndirectType(t)
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct", ErrInvalidModel, t)
	}
	return t, nil
}

func defaultTypename(t reflect.Type) string {
	if name, ok := reflectutil.TypenameFromType(t); ok {
		return name
	}
	return t.Name()
}

func newDescriptor(t reflect.Type, cfg modelConfig) (*Descriptor, error) {
	typename := cfg.typename
	if typename == "" {
		typename = defaultTypename(t)
	}
	if typename == "" {
		return nil, fmt.Errorf("%w: %v has no name, use WithTypename", ErrInvalidModel, t)
	}

	candidates, err := structFields(t)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %v has no exported fields", ErrInvalidModel, t)
	}

	var query, mutate []ModelField
	if cfg.hasFields {
		query, mutate, err = specFields(t, candidates, cfg.fields)
		if err != nil {
			return nil, err
		}
	} else {
		query, mutate = tagFields(candidates)
	}

	exported := make([]ModelField, 0, len(candidates))
	for _, c := range candidates {
		if c.tag.Skip {
			continue
		}
		exported = append(exported, c.field(c.defaultAlias))
	}

	supers := make([]modelRef, 0, len(cfg.supers))
	for _, s := range cfg.supers {
		ref, err := newModelRef(s)
		if err != nil {
			return nil, fmt.Errorf("supertype of %s: %w", typename, err)
		}
		supers = append(supers, ref)
	}

	d := &Descriptor{
		Type:       t,
		Typename:   typename,
		QueryName:  cfg.queryName,
		MutateName: cfg.mutateName,
		Queryable:  newFieldMap(query),
		Mutable:    newFieldMap(mutate),
		exported:   newFieldMap(exported),
		supers:     supers,
	}
	if d.QueryName == "" {
		d.QueryName = typename
	}
	if d.MutateName == "" {
		d.MutateName = typename
	}
	return d, nil
}

func newModelRef(s any) (modelRef, error) {
	if name, ok := s.(string); ok {
		if name == "" {
			return modelRef{}, fmt.Errorf("%w: empty typename", ErrInvalidModel)
		}
		return modelRef{name: name}, nil
	}
	t, err := modelType(s)
	if err != nil {
		return modelRef{}, err
	}
	return modelRef{typ: t}, nil
}

// fieldCandidate is an exported struct field reachable from the model,
// with embedded structs flattened.
type fieldCandidate struct {
	sf           reflect.StructField
	index        []int
	depth        int
	tag          tagparser.ParsedTag
	defaultAlias string
}

func (c fieldCandidate) field(alias string) ModelField {
	return ModelField{
		Name:     c.sf.Name,
		Alias:    alias,
		Index:    c.index,
		Type:     c.sf.Type,
		Required: c.tag.Required,
	}
}

// structFields lists the fields of t in declaration order. Untagged
// embedded structs are flattened and the shallowest field wins a name
// conflict.
func structFields(t reflect.Type) ([]fieldCandidate, error) {
	var all []fieldCandidate
	if err := collectFields(t, nil, 0, map[reflect.Type]bool{t: true}, &all); err != nil {
		return nil, err
	}

	best := make(map[string]int, len(all))
	for i, c := range all {
		j, ok := best[c.sf.Name]
		if !ok || c.depth < all[j].depth {
			best[c.sf.Name] = i
		}
	}

	out := make([]fieldCandidate, 0, len(best))
	for i, c := range all {
		if best[c.sf.Name] == i {
			out = append(out, c)
		}
	}
	return out, nil
}

func collectFields(t reflect.Type, parent []int, depth int, visiting map[reflect.Type]bool, out *[]fieldCandidate) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		rawTag := sf.Tag.Get(types.QLTag)
		tag, err := tagparser.ParseQLTag(rawTag)
		if err != nil {
			return fmt.Errorf("%w: %v.%s: %w", ErrInvalidModel, t, sf.Name, err)
		}

		if sf.Anonymous && tag.Alias == "" && !tag.Skip && tagparser.JSONName(sf.Tag.Get(types.JSONTag)) == "" {
			et := sf.Type
			if et.Kind() == reflect.Ptr {
				if !sf.IsExported() {
					continue
				}
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct {
				if visiting[et] {
					continue
				}
				visiting[et] = true
				err := collectFields(et, index, depth+1, visiting, out)
				delete(visiting, et)
				if err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		alias := tag.Alias
		if alias == "" {
			alias = tagparser.JSONName(sf.Tag.Get(types.JSONTag))
		}
		if alias == "" {
			alias = ident.ParseMixedCaps(sf.Name).ToLowerCamelCase()
		}
		*out = append(*out, fieldCandidate{
			sf:           sf,
			index:        index,
			depth:        depth,
			tag:          tag,
			defaultAlias: alias,
		})
	}
	return nil
}

func tagFields(candidates []fieldCandidate) (query, mutate []ModelField) {
	for _, c := range candidates {
		if c.tag.Queryable() {
			alias := c.tag.QueryAlias()
			if alias == "" {
				alias = c.defaultAlias
			}
			query = append(query, c.field(alias))
		}
		if c.tag.Mutable() {
			alias := c.tag.MutateAlias()
			if alias == "" {
				alias = c.defaultAlias
			}
			mutate = append(mutate, c.field(alias))
		}
	}
	return query, mutate
}

func specFields(t reflect.Type, candidates []fieldCandidate, specs []FieldSpec) (query, mutate []ModelField, err error) {
	byName := make(map[string]fieldCandidate, len(candidates))
	for _, c := range candidates {
		byName[c.sf.Name] = c
	}
	for _, spec := range specs {
		c, ok := byName[spec.Name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %v has no exported field %q", ErrInvalidModel, t, spec.Name)
		}
		c.tag.Required = spec.Required
		if !spec.SkipQuery {
			alias := spec.QueryName
			if alias == "" {
				alias = c.defaultAlias
			}
			query = append(query, c.field(alias))
		}
		if !spec.SkipMutate {
			alias := spec.MutateName
			if alias == "" {
				alias = c.defaultAlias
			}
			mutate = append(mutate, c.field(alias))
		}
	}
	return query, mutate, nil
}
