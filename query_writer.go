package ql

import (
	"bytes"
	"fmt"
	"io"
	"reflect"

	"github.com/llehouerou/go-ql/types"
)

// queryWriter renders selection trees into minified document text and
// records the registered models it meets along the way.
type queryWriter struct {
	reg             *Registry
	buf             bytes.Buffer
	includeTypename bool

	models []reflect.Type
	seen   map[reflect.Type]bool
}

func newQueryWriter(reg *Registry, includeTypename bool) *queryWriter {
	return &queryWriter{
		reg:             reg,
		includeTypename: includeTypename,
		seen:            make(map[reflect.Type]bool),
	}
}

// model resolves t to its descriptor and records it as observed.
func (qw *queryWriter) model(t reflect.Type) (*Descriptor, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: missing model", ErrStructuralSelection)
	}
	d, ok := qw.reg.lookup(t)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnregisteredModel, t)
	}
	if !qw.seen[d.Type] {
		qw.seen[d.Type] = true
		qw.models = append(qw.models, d.Type)
	}
	return d, nil
}

// writeSelection writes a selector followed by its braced field list.
//
// E.g., Select(Model[Point](), Field("x"), Field("y")) -> "Point{x,y}".
func (qw *queryWriter) writeSelection(sel Selection) error {
	if err := qw.writeSelector(sel.Selector); err != nil {
		return err
	}
	if err := qw.writeFieldList(sel.Fields); err != nil {
		return fmt.Errorf("failed to write fields of %s: %w", selectorString(sel.Selector), err)
	}
	return nil
}

func (qw *queryWriter) writeSelector(s Selector) error {
	switch sel := s.(type) {
	case nil:
		return fmt.Errorf("%w: selection without selector", ErrStructuralSelection)
	case ModelSelector:
		d, err := qw.model(sel.Type)
		if err != nil {
			return err
		}
		_, _ = io.WriteString(&qw.buf, d.QueryName)
	case Name:
		if sel == "" {
			return fmt.Errorf("%w: empty selector name", ErrStructuralSelection)
		}
		_, _ = io.WriteString(&qw.buf, string(sel))
	case *Operation:
		return qw.writeOperationSelector(sel)
	default:
		return fmt.Errorf("%w: unknown selector %T", ErrStructuralSelection, s)
	}
	return nil
}

func (qw *queryWriter) writeOperationSelector(op *Operation) error {
	if op == nil {
		return fmt.Errorf("%w: nil operation", ErrStructuralSelection)
	}
	switch op.Kind {
	case OperationArguments:
		d, err := qw.model(op.Model)
		if err != nil {
			return err
		}
		_, _ = io.WriteString(&qw.buf, d.QueryName)
		_, _ = io.WriteString(&qw.buf, "(")
		if err := writeArguments(&qw.buf, op.Args, false); err != nil {
			return fmt.Errorf("failed to write arguments of %s: %w", d.QueryName, err)
		}
		_, _ = io.WriteString(&qw.buf, ")")
	case OperationInlineFragment:
		d, err := qw.model(op.Model)
		if err != nil {
			return err
		}
		_, _ = io.WriteString(&qw.buf, types.FragmentOnPrefix)
		_, _ = io.WriteString(&qw.buf, d.Typename)
	default:
		return fmt.Errorf("%w: %v cannot be used as a selector", ErrStructuralSelection, op.Kind)
	}
	return nil
}

// writeFieldList writes "{a,b,...}", appending __typename last when
// enabled.
func (qw *queryWriter) writeFieldList(nodes []Node) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: empty field list", ErrStructuralSelection)
	}
	_, _ = io.WriteString(&qw.buf, "{")
	for i, n := range nodes {
		if i != 0 {
			_, _ = io.WriteString(&qw.buf, ",")
		}
		if err := qw.writeNode(n); err != nil {
			return err
		}
	}
	if qw.includeTypename {
		_, _ = io.WriteString(&qw.buf, ",")
		_, _ = io.WriteString(&qw.buf, types.TypenameField)
	}
	_, _ = io.WriteString(&qw.buf, "}")
	return nil
}

func (qw *queryWriter) writeNode(n Node) error {
	switch node := n.(type) {
	case nil:
		return fmt.Errorf("%w: nil field", ErrStructuralSelection)
	case Field:
		if node == "" {
			return fmt.Errorf("%w: empty field name", ErrStructuralSelection)
		}
		_, _ = io.WriteString(&qw.buf, string(node))
	case Selection:
		return qw.writeSelection(node)
	case *Operation:
		if node == nil {
			return fmt.Errorf("%w: nil operation", ErrStructuralSelection)
		}
		if node.Kind != OperationReferenceFragment {
			return fmt.Errorf("%w: %v must select fields", ErrStructuralSelection, node.Kind)
		}
		if node.Fragment == "" {
			return fmt.Errorf("%w: fragment reference without a name", ErrStructuralSelection)
		}
		_, _ = io.WriteString(&qw.buf, types.FragmentPrefix)
		_, _ = io.WriteString(&qw.buf, node.Fragment)
	default:
		return fmt.Errorf("%w: unknown node %T", ErrStructuralSelection, n)
	}
	return nil
}

// writeFragment writes "fragment name on Typename{fields}".
func (qw *queryWriter) writeFragment(f Fragment) error {
	if f.Name == "" {
		return fmt.Errorf("%w: fragment without a name", ErrStructuralSelection)
	}
	d, err := qw.model(f.Model)
	if err != nil {
		return fmt.Errorf("fragment %s: %w", f.Name, err)
	}
	_, _ = io.WriteString(&qw.buf, types.FragmentKeyword)
	_, _ = io.WriteString(&qw.buf, " ")
	_, _ = io.WriteString(&qw.buf, f.Name)
	_, _ = io.WriteString(&qw.buf, " on ")
	_, _ = io.WriteString(&qw.buf, d.Typename)
	if err := qw.writeFieldList(f.Fields); err != nil {
		return fmt.Errorf("fragment %s: %w", f.Name, err)
	}
	return nil
}

// writeHeader writes the operation keyword, with the operation name when
// one is set.
func (qw *queryWriter) writeHeader(keyword, name string) {
	_, _ = io.WriteString(&qw.buf, keyword)
	if name != "" {
		_, _ = io.WriteString(&qw.buf, " ")
		_, _ = io.WriteString(&qw.buf, name)
	}
}

func selectorString(s Selector) string {
	switch sel := s.(type) {
	case ModelSelector:
		return fmt.Sprint(sel.Type)
	case Name:
		return string(sel)
	case *Operation:
		if sel == nil {
			return "<nil>"
		}
		return fmt.Sprintf("%v %v", sel.Kind, sel.Model)
	default:
		return fmt.Sprintf("%T", s)
	}
}
