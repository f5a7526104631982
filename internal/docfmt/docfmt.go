// Package docfmt parses and pretty-prints rendered documents.
package docfmt

import (
	"bytes"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// Parse parses a query or mutation document without schema validation.
func Parse(text string) (*ast.QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: text})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Pretty returns text reformatted with one field per line.
func Pretty(text string) (string, error) {
	doc, err := Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String(), nil
}
