package ql

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/llehouerou/go-ql/internal/reqid"
	"github.com/llehouerou/go-ql/types"
)

const tracerName = "github.com/llehouerou/go-ql"

// Request is one document handed to a Transport.
type Request struct {
	Operation     OperationType
	Document      string
	OperationName string
	// ID identifies the request across logs, spans and the wire.
	ID string
}

// Envelope returns the JSON body of the request: the document under
// "query", or under "mutate" for mutations, plus "operationName" when
// set.
func (r *Request) Envelope() map[string]any {
	key := types.QueryKeyword
	if r.Operation == MutationOperation {
		key = "mutate"
	}
	return r.EnvelopeWithKey(key)
}

// EnvelopeWithKey is like Envelope with an explicit document key.
func (r *Request) EnvelopeWithKey(key string) map[string]any {
	env := map[string]any{key: r.Document}
	if r.OperationName != "" {
		env["operationName"] = r.OperationName
	}
	return env
}

// Transport executes a document and returns the decoded response. It is
// the only blocking step of a Client call.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do calls f(ctx, req).
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Client builds documents with a Registry, executes them through a
// Transport and scalarizes the responses.
//
// The Client's With* methods return a new Client and leave the receiver
// unchanged:
//
//	client = client.WithLogger(logger)  // Correct
//	client.WithLogger(logger)           // Wrong - original client unchanged
type Client struct {
	registry    *Registry
	transport   Transport
	logger      *zap.Logger
	tracer      trace.Tracer
	debug       bool
	scalarizing []ScalarizeOption
}

// NewClient creates a client. A nil transport is accepted; every call then
// fails with ErrNoTransport.
func NewClient(reg *Registry, transport Transport) *Client {
	return &Client{
		registry:  reg,
		transport: transport,
		logger:    zap.NewNop(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
	}
}

// Registry returns the registry the client builds documents with.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Query renders selections into a query, executes it and scalarizes the
// response against the models the query references.
func (c *Client) Query(ctx context.Context, selections []Selection, options ...Option) (Result, error) {
	doc, err := c.registry.ConstructQuery(selections, options...)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, doc, ForDocument(doc))
}

// QueryRaw is like Query but returns the response without scalarizing it.
// Protocol errors are returned as Errors alongside the response.
func (c *Client) QueryRaw(ctx context.Context, selections []Selection, options ...Option) (*Response, error) {
	doc, err := c.registry.ConstructQuery(selections, options...)
	if err != nil {
		return nil, err
	}
	return c.doRaw(ctx, doc)
}

// Mutate renders mutations into one document, executes it and scalarizes
// the response.
func (c *Client) Mutate(ctx context.Context, mutations []Mutation, options ...Option) (Result, error) {
	doc, err := c.registry.ConstructMutation(mutations, options...)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, doc)
}

// MutateRaw is like Mutate but returns the response without scalarizing
// it.
func (c *Client) MutateRaw(ctx context.Context, mutations []Mutation, options ...Option) (*Response, error) {
	doc, err := c.registry.ConstructMutation(mutations, options...)
	if err != nil {
		return nil, err
	}
	return c.doRaw(ctx, doc)
}

// Exec executes pre-built document text and scalarizes the response
// against every registered model. This is useful when the document is
// built elsewhere.
func (c *Client) Exec(ctx context.Context, text string) (Result, error) {
	return c.do(ctx, textDocument(text))
}

// ExecRaw executes pre-built document text and returns the response.
func (c *Client) ExecRaw(ctx context.Context, text string) (*Response, error) {
	return c.doRaw(ctx, textDocument(text))
}

func textDocument(text string) *Document {
	op := QueryOperation
	if strings.HasPrefix(strings.TrimSpace(text), types.MutationKeyword) {
		op = MutationOperation
	}
	return &Document{Operation: op, Text: text}
}

func (c *Client) do(ctx context.Context, doc *Document, options ...ScalarizeOption) (Result, error) {
	resp, err := c.execute(ctx, doc)
	if err != nil {
		return nil, err
	}
	options = append(append([]ScalarizeOption(nil), options...), c.scalarizing...)
	result, err := c.registry.Scalarize(resp, options...)
	if err != nil {
		c.logger.Debug("failed to scalarize response", zap.Stringer("operation", doc.Operation), zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (c *Client) doRaw(ctx context.Context, doc *Document) (*Response, error) {
	resp, err := c.execute(ctx, doc)
	if err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		return resp, resp.Errors
	}
	return resp, nil
}

// execute sends doc through the transport inside a graphql.operation span.
func (c *Client) execute(ctx context.Context, doc *Document) (*Response, error) {
	if c.transport == nil {
		return nil, ErrNoTransport
	}

	ctx, id := reqid.NewContext(ctx)
	ctx, span := c.tracer.Start(ctx, "graphql.operation", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("graphql.operation.name", doc.Name),
		attribute.String("graphql.operation.type", doc.Operation.String()),
		attribute.String("ql.request_id", id),
	)

	logger := c.logger.With(zap.String("request_id", id), zap.Stringer("operation", doc.Operation))
	if c.debug {
		logger.Debug("sending document", zap.String("document", c.debugDocument(doc)))
	}

	resp, err := c.transport.Do(ctx, &Request{
		Operation:     doc.Operation,
		Document:      doc.Text,
		OperationName: doc.Name,
		ID:            id,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("transport failed", zap.Error(err))
		return nil, err
	}
	if resp == nil {
		resp = &Response{}
	}

	span.SetAttributes(attribute.Int("graphql.error_count", len(resp.Errors)))
	if len(resp.Errors) > 0 {
		span.SetStatus(codes.Error, resp.Errors[0].Message)
		logger.Debug("response carried errors", zap.Strings("messages", resp.Errors.Messages()))
	}
	return resp, nil
}

func (c *Client) debugDocument(doc *Document) string {
	pretty, err := doc.Pretty()
	if err != nil {
		return doc.Text
	}
	return pretty
}

// clone creates a copy of the Client with all fields preserved.
func (c *Client) clone() *Client {
	clone := *c
	return &clone
}

// WithLogger returns a new Client logging to logger. A nil logger
// disables logging.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	clone := c.clone()
	clone.logger = logger
	return clone
}

// WithTracerProvider returns a new Client creating its spans from tp.
func (c *Client) WithTracerProvider(tp trace.TracerProvider) *Client {
	clone := c.clone()
	clone.tracer = tp.Tracer(tracerName)
	return clone
}

// WithDebug returns a new Client that logs every document, pretty
// printed, at debug level.
func (c *Client) WithDebug(debug bool) *Client {
	clone := c.clone()
	clone.debug = debug
	return clone
}

// WithScalarizeOptions returns a new Client applying options to every
// scalarized response, e.g. StrictFields().
func (c *Client) WithScalarizeOptions(options ...ScalarizeOption) *Client {
	clone := c.clone()
	clone.scalarizing = append(append([]ScalarizeOption(nil), c.scalarizing...), options...)
	return clone
}
