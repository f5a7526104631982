// Package httptransport implements ql.Transport over HTTP: documents are
// posted as a JSON envelope and the JSON response is decoded.
package httptransport

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ql "github.com/llehouerou/go-ql"
	"github.com/llehouerou/go-ql/config"
)

// RequestIDHeader carries the request ID of every call.
const RequestIDHeader = "X-Request-ID"

// This function allows you to tweak the HTTP request. It might be useful to set authentication
// headers  amongst other things
type RequestModifier func(*http.Request)

// Transport posts documents to a single endpoint.
//
// Its With* methods follow the same immutable pattern as ql.Client: they
// return a new Transport rather than modifying the receiver.
type Transport struct {
	url             string // server URL.
	httpClient      *http.Client
	requestModifier RequestModifier
	headers         http.Header
	mutationKey     string
	debug           bool
	logger          *zap.Logger
}

var _ ql.Transport = (*Transport)(nil)

// New creates a transport targeting the specified URL.
// If httpClient is nil, then http.DefaultClient is used.
func New(url string, httpClient *http.Client) *Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Transport{
		url:         url,
		httpClient:  httpClient,
		headers:     make(http.Header),
		mutationKey: "query",
		logger:      zap.NewNop(),
	}
}

// NewFromConfig creates a transport from loaded configuration.
func NewFromConfig(cfg config.Config) (*Transport, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("httptransport: endpoint is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("httptransport: %w", err)
	}
	t := New(cfg.Endpoint, &http.Client{Timeout: cfg.Timeout})
	for k, v := range cfg.Headers {
		t.headers.Set(k, v)
	}
	if cfg.MutationKey != "" {
		t.mutationKey = cfg.MutationKey
	}
	t.debug = cfg.Debug
	return t, nil
}

// Do posts req and decodes the response. Protocol errors are returned in
// the response, not as an error; transport failures are *RequestError.
func (t *Transport) Do(ctx context.Context, req *ql.Request) (*ql.Response, error) {
	request, reqBody, err := t.BuildRequest(ctx, req)
	if err != nil {
		return nil, t.newRequestError(CodeRequest, fmt.Errorf("problem constructing request: %w", err), request, nil, reqBody, nil)
	}

	resp, err := t.httpClient.Do(request)
	if err != nil {
		return nil, t.newRequestError(CodeRequest, err, request, nil, reqBody, nil)
	}
	defer func() { _ = resp.Body.Close() }()

	// Handle gzip decompression
	r, err := handleGzipResponse(resp, resp.Body)
	if err != nil {
		return nil, t.newRequestError(CodeDecode, err, request, resp, reqBody, nil)
	}
	defer func() { _ = r.Close() }()

	respBody, err := io.ReadAll(r)
	if err != nil {
		return nil, t.newRequestError(CodeDecode, err, request, resp, reqBody, nil)
	}

	// Check status code
	if resp.StatusCode != http.StatusOK {
		return nil, t.newRequestError(CodeRequest, fmt.Errorf("%v; body: %q", resp.Status, respBody), request, resp, reqBody, respBody)
	}

	out, err := ql.DecodeResponse(respBody)
	if err != nil {
		return nil, t.newRequestError(CodeDecode, err, request, resp, reqBody, respBody)
	}

	t.logger.Debug("response received",
		zap.String("request_id", request.Header.Get(RequestIDHeader)),
		zap.Int("status", resp.StatusCode),
		zap.Int("errors", len(out.Errors)),
	)
	return out, nil
}

// BuildRequest constructs an HTTP request with JSON body for a document.
// It returns the HTTP request and the request body bytes (useful for error decoration).
func (t *Transport) BuildRequest(ctx context.Context, req *ql.Request) (*http.Request, []byte, error) {
	key := "query"
	if req.Operation == ql.MutationOperation {
		key = t.mutationKey
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req.EnvelopeWithKey(key)); err != nil {
		return nil, nil, err
	}
	reqBody := buf.Bytes()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, reqBody, err
	}
	request.Header.Add("Content-Type", "application/json")
	for k, values := range t.headers {
		for _, v := range values {
			request.Header.Add(k, v)
		}
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	request.Header.Set(RequestIDHeader, id)

	if t.requestModifier != nil {
		t.requestModifier(request)
	}

	return request, reqBody, nil
}

// handleGzipResponse wraps the response body reader with a gzip decompressor
// if the Content-Encoding header indicates gzip compression.
func handleGzipResponse(resp *http.Response, bodyReader io.Reader) (io.ReadCloser, error) {
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gr, err := gzip.NewReader(bodyReader)
		if err != nil {
			return nil, fmt.Errorf("problem trying to create gzip reader: %w", err)
		}
		return gr, nil
	}
	return io.NopCloser(bodyReader), nil
}

// clone creates a copy of the Transport with all fields preserved.
func (t *Transport) clone() *Transport {
	clone := *t
	clone.headers = t.headers.Clone()
	return &clone
}

// WithRequestModifier returns a new Transport with the request modifier set.
// This allows you to reuse the same TCP connection for multiple slightly
// different requests to the same server (e.g., different authentication
// headers for multitenant applications).
func (t *Transport) WithRequestModifier(f RequestModifier) *Transport {
	clone := t.clone()
	clone.requestModifier = f
	return clone
}

// WithDebug returns a new Transport with debug mode enabled or disabled.
// When enabled, request errors carry the request and response headers and
// bodies.
func (t *Transport) WithDebug(debug bool) *Transport {
	clone := t.clone()
	clone.debug = debug
	return clone
}

// WithHeader returns a new Transport adding a header to every request.
func (t *Transport) WithHeader(key, value string) *Transport {
	clone := t.clone()
	clone.headers.Add(key, value)
	return clone
}

// WithMutationKey returns a new Transport posting mutation documents under
// key instead of "query".
func (t *Transport) WithMutationKey(key string) *Transport {
	clone := t.clone()
	clone.mutationKey = key
	return clone
}

// WithLogger returns a new Transport logging responses at debug level.
func (t *Transport) WithLogger(logger *zap.Logger) *Transport {
	if logger == nil {
		logger = zap.NewNop()
	}
	clone := t.clone()
	clone.logger = logger
	return clone
}
