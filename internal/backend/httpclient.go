package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/logging"
	"trendseed/cli/internal/manifest"

	"github.com/pterm/pterm"
)

// DefaultTimeout bounds every request so a stalled backend cannot hang the CLI.
const DefaultTimeout = 30 * time.Second

// HTTP implements API over the PocketBase REST endpoints.
// Requests are strictly sequential; the struct holds no per-request state.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "http://127.0.0.1:8090")
	baseURL string
	// endpoints contains the URL paths for the API endpoints
	endpoints manifest.HTTPEndpoints
	// client is the underlying HTTP client with configured timeout
	client *http.Client
	// diag receives one line per failed request
	diag func(string)
}

// Option customizes the HTTP client.
type Option func(*HTTP)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithDiagnostics redirects the diagnostic lines printed for failed requests.
func WithDiagnostics(fn func(string)) Option {
	return func(h *HTTP) {
		if fn != nil {
			h.diag = fn
		}
	}
}

// newHTTP creates a new HTTP client with the given base URL and endpoints.
// It configures a 30-second timeout for all requests.
func newHTTP(baseURL string, endpoints manifest.HTTPEndpoints, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		client:    &http.Client{Timeout: DefaultTimeout},
		diag:      func(line string) { pterm.Error.Println(line) },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BaseURL returns the normalized base URL.
func (h *HTTP) BaseURL() string { return h.baseURL }

// request sends one JSON request and returns the raw response body.
// An empty 2xx body yields "{}". Non-2xx replies become *HTTPError; 404 replies are
// returned without a diagnostic only when quiet404 is set.
func (h *HTTP) request(ctx context.Context, method, path string, body any, token string, quiet404 bool) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		// PocketBase expects the raw token, no "Bearer " prefix.
		req.Header.Set("Authorization", token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.diag(fmt.Sprintf("Request Error: %s", logging.Mask(err.Error())))
		return nil, apperr.Wrap(apperr.Transport, method+" "+path, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		h.diag(fmt.Sprintf("Request Error: %s", err))
		return nil, apperr.Wrap(apperr.Transport, "read "+method+" "+path+" response", err)
	}
	pterm.Debug.Printfln("%s %s -> %d (%d bytes)", method, path, resp.StatusCode, len(content))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		herr := &HTTPError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(content)),
		}
		if !(quiet404 && herr.NotFound()) {
			h.diag(fmt.Sprintf("HTTP Error %d for %s: %s", herr.StatusCode, path, logging.Mask(herr.Body)))
		}
		return nil, herr
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(content) {
		h.diag(fmt.Sprintf("Request Error: invalid JSON in %s %s response", method, path))
		return nil, apperr.New(apperr.Transport, "malformed JSON response from "+method+" "+path)
	}
	return json.RawMessage(content), nil
}

// do sends a request and decodes the response into out when out is non-nil.
func (h *HTTP) do(ctx context.Context, method, path string, body any, token string, out any) error {
	raw, err := h.request(ctx, method, path, body, token, false)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Wrap(apperr.Transport, "decode "+method+" "+path+" response", err)
	}
	return nil
}

// Health calls GET /api/health and returns the reported message.
// No authentication required. This is used to check connectivity to the backend.
func (h *HTTP) Health(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := h.do(ctx, http.MethodGet, h.endpoints.Health, nil, "", &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		return "ok", nil
	}
	return out.Message, nil
}
