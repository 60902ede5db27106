// Package backendtest provides an in-memory implementation of backend.API that
// behaves like a PocketBase instance for the endpoints the CLI uses.
package backendtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"trendseed/cli/internal/backend"
)

var _ backend.API = (*Fake)(nil)

// Fake is an in-memory backend. The zero value is not usable; call New.
type Fake struct {
	mu sync.Mutex

	identity string
	password string
	token    string

	collections map[string]backend.Collection
	records     map[string][]map[string]any
	calls       []string
	recordCalls int

	// AuthFailures makes the next N auth calls fail with a 400 reply.
	AuthFailures int
	// AuthErr, when set, is returned by every auth call instead of the above.
	AuthErr error
	// ExistsErr is returned by CollectionExists.
	ExistsErr error
	// DeleteErr is returned by DeleteCollection.
	DeleteErr error
	// CreateCollectionErr is returned by CreateCollection.
	CreateCollectionErr error
	// GetCollectionErr is returned by GetCollection.
	GetCollectionErr error
	// ListRecordsErr is returned by ListRecords.
	ListRecordsErr error
	// RecordErr decides the outcome of the n-th (1-based) CreateRecord call.
	RecordErr func(n int, record map[string]any) error
}

// New returns a Fake that accepts the given superuser credentials.
func New(identity, password string) *Fake {
	return &Fake{
		identity:    identity,
		password:    password,
		token:       "fake-session-token",
		collections: make(map[string]backend.Collection),
		records:     make(map[string][]map[string]any),
	}
}

// Token returns the token handed out on successful authentication.
func (f *Fake) Token() string { return f.token }

// Calls returns the operations performed so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// ResetCalls clears the call log.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.recordCalls = 0
}

// Collection returns the stored definition of name.
func (f *Fake) Collection(name string) (backend.Collection, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[name]
	return c, ok
}

// PutCollection stores a collection as if it had been created earlier.
func (f *Fake) PutCollection(c backend.Collection, records ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[c.Name] = c
	f.records[c.Name] = append([]map[string]any(nil), records...)
}

// Records returns the records stored in name.
func (f *Fake) Records(name string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.records[name]...)
}

func (f *Fake) log(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *Fake) authorized(token string) error {
	if token != f.token {
		return &backend.HTTPError{StatusCode: http.StatusUnauthorized, Body: `{"message":"The request requires valid record authorization token."}`}
	}
	return nil
}

func notFound(method, path string) error {
	return &backend.HTTPError{Method: method, Path: path, StatusCode: http.StatusNotFound, Body: `{"message":"The requested resource wasn't found."}`}
}

// AuthWithPassword implements backend.API.
func (f *Fake) AuthWithPassword(_ context.Context, identity, password string) (backend.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("auth %s", identity)

	if f.AuthErr != nil {
		return backend.AuthResult{}, f.AuthErr
	}
	if f.AuthFailures > 0 {
		f.AuthFailures--
		return backend.AuthResult{}, &backend.HTTPError{Method: http.MethodPost, StatusCode: http.StatusBadRequest, Body: `{"message":"Failed to authenticate."}`}
	}
	if identity != f.identity || password != f.password {
		return backend.AuthResult{}, &backend.HTTPError{Method: http.MethodPost, StatusCode: http.StatusBadRequest, Body: `{"message":"Failed to authenticate."}`}
	}
	return backend.AuthResult{
		Token:  f.token,
		Record: map[string]any{"email": identity, "collectionName": "_superusers"},
	}, nil
}

// CollectionExists implements backend.API.
func (f *Fake) CollectionExists(_ context.Context, token, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("exists %s", name)

	if f.ExistsErr != nil {
		return false, f.ExistsErr
	}
	if err := f.authorized(token); err != nil {
		return false, err
	}
	_, ok := f.collections[name]
	return ok, nil
}

// GetCollection implements backend.API.
func (f *Fake) GetCollection(_ context.Context, token, name string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("get-collection %s", name)

	if f.GetCollectionErr != nil {
		return nil, f.GetCollectionErr
	}
	if err := f.authorized(token); err != nil {
		return nil, err
	}
	c, ok := f.collections[name]
	if !ok {
		return nil, notFound(http.MethodGet, "/api/collections/"+name)
	}
	return json.Marshal(c)
}

// DeleteCollection implements backend.API.
func (f *Fake) DeleteCollection(_ context.Context, token, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("delete %s", name)

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if err := f.authorized(token); err != nil {
		return err
	}
	if _, ok := f.collections[name]; !ok {
		return notFound(http.MethodDelete, "/api/collections/"+name)
	}
	delete(f.collections, name)
	delete(f.records, name)
	return nil
}

// CreateCollection implements backend.API.
func (f *Fake) CreateCollection(_ context.Context, token string, c backend.Collection) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("create-collection %s", c.Name)

	if f.CreateCollectionErr != nil {
		return nil, f.CreateCollectionErr
	}
	if err := f.authorized(token); err != nil {
		return nil, err
	}
	if _, ok := f.collections[c.Name]; ok {
		return nil, &backend.HTTPError{Method: http.MethodPost, Path: "/api/collections", StatusCode: http.StatusBadRequest,
			Body: `{"data":{"name":{"code":"validation_collection_name_exists"}}}`}
	}
	c.Fields = append([]backend.Field(nil), c.Fields...)
	f.collections[c.Name] = c
	f.records[c.Name] = nil
	return json.Marshal(c)
}

// CreateRecord implements backend.API.
func (f *Fake) CreateRecord(_ context.Context, token, collection string, record any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	f.log("create-record %s", collection)

	if err := f.authorized(token); err != nil {
		return nil, err
	}
	c, ok := f.collections[collection]
	if !ok {
		return nil, notFound(http.MethodPost, "/api/collections/"+collection+"/records")
	}

	b, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	if f.RecordErr != nil {
		if err := f.RecordErr(f.recordCalls, fields); err != nil {
			return nil, err
		}
	}
	for _, fd := range c.Fields {
		if !fd.Required {
			continue
		}
		if s, _ := fields[fd.Name].(string); s == "" {
			return nil, &backend.HTTPError{Method: http.MethodPost, StatusCode: http.StatusBadRequest,
				Body: fmt.Sprintf(`{"data":{%q:{"code":"validation_required"}}}`, fd.Name)}
		}
	}

	fields["id"] = fmt.Sprintf("rec%012d", len(f.records[collection])+1)
	f.records[collection] = append(f.records[collection], fields)
	return json.Marshal(fields)
}

// ListRecords implements backend.API.
func (f *Fake) ListRecords(_ context.Context, token, collection string, page, perPage int) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log("list-records %s", collection)

	if f.ListRecordsErr != nil {
		return nil, f.ListRecordsErr
	}
	if err := f.authorized(token); err != nil {
		return nil, err
	}
	if _, ok := f.collections[collection]; !ok {
		return nil, notFound(http.MethodGet, "/api/collections/"+collection+"/records")
	}

	all := f.records[collection]
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	totalPages := (len(all) + perPage - 1) / perPage
	return json.Marshal(map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": len(all),
		"totalPages": totalPages,
		"items":      append([]map[string]any{}, all[start:end]...),
	})
}

// Health implements backend.API.
func (f *Fake) Health(context.Context) (string, error) {
	return "API is healthy.", nil
}
