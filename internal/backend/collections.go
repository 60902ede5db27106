package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Field types used by the collection definitions in this CLI.
const (
	FieldText = "text"
	FieldJSON = "json"
)

// CollectionBase is the type of a plain (non-auth, non-view) collection.
const CollectionBase = "base"

// Field is one collection field definition.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Collection is the create-collection request body. Nil rules are omitted, which
// leaves the collection restricted to superusers; an empty rule makes it public.
type Collection struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Fields     []Field `json:"fields"`
	ListRule   *string `json:"listRule,omitempty"`
	ViewRule   *string `json:"viewRule,omitempty"`
	CreateRule *string `json:"createRule,omitempty"`
	UpdateRule *string `json:"updateRule,omitempty"`
	DeleteRule *string `json:"deleteRule,omitempty"`
}

// CollectionExists calls GET /api/collections/{name}. A 404 reply means the
// collection is absent and is not reported as an error or a diagnostic.
func (h *HTTP) CollectionExists(ctx context.Context, token, name string) (bool, error) {
	_, err := h.request(ctx, http.MethodGet, h.endpoints.CollectionPath(name), nil, token, true)
	if err == nil {
		return true, nil
	}
	var herr *HTTPError
	if errors.As(err, &herr) && herr.NotFound() {
		return false, nil
	}
	return false, err
}

// GetCollection calls GET /api/collections/{name} and returns the raw definition.
func (h *HTTP) GetCollection(ctx context.Context, token, name string) (json.RawMessage, error) {
	return h.request(ctx, http.MethodGet, h.endpoints.CollectionPath(name), nil, token, false)
}

// DeleteCollection calls DELETE /api/collections/{name}.
func (h *HTTP) DeleteCollection(ctx context.Context, token, name string) error {
	_, err := h.request(ctx, http.MethodDelete, h.endpoints.CollectionPath(name), nil, token, false)
	return err
}

// CreateCollection calls POST /api/collections with the collection definition.
func (h *HTTP) CreateCollection(ctx context.Context, token string, c Collection) (json.RawMessage, error) {
	return h.request(ctx, http.MethodPost, h.endpoints.Collections, c, token, false)
}
