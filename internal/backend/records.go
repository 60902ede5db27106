package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// CreateRecord calls POST /api/collections/{name}/records with the record fields.
func (h *HTTP) CreateRecord(ctx context.Context, token, collection string, record any) (json.RawMessage, error) {
	return h.request(ctx, http.MethodPost, h.endpoints.RecordsPath(collection), record, token, false)
}

// ListRecords calls GET /api/collections/{name}/records?page=N&perPage=M.
func (h *HTTP) ListRecords(ctx context.Context, token, collection string, page, perPage int) (json.RawMessage, error) {
	return h.request(ctx, http.MethodGet, h.endpoints.ListRecordsPath(collection, page, perPage), nil, token, false)
}
