// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with the
// record-storage backend (PocketBase) over its REST API.
// It defines the API contract for superuser authentication, collection management and
// record creation. The package includes both the interface and its HTTP implementation.
package backend

import (
	"context"
	"encoding/json"
)

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
type API interface {
	// AuthWithPassword exchanges superuser credentials for a session token.
	AuthWithPassword(ctx context.Context, identity, password string) (AuthResult, error)
	// CollectionExists probes for a collection. A missing collection is (false, nil).
	CollectionExists(ctx context.Context, token, name string) (bool, error)
	// GetCollection returns the raw collection definition.
	GetCollection(ctx context.Context, token, name string) (json.RawMessage, error)
	// DeleteCollection drops a collection together with its records.
	DeleteCollection(ctx context.Context, token, name string) error
	// CreateCollection creates a collection from the given definition.
	CreateCollection(ctx context.Context, token string, c Collection) (json.RawMessage, error)
	// CreateRecord stores one record in the named collection.
	CreateRecord(ctx context.Context, token, collection string, record any) (json.RawMessage, error)
	// ListRecords returns one raw page of records.
	ListRecords(ctx context.Context, token, collection string, page, perPage int) (json.RawMessage, error)
	// Health reports the backend health message. No authentication required.
	Health(ctx context.Context) (string, error)
}
