// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package manifest describes the REST endpoints of the record-storage backend.
package manifest

import (
	"fmt"
	"net/url"
	"strings"
)

// HTTPEndpoints contains REST API endpoint paths. Entries containing %s take a
// path-escaped collection name.
type HTTPEndpoints struct {
	SuperuserAuth string `json:"superuser_auth"` // e.g., "/api/collections/_superusers/auth-with-password"
	Collections   string `json:"collections"`    // e.g., "/api/collections"
	Collection    string `json:"collection"`     // e.g., "/api/collections/%s"
	Records       string `json:"records"`        // e.g., "/api/collections/%s/records"
	Health        string `json:"health"`         // e.g., "/api/health"
}

// Default returns the PocketBase endpoint layout.
func Default() HTTPEndpoints {
	return HTTPEndpoints{
		SuperuserAuth: "/api/collections/_superusers/auth-with-password",
		Collections:   "/api/collections",
		Collection:    "/api/collections/%s",
		Records:       "/api/collections/%s/records",
		Health:        "/api/health",
	}
}

// CollectionPath returns the path of a single collection.
func (e HTTPEndpoints) CollectionPath(name string) string {
	return fmt.Sprintf(e.Collection, url.PathEscape(name))
}

// RecordsPath returns the records path of a collection.
func (e HTTPEndpoints) RecordsPath(name string) string {
	return fmt.Sprintf(e.Records, url.PathEscape(name))
}

// ListRecordsPath returns the records path with pagination query parameters.
func (e HTTPEndpoints) ListRecordsPath(name string, page, perPage int) string {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("perPage", fmt.Sprint(perPage))
	return e.RecordsPath(name) + "?" + q.Encode()
}

// HTTPBaseURL validates raw and returns it as scheme://host[/prefix] without a
// trailing slash. Only http and https are accepted.
func HTTPBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty base URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in base URL %q (use http:// or https://)", u.Scheme, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", raw)
	}

	base := u.Scheme + "://" + u.Host + u.Path
	return strings.TrimRight(base, "/"), nil
}

// Host returns the host:port part of a base URL for messages, or "server".
func Host(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
