// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"trendseed/cli/internal/manifest"
)

// New creates a backend API implementation for the given base URL and endpoints.
// Returns HTTP client (real backend).
func New(baseURL string, endpoints manifest.HTTPEndpoints, opts ...Option) *HTTP {
	return newHTTP(baseURL, endpoints, opts...)
}
