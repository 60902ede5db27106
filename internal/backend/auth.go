// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"
)

// AuthResult is the decoded auth-with-password reply.
type AuthResult struct {
	Token  string         `json:"token"`
	Record map[string]any `json:"record"`
}

// Email returns the authenticated superuser's email when the reply carries one.
func (r AuthResult) Email() string {
	if v, ok := r.Record["email"].(string); ok {
		return v
	}
	return ""
}

// AuthWithPassword calls POST /api/collections/_superusers/auth-with-password with
// { identity, password } and returns the session token and superuser record.
func (h *HTTP) AuthWithPassword(ctx context.Context, identity, password string) (AuthResult, error) {
	body := map[string]string{
		"identity": identity,
		"password": password,
	}
	var out AuthResult
	if err := h.do(ctx, http.MethodPost, h.endpoints.SuperuserAuth, body, "", &out); err != nil {
		return AuthResult{}, err
	}
	return out, nil
}
