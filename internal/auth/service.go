// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides superuser authentication against the record-storage backend.
// It exchanges the configured admin credentials for a session token, retrying a
// bounded number of times with a fixed backoff because the backend may still be
// starting. Credentials may also be kept in the OS keychain (see storage.go).
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trendseed/cli/internal/backend"
	apperr "trendseed/cli/internal/errors"
)

const (
	// DefaultAttempts is the total number of authentication attempts.
	DefaultAttempts = 5
	// DefaultBackoff is the fixed wait between attempts.
	DefaultBackoff = time.Second
	// DefaultIdentity is used when no identity is configured or stored.
	DefaultIdentity = "admin@example.com"
)

// Credentials identify the backend superuser.
type Credentials struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

// Complete reports whether both identity and password are set.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Identity) != "" && c.Password != ""
}

// Service centralizes authentication against the backend.
type Service struct {
	be       backend.API
	creds    Credentials
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	onRetry  func(attempt int, err error)
	result   backend.AuthResult
}

// Option customizes a Service.
type Option func(*Service)

// WithAttempts sets the total attempt budget. Values below 1 are treated as 1.
func WithAttempts(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.attempts = n
	}
}

// WithBackoff sets the fixed wait between attempts.
func WithBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.backoff = d
		}
	}
}

// WithSleep replaces the wait between attempts. Tests use it to avoid real sleeps.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithOnRetry registers a callback invoked after every failed attempt that will be retried.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(s *Service) { s.onRetry = fn }
}

// NewService constructs an auth Service for the given backend and credentials.
func NewService(be backend.API, creds Credentials, opts ...Option) *Service {
	s := &Service{
		be:       be,
		creds:    creds,
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attempts returns the configured attempt budget.
func (s *Service) Attempts() int { return s.attempts }

// Authenticate returns a session token, trying at most Attempts times with a fixed
// Backoff between tries. Exhaustion yields an Authentication error, which is fatal
// to the calling workflow.
func (s *Service) Authenticate(ctx context.Context) (string, error) {
	if !s.creds.Complete() {
		return "", apperr.New(apperr.Config, "superuser identity and password are required")
	}

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		res, err := s.be.AuthWithPassword(ctx, s.creds.Identity, s.creds.Password)
		if err == nil && res.Token == "" {
			err = fmt.Errorf("auth response carried no token")
		}
		if err == nil {
			s.result = res
			return res.Token, nil
		}
		lastErr = err

		if attempt == s.attempts {
			break
		}
		if s.onRetry != nil {
			s.onRetry(attempt, err)
		}
		if err := s.sleep(ctx, s.backoff); err != nil {
			return "", apperr.Wrap(apperr.Authentication, "authentication interrupted", err)
		}
	}

	return "", apperr.Wrap(apperr.Authentication,
		fmt.Sprintf("could not authenticate as %s after %d attempt(s)", s.creds.Identity, s.attempts), lastErr)
}

// Account returns the superuser email from the last successful authentication.
func (s *Service) Account() string {
	if email := s.result.Email(); email != "" {
		return email
	}
	return s.creds.Identity
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
