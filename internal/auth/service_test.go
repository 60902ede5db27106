// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendseed/cli/internal/backend"
	"trendseed/cli/internal/backend/backendtest"
	apperr "trendseed/cli/internal/errors"
	"trendseed/cli/internal/keychain"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCreds = Credentials{Identity: "admin@example.com", Password: "1234567890"}

// recordSleeps returns a sleep func that records requested durations without waiting.
func recordSleeps(into *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*into = append(*into, d)
		return nil
	}
}

func TestAuthenticateFirstTry(t *testing.T) {
	fake := backendtest.New(testCreds.Identity, testCreds.Password)
	var sleeps []time.Duration
	svc := NewService(fake, testCreds, WithSleep(recordSleeps(&sleeps)))

	token, err := svc.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fake.Token(), token)
	assert.Empty(t, sleeps)
	assert.Equal(t, "admin@example.com", svc.Account())
	assert.Len(t, fake.Calls(), 1)
}

func TestAuthenticateRetryThenSucceed(t *testing.T) {
	fake := backendtest.New(testCreds.Identity, testCreds.Password)
	fake.AuthFailures = 2

	var sleeps []time.Duration
	var retried []int
	svc := NewService(fake, testCreds,
		WithBackoff(250*time.Millisecond),
		WithSleep(recordSleeps(&sleeps)),
		WithOnRetry(func(attempt int, err error) {
			retried = append(retried, attempt)
			assert.Error(t, err)
		}),
	)

	token, err := svc.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fake.Token(), token)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, sleeps)
	assert.Equal(t, []int{1, 2}, retried)
	assert.Len(t, fake.Calls(), 3)
}

func TestAuthenticateExhaustion(t *testing.T) {
	fake := backendtest.New(testCreds.Identity, testCreds.Password)
	fake.AuthFailures = 100

	var sleeps []time.Duration
	svc := NewService(fake, testCreds, WithSleep(recordSleeps(&sleeps)))

	token, err := svc.Authenticate(context.Background())
	require.Error(t, err)
	assert.Empty(t, token)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
	assert.Equal(t, 400, backend.StatusCode(err), "last cause is kept")
	assert.Len(t, fake.Calls(), DefaultAttempts)
	assert.Len(t, sleeps, DefaultAttempts-1, "no sleep after the final attempt")
	for _, d := range sleeps {
		assert.Equal(t, DefaultBackoff, d)
	}
}

func TestAuthenticateSingleAttempt(t *testing.T) {
	fake := backendtest.New(testCreds.Identity, testCreds.Password)
	fake.AuthErr = apperr.Wrap(apperr.Transport, "POST /auth", errors.New("connection refused"))

	svc := NewService(fake, testCreds, WithAttempts(1))
	_, err := svc.Authenticate(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Authentication))
	assert.True(t, apperr.IsKind(err, apperr.Transport))
	assert.Len(t, fake.Calls(), 1)
}

func TestAuthenticateEmptyTokenIsFailure(t *testing.T) {
	be := &emptyTokenAPI{API: backendtest.New(testCreds.Identity, testCreds.Password)}
	svc := NewService(be, testCreds, WithAttempts(2), WithSleep(func(context.Context, time.Duration) error { return nil }))

	_, err := svc.Authenticate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no token")
	assert.Equal(t, 2, be.calls)
}

func TestAuthenticateCanceledDuringBackoff(t *testing.T) {
	fake := backendtest.New(testCreds.Identity, testCreds.Password)
	fake.AuthFailures = 100

	ctx, cancel := context.WithCancel(context.Background())
	svc := NewService(fake, testCreds, WithBackoff(time.Hour), WithOnRetry(func(int, error) { cancel() }))

	_, err := svc.Authenticate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperr.Authentication, apperr.KindOf(err))
	assert.Len(t, fake.Calls(), 1)
}

func TestAuthenticateRequiresCredentials(t *testing.T) {
	fake := backendtest.New(testCreds.Identity, testCreds.Password)
	svc := NewService(fake, Credentials{Identity: "admin@example.com"})

	_, err := svc.Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.Config, apperr.KindOf(err))
	assert.Empty(t, fake.Calls())
}

func TestWithAttemptsFloor(t *testing.T) {
	svc := NewService(nil, testCreds, WithAttempts(0))
	assert.Equal(t, 1, svc.Attempts())
}

func TestResolveFromKeychain(t *testing.T) {
	keychain.SetManager(keychain.NewManagerWithRing(keyring.NewArrayKeyring(nil)))
	t.Cleanup(func() { keychain.SetManager(nil) })

	assert.Equal(t, Credentials{Identity: DefaultIdentity}, Resolve(Credentials{}))

	require.NoError(t, SaveCredentials(Credentials{Identity: "ops@example.com", Password: "s3cret"}))

	tests := []struct {
		name string
		in   Credentials
		want Credentials
	}{
		{name: "empty takes stored", in: Credentials{}, want: Credentials{Identity: "ops@example.com", Password: "s3cret"}},
		{name: "same identity takes password", in: Credentials{Identity: "OPS@example.com"}, want: Credentials{Identity: "OPS@example.com", Password: "s3cret"}},
		{name: "other identity keeps empty password", in: Credentials{Identity: "root@example.com"}, want: Credentials{Identity: "root@example.com"}},
		{name: "explicit wins", in: Credentials{Identity: "a@b.c", Password: "x"}, want: Credentials{Identity: "a@b.c", Password: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.in))
		})
	}

	require.NoError(t, ClearCredentials())
	got, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, got)
}

type emptyTokenAPI struct {
	backend.API
	calls int
}

func (e *emptyTokenAPI) AuthWithPassword(context.Context, string, string) (backend.AuthResult, error) {
	e.calls++
	return backend.AuthResult{}, nil
}
