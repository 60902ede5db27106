package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"trendseed/cli/internal/auth"
	"trendseed/cli/internal/backend"
	"trendseed/cli/internal/manifest"
	"trendseed/cli/internal/terminal"
)

var spinnerFrames = []string{"-", "\\", "|", "/"}

// newAPI builds the backend client for the effective configuration.
// Tests replace it with an in-memory backend.
var newAPI = func() (backend.API, error) {
	base, err := manifest.HTTPBaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	return backend.New(base, manifest.Default(), backend.WithTimeout(cfg.Timeout)), nil
}

// credentials returns the superuser credentials from the configuration,
// completed from the keychain.
func credentials() auth.Credentials {
	return auth.Resolve(auth.Credentials{Identity: cfg.Identity, Password: cfg.Password})
}

func authOptions() []auth.Option {
	return []auth.Option{auth.WithAttempts(cfg.Auth.Attempts), auth.WithBackoff(cfg.Auth.Backoff)}
}

// authenticateOnce performs a single authentication attempt behind an inline
// spinner and returns the session token and account.
func authenticateOnce(ctx context.Context, w io.Writer, api backend.API, creds auth.Credentials) (string, string, error) {
	svc := auth.NewService(api, creds, auth.WithAttempts(1))
	stop := func() {}
	if terminal.IsInteractive() {
		stop = startInlineSpinner(w, "authenticating", spinnerFrames, 100*time.Millisecond)
	}
	token, err := svc.Authenticate(ctx)
	stop()
	if err != nil {
		return "", "", err
	}
	return token, svc.Account(), nil
}

// startInlineSpinner starts a simple inline spinner animation on a single line.
// It displays rotating frames followed by text and clears the line when the
// returned function is called.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], text)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}
