// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors explains backend connectivity failures in plain language.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"trendseed/cli/internal/backend"
	"trendseed/cli/internal/logging"

	"github.com/pterm/pterm"
)

// Class is the category of a network failure.
type Class string

const (
	ClassNone    Class = ""
	ClassTimeout Class = "timeout"
	ClassDNS     Class = "dns"
	ClassRefused Class = "refused"
	ClassTLS     Class = "tls"
	ClassServer  Class = "server"
	ClassGeneric Class = "generic"
)

// Classify returns the failure class of err. HTTP replies below 500 are not
// network failures and yield ClassNone.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case isTimeoutError(err):
		return ClassTimeout
	case isDNSError(err):
		return ClassDNS
	case isConnectionRefusedError(err):
		return ClassRefused
	case isSSLError(err):
		return ClassTLS
	}
	if code := backend.StatusCode(err); code != 0 {
		if code >= 500 {
			return ClassServer
		}
		return ClassNone
	}
	return ClassGeneric
}

// FormatNetworkError prints an explanation of err for the backend at host and
// returns err wrapped. It prints nothing for errors that are not network failures.
func FormatNetworkError(err error, context, host string) error {
	if err == nil {
		return nil
	}
	lines := Explain(err, context, host)
	if len(lines) == 0 {
		return err
	}
	pterm.Println(lines[0])
	pterm.Println()
	for _, l := range lines[1:] {
		pterm.Println(l)
	}
	pterm.Println()
	pterm.Debug.Printfln("Technical details: %s", shorten(logging.Mask(err.Error()), 200))
	return fmt.Errorf("network error: %w", err)
}

// Explain returns the headline and suggestions for err, or nil.
func Explain(err error, context, host string) []string {
	if host == "" {
		host = "the backend"
	}
	switch Classify(err) {
	case ClassTimeout:
		return []string{
			fmt.Sprintf("⏱️  Connection timeout while %s", context),
			fmt.Sprintf("%s took too long to respond. This could mean:", host),
			"  • The backend is still starting up",
			"  • It is under heavy load (try a lower --rate)",
			"  • A firewall is dropping the connection",
		}
	case ClassDNS:
		return []string{
			fmt.Sprintf("🌐 Cannot resolve server address while %s", context),
			fmt.Sprintf("Unable to look up %s. Please check:", host),
			"  • The host name in --url or POCKETBASE_URL",
			"  • Your DNS settings",
		}
	case ClassRefused:
		return []string{
			fmt.Sprintf("🚫 Connection refused while %s", context),
			fmt.Sprintf("Nothing is accepting connections at %s. This could mean:", host),
			"  • PocketBase is not running (start it with ./pocketbase serve)",
			"  • The port in --url is wrong",
		}
	case ClassTLS:
		return []string{
			fmt.Sprintf("🔒 Secure connection failed while %s", context),
			fmt.Sprintf("Cannot establish HTTPS with %s. Try:", host),
			"  • Using http:// for a local backend",
			"  • Checking the certificate and your system clock",
		}
	case ClassServer:
		return []string{
			fmt.Sprintf("⚠️  Server error while %s", context),
			fmt.Sprintf("%s returned HTTP %d. Check the backend logs.", host, backend.StatusCode(err)),
		}
	case ClassGeneric:
		return []string{
			fmt.Sprintf("❌ Cannot reach %s while %s", host, context),
			"Please check:",
			"  • The --url setting",
			"  • Proxy or firewall settings",
		}
	}
	return nil
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
