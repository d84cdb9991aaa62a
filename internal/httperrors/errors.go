// Copyright (c) 2025 Shield
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly error handling for HTTP requests.
package httperrors

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
)

// Friendly messages keyed by HTTP status class.
const (
	MsgBadRequest   = "Invalid request. Please check your protection configuration and source code."
	MsgAuth         = "Authentication failed. Please check that your project token is correct."
	MsgRateLimited  = "Protection skipped to avoid performance issues in final build. Reducing file size..."
	MsgServiceError = "The protection service is temporarily unavailable. Please try again in a few minutes."
	MsgConnection   = "Connection error: unable to reach the protection service. Please check your internet connection."
)

// StatusMessage returns the static friendly message for a non-200 status.
func StatusMessage(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return MsgBadRequest
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		return MsgAuth
	case status == http.StatusTooManyRequests:
		return MsgRateLimited
	case status >= 500 && status <= 599:
		return MsgServiceError
	default:
		return fmt.Sprintf("Unexpected response from the protection service (HTTP %d).", status)
	}
}

// IsAuthStatus reports whether status means the token was rejected.
func IsAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusNotFound
}

// Present shows troubleshooting guidance for a connection-level failure.
// context describes what the CLI was doing, e.g. "validating your token";
// endpoint is the service URL the request went to.
func Present(err error, context, endpoint string) {
	if err == nil {
		return
	}
	host := ExtractHostFromURL(endpoint)

	pterm.Println(Headline(err, context, host))
	pterm.Println()
	for _, line := range advice(err) {
		pterm.Println(line)
	}
	pterm.Println()

	if details := causeText(err); details != "" {
		if len(details) > 100 {
			details = details[:100] + "..."
		}
		pterm.Debug.Printf("Technical details: %s\n", details)
	}
}

// Headline is the first line Present prints for err.
func Headline(err error, context, host string) string {
	switch {
	case isTimeoutError(err):
		return fmt.Sprintf("⏱️  Connection to %s timed out while %s", host, context)
	case isDNSError(err):
		return fmt.Sprintf("🌐 Cannot resolve %s while %s", host, context)
	case isConnectionRefusedError(err):
		return fmt.Sprintf("🚫 Connection to %s refused while %s", host, context)
	case isSSLError(err):
		return fmt.Sprintf("🔒 Secure connection to %s failed while %s", host, context)
	default:
		return fmt.Sprintf("❌ Cannot reach %s while %s", host, context)
	}
}

func advice(err error) []string {
	switch {
	case isTimeoutError(err):
		return []string{
			"The protection service took too long to respond. This could mean:",
			"  • Slow internet connection",
			"  • The service is under heavy load",
			"  • A firewall is holding the connection open",
		}
	case isDNSError(err):
		return []string{
			"Please check:",
			"  • Your internet connection is working",
			"  • DNS settings are correct",
			"  • No DNS-level blocking (corporate firewall, VPN)",
		}
	case isConnectionRefusedError(err):
		return []string{
			"The protection service is not accepting connections. This could mean:",
			"  • The service is temporarily down",
			"  • A firewall is blocking the connection",
			"  • SHIELD_API_URL points at the wrong address",
		}
	case isSSLError(err):
		return []string{
			"Cannot establish a secure HTTPS connection. Try:",
			"  • Check your system date and time",
			"  • Verify network proxy settings",
		}
	default:
		return []string{
			"Please check:",
			"  • Your internet connection",
			"  • Firewall settings that might block HTTPS requests",
		}
	}
}

// causeText joins the messages of every error in err's chain, lowercased.
// Wrappers that hide their cause from Error() still contribute it here.
func causeText(err error) string {
	var parts []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		parts = append(parts, e.Error())
	}
	return strings.ToLower(strings.Join(parts, " | "))
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	text := causeText(err)
	return strings.Contains(text, "timeout") || strings.Contains(text, "deadline exceeded")
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	if err == nil {
		return false
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(causeText(err), "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	if err == nil {
		return false
	}

	var verifyErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &verifyErr) || errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return true
	}

	text := causeText(err)
	return strings.Contains(text, "tls") ||
		strings.Contains(text, "x509") ||
		strings.Contains(text, "certificate")
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "the protection service"
	}
	return u.Host
}
