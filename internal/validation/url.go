package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// BackendURLValidator checks the base URL of the listings backend
type BackendURLValidator struct {
	// AllowLocal permits plain http and localhost or private addresses,
	// for a backend running on the developer's machine
	AllowLocal bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewBackendURLValidator creates a validator that only accepts public https URLs
func NewBackendURLValidator() *BackendURLValidator {
	return &BackendURLValidator{
		AllowLocal: false,
		MaxLength:  2048,
	}
}

// NewPermissiveBackendURLValidator creates a validator that allows local development
func NewPermissiveBackendURLValidator() *BackendURLValidator {
	return &BackendURLValidator{
		AllowLocal: true,
		MaxLength:  2048,
	}
}

// ValidateAndNormalize returns the base URL without trailing slash, query
// or fragment, ready to have "/rest/v1/..." appended.
func (v *BackendURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("backend URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	// Add protocol if missing (default to HTTPS for security)
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	switch parsedURL.Scheme {
	case "https":
	case "http":
		if !v.AllowLocal {
			return "", fmt.Errorf("backend URL must use https")
		}
	default:
		return "", fmt.Errorf("URL must use http or https protocol")
	}

	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if parsedURL.User != nil {
		return "", fmt.Errorf("credentials in the URL are not allowed, use backend.api_key")
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return "", fmt.Errorf("backend URL must not carry a query or fragment")
	}
	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	if err := v.validateHost(parsedURL.Host); err != nil {
		return "", err
	}

	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	return parsedURL.String(), nil
}

func (v *BackendURLValidator) validateHost(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		var err error
		hostname, _, err = net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
	}

	if v.AllowLocal {
		return nil
	}

	if isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}
	if ip := net.ParseIP(hostname); ip != nil && (ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()) {
		return fmt.Errorf("private IP addresses are not permitted")
	}
	return nil
}

// isLocalhost checks if a hostname refers to localhost
func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}
