package backend

import (
	"errors"
	"net/url"
	"time"
)

var (
	// ErrMissingBaseURL is returned when no backend base URL is configured
	ErrMissingBaseURL = errors.New("backend: base URL is required")
	// ErrInvalidBaseURL is returned when the base URL cannot be parsed as an absolute URL
	ErrInvalidBaseURL = errors.New("backend: base URL must be an absolute http(s) URL")
	// ErrUnexpectedStatus is returned for any non-2xx backend response
	ErrUnexpectedStatus = errors.New("backend: unexpected response status")
)

// maxResponseSize bounds how much of a backend response body is read
const maxResponseSize = 10 * 1024 * 1024

// Config holds client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidBaseURL
	}
	return nil
}
