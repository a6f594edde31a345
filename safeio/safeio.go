// Package safeio provides bounded I/O and URL hygiene helpers shared by the
// remote-service clients: capped response-body reads and validation of the
// asset URLs we hand to the document service.
package safeio

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// MaxResponseBody is the default cap for HTTP response body reads (1 MiB).
// Error payloads and metadata responses from the document and storage
// services are far smaller; anything bigger is misbehaviour.
const MaxResponseBody int64 = 1 << 20

// ErrUnsafeScheme is returned when a URL uses a non-HTTPS scheme. The
// document service fetches staged assets by URL on our behalf, so only
// https URLs are ever handed to it.
var ErrUnsafeScheme = errors.New("safeio: only https URLs may be handed to the document service")

// LimitedReadAll reads at most maxBytes from r, failing if the limit is
// exceeded rather than truncating silently.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("safeio: response exceeds %d bytes", maxBytes)
	}
	return data, nil
}

// ValidateFetchURL checks that rawURL is an absolute https URL with a host.
func ValidateFetchURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("safeio: invalid URL: %w", err)
	}
	if strings.ToLower(u.Scheme) != "https" {
		return ErrUnsafeScheme
	}
	if u.Hostname() == "" {
		return fmt.Errorf("safeio: URL has no host")
	}
	return nil
}
