package utils

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// HTTPClient interface for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultHTTPClient is the default HTTP client
type DefaultHTTPClient struct{ Timeout time.Duration }

// Do implements the HTTPClient interface
func (c *DefaultHTTPClient) Do(req *http.Request) (*http.Response, error) {
	// 0 means no client-side timeout; request contexts still apply
	client := &http.Client{Timeout: c.Timeout}
	return client.Do(req)
}

// Chat history calls use a 60 second timeout; /diagnose gets its own longer one.
var httpClient HTTPClient = &DefaultHTTPClient{Timeout: 60 * time.Second}

// maxLoggedBody caps how much of a symptoms or diagnosis payload reaches the
// debug log.
const maxLoggedBody = 1024

// LogBodyContent logs body under label and returns an equivalent reader so the
// caller can still consume it. A nil body stays nil.
func LogBodyContent(body io.ReadCloser, label string) io.ReadCloser {
	if body == nil {
		LogDebug(fmt.Sprintf("  -> %s: <nil>", label))
		return nil
	}
	data, err := io.ReadAll(body)
	body.Close()
	switch {
	case err != nil:
		LogDebug(fmt.Sprintf("  -> %s: <error reading: %v>", label, err))
		data = nil
	case len(data) == 0:
		LogDebug(fmt.Sprintf("  -> %s: <empty>", label))
	case len(data) > maxLoggedBody:
		LogDebug(fmt.Sprintf("  -> %s: %s... (truncated)", label, data[:maxLoggedBody]))
	default:
		LogDebug(fmt.Sprintf("  -> %s: %s", label, data))
	}
	return io.NopCloser(bytes.NewReader(data))
}

// VerboseHTTPClient wraps another HTTPClient and logs request/response basics and headers.
type VerboseHTTPClient struct{ Inner HTTPClient }

func (v *VerboseHTTPClient) Do(req *http.Request) (*http.Response, error) {
	inner := v.Inner
	if inner == nil {
		inner = &DefaultHTTPClient{}
	}
	LogDebug(fmt.Sprintf("HTTP %s %s", req.Method, req.URL.String()))
	LogHeaders("request", req.Header)

	// Log and restore request body
	req.Body = LogBodyContent(req.Body, "request body")

	resp, err := inner.Do(req)
	if err != nil {
		LogDebug(fmt.Sprintf("  -> error: %v", err))
		return nil, err
	}
	LogDebug(fmt.Sprintf("  -> %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	LogHeaders("response", resp.Header)

	resp.Body = LogBodyContent(resp.Body, "response body")
	return resp, nil
}

// GetHTTPClientWithTimeout is GetHTTPClient with a specific timeout. A client
// installed with SetHTTPClientForTest takes precedence.
func GetHTTPClientWithTimeout(timeout time.Duration) HTTPClient {
	if _, ok := httpClient.(*DefaultHTTPClient); !ok {
		return &VerboseHTTPClient{Inner: httpClient}
	}
	return &VerboseHTTPClient{Inner: &DefaultHTTPClient{Timeout: timeout}}
}

// SetHTTPClientForTest swaps the shared client; nil restores the default.
func SetHTTPClientForTest(client HTTPClient) {
	if client == nil {
		client = &DefaultHTTPClient{Timeout: 60 * time.Second}
	}
	httpClient = client
}

// redactedHeaders are never written to the debug log. The client itself only
// sends Accept and Content-Type; these cover credentials a proxy or a
// protected backend may add.
var redactedHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
}

// LogHeaders writes hdr to the debug log in key order, one line per value.
func LogHeaders(kind string, hdr http.Header) {
	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range hdr.Values(k) {
			if redactedHeaders[strings.ToLower(k)] {
				v = "[REDACTED]"
			}
			LogDebug(fmt.Sprintf("  %s header: %s: %s", kind, k, v))
		}
	}
}

// ServerErrorText returns the message to surface for a non-2xx response: the
// trimmed body text when there is one, otherwise "HTTP <status>".
func ServerErrorText(resp *http.Response, body []byte) string {
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
