package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PingURL probes a backend URL and reports an error unless it answers 2xx
// within a second.
func PingURL(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return err
	}
	resp, err := (&http.Client{Timeout: 2 * time.Second}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}

// PingAPI checks the /health endpoint under apiBase.
func PingAPI(ctx context.Context, apiBase string) error {
	return PingURL(ctx, strings.TrimRight(apiBase, "/")+"/health")
}
