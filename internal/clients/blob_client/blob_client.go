// Package blob_client supplies raw image bytes for an opaque reference:
// an http(s) URL or a local file path.
package blob_client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const fetchTimeout = 30 * time.Second

// Fetch resolves a blob reference to its bytes.
func Fetch(ctx context.Context, ref string) (data []byte, err error) {

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return fetchUrl(ctx, ref)
	}

	data, err = os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", ref, err)
	}

	return data, nil
}

// fetchUrl downloads the blob over HTTP and returns the response body.
func fetchUrl(ctx context.Context, url string) (data []byte, err error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: fetchTimeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode <= 599 {
		return nil, errors.New("blob server returned error with status: " + resp.Status)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return data, nil
}
