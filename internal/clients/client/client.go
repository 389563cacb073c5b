package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vikingheim/odin-rewards/internal/observability/metrics"
)

// HttpClient is implemented by the outbound service clients so SendRequest can
// stay generic over them.
type HttpClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	Path string
	// TemplatePath is the path with parameters elided, used as the metrics
	// label to keep cardinality bounded.
	TemplatePath string
	Headers      map[string]string
	// Form, when set, is sent urlencoded and Input is ignored.
	Form url.Values
}

type HttpResponseError struct {
	StatusCode int
	Body       string
}

func (e *HttpResponseError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		return fmt.Sprintf("rate limit exceeded: %s", e.Body)
	}
	return fmt.Sprintf("unexpected response status %d: %s", e.StatusCode, e.Body)
}

// SendRequest performs one round trip against the client's base URL, encoding
// input as JSON (or form data via opts.Form) and decoding the response body
// into O. Non-2xx responses come back as *HttpResponseError.
func SendRequest[I, O any](
	ctx context.Context,
	c HttpClient,
	method string,
	opts *HttpClientOptions,
	input *I,
) (*O, error) {
	ctx, cancel := context.WithTimeout(ctx, c.GetDefaultRequestTimeout())
	defer cancel()

	var body io.Reader
	contentType := ""
	switch {
	case opts.Form != nil:
		body = strings.NewReader(opts.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case input != nil:
		encoded, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.GetBaseURL()+opts.Path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.GetHttpClient().Do(req)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveClientRequestDuration(c.GetBaseURL(), method, opts.TemplatePath, 0, duration)
		return nil, err
	}
	defer resp.Body.Close()

	metrics.ObserveClientRequestDuration(c.GetBaseURL(), method, opts.TemplatePath, resp.StatusCode, duration)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &HttpResponseError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var output O
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &output); err != nil {
			return nil, fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return &output, nil
}
