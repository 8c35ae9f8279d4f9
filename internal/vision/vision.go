// Package vision is the client for the label/brand/color detection endpoint.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dharsanguruparan/weavd/internal/autofill"
)

// DefaultTimeout bounds one detection call.
const DefaultTimeout = 6000 * time.Millisecond

var (
	ErrVisionTimeout = errors.New("vision timeout")
	ErrVisionError   = errors.New("vision error")
)

// Request is the body of POST /vision.
type Request struct {
	ImageURLs []string `json:"imageUrls"`
}

// Result holds the detections for one image. A nil Colors slice means the
// provider reported no color information.
type Result struct {
	URL    string   `json:"url"`
	Labels []string `json:"labels,omitempty"`
	Brands []string `json:"brands,omitempty"`
	Colors []string `json:"colors"`
}

// Response lists results in request order.
type Response struct {
	Results []Result `json:"results"`
}

// Suggestions flattens the results in input order.
func (r *Response) Suggestions() autofill.Suggestions {
	var s autofill.Suggestions
	for _, res := range r.Results {
		s.Labels = append(s.Labels, res.Labels...)
		s.Brands = append(s.Brands, res.Brands...)
		if res.Colors != nil {
			if s.Colors == nil {
				s.Colors = []string{}
			}
			s.Colors = append(s.Colors, res.Colors...)
		}
	}
	return s
}

// Client calls a vision endpoint. It never retries.
type Client struct {
	url     string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a Client for the full endpoint URL.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, http: &http.Client{}, timeout: timeout}
}

// Detect posts the URLs and waits at most the configured timeout.
func (c *Client) Detect(ctx context.Context, urls []string) (*Response, error) {
	body, err := json.Marshal(Request{ImageURLs: urls})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrVisionError, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrVisionError, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrVisionError, resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, c.classify(ctx, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Results) != len(urls) {
		return nil, fmt.Errorf("%w: got %d results for %d images", ErrVisionError, len(out.Results), len(urls))
	}
	return &out, nil
}

func (c *Client) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrVisionTimeout, c.timeout, err)
	}
	return fmt.Errorf("%w: %w", ErrVisionError, err)
}
