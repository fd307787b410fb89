package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/myrjola/scenevalidator/internal/errors"
)

type Client struct {
	client *http.Client
	url    string
}

// NewClient creates an HTTP client for the JSON API at url.
func NewClient(url string) *Client {
	return &Client{
		client: &http.Client{},
		url:    url,
	}
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.url+urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetJSON fetches a URL and decodes the response body into out. It returns
// the HTTP status code so that tests can assert on error responses.
func (c *Client) GetJSON(ctx context.Context, urlPath string, out any) (int, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return 0, errors.Wrap(err, "client get")
	}
	return c.decodeResponse(resp, out)
}

// PostJSON sends body as JSON to a URL and decodes the response body into
// out. It returns the HTTP status code so that tests can assert on error
// responses.
func (c *Client) PostJSON(ctx context.Context, urlPath string, body any, out any) (int, error) {
	var (
		err     error
		payload []byte
		req     *http.Request
		resp    *http.Response
	)
	if payload, err = json.Marshal(body); err != nil {
		return 0, errors.Wrap(err, "marshal request body")
	}
	if req, err = http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.url+urlPath,
		bytes.NewReader(payload),
	); err != nil {
		return 0, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if resp, err = c.client.Do(req); err != nil {
		return 0, errors.Wrap(err, "do request")
	}
	return c.decodeResponse(resp, out)
}

func (c *Client) decodeResponse(resp *http.Response, out any) (int, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if out == nil {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			return resp.StatusCode, errors.Wrap(err, "drain response body")
		}
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode response body")
	}
	return resp.StatusCode, nil
}
