// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package overpass

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fides-app/fides-places/internal/http"
)

const (
	DefaultEndpoint = "https://overpass-api.de/api/interpreter"
	// DefaultTimeout leaves some headroom above the server side query timeout.
	DefaultTimeout = time.Second * 30
)

var ErrNilResponse = errors.New("overpass API returned no elements list")

// Client queries an Overpass API compatible endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	timeout  time.Duration
}

// New returns a Client for the given endpoint. An empty endpoint selects DefaultEndpoint and a
// non-positive timeout selects DefaultTimeout.
func New(client *http.Client, endpoint string, timeout time.Duration) (*Client, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid overpass endpoint: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{http: client, endpoint: endpoint, timeout: timeout}, nil
}

// Endpoint returns the API endpoint the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Query sends the Overpass QL query as form encoded POST body and decodes the response.
func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	body := strings.NewReader("data=" + url.QueryEscape(query))
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

	var raw struct {
		Response
		Elements *[]Element `json:"elements"`
	}
	if _, err := c.http.PostWithTimeout(ctx, c.endpoint, &raw, body, headers, c.timeout); err != nil {
		return nil, fmt.Errorf("failed to query overpass API: %w", err)
	}
	if raw.Elements == nil {
		if raw.Remark != "" {
			return nil, fmt.Errorf("%w: %s", ErrNilResponse, raw.Remark)
		}
		return nil, ErrNilResponse
	}

	response := raw.Response
	response.Elements = *raw.Elements
	return &response, nil
}
