package api

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const detailCacheSize = 256

// Client represents a dashboard backend API client
type Client struct {
	baseURL string
	query   *resty.Client // reads, retried on transient failures
	mutate  *resty.Client // writes, never retried automatically
	details *lruCache     // terminal task details by id
	tokenMu sync.RWMutex
	token   string
}

// NewClient creates a new dashboard API client
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		details: newLRUCache(detailCacheSize),
		token:   token,
	}

	client.query = newHTTPClient(timeout, 2).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on 429 (Too Many Requests) and 5xx server errors
			return r.StatusCode() == 429 || (r.StatusCode() >= 500 && r.StatusCode() <= 504)
		})
	client.mutate = newHTTPClient(timeout, 0)

	return client
}

func newHTTPClient(timeout time.Duration, retries int) *resty.Client {
	c := resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "optiondash-desktop").
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(300 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)

	// Every attempt carries its own correlation id for the server logs
	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.New().String())
		return nil
	})
	return c
}

// SetToken replaces the bearer token used for subsequent requests
func (c *Client) SetToken(token string) {
	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()
}

// request prepares a request on the given resty client with auth applied
func (c *Client) request(http *resty.Client) *resty.Request {
	req := http.R()

	c.tokenMu.RLock()
	token := c.token
	c.tokenMu.RUnlock()

	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// buildURL constructs the full URL for an endpoint
func (c *Client) buildURL(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	return fmt.Sprintf("%s/%s", c.baseURL, endpoint)
}
