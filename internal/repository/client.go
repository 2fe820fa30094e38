package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CMSClient is a thin REST client for the content store.  Every request
// carries the API token as a bearer credential.  Requests are never
// retried; failures surface as ErrUpstream.
type CMSClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	observe    Observer
}

// Observer receives the method, HTTP status (0 on transport failure) and
// latency of every CMS call.
type Observer func(method string, status int, d time.Duration)

// NewCMSClient returns a client for the CMS at baseURL (for example
// "http://localhost:1337").  A zero timeout selects ten seconds.
func NewCMSClient(baseURL, token string, timeout time.Duration) *CMSClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CMSClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithObserver installs fn as the latency observer and returns c.
func (c *CMSClient) WithObserver(fn Observer) *CMSClient {
	c.observe = fn
	return c
}

// envelope is the outer shape of CMS responses.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  meta            `json:"meta"`
	Error *struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

type meta struct {
	Pagination Pagination `json:"pagination"`
}

// Pagination mirrors the CMS paging metadata.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// statusError carries the HTTP status of a failed call so callers can
// react to specific codes.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("cms returned %d: %s", e.status, e.msg)
}

func (e *statusError) Unwrap() error { return ErrUpstream }

func (c *CMSClient) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// send executes req and returns the raw body of a 2xx answer.
func (c *CMSClient) send(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(req.Method, 0, start)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	c.record(req.Method, resp.StatusCode, start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, &statusError{status: resp.StatusCode, msg: msg}
	}
	return raw, nil
}

func (c *CMSClient) record(method string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(method, status, time.Since(start))
	}
}

// doJSON sends an optional JSON body and decodes the envelope of the
// answer.
func (c *CMSClient) doJSON(ctx context.Context, method, path string, query url.Values, in any) (envelope, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return envelope{}, fmt.Errorf("%w: encode body: %v", ErrUpstream, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return envelope{}, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	raw, err := c.send(req)
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return env, nil
}

// isStatus reports whether err is a CMS answer with the given status.
func isStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == status
}
