// Package client is the admin API client used by the CLI. It keeps the
// admin session, attaches the bearer token to every request and drops the
// session when the server answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"portfolio-api/internal/admin"
	"portfolio-api/internal/blog"
	"portfolio-api/internal/project"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.err
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its transport is wrapped,
// not replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New returns a client for the API rooted at baseURL (for example
// http://localhost:5000/api) and attaches session to it.
func New(baseURL string, session *Session, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		session:    session,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *c.httpClient
	wrapped.Transport = &authTransport{base: base, session: session, logger: logger}
	c.httpClient = &wrapped

	session.attach(c)
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

// authTransport injects the bearer token and logs the session out on 401.
type authTransport struct {
	base    http.RoundTripper
	session *Session
	logger  *slog.Logger
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.session.Token(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.session.State() != StateAnonymous {
		t.logger.Info("received 401, clearing admin session", "path", req.URL.Path)
		if err := t.session.Logout(); err != nil {
			t.logger.Warn("failed to clear session", "error", err)
		}
	}
	return resp, nil
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope errorEnvelope
		_ = json.Unmarshal(data, &envelope)
		return &APIError{Status: resp.StatusCode, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type loginResponse struct {
	Token string         `json:"token"`
	Admin *admin.Profile `json:"admin"`
}

func (c *Client) login(ctx context.Context, email, password string) (string, *admin.Profile, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return "", nil, err
	}
	if resp.Token == "" {
		return "", nil, &APIError{Status: http.StatusOK, Message: "Login failed"}
	}
	return resp.Token, resp.Admin, nil
}

type verifyResponse struct {
	Admin *admin.Profile `json:"admin"`
}

func (c *Client) verify(ctx context.Context) (*admin.Profile, error) {
	var resp verifyResponse
	if err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Admin, nil
}

type blogsResponse struct {
	Blogs []blog.Blog `json:"blogs"`
}

func (c *Client) ListAllBlogs(ctx context.Context) ([]blog.Blog, error) {
	var resp blogsResponse
	if err := c.do(ctx, http.MethodGet, "/blogs/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Blogs, nil
}

type projectsResponse struct {
	Projects []project.Project `json:"projects"`
}

func (c *Client) ListAllProjects(ctx context.Context) ([]project.Project, error) {
	var resp projectsResponse
	if err := c.do(ctx, http.MethodGet, "/projects/all", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}
