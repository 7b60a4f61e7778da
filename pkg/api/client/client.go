// Package client is a thin HTTP client for the admin API, used by sftpctl.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/handlers"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// APIError is a non-2xx response decoded from the server's problem document.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Title, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Title, e.StatusCode)
}

// Client talks to one admin API server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the given base URL. token may be empty until
// Login is called.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*handlers.LoginResponse, error) {
	var out handlers.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", handlers.LoginRequest{
		Username: username,
		Password: password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*handlers.UserResponse, error) {
	var out handlers.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]handlers.UserResponse, error) {
	var out []handlers.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindUser returns the user with the given username, or an APIError with
// status 404.
func (c *Client) FindUser(ctx context.Context, username string) (*handlers.UserResponse, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, &APIError{StatusCode: http.StatusNotFound, Title: "Not Found", Detail: fmt.Sprintf("user %q not found", username)}
}

// CreateUser creates a new user.
func (c *Client) CreateUser(ctx context.Context, req handlers.CreateUserRequest) (*handlers.UserResponse, error) {
	var out handlers.UserResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/users/", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser updates the user with the given id.
func (c *Client) UpdateUser(ctx context.Context, id string, req handlers.UpdateUserRequest) (*handlers.UserResponse, error) {
	var out handlers.UserResponse
	if err := c.do(ctx, http.MethodPatch, "/api/v1/users/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteUser deletes the user with the given id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(id), nil, nil)
}

// ListConnections returns the connection audit log, newest first.
func (c *Client) ListConnections(ctx context.Context, userID string, limit int) ([]*models.Connection, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/connections"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []*models.Connection
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary returns the transfer roll-up, optionally restricted to one user.
func (c *Client) Summary(ctx context.Context, userID string) (*models.Summary, error) {
	path := "/api/v1/analytics/summary"
	if userID != "" {
		path += "?user_id=" + url.QueryEscape(userID)
	}

	var out models.Summary
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}

	var problem handlers.Problem
	if json.Unmarshal(data, &problem) == nil && problem.Title != "" {
		apiErr.Title = problem.Title
		apiErr.Detail = problem.Detail
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(data))
	return apiErr
}
