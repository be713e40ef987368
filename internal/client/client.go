// Package client is a typed HTTP client for the homeinspect API. Every method
// returns the persisted row the server sent back, or an error; API failures
// decode into *APIError.
package client

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
	"sync"
	"time"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/form"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Field, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// AuthResponse is returned by sign-up and sign-in.
type AuthResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token. An empty token sends no
// Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/signout", nil, nil)
}

// CurrentUser returns the identity behind the token, or a 401 APIError.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/user", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListHouses returns the caller's houses, newest first. A non-empty query is
// filtered by the server.
func (c *Client) ListHouses(ctx context.Context, query string) ([]domain.HouseWithCount, error) {
	path := "/api/houses"
	if query != "" {
		path += "?" + url.Values{"q": {query}}.Encode()
	}
	var out []domain.HouseWithCount
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetHouse(ctx context.Context, id string) (*domain.House, error) {
	var out domain.House
	if err := c.doJSON(ctx, http.MethodGet, "/api/houses/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateHouse(ctx context.Context, in form.HouseInput) (*domain.House, error) {
	var out domain.House
	if err := c.doJSON(ctx, http.MethodPost, "/api/houses", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateHouse(ctx context.Context, id string, in form.HouseInput) (*domain.House, error) {
	var out domain.House
	if err := c.doJSON(ctx, http.MethodPatch, "/api/houses/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteHouse(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/houses/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListInspections(ctx context.Context, houseID string) ([]domain.Inspection, error) {
	var out []domain.Inspection
	if err := c.doJSON(ctx, http.MethodGet, "/api/houses/"+url.PathEscape(houseID)+"/inspections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetInspection(ctx context.Context, houseID, id string) (*domain.Inspection, error) {
	var out domain.Inspection
	path := "/api/houses/" + url.PathEscape(houseID) + "/inspections/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInspection(ctx context.Context, houseID string, in form.InspectionInput) (*domain.Inspection, error) {
	var out domain.Inspection
	if err := c.doJSON(ctx, http.MethodPost, "/api/houses/"+url.PathEscape(houseID)+"/inspections", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateInspection(ctx context.Context, id string, in form.InspectionInput) (*domain.Inspection, error) {
	var out domain.Inspection
	if err := c.doJSON(ctx, http.MethodPatch, "/api/inspections/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteInspection(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/inspections/"+url.PathEscape(id), nil, nil)
}

// PutObject uploads the bytes of r under key. The server sniffs the content
// type, so none is sent.
func (c *Client) PutObject(ctx context.Context, key string, r io.Reader) (domain.Image, error) {
	var out domain.Image
	req, err := c.newRequest(ctx, http.MethodPut, "/api/objects/"+escapeKey(key), r)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if err := c.do(req, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) DeleteObject(ctx context.Context, key string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/objects/"+escapeKey(key), nil, nil)
}

// ListObjects returns the images stored under prefix, which must name one
// inspection (inspections/<id>/).
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]domain.Image, error) {
	var out []domain.Image
	path := "/api/objects?" + url.Values{"prefix": {prefix}}.Encode()
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ObjectURL(ctx context.Context, key string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/urls/"+escapeKey(key), nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Field = body.Field
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
