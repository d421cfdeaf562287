// Package client provides a Go client for the posts API. It is used
// by the CLI commands and the integration tests.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mahmouddwidar/foxsoft-test/internal/model"
)

// Client is a posts API client. Token is set after a successful login
// and sent as a bearer credential on every subsequent request.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
	TokenExp   time.Time
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response decoded from the API's error envelope.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error (%d)", e.StatusCode)
}

// LoginUser authenticates as a user and stores the bearer token on the
// client.
func (c *Client) LoginUser(email, password string) (model.User, error) {
	var result struct {
		User      model.User `json:"user"`
		Token     string     `json:"token"`
		ExpiresAt string     `json:"expires_at"`
	}
	err := c.do(http.MethodPost, "/api/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return model.User{}, err
	}
	c.Token = result.Token
	c.TokenExp, _ = time.Parse(time.RFC3339, result.ExpiresAt)
	return result.User, nil
}

// LoginAdmin authenticates as an admin and stores the bearer token on
// the client.
func (c *Client) LoginAdmin(email, password string) (model.Admin, error) {
	var result struct {
		Admin     model.Admin `json:"admin"`
		Token     string      `json:"token"`
		ExpiresAt string      `json:"expires_at"`
	}
	err := c.do(http.MethodPost, "/api/admins/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return model.Admin{}, err
	}
	c.Token = result.Token
	c.TokenExp, _ = time.Parse(time.RFC3339, result.ExpiresAt)
	return result.Admin, nil
}

// Logout revokes the client's token server-side.
func (c *Client) Logout() error {
	if err := c.do(http.MethodPost, "/api/logout", nil, nil); err != nil {
		return err
	}
	c.Token = ""
	c.TokenExp = time.Time{}
	return nil
}

// Profile is the authenticated actor as reported by /api/user.
type Profile struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Kind  model.ActorKind `json:"kind"`
}

func (c *Client) CurrentUser() (Profile, error) {
	var p Profile
	if err := c.do(http.MethodGet, "/api/user", nil, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// PostList is one page of the listing envelope.
type PostList struct {
	Data []model.Post `json:"data"`
	Meta ListMeta     `json:"meta"`
}

type ListMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// ListPosts fetches one page of posts visible to the authenticated
// actor. Zero page/perPage leave the server defaults in place.
func (c *Client) ListPosts(search string, page, perPage int) (PostList, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	path := "/api/posts"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var result PostList
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return PostList{}, err
	}
	return result, nil
}

func (c *Client) GetPost(id int64) (model.Post, error) {
	var result struct {
		Data model.Post `json:"data"`
	}
	if err := c.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", id), nil, &result); err != nil {
		return model.Post{}, err
	}
	return result.Data, nil
}

// CreatePost creates a post. ownerID is only meaningful for admin
// sessions; the server ignores it otherwise.
func (c *Client) CreatePost(title, content string, status model.PostStatus, ownerID *int64) (model.Post, error) {
	body := map[string]any{
		"title":   title,
		"content": content,
		"status":  status,
	}
	if ownerID != nil {
		body["user_id"] = *ownerID
	}
	var result struct {
		Post model.Post `json:"post"`
	}
	if err := c.do(http.MethodPost, "/api/posts", body, &result); err != nil {
		return model.Post{}, err
	}
	return result.Post, nil
}

// PostUpdate carries the fields to change; nil fields stay untouched.
type PostUpdate struct {
	Title   *string           `json:"title,omitempty"`
	Content *string           `json:"content,omitempty"`
	Status  *model.PostStatus `json:"status,omitempty"`
	OwnerID *int64            `json:"user_id,omitempty"`
}

func (c *Client) UpdatePost(id int64, update PostUpdate) (model.Post, error) {
	var result struct {
		Data model.Post `json:"data"`
	}
	if err := c.do(http.MethodPut, fmt.Sprintf("/api/posts/%d", id), update, &result); err != nil {
		return model.Post{}, err
	}
	return result.Data, nil
}

func (c *Client) DeletePost(id int64) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil, nil)
}

func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Message string              `json:"message"`
			Errors  map[string][]string `json:"errors"`
		}
		if json.Unmarshal(respBody, &envelope) == nil {
			apiErr.Message = envelope.Message
			apiErr.Fields = envelope.Errors
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
