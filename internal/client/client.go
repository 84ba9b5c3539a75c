// Package client provides a Go client for the minipress API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minipress-io/minipress/internal/model"
)

// Client is a minipress API client. Login stores the bearer token on the
// client; subsequent calls send it automatically.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// New creates a new minipress client.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsAuthenticated reports whether the client holds a bearer token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != ""
}

// Signup creates a new user on the server.
func (c *Client) Signup(username, password string) error {
	req := map[string]string{"username": username, "password": password}
	return c.do(http.MethodPost, "/signup", req, nil)
}

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(username, password string) (string, error) {
	req := map[string]string{"username": username, "password": password}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(http.MethodPost, "/login", req, &result); err != nil {
		return "", err
	}
	c.Token = result.AccessToken
	return result.AccessToken, nil
}

// CreatePost submits a new post and returns it with its assigned id.
func (c *Client) CreatePost(title, content string) (model.Post, error) {
	req := map[string]string{"title": title, "content": content}
	var post model.Post
	if err := c.do(http.MethodPost, "/posts", req, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(id int64) (model.Post, error) {
	var post model.Post
	if err := c.do(http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// ListPosts fetches all posts.
func (c *Client) ListPosts() ([]model.Post, error) {
	var posts []model.Post
	if err := c.do(http.MethodGet, "/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost merges the supplied fields into an existing post. Nil fields are
// omitted from the request and left unchanged on the server.
func (c *Client) UpdatePost(id int64, title, content *string) (model.Post, error) {
	req := map[string]string{}
	if title != nil {
		req["title"] = *title
	}
	if content != nil {
		req["content"] = *content
	}
	var post model.Post
	if err := c.do(http.MethodPut, fmt.Sprintf("/posts/%d", id), req, &post); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

// DeletePost removes a post and returns the server's confirmation message.
func (c *Client) DeletePost(id int64) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

func (c *Client) do(method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
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

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}
	return nil
}

// TestHelper signs up a throwaway user and hands out tokens for tests.
type TestHelper struct {
	baseURL string
}

func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{baseURL: baseURL}
}

// GetToken registers the username if needed and returns a fresh bearer token.
func (h *TestHelper) GetToken(username string) (string, error) {
	c := New(h.baseURL)
	if err := c.Signup(username, "test-password"); err != nil {
		if !strings.Contains(err.Error(), "Username already exists") {
			return "", fmt.Errorf("signup: %w", err)
		}
	}
	token, err := c.Login(username, "test-password")
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}
