// Package api is the client for the remote todo service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is where the service listens unless configured otherwise.
	DefaultBaseURL = "http://localhost:8080"

	// RequestIDHeader carries the id the client assigns to every request.
	RequestIDHeader = "X-Request-Id"

	maxErrorBody = 512
)

// Remote is everything the board needs from the service.
type Remote interface {
	CreateUser(ctx context.Context) (board.User, error)
	GetUser(ctx context.Context, id int) (board.User, error)
	CreateList(ctx context.Context, userID int) (board.List, error)
	GetList(ctx context.Context, listID int) ([]board.Item, error)
	CreateItem(ctx context.Context, item NewItem) (board.Item, error)
	UpdateItemColumn(ctx context.Context, id int, column board.Column, lastUpdated string) error
	DeleteItem(ctx context.Context, id int) error
}

// NewItem is the payload for creating an item.
type NewItem struct {
	Title       string       `json:"title"`
	UserID      int          `json:"user_id"`
	Column      board.Column `json:"column"`
	LastUpdated string       `json:"lastUpdated"`
	ListID      int          `json:"todolist_id"`
}

type columnUpdate struct {
	ID          int          `json:"id"`
	Column      board.Column `json:"column"`
	LastUpdated string       `json:"lastUpdated"`
}

type listRequest struct {
	UserID int `json:"user_id"`
}

var _ Remote = (*Client)(nil)

// Client talks to the service over HTTP. Requests are never retried.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. A zero timeout means requests run until
// the service answers or ctx is done.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTPClient creates a client that sends requests through httpClient.
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// BaseURL returns the service address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateUser asks the service for a new user; the service picks the username.
func (c *Client) CreateUser(ctx context.Context) (board.User, error) {
	var user board.User

	err := c.do(ctx, http.MethodPost, "/users/", nil, &user)
	if err != nil {
		return board.User{}, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// GetUser fetches the user with the given id.
func (c *Client) GetUser(ctx context.Context, id int) (board.User, error) {
	var user board.User

	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &user)
	if statusCode(err) == http.StatusNotFound {
		return board.User{}, fmt.Errorf("error getting user %d: %w", id, ErrUserNotFound)
	}

	if err != nil {
		return board.User{}, fmt.Errorf("error getting user %d: %w", id, err)
	}

	return user, nil
}

// CreateList creates an empty list owned by userID.
func (c *Client) CreateList(ctx context.Context, userID int) (board.List, error) {
	var list board.List

	err := c.do(ctx, http.MethodPost, "/todolists/", listRequest{UserID: userID}, &list)
	if err != nil {
		return board.List{}, fmt.Errorf("error creating todolist: %w", err)
	}

	return list, nil
}

// GetList returns the items of the list with the given id.
func (c *Client) GetList(ctx context.Context, listID int) ([]board.Item, error) {
	items := []board.Item{}

	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/todolists/%d", listID), nil, &items)
	if err != nil {
		return nil, fmt.Errorf("error getting todolist %d: %w", listID, err)
	}

	return items, nil
}

// CreateItem persists a new item and returns it with its service-assigned id.
func (c *Client) CreateItem(ctx context.Context, item NewItem) (board.Item, error) {
	var created board.Item

	err := c.do(ctx, http.MethodPost, "/todos/", item, &created)
	if err != nil {
		return board.Item{}, fmt.Errorf("error creating todo '%s': %w", item.Title, err)
	}

	return created, nil
}

// UpdateItemColumn moves the item with the given id to column.
func (c *Client) UpdateItemColumn(ctx context.Context, id int, column board.Column, lastUpdated string) error {
	body := columnUpdate{ID: id, Column: column, LastUpdated: lastUpdated}

	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/todos/%d", id), body, nil)
	if err != nil {
		return fmt.Errorf("error moving todo %d to %s: %w", id, column, err)
	}

	return nil
}

// DeleteItem removes the item with the given id.
func (c *Client) DeleteItem(ctx context.Context, id int) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/todos/%d", id), nil, nil)
	if err != nil {
		return fmt.Errorf("error deleting todo %d: %w", id, err)
	}

	return nil
}

// Ping checks that the service is up.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/_ping", nil, nil); err != nil {
		return fmt.Errorf("error pinging %s: %w", c.baseURL, err)
	}

	return nil
}

// do sends a request with an optional JSON body and decodes the JSON response into out unless
// out is nil.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("remote request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}

	return nil
}

func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}

	return 0
}
