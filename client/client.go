// Package client talks to the command API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cmdhub/model"
)

var (
	ErrNotFound   = errors.New("command not found")
	ErrBadRequest = errors.New("bad request")
)

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL, e.g. http://localhost:8080.
// A nil httpClient gets a default with a 10s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) List(ctx context.Context) ([]model.Command, error) {
	var commands []model.Command
	if err := c.do(ctx, http.MethodGet, "/api/commands", nil, &commands); err != nil {
		return nil, err
	}
	return commands, nil
}

func (c *Client) Get(ctx context.Context, id int64) (model.Command, error) {
	var cmd model.Command
	err := c.do(ctx, http.MethodGet, commandPath(id), nil, &cmd)
	return cmd, err
}

func (c *Client) Create(ctx context.Context, cmd model.Command) (model.Command, error) {
	var created model.Command
	err := c.do(ctx, http.MethodPost, "/api/commands", cmd, &created)
	return created, err
}

func (c *Client) Update(ctx context.Context, cmd model.Command) error {
	return c.do(ctx, http.MethodPut, commandPath(cmd.ID), cmd, nil)
}

func (c *Client) Delete(ctx context.Context, id int64) (model.Command, error) {
	var deleted model.Command
	err := c.do(ctx, http.MethodDelete, commandPath(id), nil, &deleted)
	return deleted, err
}

func commandPath(id int64) string {
	return "/api/commands/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, errorMessage(resp.Body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Code: resp.StatusCode, Body: errorMessage(resp.Body)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage pulls the "error" field out of a failure body, or returns the
// raw text when it is not JSON.
func errorMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(b))
}
