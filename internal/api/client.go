package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/camoris/tareas/internal/model"
)

// genericMessage is used when the backend fails without a usable body.
const genericMessage = "API request failed"

// Error is a non-2xx backend response. Message is the server-provided
// {message} field when present, genericMessage otherwise.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Client talks to the task backend. The token source is consulted on
// every request so a fresh login is picked up without rebuilding the
// client. No retries, no client-side timeout: a request that never
// resolves leaves the caller's spinner spinning.
type Client struct {
	base  string
	http  *http.Client
	token func() string
}

// New returns a client for the given base URL. token may be nil.
func New(base string, token func() string) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{base: base, http: &http.Client{}, token: token}
}

// request performs one JSON round trip. out may be nil when the response
// body does not matter (delete).
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	var buf *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		buf = bytes.NewBuffer(b)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		if e.Message == "" {
			e.Message = genericMessage
		}
		return &Error{Status: res.StatusCode, Message: e.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ---------------------------------------------------
// Auth
// ---------------------------------------------------

// Login exchanges credentials for an opaque token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var res struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.request(ctx, http.MethodPost, "/auth/login", body, &res); err != nil {
		return "", err
	}
	return res.Data.Token, nil
}

// ---------------------------------------------------
// Todos
// ---------------------------------------------------

// wire shape: the backend issues numeric ids.
type apiTodo struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (t apiTodo) toModel() model.Todo {
	return model.Todo{
		ID:        strconv.FormatInt(t.ID, 10),
		Title:     t.Title,
		Completed: t.Completed,
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
	}
}

// Draft is the create payload. Position fields are omitted when the
// location read was denied or failed.
type Draft struct {
	Title     string   `json:"title"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Patch is the partial update payload.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func (c *Client) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var res []apiTodo
	if err := c.request(ctx, http.MethodGet, "/todos", nil, &res); err != nil {
		return nil, err
	}
	out := make([]model.Todo, 0, len(res))
	for _, t := range res {
		out = append(out, t.toModel())
	}
	return out, nil
}

func (c *Client) CreateTodo(ctx context.Context, d Draft) (model.Todo, error) {
	var res apiTodo
	if err := c.request(ctx, http.MethodPost, "/todos", d, &res); err != nil {
		return model.Todo{}, err
	}
	return res.toModel(), nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, p Patch) (model.Todo, error) {
	var res apiTodo
	if err := c.request(ctx, http.MethodPatch, "/todos/"+id, p, &res); err != nil {
		return model.Todo{}, err
	}
	return res.toModel(), nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/todos/"+id, nil, nil)
}
