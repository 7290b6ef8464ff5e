package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"frontdesk/pkg/middleware"
	"frontdesk/pkg/model"
)

// Client talks to a running service as one actor.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Actor      model.Actor
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// As returns a copy of c that sends requests on behalf of actor.
func (c *Client) As(actor model.Actor) *Client {
	clone := *c
	clone.Actor = actor
	return &clone
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (c *Client) GET(t *testing.T, path string) *Response {
	t.Helper()
	return c.request(t, http.MethodGet, path, nil)
}

func (c *Client) POST(t *testing.T, path string, body any) *Response {
	t.Helper()
	return c.request(t, http.MethodPost, path, body)
}

func (c *Client) PATCH(t *testing.T, path string, body any) *Response {
	t.Helper()
	return c.request(t, http.MethodPatch, path, body)
}

func (c *Client) DELETE(t *testing.T, path string) *Response {
	t.Helper()
	return c.request(t, http.MethodDelete, path, nil)
}

func (c *Client) request(t *testing.T, method, path string, body any) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Actor.ID != "" {
		req.Header.Set(middleware.ActorIDHeader, c.Actor.ID)
		req.Header.Set(middleware.ActorRoleHeader, c.Actor.Role)
		req.Header.Set(middleware.ActorStatusHeader, c.Actor.Status)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return &Response{Response: resp, Body: respBody}
}

// WaitForHealthy polls the health endpoint until the service answers.
func (c *Client) WaitForHealthy(t *testing.T, maxWait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		<-ticker.C
	}

	t.Fatalf("service did not become healthy within %v", maxWait)
}

func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

func AssertContains(t *testing.T, resp *Response, substr string) {
	t.Helper()
	if !strings.Contains(string(resp.Body), substr) {
		t.Fatalf("response body does not contain %q. Body: %s", substr, string(resp.Body))
	}
}
