package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wardenhq/warden/internal/api"
	"github.com/wardenhq/warden/internal/constants"
)

// Client is an HTTP client for the warden API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: constants.DefaultRequestTimeout,
		},
	}
}

// ConsoleURL returns the websocket console endpoint for this API
func (c *Client) ConsoleURL() string {
	wsBase := c.baseURL
	switch {
	case strings.HasPrefix(wsBase, "https://"):
		wsBase = "wss://" + strings.TrimPrefix(wsBase, "https://")
	case strings.HasPrefix(wsBase, "http://"):
		wsBase = "ws://" + strings.TrimPrefix(wsBase, "http://")
	}
	return wsBase + "/console"
}

// GetStatus gets the managed server's status
func (c *Client) GetStatus() (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.get("/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start starts the game server, optionally overriding the launch path
func (c *Client) Start(path string) error {
	var body io.Reader
	if path != "" {
		data, err := json.Marshal(api.StartRequest{Path: path})
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	var resp api.SuccessResponse
	return c.post("/start", body, &resp)
}

// Stop stops the game server
func (c *Client) Stop() error {
	var resp api.SuccessResponse
	return c.post("/stop", nil, &resp)
}

// Shutdown shuts down the whole warden daemon
func (c *Client) Shutdown() error {
	var resp api.SuccessResponse
	return c.post("/shutdown", nil, &resp)
}

func (c *Client) get(path string, v interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) post(path string, body io.Reader, v interface{}) error {
	req, err := http.NewRequest("POST", c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%s: %s", errResp.Code, errResp.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
