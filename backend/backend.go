package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"raceserver/logging"
)

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// Client talks to the server-list backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a new Client with the specified base URL.
func NewBackendClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second, // Backend request timeout
		},
	}
}

// Forward sends a request to the backend and returns the response.
func (c *Client) Forward(ctx context.Context, method, path string, headers http.Header, body io.Reader) (*http.Response, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	return c.httpClient.Do(req)
}

// Heartbeat announces the server on the public list.
func (c *Client) Heartbeat(ctx context.Context, hb Heartbeat) error {
	headers := http.Header{}
	headers.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.Forward(ctx, http.MethodPost, "/heartbeat", headers, strings.NewReader(hb.Form().Encode()))
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("heartbeat: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// LatestVersion asks the backend for the newest server release.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	resp, err := c.Forward(ctx, http.MethodGet, "/version", nil, nil)
	if err != nil {
		return "", fmt.Errorf("version check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("version check: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", fmt.Errorf("version check: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}
