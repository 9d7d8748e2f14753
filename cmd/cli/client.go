package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

// apiError mirrors the server's error body
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

const requestTimeout = 30 * time.Second

var (
	httpClient *resty.Client
	cliLog     = log.NewWithOptions(os.Stderr, log.Options{Prefix: "fanhub"})
)

// newClient builds the HTTP client for baseURL
func newClient(baseURL, token string) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("User-Agent", "Fanhub-CLI/0.1.0")
	if token != "" {
		c.SetAuthToken(token)
	}

	c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		cliLog.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		cliLog.Debug("HTTP Response", "status", resp.StatusCode(), "elapsed", resp.Time())
		return nil
	})
	return c
}

// getClient returns the shared client, built from the root flags on first use
func getClient() *resty.Client {
	if httpClient == nil {
		httpClient = newClient(apiURL, authToken)
	}
	return httpClient
}

// apiRequest calls the API and decodes a 2xx body into out. The raw body is
// returned so callers can print it with --output json.
func apiRequest(method, path string, payload, out interface{}) ([]byte, error) {
	req := getClient().R()
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		var errResp apiError
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return nil, fmt.Errorf("API error (%s): %s", errResp.Code, errResp.Message)
		}
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode())
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return body, nil
}

// printJSON prints body when --output json was requested and reports whether
// it did
func printJSON(body []byte) bool {
	if output != "json" {
		return false
	}
	fmt.Println(string(body))
	return true
}
