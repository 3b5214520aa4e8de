package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// apiClient talks to a running signbridge server. Cache and quota state
// live in the serving process, so the cache and limits commands query it
// over HTTP instead of opening anything local.
type apiClient struct {
	addr string
	http *http.Client
}

func newAPIClient(addr string) *apiClient {
	return &apiClient{
		addr: addr,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) get(path string, out any) error {
	return c.do(http.MethodGet, path, out)
}

func (c *apiClient) post(path string, out any) error {
	return c.do(http.MethodPost, path, out)
}

func (c *apiClient) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.addr+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is the server running at %s? %w", c.addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server: %s", apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
