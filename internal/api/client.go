// Package api talks to the vessel backend over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vesselwatch/tracker/pkg/core"
)

// Client handles communication with the vessel backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Healthcheck checks if the backend is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + "/healthcheck")
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// FetchTracked returns the persisted tracked fleet.
func (c *Client) FetchTracked() ([]core.TrackedVesselRecord, error) {
	resp, err := c.get("/api/vessels/tracked", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tracked returned status %d", resp.StatusCode)
	}

	var tracked []core.TrackedVesselRecord
	if err := json.NewDecoder(resp.Body).Decode(&tracked); err != nil {
		return nil, fmt.Errorf("decoding tracked vessels: %w", err)
	}
	return tracked, nil
}

// Track persists a vessel on the backend and returns the stored record with
// its backend-assigned ID and timestamp.
func (c *Client) Track(rec core.VesselRecord) (core.TrackedVesselRecord, error) {
	var stored core.TrackedVesselRecord

	body, err := json.Marshal(rec)
	if err != nil {
		return stored, fmt.Errorf("encoding vessel: %w", err)
	}

	resp, err := c.post("/api/vessels/tracked", body)
	if err != nil {
		return stored, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return stored, fmt.Errorf("track returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		return stored, fmt.Errorf("decoding tracked vessel: %w", err)
	}
	return stored, nil
}

// UntrackByMMSI removes a tracked vessel by its MMSI.
func (c *Client) UntrackByMMSI(mmsi string) error {
	return c.delete("/api/vessels/tracked/" + url.PathEscape(mmsi))
}

// UntrackByID removes a tracked vessel by its backend record ID. Fallback
// for records whose MMSI the backend no longer resolves.
func (c *Client) UntrackByID(id uint) error {
	return c.delete(fmt.Sprintf("/api/vessels/tracked/id/%d", id))
}

// QueryBoundingBox asks the backend for vessels inside the rectangle.
func (c *Client) QueryBoundingBox(b core.ViewportBounds) ([]core.VesselRecord, error) {
	params := url.Values{}
	params.Set("minLat", fmt.Sprintf("%f", b.MinLat))
	params.Set("minLon", fmt.Sprintf("%f", b.MinLon))
	params.Set("maxLat", fmt.Sprintf("%f", b.MaxLat))
	params.Set("maxLon", fmt.Sprintf("%f", b.MaxLon))

	resp, err := c.get("/api/vessels/search", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bounding box query returned status %d", resp.StatusCode)
	}

	var vessels []core.VesselRecord
	if err := json.NewDecoder(resp.Body).Decode(&vessels); err != nil {
		return nil, fmt.Errorf("decoding search results: %w", err)
	}
	return vessels, nil
}

func (c *Client) get(path string, params url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) delete(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
