/*
Framolux Core
Copyright (C) 2025 The Framolux Authors

This file is part of Framolux Core.

Framolux Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Framolux Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Framolux Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package devices

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/framolux/framolux-core/pkg/shared/httpclient"
	"github.com/rs/zerolog/log"
)

const (
	// ProbeTimeout bounds a single discovery probe.
	ProbeTimeout = 1500 * time.Millisecond
	// ConnectTimeout bounds the firmware check on manual connect.
	ConnectTimeout = 3 * time.Second

	maxResponseBody = 1 << 20
)

var ErrHTTPStatus = errors.New("unexpected HTTP status")

// Client speaks the firmware's HTTP API. Hosts are "ip" or "ip:port".
type Client struct {
	http *httpclient.Client
}

func NewClient(hc *httpclient.Client) *Client {
	if hc == nil {
		hc = httpclient.NewClient()
	}
	return &Client{http: hc}
}

func deviceURL(host, path string) string {
	return "http://" + host + path
}

func (c *Client) do(
	ctx context.Context,
	method, host, path, contentType string,
	body io.Reader,
	out any,
) error {
	req, err := newRequest(ctx, method, host, path, contentType, body)
	if err != nil {
		return err
	}
	return c.send(req, out)
}

func newRequest(
	ctx context.Context,
	method, host, path, contentType string,
	body io.Reader,
) (*http.Request, error) {
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, deviceURL(host, path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	method, path := req.Method, req.URL.Path
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", req.URL.Host, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("error closing response body")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s returned %d: %s",
			ErrHTTPStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, host, path string, out any) error {
	return c.do(ctx, http.MethodGet, host, path, "", nil, out)
}

// Info fetches the identity payload used by discovery.
func (c *Client) Info(ctx context.Context, host string) (Info, error) {
	var info Info
	err := c.getJSON(ctx, host, "/api/info", &info)
	return info, err
}

// FirmwareInfo fetches the identity payload used by manual connect.
func (c *Client) FirmwareInfo(ctx context.Context, host string) (Info, error) {
	var info Info
	err := c.getJSON(ctx, host, "/info", &info)
	return info, err
}

func (c *Client) Status(ctx context.Context, host string) (StatusResponse, error) {
	var status StatusResponse
	err := c.getJSON(ctx, host, "/status", &status)
	return status, err
}

// UploadFrames POSTs an encoded animation blob. progress, if set, receives
// the share of the body sent so far.
func (c *Client) UploadFrames(
	ctx context.Context,
	host string,
	blob []byte,
	progress func(percent int),
) (UploadResponse, error) {
	size := int64(len(blob))
	newBody := func() io.Reader {
		var body io.Reader = bytes.NewReader(blob)
		if progress != nil {
			body = httpclient.NewProgressReader(body, size, progress)
		}
		return body
	}

	var resp UploadResponse
	req, err := newRequest(ctx, http.MethodPost, host, "/frames", "application/octet-stream", newBody())
	if err != nil {
		return resp, err
	}
	// device firmware sizes the body from Content-Length and rejects
	// chunked uploads
	req.ContentLength = size
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(newBody()), nil
	}
	if size == 0 {
		req.Body = http.NoBody
	}
	err = c.send(req, &resp)
	return resp, err
}

// Frames lists what the device currently stores.
func (c *Client) Frames(ctx context.Context, host string) (FramesResponse, error) {
	var resp FramesResponse
	err := c.getJSON(ctx, host, "/frames", &resp)
	return resp, err
}

func (c *Client) ClearFrames(ctx context.Context, host string) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodDelete, host, "/frames", "", nil, &resp)
	return resp, err
}

// Rename sets the name the device reports about itself.
func (c *Client) Rename(ctx context.Context, host, name string) (ConfigResponse, error) {
	payload, err := json.Marshal(ConfigRequest{DeviceName: name})
	if err != nil {
		return ConfigResponse{}, fmt.Errorf("failed to marshal config: %w", err)
	}

	var resp ConfigResponse
	err = c.do(ctx, http.MethodPut, host, "/config", "application/json", bytes.NewReader(payload), &resp)
	return resp, err
}

func (c *Client) power(ctx context.Context, host, path string, fallback bool) (bool, error) {
	var resp PowerResponse
	if err := c.do(ctx, http.MethodPost, host, path, "application/json", nil, &resp); err != nil {
		return false, err
	}
	if resp.Powered == nil {
		return fallback, nil
	}
	return *resp.Powered, nil
}

// PowerOn switches the LEDs on and returns the reported power state.
func (c *Client) PowerOn(ctx context.Context, host string) (bool, error) {
	return c.power(ctx, host, "/power/on", true)
}

// PowerOff switches the LEDs off and returns the reported power state.
func (c *Client) PowerOff(ctx context.Context, host string) (bool, error) {
	return c.power(ctx, host, "/power/off", false)
}

func (c *Client) PowerStatus(ctx context.Context, host string) (bool, error) {
	var resp PowerResponse
	if err := c.getJSON(ctx, host, "/power/status", &resp); err != nil {
		return false, err
	}
	return resp.Powered != nil && *resp.Powered, nil
}
