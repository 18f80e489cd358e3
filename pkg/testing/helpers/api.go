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

// Package helpers provides test servers and fixtures for exercising the
// bridge API and device clients without real hardware.
//
// A typical API test builds the handler, starts it with NewHTTPTestHelper
// and talks JSON-RPC to it:
//
//	h := helpers.NewHTTPTestHelper(t, handler)
//	conn := h.DialWebSocket(t)
//	resp, err := helpers.SendJSONRPCRequest(conn, "playback", nil)
//	require.NoError(t, err)
//	helpers.AssertJSONRPCSuccess(t, resp)
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// APIPath is where the bridge serves both WebSocket and POST JSON-RPC.
const APIPath = "/api"

const readTimeout = 5 * time.Second

var nextID atomic.Int64

// JSONRPCRequest is a client request with a numeric id.
type JSONRPCRequest struct {
	Params  any    `json:"params,omitempty"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int64  `json:"id"`
}

// RPCError mirrors the error member of a reply.
type RPCError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// JSONRPCResponse is a decoded reply; Result is left raw so tests can
// unmarshal it into the response type they expect.
type JSONRPCResponse struct {
	Error  *RPCError       `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	ID     json.RawMessage `json:"id"`
}

// DecodeResult unmarshals the result into out.
func (r *JSONRPCResponse) DecodeResult(t *testing.T, out any) {
	t.Helper()
	require.NotNil(t, r.Result, "response should contain a result")
	require.NoError(t, json.Unmarshal(r.Result, out))
}

func newRequest(method string, params any) JSONRPCRequest {
	return JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      nextID.Add(1),
		Method:  method,
		Params:  params,
	}
}

// HTTPTestHelper runs a handler on a loopback test server.
type HTTPTestHelper struct {
	Server *httptest.Server
	Client *http.Client
}

// NewHTTPTestHelper starts handler and closes it when the test ends.
func NewHTTPTestHelper(t *testing.T, handler http.Handler) *HTTPTestHelper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &HTTPTestHelper{
		Server: server,
		Client: server.Client(),
	}
}

// DialWebSocket opens a socket to the API path, closed when the test ends.
func (h *HTTPTestHelper) DialWebSocket(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(h.Server.URL, "http") + APIPath
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// PostJSONRPC sends a single request via HTTP POST.
func (h *HTTPTestHelper) PostJSONRPC(method string, params any) (*http.Response, error) {
	data, err := json.Marshal(newRequest(method, params))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return h.PostRaw(data, "application/json")
}

// PostRaw sends body as is, for malformed request tests.
func (h *HTTPTestHelper) PostRaw(body []byte, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(
		context.Background(),
		http.MethodPost,
		h.Server.URL+APIPath,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send POST request: %w", err)
	}
	return resp, nil
}

// DecodeResponse reads a JSON-RPC reply from an HTTP response body.
func DecodeResponse(t *testing.T, resp *http.Response) *JSONRPCResponse {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out
}

// SendJSONRPCRequest writes a request and returns the first reply with the
// same id. Notifications arriving in between are skipped.
func SendJSONRPCRequest(conn *websocket.Conn, method string, params any) (*JSONRPCResponse, error) {
	req := newRequest(method, params)
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	want := fmt.Sprint(req.ID)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		var resp JSONRPCResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		if string(resp.ID) == want {
			return &resp, nil
		}
	}
}

// ReadNotification waits for the next server notification with the given
// method and returns its params.
func ReadNotification(conn *websocket.Conn, method string) (json.RawMessage, error) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return nil, fmt.Errorf("failed to set deadline: %w", err)
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read notification: %w", err)
		}
		var notif struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.Unmarshal(msg, &notif); err != nil {
			continue
		}
		if notif.ID == nil && notif.Method == method {
			return notif.Params, nil
		}
	}
}

func AssertJSONRPCSuccess(t *testing.T, response *JSONRPCResponse) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.Nil(t, response.Error, "response should not contain an error")
}

func AssertJSONRPCError(t *testing.T, response *JSONRPCResponse, expectedCode int) {
	t.Helper()
	require.NotNil(t, response, "response should not be nil")
	require.NotNil(t, response.Error, "response should contain an error")
	require.Equal(t, expectedCode, response.Error.Code, "error code should match")
}
