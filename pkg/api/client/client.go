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

// Package client talks to a running bridge over its WebSocket API. The CLI
// uses it to drive the service instead of opening devices itself.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrRequestTimeout   = errors.New("request timed out")
	ErrInvalidParams    = errors.New("invalid params")
	ErrRequestCancelled = errors.New("request cancelled")
)

const (
	APIPath      = "/api"
	probeTimeout = 2 * time.Second
)

type response struct {
	Error   *models.ErrorObject `json:"error,omitempty"`
	JSONRPC string              `json:"jsonrpc"`
	ID      models.RPCID        `json:"id"`
	Result  json.RawMessage     `json:"result"`
}

// RPCError is an error reply from the bridge.
type RPCError struct {
	Message string
	Code    int
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// LocalURL is the WebSocket address of the bridge on this machine.
func LocalURL(cfg *config.Instance) string {
	u := url.URL{
		Scheme: "ws",
		Host:   "localhost:" + strconv.Itoa(cfg.APIPort()),
		Path:   APIPath,
	}
	return u.String()
}

// LocalClient sends one method to the local bridge and returns the raw
// result. params must be empty or valid JSON.
func LocalClient(ctx context.Context, cfg *config.Instance, method, params string) (string, error) {
	return Call(ctx, LocalURL(cfg), config.APIRequestTimeout, method, params)
}

// Call sends one method to the bridge at wsURL and waits up to timeout for
// the reply with the same id. Notifications in between are ignored.
func Call(ctx context.Context, wsURL string, timeout time.Duration, method, params string) (string, error) {
	idText, err := json.Marshal(uuid.New().String())
	if err != nil {
		return "", fmt.Errorf("failed to create request id: %w", err)
	}
	req := models.RequestObject{
		JSONRPC: "2.0",
		ID:      models.RPCID{RawMessage: idText},
		Method:  method,
	}
	if params != "" {
		if !json.Valid([]byte(params)) {
			return "", ErrInvalidParams
		}
		req.Params = json.RawMessage(params)
	}

	c, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect to bridge: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer closeConn(c)

	if err := c.WriteJSON(req); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}

	replies := make(chan response, 1)
	go func() {
		defer close(replies)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var m response
			if err := json.Unmarshal(msg, &m); err != nil || m.JSONRPC != "2.0" {
				continue
			}
			if string(m.ID.RawMessage) == string(idText) {
				replies <- m
				return
			}
		}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m, ok := <-replies:
		if !ok {
			return "", ErrRequestTimeout
		}
		if m.Error != nil {
			return "", &RPCError{Message: m.Error.Message, Code: m.Error.Code}
		}
		return string(m.Result), nil
	case <-timer.C:
		return "", ErrRequestTimeout
	case <-ctx.Done():
		return "", ErrRequestCancelled
	}
}

// WaitNotification blocks until the bridge pushes method and returns its
// params. A zero timeout waits until ctx is done.
func WaitNotification(
	ctx context.Context,
	timeout time.Duration,
	cfg *config.Instance,
	method string,
) (string, error) {
	return waitNotification(ctx, LocalURL(cfg), timeout, method)
}

func waitNotification(ctx context.Context, wsURL string, timeout time.Duration, method string) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect to bridge: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer closeConn(c)

	found := make(chan string, 1)
	go func() {
		defer close(found)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var n models.NotificationObject
			if err := json.Unmarshal(msg, &n); err != nil {
				continue
			}
			if n.Method == method {
				found <- string(n.Params)
				return
			}
		}
	}()

	select {
	case params, ok := <-found:
		if !ok {
			return "", errors.New("connection closed")
		}
		return params, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrRequestTimeout
		}
		return "", ErrRequestCancelled
	}
}

// IsRunning reports whether a bridge answers on the local API port.
func IsRunning(cfg *config.Instance) bool {
	_, err := Call(context.Background(), LocalURL(cfg), probeTimeout, models.MethodVersion, "")
	return err == nil
}

func closeConn(c *websocket.Conn) {
	if err := c.Close(); err != nil {
		log.Debug().Err(err).Msg("error closing websocket")
	}
}
