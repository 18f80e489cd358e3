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

package serialcmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotOpen         = errors.New("serial port not open")
	ErrInvalidArgument = errors.New("invalid command argument")
	ErrNoResponse      = errors.New("no response from device")
	ErrNoPort          = errors.New("no compatible serial port found")
)

var versionPattern = regexp.MustCompile(`Version:\s*(\S+)`)

// Conn is an open command channel to one controller.
type Conn struct {
	port    Port
	path    string
	pending []byte
	mu      syncutil.Mutex
}

// Open opens path with the default 115200 8N1 mode.
func Open(path string, factory PortFactory) (*Conn, error) {
	if factory == nil {
		factory = DefaultPortFactory
	}
	port, err := factory(path, DefaultMode())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(ReadPoll); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}
	log.Info().Str("port", path).Msg("serial connection opened")
	return &Conn{port: port, path: path}, nil
}

func (c *Conn) Path() string {
	return c.path
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

func (c *Conn) writeLine(line string) error {
	if c.port == nil {
		return ErrNotOpen
	}
	if _, err := c.port.Write([]byte(line + CommandTerminator)); err != nil {
		return fmt.Errorf("failed to write to port: %w", err)
	}
	return nil
}

// readLine reads until a non-empty line arrives or ctx ends.
func (c *Conn) readLine(ctx context.Context) (string, error) {
	if c.port == nil {
		return "", ErrNotOpen
	}

	buf := make([]byte, 256)
	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			line := strings.TrimSpace(string(c.pending[:i]))
			c.pending = c.pending[i+1:]
			if line == "" {
				continue
			}
			return line, nil
		}

		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrNoResponse, err)
		}

		n, err := c.port.Read(buf)
		if err != nil {
			return "", fmt.Errorf("failed to read from port: %w", err)
		}
		c.pending = append(c.pending, buf[:n]...)
	}
}

// Send writes one raw command line without waiting for a reply.
func (c *Conn) Send(command string) error {
	if strings.ContainsAny(command, "\r\n") {
		return fmt.Errorf("%w: command contains a line break", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debug().Str("command", redact(command)).Msg("serial: sent command")
	return c.writeLine(command)
}

// Command writes a command and returns the first non-empty reply line.
func (c *Conn) Command(ctx context.Context, command string) (string, error) {
	if strings.ContainsAny(command, "\r\n") {
		return "", fmt.Errorf("%w: command contains a line break", ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, ResponseTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = nil
	if err := c.writeLine(command); err != nil {
		return "", err
	}
	log.Debug().Str("command", redact(command)).Msg("serial: sent command")

	reply, err := c.readLine(ctx)
	if err != nil {
		return "", err
	}
	log.Debug().Str("reply", reply).Msg("serial: received reply")
	return reply, nil
}

// redact hides secrets from log output.
func redact(command string) string {
	switch {
	case strings.HasPrefix(command, CmdSetWiFi+":"):
		parts := strings.SplitN(command, ":", 3)
		if len(parts) >= 2 {
			return CmdSetWiFi + ":" + parts[1] + ":***:"
		}
	case strings.HasPrefix(command, CmdSetAPIKey+":"):
		return CmdSetAPIKey + ":***"
	}
	return command
}

func checkArg(name, v string) error {
	if v == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidArgument, name)
	}
	if strings.ContainsAny(v, "\r\n") {
		return fmt.Errorf("%w: %s contains a line break", ErrInvalidArgument, name)
	}
	return nil
}

// SetWiFi stores network credentials on the device. The SSID can't contain
// the ':' separator; the password is the final field so it may.
func (c *Conn) SetWiFi(ctx context.Context, ssid, password string) (string, error) {
	if err := checkArg("ssid", ssid); err != nil {
		return "", err
	}
	if strings.Contains(ssid, ":") {
		return "", fmt.Errorf("%w: ssid contains ':'", ErrInvalidArgument)
	}
	if strings.ContainsAny(password, "\r\n") {
		return "", fmt.Errorf("%w: password contains a line break", ErrInvalidArgument)
	}
	return c.Command(ctx, fmt.Sprintf("%s:%s:%s:", CmdSetWiFi, ssid, password))
}

func (c *Conn) SetName(ctx context.Context, name string) (string, error) {
	if err := checkArg("name", name); err != nil {
		return "", err
	}
	return c.Command(ctx, CmdSetName+":"+name)
}

func (c *Conn) GetStatus(ctx context.Context) (string, error) {
	return c.Command(ctx, CmdGetStatus)
}

func (c *Conn) SetAPIKey(ctx context.Context, key string) (string, error) {
	if err := checkArg("key", key); err != nil {
		return "", err
	}
	return c.Command(ctx, CmdSetAPIKey+":"+key)
}

func (c *Conn) GetAPIKey(ctx context.Context) (string, error) {
	return c.Command(ctx, CmdGetAPIKey)
}

func (c *Conn) DeleteAPIKey(ctx context.Context) (string, error) {
	return c.Command(ctx, CmdDeleteAPIKey)
}

// matrixMessage is the JSON line used for live serial preview.
type matrixMessage struct {
	Type   string     `json:"type"`
	Pixels [][3]uint8 `json:"pixels"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

// SendMatrix streams a grid as one JSON line of RGB triples, row-major.
func (c *Conn) SendMatrix(g matrix.Grid) error {
	msg := matrixMessage{
		Type:   "matrix",
		Width:  g.Width(),
		Height: len(g),
		Pixels: make([][3]uint8, 0, g.Width()*len(g)),
	}
	for _, row := range g {
		for _, hex := range row {
			col := matrix.ParseColor(hex)
			msg.Pixels = append(msg.Pixels, [3]uint8{col.R, col.G, col.B})
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal matrix: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLine(string(data))
}

// FirmwareInfo is what the boot banner says about the firmware.
type FirmwareInfo struct {
	Version  string `json:"version,omitempty"`
	Detected bool   `json:"detected"`
}

// Identify watches serial output for the firmware boot banner until ctx
// ends. Boards usually print it right after the port opens and resets them.
func (c *Conn) Identify(ctx context.Context) (FirmwareInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var info FirmwareInfo
	deadline := time.Now().Add(ResponseTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for {
		line, err := c.readLine(ctx)
		if err != nil {
			if info.Detected {
				return info, nil
			}
			return info, err
		}
		log.Debug().Str("line", line).Msg("serial output")

		if strings.Contains(line, FirmwareBanner) {
			info.Detected = true
		}
		if m := versionPattern.FindStringSubmatch(line); m != nil {
			info.Version = m[1]
		}
		if info.Detected && info.Version != "" {
			return info, nil
		}
	}
}
