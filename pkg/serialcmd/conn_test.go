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
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

func openMock(t *testing.T, port *mocks.MockSerialPort) *Conn {
	t.Helper()
	var gotMode *serial.Mode
	conn, err := Open("/dev/ttyUSB0", func(path string, mode *serial.Mode) (Port, error) {
		assert.Equal(t, "/dev/ttyUSB0", path)
		gotMode = mode
		return port, nil
	})
	require.NoError(t, err)
	require.NotNil(t, gotMode)
	assert.Equal(t, BaudRate, gotMode.BaudRate)
	assert.Equal(t, 8, gotMode.DataBits)
	assert.Equal(t, serial.NoParity, gotMode.Parity)
	assert.Equal(t, serial.OneStopBit, gotMode.StopBits)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	openErr := errors.New("busy")
	_, err := Open("/dev/x", func(string, *serial.Mode) (Port, error) {
		return nil, openErr
	})
	require.ErrorIs(t, err, openErr)

	port := mocks.NewMockSerialPort()
	port.TimeoutErr = errors.New("unsupported")
	_, err = Open("/dev/x", func(string, *serial.Mode) (Port, error) {
		return port, nil
	})
	require.Error(t, err)
	assert.True(t, port.IsClosed())
}

func TestCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		run  func(ctx context.Context, c *Conn) (string, error)
		name string
		want string
	}{
		{
			name: "set wifi",
			run: func(ctx context.Context, c *Conn) (string, error) {
				return c.SetWiFi(ctx, "home", "pa:ss")
			},
			want: "SET_WIFI:home:pa:ss:",
		},
		{
			name: "set name",
			run: func(ctx context.Context, c *Conn) (string, error) {
				return c.SetName(ctx, "Kitchen")
			},
			want: "SET_NAME:Kitchen",
		},
		{
			name: "get status",
			run:  func(ctx context.Context, c *Conn) (string, error) { return c.GetStatus(ctx) },
			want: "GET_STATUS",
		},
		{
			name: "set api key",
			run: func(ctx context.Context, c *Conn) (string, error) {
				return c.SetAPIKey(ctx, "secret")
			},
			want: "SET_APIKEY:secret",
		},
		{
			name: "get api key",
			run:  func(ctx context.Context, c *Conn) (string, error) { return c.GetAPIKey(ctx) },
			want: "GET_APIKEY",
		},
		{
			name: "delete api key",
			run:  func(ctx context.Context, c *Conn) (string, error) { return c.DeleteAPIKey(ctx) },
			want: "DELETE_APIKEY",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			port := mocks.NewMockSerialPort()
			port.Respond = func(line string) string { return "OK " + line }
			conn := openMock(t, port)

			reply, err := tt.run(context.Background(), conn)
			require.NoError(t, err)
			assert.Equal(t, "OK "+tt.want, reply)
			assert.Equal(t, []string{tt.want}, port.Written())
		})
	}
}

func TestCommandArgumentValidation(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	conn := openMock(t, port)
	ctx := context.Background()

	_, err := conn.SetWiFi(ctx, "", "x")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = conn.SetWiFi(ctx, "a:b", "x")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = conn.SetWiFi(ctx, "ok", "line\nbreak")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = conn.SetName(ctx, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = conn.SetAPIKey(ctx, "a\r")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorIs(t, conn.Send("x\ny"), ErrInvalidArgument)

	assert.Empty(t, port.Written())
}

func TestCommandSkipsBlankLines(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	port.Respond = func(string) string { return "\r\n\r\nSTATUS: connected" }
	conn := openMock(t, port)

	reply, err := conn.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "STATUS: connected", reply)
}

func TestCommandNoResponse(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	conn := openMock(t, port)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := conn.GetStatus(ctx)
	require.ErrorIs(t, err, ErrNoResponse)
}

func TestCommandDiscardsStaleOutput(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	port.Respond = func(string) string { return "fresh" }
	conn := openMock(t, port)

	// leftovers from a previous exchange are dropped before a new command
	conn.pending = []byte("stale\n")
	reply, err := conn.GetAPIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", reply)
}

func TestClosedConn(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	conn := openMock(t, port)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.True(t, port.IsClosed())

	require.ErrorIs(t, conn.Send("GET_STATUS"), ErrNotOpen)
	_, err := conn.GetStatus(context.Background())
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestSendMatrix(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	conn := openMock(t, port)

	g := matrix.Grid{
		{"#FF0000", "#00FF00"},
		{"#0000FF", ""},
	}
	require.NoError(t, conn.SendMatrix(g))

	written := port.Written()
	require.Len(t, written, 1)

	var msg struct {
		Type   string     `json:"type"`
		Pixels [][3]uint8 `json:"pixels"`
		Width  int        `json:"width"`
		Height int        `json:"height"`
	}
	require.NoError(t, json.Unmarshal([]byte(written[0]), &msg))
	assert.Equal(t, "matrix", msg.Type)
	assert.Equal(t, 2, msg.Width)
	assert.Equal(t, 2, msg.Height)
	assert.Equal(t, [][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {0, 0, 0}}, msg.Pixels)
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	port.Feed("boot...\r\n=== FRAMOLUX FIRMWARE ===\r\nVersion: 1.4.2\r\n")
	conn := openMock(t, port)

	info, err := conn.Identify(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Detected)
	assert.Equal(t, "1.4.2", info.Version)
}

func TestIdentifyWithoutVersion(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	port.Feed("FRAMOLUX FIRMWARE\n")
	conn := openMock(t, port)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	info, err := conn.Identify(ctx)
	require.NoError(t, err)
	assert.True(t, info.Detected)
	assert.Empty(t, info.Version)
}

func TestIdentifyOtherFirmware(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	port.Feed("ets Jan  8 2013,rst cause:2\n")
	conn := openMock(t, port)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	info, err := conn.Identify(ctx)
	require.ErrorIs(t, err, ErrNoResponse)
	assert.False(t, info.Detected)
}

func TestRedact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "SET_WIFI:home:***:", redact("SET_WIFI:home:hunter2:"))
	assert.Equal(t, "SET_APIKEY:***", redact("SET_APIKEY:abc"))
	assert.Equal(t, "GET_STATUS", redact("GET_STATUS"))
}

func TestPortInfos(t *testing.T) {
	t.Parallel()

	ports := portInfos([]*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10C4", PID: "EA60", SerialNumber: "0001"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043"},
	})

	require.Len(t, ports, 4)
	assert.Equal(t, "/dev/ttyUSB0", ports[0].Name)
	assert.Equal(t, "Silicon Labs CP210x", ports[0].Adapter)
	assert.Equal(t, "10c4", ports[0].VID)
	assert.Equal(t, "/dev/ttyUSB1", ports[1].Name)
	assert.Equal(t, "FTDI FT232", ports[1].Adapter)
	assert.False(t, ports[2].Known())
	assert.Equal(t, "/dev/ttyACM0", ports[2].Name)
	assert.Equal(t, "/dev/ttyS0", ports[3].Name)
}

func TestMatchAdapter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CH340", MatchAdapter("1A86", "7523"))
	assert.Empty(t, MatchAdapter("1a86", "0000"))
}

func TestFindPort(t *testing.T) {
	t.Parallel()

	name, err := FindPort("/dev/ttyUSB3")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB3", name)

	name, err = pickPort([]PortInfo{
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB0", Adapter: "CP210x", USB: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", name)

	_, err = pickPort([]PortInfo{{Name: "/dev/ttyS0"}})
	require.ErrorIs(t, err, ErrNoPort)
}
