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

package mocks

import (
	"errors"
	"strings"
	"time"

	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
)

var ErrPortClosed = errors.New("port closed")

// MockSerialPort is an in-memory serial port. Writes are captured per line
// and Respond, when set, queues the reply the firmware would print.
type MockSerialPort struct {
	ReadError  error
	WriteError error
	CloseError error
	TimeoutErr error
	Respond    func(line string) string
	readData   []byte
	written    []string
	partial    strings.Builder
	closed     bool
	mu         syncutil.Mutex
}

func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// Feed queues bytes for later reads, e.g. a boot banner.
func (m *MockSerialPort) Feed(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readData = append(m.readData, data...)
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrPortClosed
	}
	if m.ReadError != nil {
		err := m.ReadError
		m.mu.Unlock()
		return 0, err
	}
	if len(m.readData) == 0 {
		m.mu.Unlock()
		// read timeout with nothing received
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	}
	n := copy(p, m.readData)
	m.readData = m.readData[n:]
	m.mu.Unlock()
	return n, nil
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}

	for _, b := range p {
		if b != '\n' {
			m.partial.WriteByte(b)
			continue
		}
		line := m.partial.String()
		m.partial.Reset()
		m.written = append(m.written, line)
		if m.Respond != nil {
			if reply := m.Respond(line); reply != "" {
				m.readData = append(m.readData, reply+"\r\n"...)
			}
		}
	}
	return len(p), nil
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(_ time.Duration) error {
	return m.TimeoutErr
}

// Written returns the complete lines written so far.
func (m *MockSerialPort) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}

func (m *MockSerialPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
