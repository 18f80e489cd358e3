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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Port is the part of a serial port the command channel uses.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortFactory opens a port. Tests swap it for an in-memory port.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// DefaultMode is 115200 8N1 without flow control.
func DefaultMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// PortInfo describes an enumerated serial port.
type PortInfo struct {
	Name    string `json:"name"`
	VID     string `json:"vid,omitempty"`
	PID     string `json:"pid,omitempty"`
	Serial  string `json:"serial,omitempty"`
	Adapter string `json:"adapter,omitempty"`
	USB     bool   `json:"usb"`
}

// Known reports whether the port sits behind a recognised USB bridge.
func (p PortInfo) Known() bool {
	return p.Adapter != ""
}

// MatchAdapter returns the adapter name for a VID/PID pair, or "".
func MatchAdapter(vid, pid string) string {
	vid = strings.ToLower(vid)
	pid = strings.ToLower(pid)
	for _, a := range KnownAdapters {
		if a.VID == vid && a.PID == pid {
			return a.Name
		}
	}
	return ""
}

// ListPorts enumerates serial ports, recognised adapters first.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return portInfos(details), nil
}

func portInfos(details []*enumerator.PortDetails) []PortInfo {
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{Name: d.Name, USB: d.IsUSB}
		if d.IsUSB {
			info.VID = strings.ToLower(d.VID)
			info.PID = strings.ToLower(d.PID)
			info.Serial = d.SerialNumber
			info.Adapter = MatchAdapter(d.VID, d.PID)
		}
		ports = append(ports, info)
	}

	sort.SliceStable(ports, func(i, j int) bool {
		if ports[i].Known() != ports[j].Known() {
			return ports[i].Known()
		}
		return ports[i].Name < ports[j].Name
	})
	log.Debug().Int("count", len(ports)).Msg("enumerated serial ports")
	return ports
}

// FindPort returns preferred when set, otherwise the first port behind a
// recognised USB bridge.
func FindPort(preferred string) (string, error) {
	if preferred != "" {
		return preferred, nil
	}
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	return pickPort(ports)
}

func pickPort(ports []PortInfo) (string, error) {
	for _, p := range ports {
		if p.Known() {
			return p.Name, nil
		}
	}
	return "", ErrNoPort
}
