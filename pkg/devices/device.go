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

// Package devices models panel controllers on the LAN: their identity, the
// shared registry of known devices and the HTTP client for their firmware.
package devices

import (
	"strings"
	"time"
)

const (
	// FirmwareName is what compatible firmware reports in its info payload.
	FirmwareName = "framolux"
	// DeviceIDPrefix identifies compatible devices that omit the firmware name.
	DeviceIDPrefix = "FLX"
	// UnnamedDevice is shown for devices that report no name.
	UnnamedDevice = "Unnamed"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Device is a discovered or manually connected panel controller.
type Device struct {
	LastSeen   time.Time `json:"lastSeen"`
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	CustomName string    `json:"customName,omitempty"`
	IP         string    `json:"ip"`
	MAC        string    `json:"mac"`
	SSID       string    `json:"ssid"`
	Firmware   string    `json:"firmware,omitempty"`
	Version    string    `json:"version,omitempty"`
	Status     Status    `json:"status"`
	RSSI       int       `json:"rssi"`
	FrameCount int       `json:"frameCount"`
	IsFramolux bool      `json:"isFramolux"`
}

// Online reports whether the device was last seen as reachable.
func (d *Device) Online() bool {
	return d != nil && d.Status == StatusOnline
}

// DisplayName prefers the user's custom name.
func (d *Device) DisplayName() string {
	if d.CustomName != "" {
		return d.CustomName
	}
	if d.DeviceName != "" {
		return d.DeviceName
	}
	return UnnamedDevice
}

// Info is the identity payload served at /api/info and /info.
type Info struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	Firmware   string `json:"firmware"`
	Version    string `json:"version"`
	SSID       string `json:"ssid"`
	MAC        string `json:"mac"`
	RSSI       int    `json:"rssi"`
	FrameCount int    `json:"frameCount"`
}

// Compatible reports whether the host runs panel firmware, either by name or
// by device id prefix.
func (i Info) Compatible() bool {
	return i.Firmware == FirmwareName || strings.HasPrefix(i.DeviceID, DeviceIDPrefix)
}

// Device converts the info payload into an online device at ip.
func (i Info) Device(ip string, seen time.Time) Device {
	name := i.DeviceName
	if name == "" {
		name = UnnamedDevice
	}
	return Device{
		DeviceID:   i.DeviceID,
		DeviceName: name,
		IP:         ip,
		MAC:        i.MAC,
		SSID:       i.SSID,
		Firmware:   i.Firmware,
		Version:    i.Version,
		RSSI:       i.RSSI,
		FrameCount: i.FrameCount,
		Status:     StatusOnline,
		IsFramolux: i.Firmware == FirmwareName,
		LastSeen:   seen,
	}
}

// StatusResponse is served at /status.
type StatusResponse struct {
	Status     string `json:"status"`
	DeviceID   string `json:"deviceId"`
	FrameCount int    `json:"frameCount"`
	FreeHeap   int    `json:"freeHeap"`
	Uptime     int64  `json:"uptime"`
}

// UploadResponse is returned by POST /frames.
type UploadResponse struct {
	Message    string `json:"message"`
	FrameCount *int   `json:"frameCount,omitempty"`
	Success    bool   `json:"success"`
}

// MessageResponse is returned by DELETE /frames.
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// ConfigRequest is the body of PUT /config.
type ConfigRequest struct {
	DeviceName string `json:"deviceName"`
}

// ConfigResponse is returned by PUT /config.
type ConfigResponse struct {
	DeviceName string `json:"deviceName"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// PowerResponse is returned by the /power endpoints.
type PowerResponse struct {
	Powered *bool `json:"powered,omitempty"`
}

// StoredFrame is one frame as listed by GET /frames.
type StoredFrame struct {
	LEDs     []string `json:"leds"`
	Duration uint32   `json:"duration"`
}

// FramesResponse is returned by GET /frames.
type FramesResponse struct {
	Frames      []StoredFrame `json:"frames"`
	TotalFrames int           `json:"totalFrames"`
}
