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

package models

import (
	"github.com/framolux/framolux-core/pkg/animfile"
	"github.com/framolux/framolux-core/pkg/database/knowndb"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/playback"
	"github.com/framolux/framolux-core/pkg/serialcmd"
)

type VersionResponse struct {
	Version    string `json:"version"`
	InstanceID string `json:"instanceId"`
}

type SettingsResponse struct {
	Subnet         string `json:"subnet"`
	SerialPort     string `json:"serialPort"`
	APIListen      string `json:"apiListen"`
	MatrixSize     int    `json:"matrixSize"`
	PreviewFPS     int    `json:"previewFps"`
	DebugLogging   bool   `json:"debugLogging"`
	ErrorReporting bool   `json:"errorReporting"`
	HasAPIKey      bool   `json:"hasApiKey"`
}

type DevicesResponse struct {
	Selected *devices.Device  `json:"selected,omitempty"`
	Devices  []devices.Device `json:"devices"`
	Scanning bool             `json:"scanning"`
}

type KnownDevicesResponse struct {
	Devices []knowndb.KnownDevice `json:"devices"`
}

type ScanResponse struct {
	Subnet  string           `json:"subnet"`
	Devices []devices.Device `json:"devices"`
}

type PowerResponse struct {
	IP      string `json:"ip"`
	Powered bool   `json:"powered"`
}

type ProgressResponse struct {
	Percent   int  `json:"percent"`
	Uploading bool `json:"uploading"`
}

type BlobResponse struct {
	Data string `json:"data"`
	Size int    `json:"size"`
}

type PlaybackResponse struct {
	Frame *matrix.Frame `json:"frame,omitempty"`
	playback.Snapshot
}

type ClipboardResponse struct {
	Pixels     matrix.Grid `json:"pixels,omitempty"`
	HasContent bool        `json:"hasContent"`
}

type QuantizeResponse struct {
	Description string              `json:"description"`
	Pixels      matrix.Grid         `json:"pixels"`
	Colors      []matrix.ColorShare `json:"colors"`
}

type RenderResponse struct {
	Data string `json:"data"`
}

type AnimationsResponse struct {
	Animations []animfile.Entry `json:"animations"`
}

type SavedResponse struct {
	Path string `json:"path"`
}

type SerialPortsResponse struct {
	Ports []serialcmd.PortInfo `json:"ports"`
}

type SerialReplyResponse struct {
	Port  string `json:"port"`
	Reply string `json:"reply,omitempty"`
}

type SerialIdentifyResponse struct {
	Port string `json:"port"`
	serialcmd.FirmwareInfo
}
