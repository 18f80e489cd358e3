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
	"bytes"
	"encoding/json"
	"errors"
)

const (
	NotificationPreviewFrame   = "preview.frame"
	NotificationDevicesChanged = "devices.changed"
	NotificationUploadProgress = "upload.progress"
	NotificationUploadResult   = "upload.result"
	NotificationPlaybackState  = "playback.state"
	NotificationScanStarted    = "devices.scan.started"
	NotificationScanFinished   = "devices.scan.finished"
)

const (
	MethodVersion        = "version"
	MethodSettings       = "settings"
	MethodSettingsUpdate = "settings.update"

	MethodDevices           = "devices"
	MethodDevicesScan       = "devices.scan"
	MethodDevicesConnect    = "devices.connect"
	MethodDevicesSelect     = "devices.select"
	MethodDevicesDeselect   = "devices.deselect"
	MethodDevicesStatus     = "devices.status"
	MethodDevicesCheck      = "devices.check"
	MethodDevicesFrames     = "devices.frames"
	MethodDevicesClear      = "devices.frames.clear"
	MethodDevicesRename     = "devices.rename"
	MethodDevicesPower      = "devices.power"
	MethodDevicesForget     = "devices.forget"
	MethodDevicesAnimation  = "devices.animation"
	MethodDevicesKnown      = "devices.known"
	MethodUploadFrame       = "upload.frame"
	MethodUploadAnimation   = "upload.animation"
	MethodUploadTest        = "upload.test"
	MethodUploadProgress    = "upload.progress"
	MethodCodecEncode       = "codec.encode"
	MethodCodecDecode       = "codec.decode"
	MethodCodecStats        = "codec.stats"
	MethodPlayback          = "playback"
	MethodPlaybackLoad      = "playback.load"
	MethodPlaybackPlay      = "playback.play"
	MethodPlaybackStop      = "playback.stop"
	MethodPlaybackToggle    = "playback.toggle"
	MethodPlaybackGoto      = "playback.goto"
	MethodPlaybackNext      = "playback.next"
	MethodPlaybackPrevious  = "playback.previous"
	MethodPlaybackReset     = "playback.reset"
	MethodPlaybackAdd       = "playback.frames.add"
	MethodPlaybackDelete    = "playback.frames.delete"
	MethodPlaybackReplace   = "playback.frames.replace"
	MethodPlaybackUpload    = "playback.upload"
	MethodClipboard         = "clipboard"
	MethodClipboardCopy     = "clipboard.copy"
	MethodClipboardPaste    = "clipboard.paste"
	MethodClipboardClear    = "clipboard.clear"
	MethodImageQuantize     = "image.quantize"
	MethodImageRender       = "image.render"
	MethodAnimations        = "animations"
	MethodAnimationsLoad    = "animations.load"
	MethodAnimationsSave    = "animations.save"
	MethodAnimationsDelete  = "animations.delete"
	MethodSerialPorts       = "serial.ports"
	MethodSerialIdentify    = "serial.identify"
	MethodSerialCommand     = "serial.command"
	MethodSerialWiFi        = "serial.wifi"
	MethodSerialMatrix      = "serial.matrix"
	MethodSerialDeviceName  = "serial.name"
	MethodSerialAPIKey      = "serial.apikey"
	MethodSerialAPIKeyClear = "serial.apikey.clear"
)

// Notification is queued by services and broadcast to every socket.
type Notification struct {
	Method string
	Params json.RawMessage
}

// RPCID holds a JSON-RPC id exactly as the client sent it so it can be
// echoed back unchanged. Objects and arrays are rejected.
type RPCID struct {
	json.RawMessage
}

var ErrInvalidRPCID = errors.New("JSON-RPC id must be a string, number or null")

var NullRPCID = RPCID{RawMessage: json.RawMessage("null")}

func (id *RPCID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return ErrInvalidRPCID
	}
	id.RawMessage = append(json.RawMessage(nil), trimmed...)
	return nil
}

func (id RPCID) MarshalJSON() ([]byte, error) {
	if len(id.RawMessage) == 0 {
		return []byte("null"), nil
	}
	return id.RawMessage, nil
}

// IsAbsent reports a missing id, which marks a notification.
func (id *RPCID) IsAbsent() bool {
	return id == nil || len(id.RawMessage) == 0
}

func (id *RPCID) String() string {
	if id.IsAbsent() {
		return "null"
	}
	return string(id.RawMessage)
}

// RequestObject is an incoming call. ID is left empty when the member is
// missing and holds "null" when the client sent null.
type RequestObject struct {
	ID      RPCID           `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NotificationObject is a server push; it never carries an id.
type NotificationObject struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type ErrorObject struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type ResponseObject struct {
	Result  any          `json:"result"`
	Error   *ErrorObject `json:"error,omitempty"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}

// ResponseErrorObject omits result so error replies don't carry a null
// result next to the error.
type ResponseErrorObject struct {
	Error   *ErrorObject `json:"error"`
	JSONRPC string       `json:"jsonrpc"`
	ID      RPCID        `json:"id"`
}
