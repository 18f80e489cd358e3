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

// Package serialcmd is the USB serial side channel to a panel controller:
// provisioning WiFi, naming and API keys with line-oriented text commands,
// and streaming a matrix for live preview.
package serialcmd

import "time"

// Commands understood by the firmware. Arguments are colon separated.
const (
	CmdSetWiFi      = "SET_WIFI"   // SET_WIFI:<ssid>:<password>:
	CmdSetName      = "SET_NAME"   // SET_NAME:<name>
	CmdGetStatus    = "GET_STATUS" // GET_STATUS
	CmdSetAPIKey    = "SET_APIKEY" // SET_APIKEY:<key>
	CmdGetAPIKey    = "GET_APIKEY"
	CmdDeleteAPIKey = "DELETE_APIKEY"
)

const (
	BaudRate          = 115200
	CommandTerminator = "\n"
	// ReadPoll is the serial read timeout; reads loop on it until a line
	// completes or the caller's context ends.
	ReadPoll = 100 * time.Millisecond
	// ResponseTimeout bounds waiting for a reply to a command.
	ResponseTimeout = 3 * time.Second

	// FirmwareBanner is printed by compatible firmware at boot.
	FirmwareBanner = "FRAMOLUX FIRMWARE"
)

// Adapter is a USB-to-serial bridge commonly found on ESP8266 boards.
type Adapter struct {
	Name string
	VID  string
	PID  string
}

// KnownAdapters are matched against enumerated ports to pick likely panels.
var KnownAdapters = []Adapter{
	{Name: "Silicon Labs CP210x", VID: "10c4", PID: "ea60"},
	{Name: "CH340", VID: "1a86", PID: "7523"},
	{Name: "FTDI FT232", VID: "0403", PID: "6001"},
}
