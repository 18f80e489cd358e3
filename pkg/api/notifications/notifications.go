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

package notifications

import (
	"encoding/json"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/playback"
	"github.com/framolux/framolux-core/pkg/upload"
	"github.com/rs/zerolog/log"
)

// PreviewFrame is the payload of preview.frame.
type PreviewFrame struct {
	Pixels   matrix.Grid `json:"pixels"`
	Index    int         `json:"index"`
	Duration uint32      `json:"duration"`
}

type progress struct {
	Percent int `json:"percent"`
}

type devicesChanged struct {
	Devices []devices.Device `json:"devices"`
}

type scanFinished struct {
	Error string `json:"error,omitempty"`
	Found int    `json:"found"`
}

// send never blocks. Preview frames arrive at the display rate, so a slow
// consumer loses notifications rather than stalling the scheduler.
func send(ns chan<- models.Notification, method string, payload any) {
	if ns == nil {
		return
	}
	var params json.RawMessage
	if payload != nil {
		var err error
		params, err = json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).Msg("error marshalling notification")
			return
		}
	}
	select {
	case ns <- models.Notification{Method: method, Params: params}:
	default:
		log.Debug().Str("method", method).Msg("notification channel full, dropping")
	}
}

func Preview(ns chan<- models.Notification, index int, frame matrix.Frame) {
	send(ns, models.NotificationPreviewFrame, PreviewFrame{
		Pixels:   frame.Pixels,
		Index:    index,
		Duration: frame.Duration,
	})
}

func DevicesChanged(ns chan<- models.Notification, devs []devices.Device) {
	if devs == nil {
		devs = []devices.Device{}
	}
	send(ns, models.NotificationDevicesChanged, devicesChanged{Devices: devs})
}

func UploadProgress(ns chan<- models.Notification, percent int) {
	send(ns, models.NotificationUploadProgress, progress{Percent: percent})
}

func UploadResult(ns chan<- models.Notification, res upload.Result) {
	send(ns, models.NotificationUploadResult, res)
}

func PlaybackState(ns chan<- models.Notification, snap playback.Snapshot) {
	send(ns, models.NotificationPlaybackState, snap)
}

func ScanStarted(ns chan<- models.Notification) {
	send(ns, models.NotificationScanStarted, nil)
}

func ScanFinished(ns chan<- models.Notification, found int, err error) {
	p := scanFinished{Found: found}
	if err != nil {
		p.Error = err.Error()
	}
	send(ns, models.NotificationScanFinished, p)
}
