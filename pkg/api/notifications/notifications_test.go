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
	"errors"
	"testing"
	"time"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ns <-chan models.Notification) models.Notification {
	t.Helper()
	select {
	case n := <-ns:
		return n
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected notification was not sent")
		return models.Notification{}
	}
}

func TestSend_NonBlocking(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification)
	done := make(chan struct{})
	go func() {
		UploadProgress(ns, 50)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("send blocked on a full channel")
	}
}

func TestSend_NilChannel(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() { ScanStarted(nil) })
}

func TestPreview(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	g := matrix.NewGrid(2, "#FF0000")
	Preview(ns, 3, matrix.Frame{Pixels: g, Duration: 250})

	n := receive(t, ns)
	assert.Equal(t, models.NotificationPreviewFrame, n.Method)

	var got PreviewFrame
	require.NoError(t, json.Unmarshal(n.Params, &got))
	assert.Equal(t, 3, got.Index)
	assert.Equal(t, uint32(250), got.Duration)
	assert.Equal(t, g, got.Pixels)
}

func TestDevicesChanged_EmptyIsArray(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	DevicesChanged(ns, nil)

	n := receive(t, ns)
	assert.Equal(t, models.NotificationDevicesChanged, n.Method)
	assert.JSONEq(t, `{"devices":[]}`, string(n.Params))

	DevicesChanged(ns, []devices.Device{{DeviceID: "FLX-1", IP: "192.168.1.5"}})
	n = receive(t, ns)
	assert.Contains(t, string(n.Params), `"deviceId":"FLX-1"`)
}

func TestUploadResult(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 1)
	UploadResult(ns, upload.Result{
		Outcome:    upload.OutcomeSuccess,
		Message:    "ok",
		FrameCount: 2,
		Err:        errors.New("not serialized"),
	})

	n := receive(t, ns)
	assert.Equal(t, models.NotificationUploadResult, n.Method)
	assert.Contains(t, string(n.Params), `"outcome":"success"`)
	assert.NotContains(t, string(n.Params), "not serialized")
}

func TestScanFinished(t *testing.T) {
	t.Parallel()

	ns := make(chan models.Notification, 2)
	ScanStarted(ns)
	ScanFinished(ns, 0, errors.New("boom"))

	started := receive(t, ns)
	assert.Equal(t, models.NotificationScanStarted, started.Method)
	assert.Nil(t, started.Params)

	finished := receive(t, ns)
	assert.JSONEq(t, `{"found":0,"error":"boom"}`, string(finished.Params))
}
