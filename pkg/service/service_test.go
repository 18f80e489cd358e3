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

package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/database/knowndb"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/helpers"
	"github.com/framolux/framolux-core/pkg/matrix"
	testhelpers "github.com/framolux/framolux-core/pkg/testing/helpers"
	"github.com/framolux/framolux-core/pkg/upload"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextNotification(t *testing.T, ns <-chan models.Notification, method string) models.Notification {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case n := <-ns:
			if n.Method == method {
				return n
			}
		case <-timeout:
			t.Fatalf("no %s notification", method)
			return models.Notification{}
		}
	}
}

func TestNewServicesWiresNotifications(t *testing.T) {
	t.Parallel()

	cfg := testhelpers.NewTestConfig(t, "", "")
	ns := make(chan models.Notification, 16)
	svc := NewServices(cfg, clockwork.NewFakeClock(), nil, nil, ns)

	svc.Registry.Upsert(devices.Device{DeviceID: "FLX-1", IP: "192.168.1.40", IsFramolux: true})
	n := nextNotification(t, ns, models.NotificationDevicesChanged)
	var changed struct {
		Devices []devices.Device `json:"devices"`
	}
	require.NoError(t, json.Unmarshal(n.Params, &changed))
	require.Len(t, changed.Devices, 1)
	assert.Equal(t, "FLX-1", changed.Devices[0].DeviceID)

	res := svc.Uploader.UploadSingleFrame(context.Background(), matrix.NewGrid(2, "#000000"))
	assert.Equal(t, upload.OutcomeNoDevice, res.Outcome)
	n = nextNotification(t, ns, models.NotificationUploadResult)
	assert.Contains(t, string(n.Params), string(upload.OutcomeNoDevice))

	require.NoError(t, svc.Player.SetAnimation(&matrix.Animation{
		Frames: []matrix.Frame{{Pixels: matrix.NewGrid(2, "#FF0000"), Duration: 100}},
	}))
	nextNotification(t, ns, models.NotificationPreviewFrame)
}

func TestNewServicesWithoutNotifications(t *testing.T) {
	t.Parallel()

	cfg := testhelpers.NewTestConfig(t, "", "")
	svc := NewServices(cfg, clockwork.NewFakeClock(), nil, nil, nil)
	assert.NotPanics(t, func() {
		svc.Registry.Upsert(devices.Device{DeviceID: "FLX-1", IP: "192.168.1.40"})
		svc.Uploader.SendTestFrame(context.Background())
	})
}

func TestRestoreKnownDevices(t *testing.T) {
	t.Parallel()

	cfg := testhelpers.NewTestConfig(t, "", "")
	known, err := knowndb.Open(filepath.Join(t.TempDir(), "known.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = known.Close() })

	dev := testhelpers.NewMockDeviceServer(t)
	require.NoError(t, known.SaveKnownDevices([]knowndb.KnownDevice{
		{DeviceID: "FLX-TEST01", DeviceName: "Desk", IP: dev.Host()},
		{DeviceID: "FLX-GONE", DeviceName: "Attic", IP: "127.0.0.1:1"},
	}))

	svc := NewServices(cfg, clockwork.NewFakeClock(), known, nil, nil)
	restoreKnownDevices(context.Background(), svc)

	require.Equal(t, 2, svc.Registry.Len())
	online, ok := svc.Registry.Get("FLX-TEST01")
	require.True(t, ok)
	assert.Equal(t, devices.StatusOnline, online.Status)
	gone, ok := svc.Registry.Get("FLX-GONE")
	require.True(t, ok)
	assert.Equal(t, devices.StatusOffline, gone.Status)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dirs := helpers.Dirs{
		ConfigDir: filepath.Join(root, "config"),
		DataDir:   filepath.Join(root, "data"),
		TempDir:   filepath.Join(root, "tmp"),
	}
	cfg := testhelpers.NewTestConfig(t, `
[service]
api_listen = "127.0.0.1:0"

[service.discovery]
enabled = false
`, "")

	stop, done, err := Start(cfg, dirs)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dirs.DataDir, "known.db"))
	assert.DirExists(t, dirs.AnimationsDir())

	require.NoError(t, stop())
	select {
	case <-done:
	default:
		t.Fatal("done should be closed after stop returns")
	}
}
