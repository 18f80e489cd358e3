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

package knowndb

import (
	"path/filepath"
	"testing"

	"github.com/framolux/framolux-core/pkg/codec"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), DBFile))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestKnownDevices(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	ds, err := db.KnownDevices()
	require.NoError(t, err)
	assert.Empty(t, ds)

	require.NoError(t, db.SaveKnownDevice(KnownDevice{DeviceID: "FLX-2", IP: "192.168.1.20"}))
	require.NoError(t, db.SaveKnownDevice(KnownDevice{DeviceID: "FLX-1", IP: "192.168.1.3"}))

	ds, err = db.KnownDevices()
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "FLX-1", ds[0].DeviceID)
	assert.Equal(t, "FLX-2", ds[1].DeviceID)
	added := ds[1].Added
	assert.False(t, added.IsZero())

	// updating keeps the first-seen time
	require.NoError(t, db.SaveKnownDevice(KnownDevice{DeviceID: "FLX-2", IP: "192.168.1.21"}))
	ds, err = db.KnownDevices()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.21", ds[1].IP)
	assert.True(t, added.Equal(ds[1].Added))

	require.ErrorIs(t, db.SaveKnownDevice(KnownDevice{}), ErrInvalidName)
}

func TestSaveKnownDevicesReplaces(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	require.NoError(t, db.SaveKnownDevice(KnownDevice{DeviceID: "old", IP: "10.0.0.1"}))
	require.NoError(t, db.SaveKnownDevices([]KnownDevice{
		{DeviceID: "a", IP: "10.0.0.2"},
		{DeviceID: "", IP: "10.0.0.3"},
	}))

	ds, err := db.KnownDevices()
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "a", ds[0].DeviceID)
}

func TestForgetDevice(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	require.NoError(t, db.SaveKnownDevice(KnownDevice{DeviceID: "a"}))
	require.NoError(t, db.ForgetDevice("a"))
	require.ErrorIs(t, db.ForgetDevice("a"), ErrNotFound)
}

func TestKnownDeviceConversion(t *testing.T) {
	t.Parallel()

	kd := FromDevice(&devices.Device{
		DeviceID:   "FLX-1",
		DeviceName: "Panel",
		CustomName: "Kitchen",
		IP:         "192.168.1.9",
		MAC:        "aa:bb",
		Status:     devices.StatusOnline,
	})
	d := kd.Device()
	assert.Equal(t, "Kitchen", d.CustomName)
	assert.Equal(t, devices.StatusOffline, d.Status)
	assert.Equal(t, devices.FirmwareName, d.Firmware)
	assert.True(t, d.IsFramolux)
}

func TestWiFiConfig(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	_, err := db.WiFiConfig()
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.SaveWiFiConfig(WiFiConfig{SSID: "home", Password: "pw"}))
	cfg, err := db.WiFiConfig()
	require.NoError(t, err)
	assert.Equal(t, WiFiConfig{SSID: "home", Password: "pw"}, cfg)
}

func TestAnimations(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	g := matrix.NewGrid(4, "#000000")
	g[0][1] = "#FF0000"
	anim := &matrix.Animation{
		Description: "Blink",
		Frames: []matrix.Frame{
			{Pixels: g, Duration: 250},
			{Pixels: matrix.NewGrid(4, "#FFFFFF"), Duration: 250},
		},
		Loop: true,
	}

	saved, err := db.SaveAnimation("blink", anim)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.FrameCount)
	assert.Equal(t, codec.Size(2, 4, 4), saved.Size)

	got, err := db.Animation("blink")
	require.NoError(t, err)
	assert.Equal(t, "Blink", got.Description)
	assert.True(t, got.Loop)
	require.Len(t, got.Frames, 2)
	assert.Equal(t, "#FF0000", got.Frames[0].Pixels[0][1])
	assert.True(t, got.Frames[0].Pixels.Equal(g))

	list, err := db.Animations()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "blink", list[0].Name)
	assert.Equal(t, "Blink", list[0].Description)
	assert.Equal(t, 2, list[0].FrameCount)

	require.NoError(t, db.DeleteAnimation("blink"))
	_, err = db.Animation("blink")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, db.DeleteAnimation("blink"), ErrNotFound)
}

func TestSaveAnimationRejects(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	_, err := db.SaveAnimation("", matrix.NewEmptyAnimation(4))
	require.ErrorIs(t, err, ErrInvalidName)
	_, err = db.SaveAnimation("x", &matrix.Animation{})
	require.ErrorIs(t, err, codec.ErrInvalidFrameCount)
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DBFile)
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveKnownDevice(KnownDevice{DeviceID: "a", IP: "1.2.3.4"}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	ds, err := db.KnownDevices()
	require.NoError(t, err)
	require.Len(t, ds, 1)
}
