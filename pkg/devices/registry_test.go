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

package devices

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevice(id, ip string) Device {
	return Device{DeviceID: id, DeviceName: "Panel " + id, IP: ip, Status: StatusOnline}
}

func TestInfoCompatible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info Info
		want bool
	}{
		{name: "firmware name", info: Info{Firmware: "framolux"}, want: true},
		{name: "id prefix", info: Info{DeviceID: "FLX-1234"}, want: true},
		{name: "both", info: Info{Firmware: "framolux", DeviceID: "FLX-1"}, want: true},
		{name: "other firmware", info: Info{Firmware: "tasmota", DeviceID: "ESP-1"}, want: false},
		{name: "lowercase prefix", info: Info{DeviceID: "flx-1"}, want: false},
		{name: "empty", info: Info{}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.info.Compatible())
		})
	}
}

func TestInfoDevice_Defaults(t *testing.T) {
	t.Parallel()

	d := Info{DeviceID: "FLX-1", RSSI: -40}.Device("10.0.0.5", zeroTime)
	assert.Equal(t, UnnamedDevice, d.DeviceName)
	assert.Equal(t, "10.0.0.5", d.IP)
	assert.Equal(t, StatusOnline, d.Status)
	assert.Equal(t, -40, d.RSSI)
	assert.False(t, d.IsFramolux)
}

func TestRegistry_UpsertByID(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "10.0.0.2"))
	r.Upsert(testDevice("B", "10.0.0.3"))

	moved := testDevice("A", "10.0.0.9")
	r.Upsert(moved)

	assert.Equal(t, 2, r.Len())
	got, ok := r.Get("A")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.9", got.IP)
}

func TestRegistry_UpsertKeepsCustomName(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "10.0.0.2"))
	require.NoError(t, r.SetCustomName("A", "Kitchen"))

	r.Upsert(testDevice("A", "10.0.0.2"))
	got, _ := r.Get("A")
	assert.Equal(t, "Kitchen", got.CustomName)
	assert.Equal(t, "Kitchen", got.DisplayName())
}

func TestRegistry_Select(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, ok := r.Selected()
	assert.False(t, ok)

	require.ErrorIs(t, r.Select("missing"), ErrDeviceNotFound)

	r.Upsert(testDevice("A", "10.0.0.2"))
	require.NoError(t, r.Select("A"))
	sel, ok := r.Selected()
	require.True(t, ok)
	assert.Equal(t, "A", sel.DeviceID)

	r.Deselect()
	_, ok = r.Selected()
	assert.False(t, ok)
}

func TestRegistry_ReplaceDropsStaleSelection(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "10.0.0.2"))
	require.NoError(t, r.Select("A"))

	r.Replace([]Device{testDevice("B", "10.0.0.3")})
	_, ok := r.Selected()
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Select("B"))
	r.Replace([]Device{testDevice("B", "10.0.0.4"), testDevice("C", "10.0.0.5")})
	sel, ok := r.Selected()
	require.True(t, ok)
	assert.Equal(t, "10.0.0.4", sel.IP)
}

func TestRegistry_ListSortedByIP(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "192.168.1.100"))
	r.Upsert(testDevice("B", "192.168.1.20"))
	r.Upsert(testDevice("C", "192.168.1.3"))

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{list[0].DeviceID, list[1].DeviceID, list[2].DeviceID})
}

func TestRegistry_SetStatus(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "10.0.0.2"))

	require.NoError(t, r.SetStatus("A", StatusOnline, 7))
	got, _ := r.Get("A")
	assert.Equal(t, 7, got.FrameCount)

	require.NoError(t, r.SetStatus("A", StatusOffline, 0))
	got, _ = r.Get("A")
	assert.False(t, got.Online())
	assert.Equal(t, 7, got.FrameCount, "offline keeps last known frame count")

	require.ErrorIs(t, r.SetStatus("Z", StatusOnline, 0), ErrDeviceNotFound)
}

func TestRegistry_Rename(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Upsert(testDevice("A", "10.0.0.2"))

	require.NoError(t, r.Rename("10.0.0.2", "Hallway"))
	got, _ := r.ByIP("10.0.0.2")
	assert.Equal(t, "Hallway", got.DeviceName)

	require.ErrorIs(t, r.Rename("10.0.0.99", "x"), ErrDeviceNotFound)
}

func TestRegistry_OnChange(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var calls int
	var last []Device
	r.OnChange(func(devs []Device) {
		calls++
		last = devs
	})

	r.Upsert(testDevice("A", "10.0.0.2"))
	r.Replace([]Device{testDevice("A", "10.0.0.2"), testDevice("B", "10.0.0.3")})

	assert.Equal(t, 2, calls)
	assert.Len(t, last, 2)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := string(rune('A' + i%5))
			r.Upsert(testDevice(id, "10.0.0.1"))
			_ = r.Select(id)
			_ = r.List()
			_, _ = r.Selected()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, r.Len())
}
