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
	"errors"
	"sort"

	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
)

var ErrDeviceNotFound = errors.New("device not found")

// ChangeFunc is called after any registry mutation with a snapshot of the
// device list.
type ChangeFunc func(devices []Device)

// Registry is the single owned list of known devices plus the current
// selection. Discovery, manual connect and rename are its only writers.
type Registry struct {
	onChange ChangeFunc
	selected string
	devices  []Device
	mu       syncutil.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{}
}

// OnChange installs a hook that runs after every mutation, outside the lock.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

func (r *Registry) notify() {
	r.mu.RLock()
	fn := r.onChange
	snapshot := append([]Device(nil), r.devices...)
	r.mu.RUnlock()
	if fn != nil {
		fn(snapshot)
	}
}

func (r *Registry) indexByID(id string) int {
	for i := range r.devices {
		if r.devices[i].DeviceID == id {
			return i
		}
	}
	return -1
}

// Upsert inserts d or replaces the entry with the same device id.
func (r *Registry) Upsert(d Device) {
	r.mu.Lock()
	if i := r.indexByID(d.DeviceID); i >= 0 {
		if d.CustomName == "" {
			d.CustomName = r.devices[i].CustomName
		}
		r.devices[i] = d
	} else {
		r.devices = append(r.devices, d)
	}
	r.mu.Unlock()
	r.notify()
}

// Replace swaps the whole list, as a completed scan does. The selection
// survives only if the selected device is still present.
func (r *Registry) Replace(devs []Device) {
	r.mu.Lock()
	old := r.devices
	r.devices = append([]Device(nil), devs...)
	for i := range r.devices {
		for _, o := range old {
			if o.DeviceID == r.devices[i].DeviceID && r.devices[i].CustomName == "" {
				r.devices[i].CustomName = o.CustomName
			}
		}
	}
	if r.selected != "" && r.indexByID(r.selected) < 0 {
		r.selected = ""
	}
	r.mu.Unlock()
	r.notify()
}

// Select marks the device with the given id as the upload target.
func (r *Registry) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexByID(id) < 0 {
		return ErrDeviceNotFound
	}
	r.selected = id
	return nil
}

func (r *Registry) Deselect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = ""
}

// Selected returns a copy of the selected device.
func (r *Registry) Selected() (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.selected == "" {
		return Device{}, false
	}
	i := r.indexByID(r.selected)
	if i < 0 {
		return Device{}, false
	}
	return r.devices[i], true
}

func (r *Registry) Get(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.indexByID(id)
	if i < 0 {
		return Device{}, false
	}
	return r.devices[i], true
}

func (r *Registry) ByIP(ip string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices {
		if d.IP == ip {
			return d, true
		}
	}
	return Device{}, false
}

// List returns a copy of all devices ordered by IP.
func (r *Registry) List() []Device {
	r.mu.RLock()
	out := append([]Device(nil), r.devices...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return IPLess(out[i].IP, out[j].IP)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// SetStatus updates a device's reachability and, when online, its frame count.
func (r *Registry) SetStatus(id string, status Status, frameCount int) error {
	r.mu.Lock()
	i := r.indexByID(id)
	if i < 0 {
		r.mu.Unlock()
		return ErrDeviceNotFound
	}
	changed := r.devices[i].Status != status
	r.devices[i].Status = status
	if status == StatusOnline {
		changed = changed || r.devices[i].FrameCount != frameCount
		r.devices[i].FrameCount = frameCount
	}
	r.mu.Unlock()
	if changed {
		r.notify()
	}
	return nil
}

// SetFrameCount records how many frames a device now stores.
func (r *Registry) SetFrameCount(id string, n int) {
	r.mu.Lock()
	if i := r.indexByID(id); i >= 0 {
		r.devices[i].FrameCount = n
	}
	r.mu.Unlock()
	r.notify()
}

// Rename updates the device name of the device at ip.
func (r *Registry) Rename(ip, name string) error {
	r.mu.Lock()
	found := false
	for i := range r.devices {
		if r.devices[i].IP == ip {
			r.devices[i].DeviceName = name
			found = true
		}
	}
	r.mu.Unlock()
	if !found {
		return ErrDeviceNotFound
	}
	r.notify()
	return nil
}

// SetCustomName stores a local label that overrides the device-reported name.
func (r *Registry) SetCustomName(id, name string) error {
	r.mu.Lock()
	i := r.indexByID(id)
	if i < 0 {
		r.mu.Unlock()
		return ErrDeviceNotFound
	}
	r.devices[i].CustomName = name
	r.mu.Unlock()
	r.notify()
	return nil
}
