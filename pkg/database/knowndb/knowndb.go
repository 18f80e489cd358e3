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

// Package knowndb persists the bridge's remembered devices, WiFi
// credentials and saved animations in a single bbolt file.
package knowndb

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/framolux/framolux-core/pkg/codec"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/rs/zerolog/log"
	bolt "go.etcd.io/bbolt"
)

const (
	DBFile = "framolux.db"

	BucketDevices    = "devices"
	BucketSettings   = "settings"
	BucketAnimations = "animations"

	keyWiFi = "wifi"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidName = errors.New("invalid name")
)

// KnownDevice is what is remembered about a device between runs.
type KnownDevice struct {
	Added      time.Time `json:"added"`
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName"`
	CustomName string    `json:"customName,omitempty"`
	IP         string    `json:"ip"`
	MAC        string    `json:"mac,omitempty"`
}

// Device converts a stored entry into an offline registry device; a status
// check decides whether it is reachable.
func (k KnownDevice) Device() devices.Device {
	return devices.Device{
		DeviceID:   k.DeviceID,
		DeviceName: k.DeviceName,
		CustomName: k.CustomName,
		IP:         k.IP,
		MAC:        k.MAC,
		Firmware:   devices.FirmwareName,
		Status:     devices.StatusOffline,
		IsFramolux: true,
	}
}

// FromDevice builds the stored form of a registry device.
func FromDevice(d *devices.Device) KnownDevice {
	return KnownDevice{
		DeviceID:   d.DeviceID,
		DeviceName: d.DeviceName,
		CustomName: d.CustomName,
		IP:         d.IP,
		MAC:        d.MAC,
	}
}

type WiFiConfig struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// SavedAnimation is the listing entry for a stored animation. The
// animation itself is kept in its binary wire form.
type SavedAnimation struct {
	Saved       time.Time `json:"saved"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FrameCount  int       `json:"frameCount"`
	Size        int       `json:"size"`
}

type savedRecord struct {
	Saved       time.Time `json:"saved"`
	Description string    `json:"description"`
	Data        []byte    `json:"data"`
}

type Database struct {
	bdb *bolt.DB
}

// Open opens or creates the database at path and ensures its buckets.
func Open(path string) (*Database, error) {
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketDevices, BucketSettings, BucketAnimations} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("failed to initialise bolt database: %w", err)
	}

	log.Debug().Str("path", path).Msg("opened known device database")
	return &Database{bdb: bdb}, nil
}

func (d *Database) Close() error {
	if err := d.bdb.Close(); err != nil {
		return fmt.Errorf("failed to close bolt database: %w", err)
	}
	return nil
}

// KnownDevices returns all remembered devices ordered by IP.
func (d *Database) KnownDevices() ([]KnownDevice, error) {
	ds := make([]KnownDevice, 0)
	err := d.bdb.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketDevices)).ForEach(func(k, v []byte) error {
			var kd KnownDevice
			if err := json.Unmarshal(v, &kd); err != nil {
				log.Warn().Err(err).Str("key", string(k)).Msg("skipping corrupt known device")
				return nil
			}
			ds = append(ds, kd)
			return nil
		})
	})
	if err != nil {
		return ds, fmt.Errorf("failed to read known devices: %w", err)
	}

	sort.Slice(ds, func(i, j int) bool {
		return devices.IPLess(ds[i].IP, ds[j].IP)
	})
	return ds, nil
}

// SaveKnownDevice inserts or updates one device keyed by its device ID.
// The first time a device is seen its added time is recorded.
func (d *Database) SaveKnownDevice(kd KnownDevice) error {
	if kd.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", ErrInvalidName)
	}
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketDevices))
		if prev := b.Get([]byte(kd.DeviceID)); prev != nil {
			var old KnownDevice
			if json.Unmarshal(prev, &old) == nil && !old.Added.IsZero() {
				kd.Added = old.Added
			}
		}
		if kd.Added.IsZero() {
			kd.Added = time.Now()
		}
		data, err := json.Marshal(kd)
		if err != nil {
			return fmt.Errorf("failed to marshal known device: %w", err)
		}
		return b.Put([]byte(kd.DeviceID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save known device: %w", err)
	}
	return nil
}

// SaveKnownDevices replaces the stored device list.
func (d *Database) SaveKnownDevices(kds []KnownDevice) error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(BucketDevices)); err != nil {
			return fmt.Errorf("failed to clear devices: %w", err)
		}
		b, err := tx.CreateBucket([]byte(BucketDevices))
		if err != nil {
			return fmt.Errorf("failed to recreate devices: %w", err)
		}
		now := time.Now()
		for _, kd := range kds {
			if kd.DeviceID == "" {
				continue
			}
			if kd.Added.IsZero() {
				kd.Added = now
			}
			data, err := json.Marshal(kd)
			if err != nil {
				return fmt.Errorf("failed to marshal known device: %w", err)
			}
			if err := b.Put([]byte(kd.DeviceID), data); err != nil {
				return fmt.Errorf("failed to store known device: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save known devices: %w", err)
	}
	return nil
}

func (d *Database) ForgetDevice(deviceID string) error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketDevices))
		if b.Get([]byte(deviceID)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(deviceID))
	})
	if err != nil {
		return fmt.Errorf("failed to forget device %s: %w", deviceID, err)
	}
	return nil
}

// WiFiConfig returns the last saved credentials, ErrNotFound if none.
func (d *Database) WiFiConfig() (WiFiConfig, error) {
	var cfg WiFiConfig
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(BucketSettings)).Get([]byte(keyWiFi))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &cfg)
	})
	if err != nil {
		return cfg, fmt.Errorf("failed to read wifi config: %w", err)
	}
	return cfg, nil
}

func (d *Database) SaveWiFiConfig(cfg WiFiConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal wifi config: %w", err)
	}
	err = d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketSettings)).Put([]byte(keyWiFi), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save wifi config: %w", err)
	}
	return nil
}

// SaveAnimation stores an animation under name in FMLX form, replacing any
// previous entry.
func (d *Database) SaveAnimation(name string, anim *matrix.Animation) (SavedAnimation, error) {
	if name == "" {
		return SavedAnimation{}, ErrInvalidName
	}
	if len(anim.Frames) == 0 {
		return SavedAnimation{}, fmt.Errorf("%w: no frames", codec.ErrInvalidFrameCount)
	}
	data, err := codec.Encode(anim)
	if err != nil {
		return SavedAnimation{}, fmt.Errorf("failed to encode animation: %w", err)
	}

	rec := savedRecord{Saved: time.Now(), Description: anim.Description, Data: data}
	raw, err := json.Marshal(rec)
	if err != nil {
		return SavedAnimation{}, fmt.Errorf("failed to marshal animation: %w", err)
	}
	err = d.bdb.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketAnimations)).Put([]byte(name), raw)
	})
	if err != nil {
		return SavedAnimation{}, fmt.Errorf("failed to save animation: %w", err)
	}

	return SavedAnimation{
		Saved:       rec.Saved,
		Name:        name,
		Description: anim.Description,
		FrameCount:  len(anim.Frames),
		Size:        len(data),
	}, nil
}

// Animation loads a saved animation. The stored blob is in panel
// orientation, so frames are turned back before returning.
func (d *Database) Animation(name string) (*matrix.Animation, error) {
	var rec savedRecord
	err := d.bdb.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(BucketAnimations)).Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read animation %q: %w", name, err)
	}

	anim, err := codec.Decode(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode animation %q: %w", name, err)
	}
	for i := range anim.Frames {
		anim.Frames[i].Pixels = codec.Rotate180(anim.Frames[i].Pixels)
	}
	anim.Description = rec.Description
	return anim, nil
}

// Animations lists saved animations by name.
func (d *Database) Animations() ([]SavedAnimation, error) {
	list := make([]SavedAnimation, 0)
	err := d.bdb.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketAnimations)).ForEach(func(k, v []byte) error {
			var rec savedRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal animation %q: %w", k, err)
			}
			entry := SavedAnimation{
				Name:        string(k),
				Saved:       rec.Saved,
				Description: rec.Description,
				Size:        len(rec.Data),
			}
			if hdr, err := codec.ParseHeader(rec.Data); err == nil {
				entry.FrameCount = hdr.FrameCount
			}
			list = append(list, entry)
			return nil
		})
	})
	if err != nil {
		return list, fmt.Errorf("failed to list animations: %w", err)
	}
	return list, nil
}

func (d *Database) DeleteAnimation(name string) error {
	err := d.bdb.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketAnimations))
		if b.Get([]byte(name)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(name))
	})
	if err != nil {
		return fmt.Errorf("failed to delete animation %q: %w", name, err)
	}
	return nil
}
