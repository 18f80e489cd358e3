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

package config

import "time"

const (
	DefaultSubnet          = "192.168.1"
	DefaultProbeTimeout    = 1500 * time.Millisecond
	DefaultScanConcurrency = 254
	DefaultUploadTimeout   = 30 * time.Second
	DefaultStatusInterval  = 30 * time.Second
	DefaultBaudRate        = 115200
)

type Devices struct {
	ProbeTimeoutMS  *int   `toml:"probe_timeout_ms,omitempty"`
	ScanConcurrency *int   `toml:"scan_concurrency,omitempty"`
	UploadTimeoutMS *int   `toml:"upload_timeout_ms,omitempty"`
	StatusIntervalS *int   `toml:"status_interval_s,omitempty"`
	Subnet          string `toml:"subnet,omitempty"`
	APIKey          string `toml:"api_key,omitempty"`
	ScanOnStart     bool   `toml:"scan_on_start,omitempty"`
}

type Serial struct {
	Port     string `toml:"port,omitempty"`
	BaudRate *int   `toml:"baud_rate,omitempty"`
}

func positiveMillis(v *int, def time.Duration) time.Duration {
	if v == nil || *v <= 0 {
		return def
	}
	return time.Duration(*v) * time.Millisecond
}

func (c *Instance) Subnet() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Devices.Subnet == "" {
		return DefaultSubnet
	}
	return c.vals.Devices.Subnet
}

func (c *Instance) SetSubnet(subnet string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Devices.Subnet = subnet
}

func (c *Instance) ProbeTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return positiveMillis(c.vals.Devices.ProbeTimeoutMS, DefaultProbeTimeout)
}

func (c *Instance) ScanConcurrency() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Devices.ScanConcurrency == nil || *c.vals.Devices.ScanConcurrency <= 0 {
		return DefaultScanConcurrency
	}
	return *c.vals.Devices.ScanConcurrency
}

func (c *Instance) UploadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return positiveMillis(c.vals.Devices.UploadTimeoutMS, DefaultUploadTimeout)
}

// StatusInterval is how often known devices are polled. Zero disables
// polling.
func (c *Instance) StatusInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v := c.vals.Devices.StatusIntervalS
	if v == nil {
		return DefaultStatusInterval
	}
	if *v <= 0 {
		return 0
	}
	return time.Duration(*v) * time.Second
}

func (c *Instance) ScanOnStart() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Devices.ScanOnStart
}

// DeviceAPIKey returns the key sent to the device at ip: a matching entry
// in the auth file wins over the global devices.api_key.
func (c *Instance) DeviceAPIKey(ip string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ip != "" {
		if cred := LookupAuth(c.auth, "http://"+ip+"/"); cred != nil && cred.APIKey != "" {
			return cred.APIKey
		}
	}
	return c.vals.Devices.APIKey
}

func (c *Instance) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Devices.APIKey = key
}

func (c *Instance) SerialPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.Port
}

func (c *Instance) SetSerialPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Serial.Port = port
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Serial.BaudRate == nil || *c.vals.Serial.BaudRate <= 0 {
		return DefaultBaudRate
	}
	return *c.vals.Serial.BaudRate
}
