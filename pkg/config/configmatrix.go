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
	DefaultMatrixSize = 16
	DefaultPreviewFPS = 15
	MaxPreviewFPS     = 60
)

type Matrix struct {
	Size       *int `toml:"size,omitempty"`
	PreviewFPS *int `toml:"preview_fps,omitempty"`
}

func (c *Instance) MatrixSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Matrix.Size == nil || *c.vals.Matrix.Size < 1 {
		return DefaultMatrixSize
	}
	return *c.vals.Matrix.Size
}

func (c *Instance) SetMatrixSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Matrix.Size = &size
}

// PreviewFPS is the configured preview frame rate clamped to 1..60.
func (c *Instance) PreviewFPS() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Matrix.PreviewFPS == nil {
		return DefaultPreviewFPS
	}
	return min(max(*c.vals.Matrix.PreviewFPS, 1), MaxPreviewFPS)
}

// PreviewInterval is the preview tick derived from PreviewFPS.
func (c *Instance) PreviewInterval() time.Duration {
	return time.Second / time.Duration(c.PreviewFPS())
}
