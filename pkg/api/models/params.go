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

package models

import (
	"github.com/framolux/framolux-core/pkg/matrix"
)

type FrameParams struct {
	Pixels   matrix.Grid `json:"pixels" validate:"required,grid"`
	Duration uint32      `json:"duration"`
}

type AnimationParams struct {
	Description string        `json:"description" validate:"max=256"`
	Frames      []FrameParams `json:"frames" validate:"required,min=1,max=1000,dive"`
	Loop        bool          `json:"loop"`
}

// Animation converts the params into a normalized animation. Frames sent
// without a duration get the default.
func (p *AnimationParams) Animation() *matrix.Animation {
	a := &matrix.Animation{
		Description: p.Description,
		Loop:        p.Loop,
		Frames:      make([]matrix.Frame, len(p.Frames)),
	}
	for i, f := range p.Frames {
		d := f.Duration
		if d == 0 {
			d = matrix.DefaultFrameDuration
		}
		a.Frames[i] = matrix.Frame{Pixels: f.Pixels.Normalize(), Duration: d}
	}
	return a
}

type GridParams struct {
	Pixels matrix.Grid `json:"pixels" validate:"required,grid"`
}

type OptionalGridParams struct {
	Pixels matrix.Grid `json:"pixels,omitempty" validate:"omitempty,grid"`
}

type ScanParams struct {
	Subnet string `json:"subnet,omitempty" validate:"omitempty,subnet"`
}

type HostParams struct {
	IP string `json:"ip" validate:"required,host"`
}

type SelectParams struct {
	DeviceID string `json:"deviceId" validate:"required"`
}

type RenameParams struct {
	IP   string `json:"ip" validate:"required,host"`
	Name string `json:"name" validate:"required,max=32,serialarg"`
	// Custom renames only the local label and leaves the device alone.
	Custom bool `json:"custom"`
}

type PowerParams struct {
	On *bool  `json:"on,omitempty"`
	IP string `json:"ip" validate:"required,host"`
}

type GotoParams struct {
	Index int `json:"index" validate:"gte=0"`
}

type BlobParams struct {
	Data string `json:"data" validate:"required,base64"`
}

type QuantizeParams struct {
	Data string `json:"data" validate:"required,base64"`
	Size int    `json:"size,omitempty" validate:"omitempty,min=1,max=255"`
}

type RenderParams struct {
	Pixels matrix.Grid `json:"pixels,omitempty" validate:"omitempty,grid"`
	Scale  int         `json:"scale,omitempty" validate:"omitempty,min=1,max=64"`
}

type AnimationNameParams struct {
	Name string `json:"name" validate:"required,animname"`
}

type SaveAnimationParams struct {
	Animation *AnimationParams `json:"animation,omitempty"`
	Name      string           `json:"name" validate:"required,animname"`
}

type LoadAnimationParams struct {
	Name string `json:"name" validate:"required,animname"`
	// Play starts playback after loading.
	Play bool `json:"play"`
}

type SerialPortParams struct {
	Port string `json:"port,omitempty"`
}

type SerialCommandParams struct {
	Port    string `json:"port,omitempty"`
	Command string `json:"command" validate:"required,serialarg"`
}

type SerialWiFiParams struct {
	Port     string `json:"port,omitempty"`
	SSID     string `json:"ssid" validate:"required,max=32,excludes=:,serialarg"`
	Password string `json:"password" validate:"required,max=64,serialarg"`
	// Save keeps the credentials in the local database.
	Save bool `json:"save"`
}

type SerialNameParams struct {
	Port string `json:"port,omitempty"`
	Name string `json:"name" validate:"required,max=32,serialarg"`
}

type SerialAPIKeyParams struct {
	Port string `json:"port,omitempty"`
	Key  string `json:"key,omitempty" validate:"omitempty,serialarg"`
}

type SerialMatrixParams struct {
	Port   string      `json:"port,omitempty"`
	Pixels matrix.Grid `json:"pixels,omitempty" validate:"omitempty,grid"`
}

type UpdateSettingsParams struct {
	DebugLogging   *bool   `json:"debugLogging,omitempty"`
	ErrorReporting *bool   `json:"errorReporting,omitempty"`
	Subnet         *string `json:"subnet,omitempty" validate:"omitempty,subnet"`
	SerialPort     *string `json:"serialPort,omitempty"`
	APIKey         *string `json:"apiKey,omitempty" validate:"omitempty,serialarg"`
	MatrixSize     *int    `json:"matrixSize,omitempty" validate:"omitempty,min=1,max=255"`
}
