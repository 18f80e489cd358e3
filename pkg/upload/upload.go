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

// Package upload sends frames and animations to the selected device and
// turns every failure into a classified Result instead of an error.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/framolux/framolux-core/pkg/codec"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/rs/zerolog/log"
)

const (
	// SingleFrameDuration is used when a lone image is sent to the device.
	SingleFrameDuration = 1000
	// SingleFrameDescription labels lone images sent to the device.
	SingleFrameDescription = "Framolux Animation"
	// DefaultDescription is used for animations uploaded without one.
	DefaultDescription = "Custom Animation"
	// TestFrameDuration is how long the test pattern stays on screen.
	TestFrameDuration = 3000
	// TestDescription labels the test pattern.
	TestDescription = "Test Animation"
)

var (
	ErrNoDevice      = errors.New("no device selected")
	ErrDeviceOffline = errors.New("selected device is offline")
)

// Outcome is the terminal state of an upload attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomeNoDevice and OutcomeDeviceOffline are reported before any
	// network traffic.
	OutcomeNoDevice      Outcome = "no_device"
	OutcomeDeviceOffline Outcome = "device_offline"
	// OutcomeInvalidAnimation means the animation could not be encoded.
	OutcomeInvalidAnimation Outcome = "invalid_animation"
	OutcomeTransportError   Outcome = "transport_error"
)

// Result describes how an upload ended.
type Result struct {
	Err        error   `json:"-"`
	Outcome    Outcome `json:"outcome"`
	Message    string  `json:"message"`
	DeviceID   string  `json:"deviceId,omitempty"`
	DeviceIP   string  `json:"deviceIp,omitempty"`
	FrameCount int     `json:"frameCount"`
	Bytes      int     `json:"bytes"`
}

// Success reports whether the device accepted the upload.
func (r Result) Success() bool {
	return r.Outcome == OutcomeSuccess
}

// Attempted reports whether any network call was made.
func (r Result) Attempted() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeTransportError
}

// Transport delivers an encoded blob. devices.Client implements it.
type Transport interface {
	UploadFrames(
		ctx context.Context,
		host string,
		blob []byte,
		progress func(percent int),
	) (devices.UploadResponse, error)
}

// Orchestrator uploads to whichever device is selected in the registry.
// Uploads through one orchestrator are serialized.
type Orchestrator struct {
	transport  Transport
	registry   *devices.Registry
	onResult   func(Result)
	onProgress func(percent int)
	progress   atomic.Int32
	uploading  atomic.Bool
	mu         syncutil.Mutex
	hooksMu    syncutil.RWMutex
}

func New(transport Transport, registry *devices.Registry) *Orchestrator {
	return &Orchestrator{transport: transport, registry: registry}
}

// OnResult installs a hook that receives every finished Result.
func (o *Orchestrator) OnResult(fn func(Result)) {
	o.hooksMu.Lock()
	defer o.hooksMu.Unlock()
	o.onResult = fn
}

// OnProgress installs a hook that receives upload progress percentages.
func (o *Orchestrator) OnProgress(fn func(percent int)) {
	o.hooksMu.Lock()
	defer o.hooksMu.Unlock()
	o.onProgress = fn
}

// Progress returns the last reported upload progress, 0 to 100.
func (o *Orchestrator) Progress() int {
	return int(o.progress.Load())
}

func (o *Orchestrator) Uploading() bool {
	return o.uploading.Load()
}

// target returns the selected device or the precondition that failed.
func (o *Orchestrator) target() (devices.Device, *Result) {
	d, ok := o.registry.Selected()
	if !ok {
		return devices.Device{}, &Result{
			Outcome: OutcomeNoDevice,
			Message: "No device connected. The image was only loaded locally.",
			Err:     ErrNoDevice,
		}
	}
	if !d.Online() {
		return d, &Result{
			Outcome:  OutcomeDeviceOffline,
			Message:  "Device is not reachable. The image was only loaded locally.",
			DeviceID: d.DeviceID,
			DeviceIP: d.IP,
			Err:      ErrDeviceOffline,
		}
	}
	return d, nil
}

func (o *Orchestrator) finish(r Result) Result {
	ev := log.Info()
	if !r.Success() {
		ev = log.Warn().Err(r.Err)
	}
	ev.Str("outcome", string(r.Outcome)).
		Str("device", r.DeviceID).
		Int("frames", r.FrameCount).
		Int("bytes", r.Bytes).
		Msg(r.Message)

	o.hooksMu.RLock()
	fn := o.onResult
	o.hooksMu.RUnlock()
	if fn != nil {
		fn(r)
	}
	return r
}

func (o *Orchestrator) setProgress(p int) {
	o.progress.Store(int32(p)) //nolint:gosec // percent is always 0-100
	o.hooksMu.RLock()
	fn := o.onProgress
	o.hooksMu.RUnlock()
	if fn != nil {
		fn(p)
	}
}

// send encodes anim and POSTs it to the selected device. anim must already
// be in physical orientation.
func (o *Orchestrator) send(ctx context.Context, anim *matrix.Animation) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	d, failed := o.target()
	if failed != nil {
		return o.finish(*failed)
	}

	res := Result{DeviceID: d.DeviceID, DeviceIP: d.IP}

	blob, err := codec.Encode(anim)
	if err != nil {
		res.Outcome = OutcomeInvalidAnimation
		res.Message = "The animation could not be encoded."
		res.Err = err
		return o.finish(res)
	}
	res.Bytes = len(blob)

	log.Debug().
		Str("device", d.DeviceID).
		Int("bytes", len(blob)).
		Int("frames", len(anim.Frames)).
		Hex("header", blob[:codec.HeaderSize]).
		Msg("uploading animation")

	o.uploading.Store(true)
	defer o.uploading.Store(false)
	o.setProgress(0)

	resp, err := o.transport.UploadFrames(ctx, d.IP, blob, o.setProgress)
	if err != nil {
		res.Outcome = OutcomeTransportError
		res.Message = "Upload failed. Check the connection to the device."
		res.Err = fmt.Errorf("upload to %s failed: %w", d.IP, err)
		return o.finish(res)
	}
	o.setProgress(100)

	res.Outcome = OutcomeSuccess
	res.FrameCount = len(anim.Frames)
	if resp.FrameCount != nil && *resp.FrameCount > 0 {
		res.FrameCount = *resp.FrameCount
	}
	res.Message = fmt.Sprintf("Upload successful: %d frame(s) stored on device.", res.FrameCount)
	o.registry.SetFrameCount(d.DeviceID, res.FrameCount)
	return o.finish(res)
}

// UploadSingleFrame sends one editor image as a looping one-frame animation
// shown for SingleFrameDuration.
func (o *Orchestrator) UploadSingleFrame(ctx context.Context, g matrix.Grid) Result {
	anim := matrix.SingleFrame(SingleFrameDescription, matrix.ToPhysical(g), SingleFrameDuration)
	return o.send(ctx, anim)
}

// UploadAnimation maps every frame to physical orientation independently and
// sends the whole animation, keeping durations, loop flag and description.
func (o *Orchestrator) UploadAnimation(ctx context.Context, a *matrix.Animation) Result {
	if a == nil || len(a.Frames) == 0 {
		// Preconditions still come first so callers see why nothing happened.
		if _, failed := o.target(); failed != nil {
			return o.finish(*failed)
		}
		return o.finish(Result{
			Outcome: OutcomeInvalidAnimation,
			Message: "There is no animation to upload.",
			Err:     errors.New("animation has no frames"),
		})
	}

	physical := &matrix.Animation{
		Description: a.Description,
		Loop:        a.Loop,
		Frames:      make([]matrix.Frame, len(a.Frames)),
	}
	if physical.Description == "" {
		physical.Description = DefaultDescription
	}
	for i, f := range a.Frames {
		physical.Frames[i] = matrix.Frame{
			Pixels:   matrix.ToPhysical(f.Pixels),
			Duration: f.Duration,
		}
	}
	return o.send(ctx, physical)
}

// TestPattern is a green cross through the centre on black.
func TestPattern() matrix.Grid {
	g := matrix.NewGrid(matrix.DefaultSize, matrix.Black)
	mid := matrix.DefaultSize / 2
	for y := range g {
		for x := range g[y] {
			if x == mid || y == mid {
				g[y][x] = "#00FF00"
			}
		}
	}
	return g
}

// SendTestFrame shows the test pattern for three seconds. The pattern is sent
// as-is, without the physical transform, so wiring problems are visible.
func (o *Orchestrator) SendTestFrame(ctx context.Context) Result {
	anim := matrix.SingleFrame(TestDescription, TestPattern(), TestFrameDuration)
	return o.send(ctx, anim)
}
