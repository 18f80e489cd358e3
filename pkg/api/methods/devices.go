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

package methods

import (
	"errors"
	"fmt"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/notifications"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/framolux/framolux-core/pkg/database/knowndb"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/rs/zerolog/log"
)

func HandleDevices(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	resp := models.DevicesResponse{
		Devices:  env.Registry.List(),
		Scanning: env.Scanner.Scanning(),
	}
	if resp.Devices == nil {
		resp.Devices = []devices.Device{}
	}
	if d, ok := env.Registry.Selected(); ok {
		resp.Selected = &d
	}
	return resp, nil
}

// HandleDevicesScan probes the subnet and replaces the device list. The
// configured subnet is used when none is given.
func HandleDevicesScan(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.ScanParams
	if err := validation.ValidateOptional(env.Params, &params); err != nil {
		return nil, err
	}
	subnet := params.Subnet
	if subnet == "" {
		subnet = env.Config.Subnet()
	}

	notifications.ScanStarted(env.Notifications)
	found, err := env.Scanner.Scan(env.Context, subnet)
	notifications.ScanFinished(env.Notifications, len(found), err)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	rememberDevices(env, found)
	return models.ScanResponse{Subnet: subnet, Devices: found}, nil
}

// HandleDevicesConnect adds a device by address and selects it.
func HandleDevicesConnect(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.HostParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	d, err := env.Scanner.Connect(env.Context, params.IP)
	if err != nil {
		return nil, err
	}
	rememberDevices(env, []devices.Device{d})
	return d, nil
}

func HandleDevicesSelect(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SelectParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if err := env.Registry.Select(params.DeviceID); err != nil {
		return nil, fmt.Errorf("%w: %s", err, params.DeviceID)
	}
	d, _ := env.Registry.Selected()
	return d, nil
}

func HandleDevicesDeselect(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	env.Registry.Deselect()
	return nil, nil
}

// HandleDevicesStatus fetches /status and records the device's
// reachability in the registry.
func HandleDevicesStatus(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.HostParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	ctx, cancel := deviceContext(env)
	defer cancel()

	known, isKnown := env.Registry.ByIP(params.IP)
	status, err := env.Devices.Status(ctx, params.IP)
	if err != nil {
		if isKnown {
			_ = env.Registry.SetStatus(known.DeviceID, devices.StatusOffline, 0)
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	if isKnown {
		_ = env.Registry.SetStatus(known.DeviceID, devices.StatusOnline, status.FrameCount)
	}
	return status, nil
}

// HandleDevicesCheck runs one status round over every known device.
func HandleDevicesCheck(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	env.Poller.CheckAll(env.Context)
	return HandleDevices(env)
}

func HandleDevicesFrames(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.HostParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	ctx, cancel := deviceContext(env)
	defer cancel()
	frames, err := env.Devices.Frames(ctx, params.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	return frames, nil
}

func HandleDevicesClear(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.HostParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	ctx, cancel := deviceContext(env)
	defer cancel()
	resp, err := env.Devices.ClearFrames(ctx, params.IP)
	if err != nil {
		return nil, fmt.Errorf("failed to clear frames: %w", err)
	}
	if d, ok := env.Registry.ByIP(params.IP); ok {
		env.Registry.SetFrameCount(d.DeviceID, 0)
	}
	log.Info().Str("ip", params.IP).Msg("cleared device frames")
	return resp, nil
}

// HandleDevicesRename changes the name stored on the device, or only the
// local label when custom is set.
func HandleDevicesRename(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.RenameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}

	if params.Custom {
		d, ok := env.Registry.ByIP(params.IP)
		if !ok {
			return nil, fmt.Errorf("%w: %s", devices.ErrDeviceNotFound, params.IP)
		}
		if err := env.Registry.SetCustomName(d.DeviceID, params.Name); err != nil {
			return nil, err
		}
	} else {
		ctx, cancel := deviceContext(env)
		defer cancel()
		if _, err := env.Devices.Rename(ctx, params.IP, params.Name); err != nil {
			return nil, fmt.Errorf("failed to rename device: %w", err)
		}
		if err := env.Registry.Rename(params.IP, params.Name); err != nil &&
			!errors.Is(err, devices.ErrDeviceNotFound) {
			return nil, err
		}
	}

	d, ok := env.Registry.ByIP(params.IP)
	if !ok {
		return devices.Device{IP: params.IP, DeviceName: params.Name}, nil
	}
	rememberDevices(env, []devices.Device{d})
	return d, nil
}

// HandleDevicesPower switches the panel when on is given and otherwise
// reports its state.
func HandleDevicesPower(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.PowerParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	ctx, cancel := deviceContext(env)
	defer cancel()

	var (
		powered bool
		err     error
	)
	switch {
	case params.On == nil:
		powered, err = env.Devices.PowerStatus(ctx, params.IP)
	case *params.On:
		powered, err = env.Devices.PowerOn(ctx, params.IP)
	default:
		powered, err = env.Devices.PowerOff(ctx, params.IP)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to control power: %w", err)
	}
	return models.PowerResponse{IP: params.IP, Powered: powered}, nil
}

func HandleDevicesKnown(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if env.Known == nil {
		return nil, ErrNoStorage
	}
	kds, err := env.Known.KnownDevices()
	if err != nil {
		return nil, err
	}
	if kds == nil {
		kds = []knowndb.KnownDevice{}
	}
	return models.KnownDevicesResponse{Devices: kds}, nil
}

func HandleDevicesForget(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SelectParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if env.Known == nil {
		return nil, ErrNoStorage
	}
	if err := env.Known.ForgetDevice(params.DeviceID); err != nil {
		return nil, err
	}
	if err := env.Known.DeleteAnimation(params.DeviceID); err != nil &&
		!errors.Is(err, knowndb.ErrNotFound) {
		log.Warn().Err(err).Str("device", params.DeviceID).Msg("failed to delete stored animation")
	}
	return nil, nil
}

// HandleDevicesAnimation returns the last animation uploaded to a device.
func HandleDevicesAnimation(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SelectParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if env.Known == nil {
		return nil, ErrNoStorage
	}
	return env.Known.Animation(params.DeviceID)
}

func rememberDevices(env requests.RequestEnv, devs []devices.Device) { //nolint:gocritic // single-use parameter in API handler
	if env.Known == nil {
		return
	}
	for i := range devs {
		if err := env.Known.SaveKnownDevice(knowndb.FromDevice(&devs[i])); err != nil {
			log.Warn().Err(err).Str("device", devs[i].DeviceID).Msg("failed to remember device")
		}
	}
}
