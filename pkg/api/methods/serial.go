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
	"context"
	"fmt"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/framolux/framolux-core/pkg/database/knowndb"
	"github.com/framolux/framolux-core/pkg/playback"
	"github.com/framolux/framolux-core/pkg/serialcmd"
	"github.com/rs/zerolog/log"
)

// withSerial opens the requested port, falling back to the configured one
// and then to the first recognised USB bridge, and closes it after fn.
func withSerial(
	env requests.RequestEnv, //nolint:gocritic // single-use parameter in API handler
	port string,
	fn func(ctx context.Context, conn *serialcmd.Conn) (string, error),
) (models.SerialReplyResponse, error) {
	if port == "" {
		port = env.Config.SerialPort()
	}
	path, err := serialcmd.FindPort(port)
	if err != nil {
		return models.SerialReplyResponse{}, err
	}
	conn, err := serialcmd.Open(path, env.SerialFactory)
	if err != nil {
		return models.SerialReplyResponse{}, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Str("port", path).Msg("failed to close serial port")
		}
	}()

	ctx := env.Context
	if ctx == nil {
		ctx = context.Background()
	}
	reply, err := fn(ctx, conn)
	if err != nil {
		return models.SerialReplyResponse{}, fmt.Errorf("serial %s: %w", path, err)
	}
	return models.SerialReplyResponse{Port: path, Reply: reply}, nil
}

func HandleSerialPorts(_ requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	ports, err := serialcmd.ListPorts()
	if err != nil {
		return nil, err
	}
	return models.SerialPortsResponse{Ports: ports}, nil
}

// HandleSerialIdentify waits for the firmware boot banner.
func HandleSerialIdentify(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SerialPortParams
	if err := validation.ValidateOptional(env.Params, &params); err != nil {
		return nil, err
	}
	var info serialcmd.FirmwareInfo
	resp, err := withSerial(env, params.Port, func(ctx context.Context, conn *serialcmd.Conn) (string, error) {
		var err error
		info, err = conn.Identify(ctx)
		return "", err
	})
	if err != nil {
		return nil, err
	}
	return models.SerialIdentifyResponse{Port: resp.Port, FirmwareInfo: info}, nil
}

// HandleSerialCommand sends a raw protocol line. Local clients only.
func HandleSerialCommand(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if !env.IsLocal {
		return nil, ErrLocalOnly
	}
	var params models.SerialCommandParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	return withSerial(env, params.Port, func(ctx context.Context, conn *serialcmd.Conn) (string, error) {
		return conn.Command(ctx, params.Command)
	})
}

// HandleSerialWiFi provisions network credentials over USB.
func HandleSerialWiFi(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SerialWiFiParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	resp, err := withSerial(env, params.Port, func(ctx context.Context, conn *serialcmd.Conn) (string, error) {
		return conn.SetWiFi(ctx, params.SSID, params.Password)
	})
	if err != nil {
		return nil, err
	}
	if params.Save && env.Known != nil {
		wc := knowndb.WiFiConfig{SSID: params.SSID, Password: params.Password}
		if err := env.Known.SaveWiFiConfig(wc); err != nil {
			log.Warn().Err(err).Msg("failed to save WiFi credentials")
		}
	}
	return resp, nil
}

func HandleSerialDeviceName(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SerialNameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	return withSerial(env, params.Port, func(ctx context.Context, conn *serialcmd.Conn) (string, error) {
		return conn.SetName(ctx, params.Name)
	})
}

// HandleSerialAPIKey sets the device key, or reads it back when no key is
// given. Local clients only.
func HandleSerialAPIKey(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if !env.IsLocal {
		return nil, ErrLocalOnly
	}
	var params models.SerialAPIKeyParams
	if err := validation.ValidateOptional(env.Params, &params); err != nil {
		return nil, err
	}
	return withSerial(env, params.Port, func(ctx context.Context, conn *serialcmd.Conn) (string, error) {
		if params.Key == "" {
			return conn.GetAPIKey(ctx)
		}
		return conn.SetAPIKey(ctx, params.Key)
	})
}

func HandleSerialAPIKeyClear(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if !env.IsLocal {
		return nil, ErrLocalOnly
	}
	var params models.SerialPortParams
	if err := validation.ValidateOptional(env.Params, &params); err != nil {
		return nil, err
	}
	return withSerial(env, params.Port, func(ctx context.Context, conn *serialcmd.Conn) (string, error) {
		return conn.DeleteAPIKey(ctx)
	})
}

// HandleSerialMatrix pushes a grid, or the editor's current frame, straight
// to a USB-connected panel without storing it.
func HandleSerialMatrix(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SerialMatrixParams
	if err := validation.ValidateOptional(env.Params, &params); err != nil {
		return nil, err
	}
	g := params.Pixels
	if g == nil {
		f, ok := env.Player.CurrentFrame()
		if !ok {
			return nil, fmt.Errorf("nothing to send: %w", playback.ErrNoAnimation)
		}
		g = f.Pixels
	}
	return withSerial(env, params.Port, func(_ context.Context, conn *serialcmd.Conn) (string, error) {
		return "", conn.SendMatrix(g.Normalize())
	})
}
