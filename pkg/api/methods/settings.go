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
	"fmt"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/rs/zerolog/log"
)

func HandleVersion(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return models.VersionResponse{
		Version:    config.AppVersion,
		InstanceID: env.Config.InstanceID(),
	}, nil
}

func settingsResponse(cfg *config.Instance) models.SettingsResponse {
	return models.SettingsResponse{
		Subnet:         cfg.Subnet(),
		SerialPort:     cfg.SerialPort(),
		APIListen:      cfg.APIListen(),
		MatrixSize:     cfg.MatrixSize(),
		PreviewFPS:     cfg.PreviewFPS(),
		DebugLogging:   cfg.DebugLogging(),
		ErrorReporting: cfg.ErrorReporting(),
		HasAPIKey:      cfg.DeviceAPIKey("") != "",
	}
}

func HandleSettings(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return settingsResponse(env.Config), nil
}

// HandleSettingsUpdate applies the given fields and saves the config file.
// Only local clients may change the device API key.
func HandleSettingsUpdate(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.UpdateSettingsParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if params.APIKey != nil && !env.IsLocal {
		return nil, ErrLocalOnly
	}

	cfg := env.Config
	if params.DebugLogging != nil {
		cfg.SetDebugLogging(*params.DebugLogging)
	}
	if params.ErrorReporting != nil {
		cfg.SetErrorReporting(*params.ErrorReporting)
	}
	if params.Subnet != nil {
		cfg.SetSubnet(*params.Subnet)
	}
	if params.SerialPort != nil {
		cfg.SetSerialPort(*params.SerialPort)
	}
	if params.APIKey != nil {
		cfg.SetAPIKey(*params.APIKey)
	}
	if params.MatrixSize != nil {
		cfg.SetMatrixSize(*params.MatrixSize)
	}

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	log.Info().Msg("settings updated")
	return settingsResponse(cfg), nil
}
