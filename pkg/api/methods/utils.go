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
	"errors"
	"time"

	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/notifications"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/upload"
	"github.com/rs/zerolog/log"
)

var (
	ErrLocalOnly      = errors.New("method only allowed from localhost")
	ErrNoStorage      = errors.New("no data directory available")
	ErrClipboardEmpty = errors.New("clipboard is empty")
)

// DeviceTimeout bounds single device calls made on behalf of a client.
const DeviceTimeout = 5 * time.Second

func deviceContext(env requests.RequestEnv) (context.Context, context.CancelFunc) { //nolint:gocritic // single-use parameter in API handler
	parent := env.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, DeviceTimeout)
}

func uploadContext(env requests.RequestEnv) (context.Context, context.CancelFunc) { //nolint:gocritic // single-use parameter in API handler
	parent := env.Context
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, env.Config.UploadTimeout())
}

// recordUpload keeps the last animation each device accepted so it can be
// restored into the editor later.
func recordUpload(env requests.RequestEnv, res upload.Result, anim *matrix.Animation) { //nolint:gocritic // single-use parameter in API handler
	if !res.Success() || env.Known == nil || res.DeviceID == "" {
		return
	}
	if _, err := env.Known.SaveAnimation(res.DeviceID, anim); err != nil {
		log.Warn().Err(err).Str("device", res.DeviceID).Msg("failed to store uploaded animation")
	}
}

func publishPlayback(env requests.RequestEnv) { //nolint:gocritic // single-use parameter in API handler
	notifications.PlaybackState(env.Notifications, env.Player.Snapshot())
}
