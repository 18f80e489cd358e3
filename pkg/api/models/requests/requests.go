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

package requests

import (
	"context"
	"encoding/json"

	"github.com/framolux/framolux-core/pkg/animfile"
	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/database/knowndb"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/devices/scan"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/playback"
	"github.com/framolux/framolux-core/pkg/serialcmd"
	"github.com/framolux/framolux-core/pkg/upload"
)

// Services are the long-lived components API methods operate on. Known and
// Library may be nil when the service runs without a data directory.
type Services struct {
	Config        *config.Instance
	Registry      *devices.Registry
	Devices       *devices.Client
	Poller        *devices.Poller
	Scanner       *scan.Scanner
	Uploader      *upload.Orchestrator
	Player        *playback.Scheduler
	Clipboard     *matrix.Clipboard
	Known         *knowndb.Database
	Library       *animfile.Library
	SerialFactory serialcmd.PortFactory
	Notifications chan<- models.Notification
}

type RequestEnv struct {
	*Services
	Context context.Context
	Params  json.RawMessage
	ID      models.RPCID
	IsLocal bool
}
