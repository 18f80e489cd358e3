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

var AppVersion = "DEVELOPMENT"

const (
	AppName           = "framolux"
	LogFile           = "framolux.log"
	PidFile           = "framolux.pid"
	CfgFile           = "config.toml"
	AuthFile          = "auth.toml"
	KnownDBFile       = "known.db"
	AnimationsDir     = "animations"
	APIRequestTimeout = 30 * time.Second
)
