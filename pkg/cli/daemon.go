//go:build linux || darwin

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

package cli

import (
	"fmt"

	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/helpers"
	"github.com/framolux/framolux-core/pkg/service"
)

// ServiceCommand handles -service start, stop, restart, status and exec.
// exec is what start re-runs in the detached child.
func ServiceCommand(cfg *config.Instance, dirs helpers.Dirs, cmd string) error {
	svc, err := helpers.NewService(helpers.ServiceArgs{
		Entry: func() (func() error, error) {
			stop, _, err := service.Start(cfg, dirs)
			return stop, err //nolint:wrapcheck // wrapped by the handler
		},
		Dirs: dirs,
	})
	if err != nil {
		return fmt.Errorf("error creating service: %w", err)
	}
	return svc.ServiceHandler(cmd) //nolint:wrapcheck // errors are user facing
}
