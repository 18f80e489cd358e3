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
	"os"
	"os/signal"
	"syscall"

	"github.com/framolux/framolux-core/pkg/api/client"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/helpers"
	"github.com/framolux/framolux-core/pkg/service"
	"github.com/rs/zerolog/log"
)

// RunApp runs the bridge in the foreground until a signal arrives or the
// service shuts itself down.
func RunApp(cfg *config.Instance, dirs helpers.Dirs) (returnErr error) {
	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Error().Msgf("panic recovered: %v", r)
			returnErr = fmt.Errorf("panic: %v", r)
		}
	}()

	if client.IsRunning(cfg) {
		log.Info().Int("port", cfg.APIPort()).Msg("bridge already running, exiting")
		return nil
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	log.Info().Msg("starting bridge")
	stopSvc, done, err := service.Start(cfg, dirs)
	if err != nil {
		log.Error().Err(err).Msg("error starting bridge")
		return fmt.Errorf("error starting bridge: %w", err)
	}
	defer func() {
		if err := stopSvc(); err != nil {
			log.Error().Err(err).Msg("error stopping bridge")
		}
	}()

	select {
	case <-sigs:
	case <-done:
		log.Info().Msg("bridge shut down internally")
	}
	return nil
}
