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

package animfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SettleDelay lets an editor finish writing before the file is reloaded.
const SettleDelay = 200 * time.Millisecond

// Watch reloads path every time it is written and passes the result to fn,
// until ctx is done. Editors that replace the file are handled by watching
// the parent directory.
func Watch(ctx context.Context, path string, fn func(*matrix.Animation, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing file watcher")
		}
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}
	log.Info().Str("path", abs).Msg("watching animation file")

	fs := afero.NewOsFs()
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				settle = time.After(SettleDelay)
			}
		case <-settle:
			settle = nil
			anim, err := Load(fs, abs)
			if err != nil {
				log.Warn().Err(err).Str("path", abs).Msg("failed to reload animation")
			} else {
				log.Debug().Str("path", abs).Int("frames", len(anim.Frames)).Msg("animation reloaded")
			}
			fn(anim, err)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(watchErr).Msg("error in watcher")
		}
	}
}
