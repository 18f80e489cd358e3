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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/framolux/framolux-core/pkg/config"
)

const (
	// AppEnv points at the real binary when running from a temp copy.
	AppEnv  = "FRAMOLUX_APP"
	UserDir = "user"
)

// Dirs are the directories the bridge reads and writes.
type Dirs struct {
	// ConfigDir holds config.toml and auth.toml.
	ConfigDir string
	// DataDir holds the device database and saved animations.
	DataDir string
	// TempDir holds logs and the pid file. Expect it to be deleted.
	TempDir string
}

var (
	userDirCache       string
	userDirCacheExists bool
	userDirOnce        sync.Once
)

// HasUserDir reports whether a "user" directory sits next to the binary,
// which makes the install portable: every directory then lives inside it.
func HasUserDir() (string, bool) {
	userDirOnce.Do(func() {
		exe := os.Getenv(AppEnv)
		if exe == "" {
			var err error
			exe, err = os.Executable()
			if err != nil {
				return
			}
		}

		userDir := filepath.Join(filepath.Dir(exe), UserDir)
		info, err := os.Stat(userDir)
		if err != nil || !info.IsDir() {
			return
		}
		userDirCache = userDir
		userDirCacheExists = true
	})
	return userDirCache, userDirCacheExists
}

// XDGDirs places config and data under the XDG base directories.
func XDGDirs() Dirs {
	return Dirs{
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		DataDir:   filepath.Join(xdg.DataHome, config.AppName),
		TempDir:   filepath.Join(os.TempDir(), config.AppName),
	}
}

// DefaultDirs is the portable user dir if present, otherwise XDGDirs.
func DefaultDirs() Dirs {
	dirs := XDGDirs()
	if v, ok := HasUserDir(); ok {
		dirs.ConfigDir = v
		dirs.DataDir = v
	}
	return dirs
}

// Ensure creates all directories.
func (d Dirs) Ensure() error {
	for _, dir := range []string{d.ConfigDir, d.DataDir, d.TempDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (d Dirs) AnimationsDir() string {
	return filepath.Join(d.DataDir, config.AnimationsDir)
}
