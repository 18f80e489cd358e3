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
	"sort"
	"testing"

	"github.com/framolux/framolux-core/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// FSHelper wraps an afero filesystem for animation library tests.
type FSHelper struct {
	Fs afero.Fs
}

func NewMemoryFS() *FSHelper {
	return &FSHelper{Fs: afero.NewMemMapFs()}
}

// NewOSFS uses the real filesystem, for tests that need fsnotify.
func NewOSFS() *FSHelper {
	return &FSHelper{Fs: afero.NewOsFs()}
}

// CreateDirectoryStructure builds files and directories from a nested map.
// String and []byte values become files, maps become directories and nil
// becomes an empty directory.
func (h *FSHelper) CreateDirectoryStructure(base string, structure map[string]any) error {
	for name, content := range structure {
		path := filepath.Join(base, name)
		switch v := content.(type) {
		case string:
			if err := h.WriteFile(path, []byte(v)); err != nil {
				return err
			}
		case []byte:
			if err := h.WriteFile(path, v); err != nil {
				return err
			}
		case map[string]any:
			if err := h.CreateDirectoryStructure(path, v); err != nil {
				return err
			}
		case nil:
			if err := h.Fs.MkdirAll(path, 0o750); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", path, err)
			}
		}
	}
	return nil
}

func (h *FSHelper) WriteFile(path string, content []byte) error {
	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(h.Fs, path, content, 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

func (h *FSHelper) FileExists(path string) bool {
	exists, err := afero.Exists(h.Fs, path)
	return err == nil && exists
}

func (h *FSHelper) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(h.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// ListFiles returns the sorted names in a directory.
func (h *FSHelper) ListFiles(path string) ([]string, error) {
	infos, err := afero.ReadDir(h.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	return names, nil
}

// SampleAnimationJSON is a two-frame 2×2 animation in the editor's JSON
// layout.
const SampleAnimationJSON = `{
  "description": "sample",
  "loop": true,
  "frames": [
    {"pixels": [["#FF0000", "#00FF00"], ["#0000FF", "#FFFFFF"]], "duration": 500},
    {"pixels": [["#000000", "#000000"], ["#000000", "#FFFFFF"]], "duration": 250}
  ]
}`

// NewTestConfig writes tomlData as config.toml in a temp dir and loads it
// with the base defaults. authData, when non-empty, becomes auth.toml.
func NewTestConfig(t *testing.T, tomlData, authData string) *config.Instance {
	t.Helper()
	dir := t.TempDir()
	if tomlData != "" {
		path := filepath.Join(dir, config.CfgFile)
		require.NoError(t, os.WriteFile(path, []byte(tomlData), 0o600))
	}
	if authData != "" {
		path := filepath.Join(dir, config.AuthFile)
		require.NoError(t, os.WriteFile(path, []byte(authData), 0o600))
	}
	cfg, err := config.NewConfig(dir, config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}
