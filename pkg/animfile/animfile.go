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

// Package animfile reads and writes animations on disk, either as the
// editor's JSON document or as an FMLX blob, and watches files for edits.
package animfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/framolux/framolux-core/pkg/codec"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/spf13/afero"
)

const (
	ExtJSON = ".json"
	ExtFMLX = ".fmlx"
)

var (
	ErrUnknownFormat = errors.New("unknown animation file format")
	ErrNoFrames      = errors.New("animation has no frames")
	ErrInvalidName   = errors.New("invalid animation name")
)

// IsAnimationFile reports whether path has a supported extension.
func IsAnimationFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtJSON, ExtFMLX:
		return true
	default:
		return false
	}
}

// Parse decodes an animation from data in the format named by ext.
// FMLX frames are turned back to the orientation they were saved in.
func Parse(data []byte, ext string) (*matrix.Animation, error) {
	switch strings.ToLower(ext) {
	case ExtJSON:
		var anim matrix.Animation
		if err := json.Unmarshal(data, &anim); err != nil {
			return nil, fmt.Errorf("failed to parse animation json: %w", err)
		}
		if len(anim.Frames) == 0 {
			return nil, ErrNoFrames
		}
		for i := range anim.Frames {
			anim.Frames[i].Pixels = anim.Frames[i].Pixels.Normalize()
		}
		return &anim, nil
	case ExtFMLX:
		anim, err := codec.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode animation: %w", err)
		}
		for i := range anim.Frames {
			anim.Frames[i].Pixels = codec.Rotate180(anim.Frames[i].Pixels)
		}
		return anim, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Marshal encodes anim in the format named by ext.
func Marshal(anim *matrix.Animation, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ExtJSON:
		data, err := json.MarshalIndent(anim, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal animation json: %w", err)
		}
		return data, nil
	case ExtFMLX:
		if len(anim.Frames) == 0 {
			return nil, ErrNoFrames
		}
		data, err := codec.Encode(anim)
		if err != nil {
			return nil, fmt.Errorf("failed to encode animation: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Load reads an animation file, picking the format by extension.
func Load(fs afero.Fs, path string) (*matrix.Animation, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Save writes anim to path, creating parent directories.
func Save(fs afero.Fs, path string, anim *matrix.Animation) error {
	data, err := Marshal(anim, filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Entry is a stored animation file.
type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
}

// Library is a directory of animation files.
type Library struct {
	fs  afero.Fs
	dir string
}

func NewLibrary(fs afero.Fs, dir string) *Library {
	return &Library{fs: fs, dir: dir}
}

func (l *Library) Dir() string {
	return l.dir
}

// path resolves a bare name to a file in the library, defaulting to JSON.
func (l *Library) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !IsAnimationFile(name) {
		name += ExtJSON
	}
	return filepath.Join(l.dir, name), nil
}

func (l *Library) Load(name string) (*matrix.Animation, error) {
	p, err := l.path(name)
	if err != nil {
		return nil, err
	}
	return Load(l.fs, p)
}

func (l *Library) Save(name string, anim *matrix.Animation) (string, error) {
	p, err := l.path(name)
	if err != nil {
		return "", err
	}
	return p, Save(l.fs, p, anim)
}

func (l *Library) Delete(name string) error {
	p, err := l.path(name)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(p); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// List returns every animation file in the library sorted by name. A
// missing directory is an empty library.
func (l *Library) List() ([]Entry, error) {
	infos, err := afero.ReadDir(l.fs, l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", l.dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() || !IsAnimationFile(info.Name()) {
			continue
		}
		entries = append(entries, Entry{
			Name:   info.Name(),
			Path:   filepath.Join(l.dir, info.Name()),
			Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(info.Name())), "."),
			Size:   info.Size(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
