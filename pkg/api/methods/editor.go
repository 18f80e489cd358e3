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
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/playback"
)

const (
	// DefaultRenderScale makes each LED an 8×8 block in rendered previews.
	DefaultRenderScale = 8
	dominantColors     = 5
)

func HandleClipboard(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	g, ok := env.Clipboard.Paste()
	return models.ClipboardResponse{Pixels: g, HasContent: ok}, nil
}

// HandleClipboardCopy copies the given grid, or the editor's current frame
// when none is given.
func HandleClipboardCopy(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.OptionalGridParams
	if err := validation.ValidateOptional(env.Params, &params); err != nil {
		return nil, err
	}
	g := params.Pixels
	if g == nil {
		f, ok := env.Player.CurrentFrame()
		if !ok {
			return nil, fmt.Errorf("nothing to copy: %w", playback.ErrNoAnimation)
		}
		g = f.Pixels
	}
	env.Clipboard.Copy(g.Normalize())
	return HandleClipboard(env)
}

// HandleClipboardPaste replaces the editor's current frame with the
// clipboard.
func HandleClipboardPaste(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	g, ok := env.Clipboard.Paste()
	if !ok {
		return nil, ErrClipboardEmpty
	}
	return afterPlayback(env, env.Player.ReplaceCurrentFrame(g))
}

func HandleClipboardClear(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	env.Clipboard.Clear()
	return models.ClipboardResponse{}, nil
}

// HandleImageQuantize turns an uploaded picture into a grid of the
// configured panel size.
func HandleImageQuantize(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.QuantizeParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(params.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validation.ErrInvalidParams, err)
	}
	size := params.Size
	if size == 0 {
		size = env.Config.MatrixSize()
	}
	g, err := matrix.QuantizeReader(bytes.NewReader(data), size)
	if err != nil {
		return nil, fmt.Errorf("failed to quantize image: %w", err)
	}
	return models.QuantizeResponse{
		Description: matrix.Describe(g),
		Pixels:      g,
		Colors:      matrix.DominantColors(g, dominantColors),
	}, nil
}

// HandleImageRender returns a base64 PNG of the given grid, or of the
// editor's current frame.
func HandleImageRender(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.RenderParams
	if err := validation.ValidateOptional(env.Params, &params); err != nil {
		return nil, err
	}
	g := params.Pixels
	if g == nil {
		f, ok := env.Player.CurrentFrame()
		if !ok {
			return nil, fmt.Errorf("nothing to render: %w", playback.ErrNoAnimation)
		}
		g = f.Pixels
	}
	scale := params.Scale
	if scale == 0 {
		scale = DefaultRenderScale
	}
	png, err := matrix.RenderPNG(g, scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render image: %w", err)
	}
	return models.RenderResponse{Data: base64.StdEncoding.EncodeToString(png)}, nil
}
