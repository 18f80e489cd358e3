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
	"fmt"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/playback"
)

func playbackResponse(env requests.RequestEnv) models.PlaybackResponse { //nolint:gocritic // single-use parameter in API handler
	resp := models.PlaybackResponse{Snapshot: env.Player.Snapshot()}
	if f, ok := env.Player.CurrentFrame(); ok {
		resp.Frame = &f
	}
	return resp
}

// afterPlayback publishes the new state and returns it to the caller.
func afterPlayback(env requests.RequestEnv, err error) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if err != nil {
		return nil, err
	}
	publishPlayback(env)
	return playbackResponse(env), nil
}

func HandlePlayback(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return playbackResponse(env), nil
}

// HandlePlaybackLoad replaces the editor animation. Without params a blank
// one-frame canvas of the configured size is loaded.
func HandlePlaybackLoad(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	anim := matrix.NewEmptyAnimation(env.Config.MatrixSize())
	if len(env.Params) > 0 && string(env.Params) != "null" {
		var params models.AnimationParams
		if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
			return nil, err
		}
		anim = params.Animation()
	}
	return afterPlayback(env, env.Player.SetAnimation(anim))
}

func HandlePlaybackPlay(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	// Playing twice is fine; playing nothing is not.
	if !env.Player.Play() && !env.Player.Playing() {
		return nil, fmt.Errorf("cannot play: %w", playback.ErrNoAnimation)
	}
	return afterPlayback(env, nil)
}

func HandlePlaybackStop(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	env.Player.Stop()
	return afterPlayback(env, nil)
}

func HandlePlaybackToggle(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	env.Player.Toggle()
	return afterPlayback(env, nil)
}

func HandlePlaybackGoto(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.GotoParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	return afterPlayback(env, env.Player.GoToFrame(params.Index))
}

func HandlePlaybackNext(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return afterPlayback(env, env.Player.Next())
}

func HandlePlaybackPrevious(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return afterPlayback(env, env.Player.Previous())
}

func HandlePlaybackReset(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	env.Player.Reset()
	return afterPlayback(env, nil)
}

func HandlePlaybackAdd(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	_, err := env.Player.AddFrame()
	return afterPlayback(env, err)
}

func HandlePlaybackDelete(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return afterPlayback(env, env.Player.DeleteFrame())
}

func HandlePlaybackReplace(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.GridParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	return afterPlayback(env, env.Player.ReplaceCurrentFrame(params.Pixels.Normalize()))
}

// HandlePlaybackUpload sends the editor animation to the selected device.
func HandlePlaybackUpload(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	anim := env.Player.Animation()
	ctx, cancel := uploadContext(env)
	defer cancel()
	res := env.Uploader.UploadAnimation(ctx, anim)
	recordUpload(env, res, anim)
	return res, nil
}
