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

	"github.com/framolux/framolux-core/pkg/animfile"
	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/rs/zerolog/log"
)

func HandleAnimations(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	if env.Library == nil {
		return nil, ErrNoStorage
	}
	entries, err := env.Library.List()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []animfile.Entry{}
	}
	return models.AnimationsResponse{Animations: entries}, nil
}

// HandleAnimationsLoad reads a library file into the editor.
func HandleAnimationsLoad(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.LoadAnimationParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if env.Library == nil {
		return nil, ErrNoStorage
	}
	anim, err := env.Library.Load(params.Name)
	if err != nil {
		return nil, err
	}
	if err := env.Player.SetAnimation(anim); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", params.Name, err)
	}
	if params.Play {
		env.Player.Play()
	}
	log.Info().Str("name", params.Name).Int("frames", len(anim.Frames)).Msg("loaded animation")
	return afterPlayback(env, nil)
}

// HandleAnimationsSave writes the given animation, or the editor's one,
// to the library.
func HandleAnimationsSave(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.SaveAnimationParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if env.Library == nil {
		return nil, ErrNoStorage
	}

	anim := env.Player.Animation()
	if params.Animation != nil {
		anim = params.Animation.Animation()
	}
	if anim == nil {
		return nil, animfile.ErrNoFrames
	}
	path, err := env.Library.Save(params.Name, anim)
	if err != nil {
		return nil, err
	}
	return models.SavedResponse{Path: path}, nil
}

func HandleAnimationsDelete(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.AnimationNameParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	if env.Library == nil {
		return nil, ErrNoStorage
	}
	return nil, env.Library.Delete(params.Name)
}
