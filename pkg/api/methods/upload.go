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
	"encoding/base64"
	"fmt"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/validation"
	"github.com/framolux/framolux-core/pkg/codec"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/upload"
)

// Upload methods always answer with the upload result. A failed upload is
// a normal outcome, not an RPC error.

func HandleUploadFrame(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.GridParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	ctx, cancel := uploadContext(env)
	defer cancel()

	g := params.Pixels.Normalize()
	res := env.Uploader.UploadSingleFrame(ctx, g)
	recordUpload(env, res, matrix.SingleFrame(upload.SingleFrameDescription, g, upload.SingleFrameDuration))
	return res, nil
}

func HandleUploadAnimation(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.AnimationParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	ctx, cancel := uploadContext(env)
	defer cancel()

	anim := params.Animation()
	res := env.Uploader.UploadAnimation(ctx, anim)
	recordUpload(env, res, anim)
	return res, nil
}

func HandleUploadTest(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	ctx, cancel := uploadContext(env)
	defer cancel()
	return env.Uploader.SendTestFrame(ctx), nil
}

func HandleUploadProgress(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	return models.ProgressResponse{
		Percent:   env.Uploader.Progress(),
		Uploading: env.Uploader.Uploading(),
	}, nil
}

// HandleCodecEncode returns the FMLX blob for an animation, base64 encoded.
func HandleCodecEncode(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.AnimationParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	blob, err := codec.Encode(params.Animation())
	if err != nil {
		return nil, fmt.Errorf("failed to encode animation: %w", err)
	}
	return models.BlobResponse{Data: base64.StdEncoding.EncodeToString(blob), Size: len(blob)}, nil
}

// HandleCodecDecode parses a base64 FMLX blob. Frames come back in wire
// orientation, exactly as the device would store them.
func HandleCodecDecode(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.BlobParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	blob, err := base64.StdEncoding.DecodeString(params.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", validation.ErrInvalidParams, err)
	}
	anim, err := codec.Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode animation: %w", err)
	}
	return anim, nil
}

func HandleCodecStats(env requests.RequestEnv) (any, error) { //nolint:gocritic // single-use parameter in API handler
	var params models.AnimationParams
	if err := validation.ValidateAndUnmarshal(env.Params, &params); err != nil {
		return nil, err
	}
	stats, err := codec.CompressionStats(params.Animation())
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}
