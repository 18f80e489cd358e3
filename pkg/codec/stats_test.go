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

package codec

import (
	"testing"

	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionStats_DefaultCanvas(t *testing.T) {
	t.Parallel()

	stats, err := CompressionStats(matrix.NewEmptyAnimation(matrix.DefaultSize))
	require.NoError(t, err)

	assert.Equal(t, 2678, stats.JSONSize)
	assert.Equal(t, 792, stats.BinarySize)
	assert.InDelta(t, 70.4, stats.Savings, 0.0001)
	assert.InDelta(t, 3.38, stats.Ratio, 0.0001)
}

func TestCompressionStats_Tiny(t *testing.T) {
	t.Parallel()

	a := &matrix.Animation{
		Description: "x",
		Loop:        true,
		Frames:      []matrix.Frame{{Pixels: matrix.Grid{{"#000000"}}, Duration: 1}},
	}
	stats, err := CompressionStats(a)
	require.NoError(t, err)

	assert.Equal(t, 80, stats.JSONSize)
	assert.Equal(t, 27, stats.BinarySize)
}

func TestCompressionStats_NoFrames(t *testing.T) {
	t.Parallel()

	stats, err := CompressionStats(&matrix.Animation{Description: "x"})
	require.NoError(t, err)

	// {"description":"x","frames":[],"loop":false}
	assert.Equal(t, 44, stats.JSONSize)
	assert.Equal(t, HeaderSize, stats.BinarySize)
}

func TestCompressionStats_HTMLNotEscaped(t *testing.T) {
	t.Parallel()

	plain, err := CompressionStats(&matrix.Animation{Description: "ab"})
	require.NoError(t, err)
	html, err := CompressionStats(&matrix.Animation{Description: "<>"})
	require.NoError(t, err)

	assert.Equal(t, plain.JSONSize, html.JSONSize)
}
