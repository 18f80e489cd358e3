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

package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// numbered builds an n×n grid whose cells encode their own coordinates so
// tests can see where each pixel ended up.
func numbered(n int) Grid {
	g := make(Grid, n)
	for y := 0; y < n; y++ {
		g[y] = make([]string, n)
		for x := 0; x < n; x++ {
			g[y][x] = Color{R: uint8(x), G: uint8(y)}.Hex()
		}
	}
	return g
}

func TestToPhysical_Mapping(t *testing.T) {
	t.Parallel()

	g := numbered(3)
	p := ToPhysical(g)

	// result[y][x] == grid[N-1-x][N-1-y]
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, g[2-x][2-y], p[y][x], "cell (%d,%d)", x, y)
		}
	}
}

func TestToPhysical_TwoByTwo(t *testing.T) {
	t.Parallel()

	g := Grid{
		{"#111111", "#222222"},
		{"#333333", "#444444"},
	}
	want := Grid{
		{"#444444", "#222222"},
		{"#333333", "#111111"},
	}
	assert.Equal(t, want, ToPhysical(g))
}

func TestTransform_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ToPhysical(Grid{}))
	assert.Empty(t, ToLogical(Grid{}))
}

func TestToPhysical_ShortRowsFillBlack(t *testing.T) {
	t.Parallel()

	g := Grid{
		{"#FF0000"},
		{"#00FF00", "#0000FF"},
	}
	p := ToPhysical(g)

	assert.Len(t, p, 2)
	for _, row := range p {
		assert.Len(t, row, 2)
	}
	// p[0][0] reads g[1][1]; p[1][1] reads g[0][0]; p[0][1] reads the
	// missing g[0][1].
	assert.Equal(t, "#0000FF", p[0][0])
	assert.Equal(t, "#FF0000", p[1][1])
	assert.Equal(t, "#00FF00", p[1][0])
	assert.Equal(t, Black, p[0][1])
}

func TestToPhysical_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	g := numbered(4)
	orig := g.Clone()
	_ = ToPhysical(g)
	assert.Equal(t, orig, g)
}

func TestTransform_RoundTripProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		g := gridGen().Draw(t, "grid")
		got := ToLogical(ToPhysical(g))
		if !got.Equal(g) {
			t.Fatalf("round trip mismatch:\n got %v\nwant %v", got, g)
		}
	})
}

func TestTransform_InverseRoundTripProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		g := gridGen().Draw(t, "grid")
		got := ToPhysical(ToLogical(g))
		if !got.Equal(g) {
			t.Fatalf("inverse round trip mismatch:\n got %v\nwant %v", got, g)
		}
	})
}
