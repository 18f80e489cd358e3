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
	"pgregory.net/rapid"
)

// colorGen generates canonical uppercase hex colors.
func colorGen() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		return Color{
			R: rapid.Uint8().Draw(t, "r"),
			G: rapid.Uint8().Draw(t, "g"),
			B: rapid.Uint8().Draw(t, "b"),
		}.Hex()
	})
}

// gridGen generates square grids between 1×1 and 24×24.
func gridGen() *rapid.Generator[Grid] {
	return rapid.Custom(func(t *rapid.T) Grid {
		n := rapid.IntRange(1, 24).Draw(t, "size")
		g := make(Grid, n)
		for y := 0; y < n; y++ {
			g[y] = rapid.SliceOfN(colorGen(), n, n).Draw(t, "row")
		}
		return g
	})
}
