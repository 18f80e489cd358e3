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

// ToPhysical maps an editor grid onto the panel's wiring order: rotate 90°
// counter-clockwise, then mirror horizontally. The edge length is taken from
// the number of rows; missing cells read as black.
func ToPhysical(g Grid) Grid {
	size := len(g)

	rotated := NewGrid(size, Black)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			rotated[y][x] = g.At(size-1-y, x)
		}
	}

	flipped := NewGrid(size, Black)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			flipped[y][x] = rotated.At(size-1-x, y)
		}
	}

	return flipped
}

// ToLogical is the exact inverse of ToPhysical: mirror horizontally, then
// rotate 90° clockwise.
func ToLogical(g Grid) Grid {
	size := len(g)

	unflipped := NewGrid(size, Black)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			unflipped[y][x] = g.At(size-1-x, y)
		}
	}

	unrotated := NewGrid(size, Black)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			unrotated[y][x] = unflipped.At(y, size-1-x)
		}
	}

	return unrotated
}
