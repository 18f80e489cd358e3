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

// DefaultSize is the edge length of the reference LED panel.
const DefaultSize = 16

// EmptyFill is the dark grey used by the editor for a blank canvas.
const EmptyFill = "#1A1A1A"

// Grid is a square matrix of "#RRGGBB" colors, indexed [y][x].
type Grid [][]string

// NewGrid returns a size×size grid filled with the given color.
func NewGrid(size int, fill string) Grid {
	g := make(Grid, size)
	for y := range g {
		row := make([]string, size)
		for x := range row {
			row[x] = fill
		}
		g[y] = row
	}
	return g
}

// At returns the color at column x, row y. Out-of-bounds and empty cells
// read as black.
func (g Grid) At(x, y int) string {
	if y < 0 || y >= len(g) {
		return Black
	}
	row := g[y]
	if x < 0 || x >= len(row) {
		return Black
	}
	if row[x] == "" {
		return Black
	}
	return row[x]
}

// Size returns the number of rows.
func (g Grid) Size() int {
	return len(g)
}

// Width returns the number of columns in the first row.
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = append([]string(nil), row...)
	}
	return out
}

// Equal reports whether both grids have identical shape and cells.
func (g Grid) Equal(o Grid) bool {
	if len(g) != len(o) {
		return false
	}
	for y := range g {
		if len(g[y]) != len(o[y]) {
			return false
		}
		for x := range g[y] {
			if g[y][x] != o[y][x] {
				return false
			}
		}
	}
	return true
}

// IsSquare reports whether every row has exactly len(g) columns.
func (g Grid) IsSquare() bool {
	for _, row := range g {
		if len(row) != len(g) {
			return false
		}
	}
	return true
}

// Normalize returns a copy with every cell in canonical uppercase form.
func (g Grid) Normalize() Grid {
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = make([]string, len(row))
		for x, c := range row {
			out[y][x] = NormalizeColor(c)
		}
	}
	return out
}
