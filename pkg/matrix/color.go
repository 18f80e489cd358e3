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
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Black is the fill used for any pixel that is missing or can't be parsed.
const Black = "#000000"

// Color is a single 24-bit RGB LED value.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// ParseColor parses a "#RRGGBB" hex string. The leading hash is optional.
// The 3-digit shorthand "#RGB" is accepted and expanded, so "#abc" reads as
// "#AABBCC". Anything that isn't a valid hex color yields black.
func ParseColor(s string) Color {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}
	}

	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}
}

// Hex returns the canonical uppercase "#RRGGBB" form.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// NormalizeColor returns the canonical form of a color string.
func NormalizeColor(s string) string {
	return ParseColor(s).Hex()
}
