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
	syncutil "github.com/framolux/framolux-core/pkg/helpers/syncutil"
)

// Clipboard holds at most one copied grid. Copies in and out are deep so
// later edits to either side never leak through.
type Clipboard struct {
	grid Grid
	mu   syncutil.Mutex
}

func (c *Clipboard) Copy(g Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grid = g.Clone()
}

// Paste returns a copy of the stored grid, or false if the clipboard is empty.
func (c *Clipboard) Paste() (Grid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grid == nil {
		return nil, false
	}
	return c.grid.Clone(), true
}

func (c *Clipboard) HasContent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grid != nil
}

func (c *Clipboard) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grid = nil
}
