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

const (
	// DefaultFrameDuration is used for frames created without an explicit duration.
	DefaultFrameDuration = 1000
	// ManualDescription labels animations built by hand in the editor.
	ManualDescription = "Manual Animation"
)

// Frame is one panel image and how long the device shows it, in milliseconds.
type Frame struct {
	Pixels   Grid   `json:"pixels"`
	Duration uint32 `json:"duration"`
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	return Frame{Pixels: f.Pixels.Clone(), Duration: f.Duration}
}

// Animation is an ordered list of frames with a loop flag.
type Animation struct {
	Description string  `json:"description"`
	Frames      []Frame `json:"frames"`
	Loop        bool    `json:"loop"`
}

// Clone returns a deep copy of the animation.
func (a *Animation) Clone() *Animation {
	if a == nil {
		return nil
	}
	out := &Animation{
		Description: a.Description,
		Loop:        a.Loop,
		Frames:      make([]Frame, len(a.Frames)),
	}
	for i, f := range a.Frames {
		out.Frames[i] = f.Clone()
	}
	return out
}

// NewEmptyAnimation returns a looping one-frame animation with a blank canvas.
func NewEmptyAnimation(size int) *Animation {
	return &Animation{
		Description: ManualDescription,
		Loop:        true,
		Frames: []Frame{{
			Pixels:   NewGrid(size, EmptyFill),
			Duration: DefaultFrameDuration,
		}},
	}
}

// SingleFrame wraps a grid as a looping one-frame animation.
func SingleFrame(description string, g Grid, duration uint32) *Animation {
	return &Animation{
		Description: description,
		Loop:        true,
		Frames:      []Frame{{Pixels: g, Duration: duration}},
	}
}
