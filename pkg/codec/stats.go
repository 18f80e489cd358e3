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
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/framolux/framolux-core/pkg/matrix"
)

// Stats compares the binary encoding against the JSON form of the same
// animation.
type Stats struct {
	JSONSize   int     `json:"jsonSize"`
	BinarySize int     `json:"binarySize"`
	Savings    float64 `json:"savings"`
	Ratio      float64 `json:"ratio"`
}

// jsonSize returns the compact JSON length of an animation as a browser's
// JSON.stringify would produce it.
func jsonSize(a *matrix.Animation) (int, error) {
	out := *a
	if out.Frames == nil {
		out.Frames = []matrix.Frame{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return 0, fmt.Errorf("failed to marshal animation: %w", err)
	}
	return len(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// CompressionStats returns sizes, percentage savings rounded to one decimal
// and size ratio rounded to two.
func CompressionStats(a *matrix.Animation) (Stats, error) {
	if a == nil {
		return Stats{}, ErrNilAnimation
	}
	js, err := jsonSize(a)
	if err != nil {
		return Stats{}, err
	}
	blob, err := Encode(a)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{JSONSize: js, BinarySize: len(blob)}
	if js > 0 {
		s.Savings = math.Round(float64(js-len(blob))/float64(js)*100*10) / 10
	}
	if len(blob) > 0 {
		s.Ratio = math.Round(float64(js)/float64(len(blob))*100) / 100
	}
	return s, nil
}
