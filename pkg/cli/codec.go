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

package cli

import (
	"fmt"

	"github.com/framolux/framolux-core/pkg/animfile"
	"github.com/framolux/framolux-core/pkg/codec"
	"github.com/spf13/afero"
)

const (
	extFMLX = animfile.ExtFMLX
	extJSON = animfile.ExtJSON
)

// Convert reads an animation file and writes it in the ext format to out,
// or to stdout when out is empty.
func (r *Runner) Convert(path, ext, out string) error {
	anim, err := animfile.Load(r.files(), path)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped with path
	}
	data, err := animfile.Marshal(anim, ext)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", path, err)
	}
	if out == "" {
		_, err = r.out.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := afero.WriteFile(r.files(), out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	_, _ = fmt.Fprintf(r.out, "Wrote %d frames (%d bytes) to %s\n", len(anim.Frames), len(data), out)
	return nil
}

func (r *Runner) Stats(path string) error {
	anim, err := animfile.Load(r.files(), path)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped with path
	}
	stats, err := codec.CompressionStats(anim)
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}
	_, _ = fmt.Fprintf(r.out, "Frames:  %d\nJSON:    %d bytes\nBinary:  %d bytes\nSavings: %.1f%%\nRatio:   %.2f\n",
		len(anim.Frames), stats.JSONSize, stats.BinarySize, stats.Savings, stats.Ratio)
	return nil
}
