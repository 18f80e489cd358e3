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
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"io"
	"math"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// ErrEmptyImage is returned when a source image has no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// DecodeImage reads a PNG, JPEG, GIF, BMP or WebP image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Quantize downscales an image to a size×size grid using nearest-neighbour
// sampling, so hard pixel-art edges survive.
func Quantize(src image.Image, size int) (Grid, error) {
	b := src.Bounds()
	if b.Empty() || size <= 0 {
		return nil, ErrEmptyImage
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	g := make(Grid, size)
	for y := 0; y < size; y++ {
		row := make([]string, size)
		for x := 0; x < size; x++ {
			c := dst.RGBAAt(x, y)
			row[x] = Color{R: c.R, G: c.G, B: c.B}.Hex()
		}
		g[y] = row
	}
	return g, nil
}

// QuantizeReader decodes and quantizes in one step.
func QuantizeReader(r io.Reader, size int) (Grid, error) {
	img, err := DecodeImage(r)
	if err != nil {
		return nil, err
	}
	return Quantize(img, size)
}

// RenderPNG draws the grid as a PNG with one image pixel per LED, scaled up
// by the given factor.
func RenderPNG(g Grid, scale int) ([]byte, error) {
	if scale < 1 {
		scale = 1
	}
	size := g.Size()
	img := image.NewRGBA(image.Rect(0, 0, size*scale, size*scale))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := ParseColor(g.At(x, y))
			rgba := color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetRGBA(x*scale+dx, y*scale+dy, rgba)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ColorShare is one entry of a color histogram.
type ColorShare struct {
	Color   string `json:"color"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// DominantColors returns the n most frequent colors, most common first.
// Ties are broken by color string so the result is stable.
func DominantColors(g Grid, n int) []ColorShare {
	counts := make(map[string]int)
	total := 0
	for _, row := range g {
		for _, c := range row {
			counts[NormalizeColor(c)]++
			total++
		}
	}
	if total == 0 {
		return []ColorShare{}
	}

	shares := make([]ColorShare, 0, len(counts))
	for c, count := range counts {
		shares = append(shares, ColorShare{
			Color:   c,
			Count:   count,
			Percent: int(math.Round(float64(count) / float64(total) * 100)),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Color < shares[j].Color
	})

	if n > 0 && len(shares) > n {
		shares = shares[:n]
	}
	return shares
}

// Describe summarises the top five colors as a single line of text.
func Describe(g Grid) string {
	shares := DominantColors(g, 5)
	parts := make([]string, 0, len(shares))
	for _, s := range shares {
		parts = append(parts, fmt.Sprintf("%s (%d%%)", s.Color, s.Percent))
	}
	return "Image colors: " + strings.Join(parts, ", ")
}
