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

// Package codec implements the FMLX binary animation format sent to the
// panel firmware.
//
// Layout, little-endian throughout:
//
//	animation header (16 bytes)
//	  magic     [4]byte "FMLX"
//	  version   uint16
//	  frames    uint16
//	  loop      uint8
//	  reserved  [7]byte
//	frame record, repeated
//	  duration  uint32 (ms)
//	  width     uint8
//	  height    uint8
//	  reserved  [2]byte
//	  pixels    width*height*3 bytes, row-major RGB
//
// Every frame is rotated 180° before it is written. Decode does not undo the
// rotation, so its output is the on-wire orientation.
//
// Encode refuses more than MaxFrames frames even though the header field is
// a uint16, so every blob it produces is one Decode accepts.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/rs/zerolog/log"
)

const (
	Magic           = "FMLX"
	Version         = 1
	HeaderSize      = 16
	FrameHeaderSize = 8
	// MaxFrames is the largest frame count the decoder accepts.
	MaxFrames = 1000
	// MaxDimension is the largest width or height a frame header can carry.
	MaxDimension = 255

	// DecodedDescription labels animations reconstructed from a blob, which
	// carries no description of its own.
	DecodedDescription = "Decompressed animation"
)

var (
	ErrInvalidMagic      = errors.New("invalid magic bytes")
	ErrInvalidFrameCount = errors.New("invalid frame count")
	ErrTruncated         = errors.New("truncated animation data")
	ErrFrameTooLarge     = errors.New("frame exceeds maximum dimension")
	ErrTooManyFrames     = errors.New("too many frames")
	ErrNilAnimation      = errors.New("nil animation")
)

// Rotate180 returns the grid turned half a revolution. Width comes from the
// first row and height from the row count; missing cells become black.
func Rotate180(g matrix.Grid) matrix.Grid {
	height := len(g)
	width := g.Width()

	out := make(matrix.Grid, height)
	for y := range out {
		out[y] = make([]string, width)
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out[height-1-y][width-1-x] = g.At(x, y)
		}
	}
	return out
}

// frameDims mirrors how the firmware sizes a frame: an empty grid is sent as
// a full black panel.
func frameDims(g matrix.Grid) (width, height int) {
	width = g.Width()
	height = len(g)
	if width == 0 {
		width = matrix.DefaultSize
	}
	if height == 0 {
		height = matrix.DefaultSize
	}
	return width, height
}

// FrameSize returns the encoded length of a single frame record.
func FrameSize(width, height int) int {
	return FrameHeaderSize + width*height*3
}

// Size returns the encoded length of an animation with frames frames, all
// width×height.
func Size(frames, width, height int) int {
	return HeaderSize + frames*FrameSize(width, height)
}

// EncodeFrame appends one frame record to dst.
func EncodeFrame(dst []byte, f matrix.Frame) ([]byte, error) {
	rotated := Rotate180(f.Pixels)
	width, height := frameDims(rotated)
	if width > MaxDimension || height > MaxDimension {
		return dst, fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, width, height)
	}

	dst = binary.LittleEndian.AppendUint32(dst, f.Duration)
	dst = append(dst, uint8(width), uint8(height), 0, 0)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := matrix.ParseColor(rotated.At(x, y))
			dst = append(dst, c.R, c.G, c.B)
		}
	}
	return dst, nil
}

// Encode serializes an animation. An animation with no frames encodes to a
// bare header.
func Encode(a *matrix.Animation) ([]byte, error) {
	if a == nil {
		return nil, ErrNilAnimation
	}
	if len(a.Frames) > MaxFrames {
		return nil, fmt.Errorf("%w: %d", ErrTooManyFrames, len(a.Frames))
	}

	total := HeaderSize
	for _, f := range a.Frames {
		w, h := frameDims(f.Pixels)
		total += FrameSize(w, h)
	}

	buf := make([]byte, HeaderSize, total)
	copy(buf, Magic)
	binary.LittleEndian.PutUint16(buf[4:], Version)
	binary.LittleEndian.PutUint16(buf[6:], uint16(len(a.Frames)))
	if a.Loop {
		buf[8] = 1
	}

	var err error
	for i, f := range a.Frames {
		buf, err = EncodeFrame(buf, f)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return buf, nil
}

// Header is the fixed animation header of a blob.
type Header struct {
	Version    uint16
	FrameCount int
	Loop       bool
}

// ParseHeader reads only the animation header, without validating frames.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return Header{}, ErrInvalidMagic
	}
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header is %d bytes", ErrTruncated, len(data))
	}
	return Header{
		Version:    binary.LittleEndian.Uint16(data[4:]),
		FrameCount: int(binary.LittleEndian.Uint16(data[6:])),
		Loop:       data[8] == 1,
	}, nil
}

// Decode parses a blob back into an animation. It never returns a partial
// result: any structural problem yields an error and a nil animation.
func Decode(data []byte) (*matrix.Animation, error) {
	hdr, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	version, count, loop := hdr.Version, hdr.FrameCount, hdr.Loop

	if count == 0 || count > MaxFrames {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameCount, count)
	}

	log.Debug().
		Uint16("version", version).
		Int("frames", count).
		Bool("loop", loop).
		Msg("decoding animation")

	anim := &matrix.Animation{
		Description: DecodedDescription,
		Loop:        loop,
		Frames:      make([]matrix.Frame, 0, count),
	}

	off := HeaderSize
	for i := 0; i < count; i++ {
		if len(data)-off < FrameHeaderSize {
			return nil, fmt.Errorf("%w: frame %d header", ErrTruncated, i)
		}
		duration := binary.LittleEndian.Uint32(data[off:])
		width := int(data[off+4])
		height := int(data[off+5])
		off += FrameHeaderSize

		need := width * height * 3
		if len(data)-off < need {
			return nil, fmt.Errorf("%w: frame %d pixels", ErrTruncated, i)
		}

		pixels := make(matrix.Grid, height)
		for y := 0; y < height; y++ {
			row := make([]string, width)
			for x := 0; x < width; x++ {
				row[x] = matrix.Color{R: data[off], G: data[off+1], B: data[off+2]}.Hex()
				off += 3
			}
			pixels[y] = row
		}
		anim.Frames = append(anim.Frames, matrix.Frame{Pixels: pixels, Duration: duration})
	}

	return anim, nil
}
