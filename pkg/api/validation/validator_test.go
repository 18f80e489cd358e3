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

package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGrid(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Pixels matrix.Grid `json:"pixels" validate:"required,grid"`
	}

	tests := []struct {
		name      string
		grid      matrix.Grid
		wantError bool
	}{
		{name: "valid 2x2", grid: matrix.Grid{{"#FF0000", "#00FF00"}, {"#0000FF", "#FFFFFF"}}},
		{name: "lowercase and no hash", grid: matrix.Grid{{"ff0000"}}},
		{name: "short form", grid: matrix.Grid{{"#F00"}}},
		{name: "full panel", grid: matrix.NewGrid(16, matrix.EmptyFill)},
		{name: "nil", grid: nil, wantError: true},
		{name: "not square", grid: matrix.Grid{{"#000000", "#000000"}}, wantError: true},
		{name: "ragged", grid: matrix.Grid{{"#000000", "#000000"}, {"#000000"}}, wantError: true},
		{name: "bad color", grid: matrix.Grid{{"red"}}, wantError: true},
		{name: "empty cell", grid: matrix.Grid{{""}}, wantError: true},
		{name: "too long", grid: matrix.Grid{{"#FF00000"}}, wantError: true},
	}

	v := NewValidator()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&testStruct{Pixels: tt.grid})
			if tt.wantError {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHost(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		IP string `json:"ip" validate:"required,host"`
	}

	tests := []struct {
		value     string
		wantError bool
	}{
		{value: "192.168.1.50"},
		{value: "127.0.0.1:8080"},
		{value: "192.168.1.50:0", wantError: true},
		{value: "::1", wantError: true},
		{value: "[::1]:80", wantError: true},
		{value: "panel.local", wantError: true},
		{value: "192.168.1", wantError: true},
		{value: "", wantError: true},
	}

	v := NewValidator()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(&testStruct{IP: tt.value})
			if tt.wantError {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSubnet(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Subnet string `json:"subnet" validate:"subnet"`
	}

	v := NewValidator()
	for _, ok := range []string{"192.168.1", "10.0.0.x", "192.168.4.0/24", "172.16.5.9"} {
		assert.NoError(t, v.Validate(&testStruct{Subnet: ok}), ok)
	}
	for _, bad := range []string{"192.168", "a.b.c", "::/64"} {
		err := v.Validate(&testStruct{Subnet: bad})
		require.Error(t, err, bad)
		assert.Contains(t, err.Error(), "subnet must be a subnet")
	}
}

func TestValidateAnimationName(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		Name string `json:"name" validate:"required,animname"`
	}

	v := NewValidator()
	for _, ok := range []string{"rainbow", "rainbow.json", "fire.fmlx", "my anim"} {
		assert.NoError(t, v.Validate(&testStruct{Name: ok}), ok)
	}
	for _, bad := range []string{"../etc/passwd", "a/b", `a\b`, ".hidden", string(make([]byte, 65))} {
		assert.Error(t, v.Validate(&testStruct{Name: bad}), bad)
	}
}

func TestValidateSerialArg(t *testing.T) {
	t.Parallel()

	type testStruct struct {
		SSID string `json:"ssid" validate:"required,excludes=:,serialarg"`
	}

	v := NewValidator()
	assert.NoError(t, v.Validate(&testStruct{SSID: "home net"}))

	err := v.Validate(&testStruct{SSID: "home\nnet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ssid must not contain line breaks")

	err = v.Validate(&testStruct{SSID: "a:b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ssid must not contain ":"`)
}

func TestValidateAndUnmarshal(t *testing.T) {
	t.Parallel()

	type frame struct {
		Pixels matrix.Grid `json:"pixels" validate:"required,grid"`
	}
	type testParams struct {
		Name   string  `json:"name" validate:"required"`
		Frames []frame `json:"frames" validate:"required,min=1,dive"`
	}

	tests := []struct {
		wantError error
		name      string
		errorMsg  string
		input     json.RawMessage
	}{
		{name: "nil params", input: nil, wantError: ErrMissingParams},
		{name: "null params", input: json.RawMessage(`null`), wantError: ErrMissingParams},
		{name: "invalid json", input: json.RawMessage(`{invalid}`), wantError: ErrInvalidParams},
		{name: "wrong type", input: json.RawMessage(`{"name": 5}`), wantError: ErrInvalidParams},
		{
			name:  "valid",
			input: json.RawMessage(`{"name":"a","frames":[{"pixels":[["#000000"]]}]}`),
		},
		{
			name:     "missing required",
			input:    json.RawMessage(`{"frames":[{"pixels":[["#000000"]]}]}`),
			errorMsg: "name is required",
		},
		{
			name:     "nested field path",
			input:    json.RawMessage(`{"name":"a","frames":[{"pixels":[["#000000"]]},{"pixels":[["x"]]}]}`),
			errorMsg: "frames[1].pixels must be a non-empty square grid",
		},
		{
			name:     "empty frames",
			input:    json.RawMessage(`{"name":"a","frames":[]}`),
			errorMsg: "frames must be at least 1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var params testParams
			err := ValidateAndUnmarshal(tt.input, &params)
			switch {
			case tt.wantError != nil:
				require.ErrorIs(t, err, tt.wantError)
			case tt.errorMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateOptional(t *testing.T) {
	t.Parallel()

	type testParams struct {
		Subnet string `json:"subnet" validate:"omitempty,subnet"`
	}

	var p testParams
	require.NoError(t, ValidateOptional(nil, &p))
	require.NoError(t, ValidateOptional(json.RawMessage(`null`), &p))
	require.NoError(t, ValidateOptional(json.RawMessage(`{"subnet":"10.0.0"}`), &p))
	assert.Equal(t, "10.0.0", p.Subnet)
	assert.Error(t, ValidateOptional(json.RawMessage(`{"subnet":"nope"}`), &p))
}

func TestErrorFields(t *testing.T) {
	t.Parallel()

	type testParams struct {
		IP   string `json:"ip" validate:"required,host"`
		Size int    `json:"size" validate:"max=255"`
	}

	err := NewValidator().Validate(&testParams{IP: "bad", Size: 300})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, "ip", verr.Fields[0].Field)
	assert.Equal(t, "host", verr.Fields[0].Tag)
	assert.Equal(t, "size", verr.Fields[1].Field)
	assert.Equal(t, "size must be at most 255", verr.Fields[1].Message)
	assert.Equal(t, verr.Fields[0].Message+"; "+verr.Fields[1].Message, err.Error())
}

func TestErrorEmptyFields(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "validation failed", (&Error{}).Error())
	assert.Equal(t, "validation failed", NewError(validator.ValidationErrors{}).Error())
}
