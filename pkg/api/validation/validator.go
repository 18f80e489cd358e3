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

// Package validation checks API request parameters using go-playground
// validator with custom tags for matrix and network types.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/framolux/framolux-core/pkg/devices/scan"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/go-playground/validator/v10"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	ErrMissingParams = errors.New("missing params")
	ErrInvalidParams = errors.New("invalid params")
)

// MaxNameLength bounds animation names.
const MaxNameLength = 64

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so messages match what clients sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("grid", validateGrid)
	_ = v.RegisterValidation("host", validateHost)
	_ = v.RegisterValidation("subnet", validateSubnet)
	_ = v.RegisterValidation("animname", validateAnimationName)
	_ = v.RegisterValidation("serialarg", validateSerialArg)

	return &Validator{validate: v}
}

var DefaultValidator = NewValidator()

func (v *Validator) Validate(params any) error {
	if err := v.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return NewError(verrs)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateAndUnmarshal decodes params into dest and validates it. Empty
// params give ErrMissingParams and undecodable ones ErrInvalidParams.
func ValidateAndUnmarshal[T any](params json.RawMessage, dest *T) error {
	if len(params) == 0 || string(params) == "null" {
		return ErrMissingParams
	}
	if err := json.Unmarshal(params, dest); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return DefaultValidator.Validate(dest)
}

// ValidateOptional is ValidateAndUnmarshal for methods whose params may be
// omitted entirely.
func ValidateOptional[T any](params json.RawMessage, dest *T) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	return ValidateAndUnmarshal(params, dest)
}

// IsColor reports whether s is a hex color with or without the leading hash.
func IsColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 7 && len(s) != 4 {
		return false
	}
	_, err := colorful.Hex(s)
	return err == nil
}

// validateGrid accepts a non-empty square grid of hex colors.
func validateGrid(fl validator.FieldLevel) bool {
	g, ok := fl.Field().Interface().(matrix.Grid)
	if !ok {
		return false
	}
	if len(g) == 0 || len(g) > 255 || !g.IsSquare() {
		return false
	}
	for _, row := range g {
		for _, cell := range row {
			if !IsColor(cell) {
				return false
			}
		}
	}
	return true
}

// validateHost accepts an IPv4 address with an optional port.
func validateHost(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if ap, err := netip.ParseAddrPort(val); err == nil {
		return ap.Addr().Is4() && ap.Port() != 0
	}
	addr, err := netip.ParseAddr(val)
	return err == nil && addr.Is4()
}

func validateSubnet(fl validator.FieldLevel) bool {
	_, err := scan.Hosts(fl.Field().String())
	return err == nil
}

// validateAnimationName rejects names that would escape the library
// directory or hide the file.
func validateAnimationName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	return val != "" &&
		len(val) <= MaxNameLength &&
		val == filepath.Base(val) &&
		!strings.ContainsAny(val, `/\`) &&
		!strings.HasPrefix(val, ".")
}

// validateSerialArg rejects values that would break the line-based serial
// protocol.
func validateSerialArg(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\r\n")
}
