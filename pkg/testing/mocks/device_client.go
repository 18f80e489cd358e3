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

package mocks

import (
	"context"

	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/devices/scan"
	"github.com/framolux/framolux-core/pkg/upload"
	"github.com/stretchr/testify/mock"
)

// MockProber is a testify mock of the discovery prober.
type MockProber struct {
	mock.Mock
}

var _ scan.Prober = (*MockProber)(nil)

func (m *MockProber) Info(ctx context.Context, host string) (devices.Info, error) {
	args := m.Called(ctx, host)
	if info, ok := args.Get(0).(devices.Info); ok {
		return info, args.Error(1)
	}
	return devices.Info{}, args.Error(1)
}

func (m *MockProber) FirmwareInfo(ctx context.Context, host string) (devices.Info, error) {
	args := m.Called(ctx, host)
	if info, ok := args.Get(0).(devices.Info); ok {
		return info, args.Error(1)
	}
	return devices.Info{}, args.Error(1)
}

// MockTransport is a testify mock of the upload transport.
type MockTransport struct {
	mock.Mock
}

var _ upload.Transport = (*MockTransport)(nil)

func (m *MockTransport) UploadFrames(
	ctx context.Context,
	host string,
	blob []byte,
	progress func(percent int),
) (devices.UploadResponse, error) {
	args := m.Called(ctx, host, blob, progress)
	if resp, ok := args.Get(0).(devices.UploadResponse); ok {
		return resp, args.Error(1)
	}
	return devices.UploadResponse{}, args.Error(1)
}
