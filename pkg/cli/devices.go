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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/framolux/framolux-core/pkg/animfile"
	"github.com/framolux/framolux-core/pkg/api/client"
	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/helpers"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/serialcmd"
	"github.com/framolux/framolux-core/pkg/service"
	"github.com/framolux/framolux-core/pkg/service/discovery"
	"github.com/framolux/framolux-core/pkg/upload"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

var (
	ErrNoDevice       = errors.New("no device given, pass -device with its address")
	ErrUploadFailed   = errors.New("upload failed")
	ErrInvalidCommand = errors.New("invalid command")
)

const browseTime = 3 * time.Second

// Runner executes one-shot commands. Device commands talk to the device
// directly; they do not need the bridge to be running.
type Runner struct {
	cfg           *config.Instance
	out           io.Writer
	fs            afero.Fs
	serialFactory serialcmd.PortFactory
	device        string
	dirs          helpers.Dirs
}

func NewRunner(cfg *config.Instance, dirs helpers.Dirs, out io.Writer, device string) *Runner {
	return &Runner{cfg: cfg, dirs: dirs, out: out, device: device}
}

func (r *Runner) files() afero.Fs {
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	return r.fs
}

func (r *Runner) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, _ = fmt.Fprintln(r.out, string(data))
	return nil
}

func (r *Runner) services() *requests.Services {
	return service.NewServices(r.cfg, clockwork.NewRealClock(), nil, nil, nil)
}

// connect checks the firmware at -device and selects it for upload.
func (r *Runner) connect(ctx context.Context) (*requests.Services, devices.Device, error) {
	if r.device == "" {
		return nil, devices.Device{}, ErrNoDevice
	}
	svc := r.services()
	d, err := svc.Scanner.Connect(ctx, r.device)
	if err != nil {
		return nil, devices.Device{}, fmt.Errorf("failed to connect to %s: %w", r.device, err)
	}
	return svc, d, nil
}

func (r *Runner) Scan(ctx context.Context, subnet string) error {
	if subnet == "" {
		subnet = r.cfg.Subnet()
	}
	svc := r.services()
	_, _ = fmt.Fprintf(r.out, "Scanning %s.0/24...\n", subnet)
	found, err := svc.Scanner.Scan(ctx, subnet)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if len(found) == 0 {
		_, _ = fmt.Fprintln(r.out, "No devices found.")
		return nil
	}
	writeDeviceTable(r.out, found)
	return nil
}

func writeDeviceTable(out io.Writer, devs []devices.Device) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tADDRESS\tID\tSTATUS\tFRAMES")
	for i := range devs {
		d := &devs[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			d.DisplayName(), d.IP, d.DeviceID, d.Status, d.FrameCount)
	}
	_ = tw.Flush()
}

// Known lists remembered devices, asking the bridge when it is running
// since it holds the database lock.
func (r *Runner) Known(ctx context.Context) error {
	if client.IsRunning(r.cfg) {
		resp, err := client.LocalClient(ctx, r.cfg, models.MethodDevicesKnown, "")
		if err != nil {
			return fmt.Errorf("error calling API: %w", err)
		}
		var known models.KnownDevicesResponse
		if err := json.Unmarshal([]byte(resp), &known); err != nil {
			return fmt.Errorf("invalid response: %w", err)
		}
		return r.printJSON(known.Devices)
	}

	db, err := service.OpenKnownDB(r.dirs)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	known, err := db.KnownDevices()
	if err != nil {
		return fmt.Errorf("failed to read known devices: %w", err)
	}
	devs := make([]devices.Device, 0, len(known))
	for _, kd := range known {
		devs = append(devs, kd.Device())
	}
	writeDeviceTable(r.out, devs)
	return nil
}

func (r *Runner) Bridges(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, browseTime)
	defer cancel()
	bridges, err := discovery.Browse(ctx)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	if len(bridges) == 0 {
		_, _ = fmt.Fprintln(r.out, "No bridges found.")
		return nil
	}
	return r.printJSON(bridges)
}

func (r *Runner) Status(ctx context.Context) error {
	if r.device == "" {
		return ErrNoDevice
	}
	svc := r.services()
	status, err := svc.Devices.Status(ctx, r.device)
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}
	return r.printJSON(status)
}

func (r *Runner) printResult(res upload.Result) error {
	if err := r.printJSON(res); err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("%w: %s", ErrUploadFailed, res.Message)
	}
	return nil
}

func (r *Runner) Upload(ctx context.Context, path string) error {
	anim, err := animfile.Load(r.files(), path)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped with path
	}
	svc, _, err := r.connect(ctx)
	if err != nil {
		return err
	}
	return r.printResult(svc.Uploader.UploadAnimation(ctx, anim))
}

// Watch uploads path now and after every change until ctx is done.
func (r *Runner) Watch(ctx context.Context, path string) error {
	svc, d, err := r.connect(ctx)
	if err != nil {
		return err
	}
	send := func(anim *matrix.Animation) {
		res := svc.Uploader.UploadAnimation(ctx, anim)
		_, _ = fmt.Fprintf(r.out, "%s: %s (%d frames)\n", d.DisplayName(), res.Outcome, res.FrameCount)
	}

	anim, err := animfile.Load(r.files(), path)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped with path
	}
	send(anim)

	_, _ = fmt.Fprintf(r.out, "Watching %s, press Ctrl+C to stop.\n", path)
	err = animfile.Watch(ctx, path, func(anim *matrix.Animation, err error) {
		if err != nil {
			_, _ = fmt.Fprintf(r.out, "error: %v\n", err)
			return
		}
		send(anim)
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func (r *Runner) Test(ctx context.Context) error {
	svc, _, err := r.connect(ctx)
	if err != nil {
		return err
	}
	return r.printResult(svc.Uploader.SendTestFrame(ctx))
}

func (r *Runner) Clear(ctx context.Context) error {
	if r.device == "" {
		return ErrNoDevice
	}
	resp, err := r.services().Devices.ClearFrames(ctx, r.device)
	if err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	return r.printJSON(resp)
}

func (r *Runner) Rename(ctx context.Context, name string) error {
	if r.device == "" {
		return ErrNoDevice
	}
	if name == "" {
		return fmt.Errorf("-rename: %w", ErrMissingValue)
	}
	resp, err := r.services().Devices.Rename(ctx, r.device, name)
	if err != nil {
		return fmt.Errorf("rename failed: %w", err)
	}
	return r.printJSON(resp)
}

func (r *Runner) Power(ctx context.Context, state string) error {
	if r.device == "" {
		return ErrNoDevice
	}
	c := r.services().Devices
	var (
		on  bool
		err error
	)
	switch state {
	case "on":
		on, err = c.PowerOn(ctx, r.device)
	case "off":
		on, err = c.PowerOff(ctx, r.device)
	case "status", "":
		on, err = c.PowerStatus(ctx, r.device)
	default:
		return fmt.Errorf("%w: -power %q (valid: on, off, status)", ErrInvalidCommand, state)
	}
	if err != nil {
		return fmt.Errorf("power command failed: %w", err)
	}
	return r.printJSON(models.PowerResponse{IP: r.device, Powered: on})
}
