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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/framolux/framolux-core/internal/telemetry"
	"github.com/framolux/framolux-core/pkg/api/client"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrMissingValue = errors.New("flag requires a value")

type Flags struct {
	fs         *flag.FlagSet
	Version    *bool
	Service    *string
	API        *string
	Scan       *bool
	Subnet     *string
	Device     *string
	Status     *bool
	Upload     *string
	Watch      *string
	Test       *bool
	Clear      *bool
	Rename     *string
	Power      *string
	Known      *bool
	Bridges    *bool
	Encode     *string
	Decode     *string
	Stats      *string
	Out        *string
	Serial     *string
	SerialPort *string
}

// NewFlags defines the command line on fs; main passes flag.CommandLine.
func NewFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:      fs,
		Version: fs.Bool("version", false, "print version and exit"),
		Service: fs.String("service", "",
			"manage the bridge daemon: start, stop, restart, status or exec"),
		API:    fs.String("api", "", "send method[:params] to the running bridge and print the result"),
		Scan:   fs.Bool("scan", false, "scan the subnet for devices"),
		Subnet: fs.String("subnet", "", "subnet to scan, e.g. 192.168.1 (default from config)"),
		Device: fs.String("device", "", "device address for device commands"),
		Status: fs.Bool("status", false, "print device status"),
		Upload: fs.String("upload", "", "upload an animation file (.json or .fmlx) to the device"),
		Watch:  fs.String("watch", "", "upload an animation file and re-upload it whenever it changes"),
		Test:   fs.Bool("test", false, "send the test pattern to the device"),
		Clear:  fs.Bool("clear", false, "delete all frames on the device"),
		Rename: fs.String("rename", "", "set the device name"),
		Power:  fs.String("power", "", "switch the device: on, off or status"),
		Known:  fs.Bool("known", false, "list remembered devices"),
		Bridges: fs.Bool("bridges", false,
			"list bridges advertising on the local network"),
		Encode: fs.String("encode", "", "convert a JSON animation to FMLX"),
		Decode: fs.String("decode", "", "convert an FMLX animation to JSON"),
		Stats:  fs.String("stats", "", "print binary vs JSON size of an animation"),
		Out:    fs.String("o", "", "output file for -encode and -decode (default: stdout)"),
		Serial: fs.String("serial", "",
			"serial command: ports, identify, status, name=NAME, wifi=SSID:PASSWORD, apikey[=KEY], apikey-clear"),
		SerialPort: fs.String("port", "", "serial port (default from config, then autodetect)"),
	}
}

func (f *Flags) isPassed(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Pre parses args and handles flags that need no config or logging. It
// reports whether the program should exit.
func (f *Flags) Pre(args []string, out io.Writer) (bool, error) {
	if err := f.fs.Parse(args); err != nil {
		return true, fmt.Errorf("failed to parse flags: %w", err)
	}
	if *f.Version {
		_, _ = fmt.Fprintf(out, "Framolux v%s\n", config.AppVersion)
		return true, nil
	}
	return false, nil
}

// Setup creates the directories, starts logging, loads config and enables
// error reporting when the user opted in.
//
//nolint:gocritic // config struct copied for immutability
func Setup(dirs helpers.Dirs, defaults config.Values, writers []io.Writer) (*config.Instance, error) {
	if err := dirs.Ensure(); err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}
	if err := helpers.InitLogging(dirs.TempDir, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(dirs.ConfigDir, defaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := telemetry.Init(telemetry.Options{
		Enabled:    cfg.ErrorReporting(),
		DSN:        cfg.ErrorReportingDSN(),
		InstanceID: cfg.InstanceID(),
		AppVersion: config.AppVersion,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}
	return cfg, nil
}

// Post runs the one-shot command selected by the flags. It reports false
// when no command was given and the caller should run the service.
func (f *Flags) Post(ctx context.Context, cfg *config.Instance, dirs helpers.Dirs, out io.Writer) (bool, error) {
	r := NewRunner(cfg, dirs, out, *f.Device)

	switch {
	case f.isPassed("api"):
		if *f.API == "" {
			return true, fmt.Errorf("-api: %w", ErrMissingValue)
		}
		return true, r.API(ctx, *f.API)
	case *f.Scan:
		return true, r.Scan(ctx, *f.Subnet)
	case *f.Known:
		return true, r.Known(ctx)
	case *f.Bridges:
		return true, r.Bridges(ctx)
	case f.isPassed("encode"):
		return true, r.Convert(*f.Encode, extFMLX, *f.Out)
	case f.isPassed("decode"):
		return true, r.Convert(*f.Decode, extJSON, *f.Out)
	case f.isPassed("stats"):
		return true, r.Stats(*f.Stats)
	case f.isPassed("serial"):
		return true, r.Serial(ctx, *f.SerialPort, *f.Serial)
	case *f.Status:
		return true, r.Status(ctx)
	case f.isPassed("upload"):
		return true, r.Upload(ctx, *f.Upload)
	case f.isPassed("watch"):
		return true, r.Watch(ctx, *f.Watch)
	case *f.Test:
		return true, r.Test(ctx)
	case *f.Clear:
		return true, r.Clear(ctx)
	case f.isPassed("rename"):
		return true, r.Rename(ctx, *f.Rename)
	case f.isPassed("power"):
		return true, r.Power(ctx, *f.Power)
	}
	return false, nil
}

// API sends method[:params] to the bridge, as in -api devices.connect:{"ip":"192.168.1.9"}.
func (r *Runner) API(ctx context.Context, arg string) error {
	method, params, _ := strings.Cut(arg, ":")
	resp, err := client.LocalClient(ctx, r.cfg, method, params)
	if err != nil {
		return fmt.Errorf("error calling API: %w", err)
	}
	_, _ = fmt.Fprintln(r.out, resp)
	return nil
}

// ConsoleWriter is the human readable log output for interactive runs.
func ConsoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
}
