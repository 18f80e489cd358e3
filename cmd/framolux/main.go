//go:build linux || darwin

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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/framolux/framolux-core/internal/telemetry"
	"github.com/framolux/framolux-core/pkg/cli"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/helpers"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.NewFlags(flag.CommandLine)
	daemonMode := flag.Bool("daemon", false, "run the bridge in the foreground")

	if exit, err := flags.Pre(os.Args[1:], os.Stdout); exit || err != nil {
		return err //nolint:wrapcheck // already wrapped
	}

	if os.Geteuid() == 0 {
		return errors.New("framolux cannot be run as root")
	}

	// the detached service logs to file only
	var logWriters []io.Writer
	if *flags.Service != "exec" {
		logWriters = []io.Writer{cli.ConsoleWriter()}
	}

	dirs := helpers.DefaultDirs()
	cfg, err := cli.Setup(dirs, config.BaseDefaults, logWriters)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped
	}
	defer telemetry.Close()

	if *flags.Service != "" {
		return cli.ServiceCommand(cfg, dirs, *flags.Service)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handled, err := flags.Post(ctx, cfg, dirs, os.Stdout)
	if handled {
		return err
	}

	if *daemonMode {
		return cli.RunApp(cfg, dirs)
	}
	flag.Usage()
	return nil
}
