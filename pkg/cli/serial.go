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
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/framolux/framolux-core/pkg/serialcmd"
)

// serialCommand is a parsed -serial argument.
type serialCommand struct {
	name  string
	key   string
	value string
}

func parseSerialCommand(arg string) (serialCommand, error) {
	name, value, hasValue := strings.Cut(arg, "=")
	cmd := serialCommand{name: name, value: value}
	switch name {
	case "ports", "identify", "status", "apikey-clear":
		if hasValue {
			return cmd, fmt.Errorf("%w: %s takes no value", ErrInvalidCommand, name)
		}
	case "apikey":
	case "name":
		if value == "" {
			return cmd, fmt.Errorf("-serial name: %w", ErrMissingValue)
		}
	case "wifi":
		ssid, password, ok := strings.Cut(value, ":")
		if !ok || ssid == "" {
			return cmd, fmt.Errorf("%w: wifi expects SSID:PASSWORD", ErrInvalidCommand)
		}
		cmd.key, cmd.value = ssid, password
	default:
		return cmd, fmt.Errorf("%w: -serial %q", ErrInvalidCommand, arg)
	}
	return cmd, nil
}

// Serial runs one command against a controller on a USB serial port.
func (r *Runner) Serial(ctx context.Context, port, arg string) error {
	cmd, err := parseSerialCommand(arg)
	if err != nil {
		return err
	}
	if cmd.name == "ports" {
		return r.listPorts()
	}

	if port == "" {
		port = r.cfg.SerialPort()
	}
	path, err := serialcmd.FindPort(port)
	if err != nil {
		return fmt.Errorf("failed to find serial port: %w", err)
	}
	conn, err := serialcmd.Open(path, r.serialFactory)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return r.runSerial(ctx, conn, cmd)
}

func (r *Runner) runSerial(ctx context.Context, conn *serialcmd.Conn, cmd serialCommand) error {
	var (
		resp string
		err  error
	)
	switch cmd.name {
	case "identify":
		info, err := conn.Identify(ctx)
		if err != nil {
			return fmt.Errorf("no firmware banner on %s: %w", conn.Path(), err)
		}
		return r.printJSON(info)
	case "status":
		resp, err = conn.GetStatus(ctx)
	case "name":
		resp, err = conn.SetName(ctx, cmd.value)
	case "wifi":
		resp, err = conn.SetWiFi(ctx, cmd.key, cmd.value)
	case "apikey":
		if cmd.value == "" {
			resp, err = conn.GetAPIKey(ctx)
		} else {
			resp, err = conn.SetAPIKey(ctx, cmd.value)
		}
	case "apikey-clear":
		resp, err = conn.DeleteAPIKey(ctx)
	}
	if err != nil {
		return fmt.Errorf("serial %s failed: %w", cmd.name, err)
	}
	_, _ = fmt.Fprintln(r.out, resp)
	return nil
}

func (r *Runner) listPorts() error {
	ports, err := serialcmd.ListPorts()
	if err != nil {
		return fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(r.out, "No serial ports found.")
		return nil
	}
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PORT\tVID:PID\tADAPTER")
	for _, p := range ports {
		id := ""
		if p.USB {
			id = p.VID + ":" + p.PID
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, id, p.Adapter)
	}
	_ = tw.Flush()
	return nil
}
