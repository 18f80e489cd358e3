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

package helpers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/framolux/framolux-core/pkg/config"
	"github.com/rs/zerolog/log"
)

var (
	ErrServiceRunning    = errors.New("service already running")
	ErrServiceNotRunning = errors.New("service not running")
)

// ServiceEntry starts the bridge and returns its stop function.
type ServiceEntry func() (func() error, error)

// Service runs the bridge as a background daemon tracked by a pid file.
type Service struct {
	start  ServiceEntry
	stop   func() error
	dirs   Dirs
	daemon bool
}

type ServiceArgs struct {
	Entry    ServiceEntry
	Dirs     Dirs
	NoDaemon bool
}

func NewService(args ServiceArgs) (*Service, error) {
	err := os.MkdirAll(args.Dirs.TempDir, 0o750)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Service{
		daemon: !args.NoDaemon,
		start:  args.Entry,
		dirs:   args.Dirs,
	}, nil
}

func (s *Service) pidPath() string {
	return filepath.Join(s.dirs.TempDir, config.PidFile)
}

func (s *Service) createPidFile() error {
	err := os.WriteFile(s.pidPath(), []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

func (s *Service) removePidFile() error {
	err := os.Remove(s.pidPath())
	if err != nil {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// Pid returns the pid recorded by a running daemon, or 0.
func (s *Service) Pid() (int, error) {
	data, err := os.ReadFile(s.pidPath())
	if os.IsNotExist(err) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

func (s *Service) Running() bool {
	pid, err := s.Pid()
	if err != nil || pid == 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}

func (s *Service) stopService() error {
	log.Info().Msg("stopping service")

	if s.stop != nil {
		if err := s.stop(); err != nil {
			log.Error().Err(err).Msg("error stopping service")
			return err
		}
	}

	if err := s.removePidFile(); err != nil {
		log.Error().Err(err).Msg("error removing pid file")
		return err
	}
	return nil
}

// runForeground starts the bridge and blocks until SIGINT or SIGTERM.
func (s *Service) runForeground() error {
	if s.Running() {
		return ErrServiceRunning
	}

	log.Info().Msg("starting service")

	if err := s.createPidFile(); err != nil {
		return err
	}

	stop, err := s.start()
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		if rmErr := s.removePidFile(); rmErr != nil {
			log.Error().Err(rmErr).Msg("error removing pid file")
		}
		return fmt.Errorf("failed to start service: %w", err)
	}
	s.stop = stop

	if !s.daemon {
		return s.stopService()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	<-sigs

	return s.stopService()
}

// Start launches a detached copy of this binary running the service.
func (s *Service) Start() error {
	if s.Running() {
		return ErrServiceRunning
	}

	binPath := os.Getenv(AppEnv)
	if binPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("error getting absolute binary path: %w", err)
		}
		binPath = exe
	}

	//nolint:gosec // re-executes the current binary
	cmd := exec.Command(binPath, "-service", "exec")
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=%s", AppEnv, binPath))

	configPath := filepath.Join(s.dirs.ConfigDir, config.CfgFile)
	if _, err := os.Stat(configPath); err == nil && os.Getenv(config.CfgEnv) == "" {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", config.CfgEnv, configPath))
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error starting service: %w", err)
	}
	return cmd.Process.Release() //nolint:wrapcheck // nothing to add
}

// Stop signals the running daemon to shut down.
func (s *Service) Stop() error {
	if !s.Running() {
		return ErrServiceNotRunning
	}

	pid, err := s.Pid()
	if err != nil {
		return err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send SIGTERM to process: %w", err)
	}
	return nil
}

// Restart stops a running daemon, waits for it to exit and starts it again.
func (s *Service) Restart(ctx context.Context) error {
	if s.Running() {
		if err := s.Stop(); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for s.Running() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for service to stop: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	return s.Start()
}

// ServiceHandler runs one of the -service subcommands.
func (s *Service) ServiceHandler(cmd string) error {
	switch cmd {
	case "exec":
		return s.runForeground()
	case "start":
		return s.Start()
	case "stop":
		return s.Stop()
	case "restart":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Restart(ctx)
	case "status":
		if s.Running() {
			_, _ = fmt.Println("started")
			return nil
		}
		_, _ = fmt.Println("stopped")
		return ErrServiceNotRunning
	case "":
		return nil
	default:
		return fmt.Errorf("unknown service argument: %s", cmd)
	}
}
