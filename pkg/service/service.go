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

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/framolux/framolux-core/pkg/animfile"
	"github.com/framolux/framolux-core/pkg/api"
	"github.com/framolux/framolux-core/pkg/api/methods"
	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/api/models/requests"
	"github.com/framolux/framolux-core/pkg/api/notifications"
	"github.com/framolux/framolux-core/pkg/config"
	"github.com/framolux/framolux-core/pkg/database/knowndb"
	"github.com/framolux/framolux-core/pkg/devices"
	"github.com/framolux/framolux-core/pkg/devices/scan"
	"github.com/framolux/framolux-core/pkg/helpers"
	"github.com/framolux/framolux-core/pkg/matrix"
	"github.com/framolux/framolux-core/pkg/playback"
	"github.com/framolux/framolux-core/pkg/serialcmd"
	"github.com/framolux/framolux-core/pkg/service/broker"
	"github.com/framolux/framolux-core/pkg/service/discovery"
	"github.com/framolux/framolux-core/pkg/service/publishers"
	"github.com/framolux/framolux-core/pkg/shared/httpclient"
	"github.com/framolux/framolux-core/pkg/upload"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// queueSize is the source notification queue; subscribers have their own
	// buffers behind the broker.
	queueSize      = 64
	apiBuffer      = api.NotificationBuffer
	publisherQueue = 100
)

// NewServices builds the bridge components around one registry. Components
// report to ns; a nil ns disables notifications, which suits one-shot CLI
// commands. known may be nil.
func NewServices(
	cfg *config.Instance,
	clock clockwork.Clock,
	known *knowndb.Database,
	library *animfile.Library,
	ns chan models.Notification,
) *requests.Services {
	registry := devices.NewRegistry()
	client := devices.NewClient(httpclient.NewClientWithAPIKey(cfg.UploadTimeout(), cfg.DeviceAPIKey))

	scanner := scan.New(client, registry,
		scan.WithProbeTimeout(cfg.ProbeTimeout()),
		scan.WithConcurrency(cfg.ScanConcurrency()),
		scan.WithClock(clock),
	)
	uploader := upload.New(client, registry)
	player := playback.New(clock, cfg.PreviewInterval(), func(index int, frame matrix.Frame) {
		notifications.Preview(ns, index, frame)
	})

	if ns != nil {
		registry.OnChange(func(devs []devices.Device) {
			notifications.DevicesChanged(ns, devs)
		})
		uploader.OnProgress(func(percent int) {
			notifications.UploadProgress(ns, percent)
		})
		uploader.OnResult(func(res upload.Result) {
			notifications.UploadResult(ns, res)
		})
	}

	return &requests.Services{
		Config:        cfg,
		Registry:      registry,
		Devices:       client,
		Poller:        devices.NewPoller(clock, client, registry, cfg.StatusInterval()),
		Scanner:       scanner,
		Uploader:      uploader,
		Player:        player,
		Clipboard:     &matrix.Clipboard{},
		Known:         known,
		Library:       library,
		SerialFactory: serialcmd.DefaultPortFactory,
		Notifications: ns,
	}
}

// OpenKnownDB opens the device database in the data directory.
func OpenKnownDB(dirs helpers.Dirs) (*knowndb.Database, error) {
	db, err := knowndb.Open(filepath.Join(dirs.DataDir, config.KnownDBFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open device database: %w", err)
	}
	return db, nil
}

// OpenLibrary returns the animation library, creating its directory.
func OpenLibrary(dirs helpers.Dirs) (*animfile.Library, error) {
	dir := dirs.AnimationsDir()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create animations directory: %w", err)
	}
	return animfile.NewLibrary(afero.NewOsFs(), dir), nil
}

// restoreKnownDevices puts remembered devices in the registry as offline
// and checks them once so reachable ones come back online.
func restoreKnownDevices(ctx context.Context, svc *requests.Services) {
	if svc.Known == nil {
		return
	}
	known, err := svc.Known.KnownDevices()
	if err != nil {
		log.Error().Err(err).Msg("error loading known devices")
		return
	}
	for _, kd := range known {
		svc.Registry.Upsert(kd.Device())
	}
	log.Info().Int("count", len(known)).Msg("restored known devices")
	svc.Poller.CheckAll(ctx)
}

func scanOnStart(ctx context.Context, svc *requests.Services) {
	log.Info().Str("subnet", svc.Config.Subnet()).Msg("scanning for devices")
	_, err := methods.HandleDevicesScan(requests.RequestEnv{
		Services: svc,
		Context:  ctx,
		IsLocal:  true,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("startup scan failed")
	}
}

func startPublishers(cfg *config.Instance, b *broker.Broker) []*publishers.MQTTPublisher {
	var active []*publishers.MQTTPublisher
	for _, p := range publishers.FromConfig(cfg) {
		ch, id := b.Subscribe(publisherQueue)
		if err := p.Start(ch); err != nil {
			log.Error().Err(err).Str("broker", p.Broker()).Msg("failed to start MQTT publisher")
			b.Unsubscribe(id)
			continue
		}
		active = append(active, p)
	}
	return active
}

// Start runs the bridge until stop is called. done is closed once every
// component has shut down.
func Start(
	cfg *config.Instance,
	dirs helpers.Dirs,
) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	if err := dirs.Ensure(); err != nil {
		return nil, nil, err
	}

	known, err := OpenKnownDB(dirs)
	if err != nil {
		return nil, nil, err
	}
	library, err := OpenLibrary(dirs)
	if err != nil {
		_ = known.Close()
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	ns := make(chan models.Notification, queueSize)
	svc := NewServices(cfg, clockwork.NewRealClock(), known, library, ns)

	notifBroker := broker.New(ns)
	apiNotifications, _ := notifBroker.Subscribe(apiBuffer)
	activePublishers := startPublishers(cfg, notifBroker)
	notifBroker.Start(ctx)

	log.Info().Msg("starting mDNS advertising")
	advert := discovery.New(cfg)
	if err := advert.Start(); err != nil {
		log.Error().Err(err).Msg("mDNS advertising failed to start")
	}

	apiDone := make(chan struct{})
	go func() {
		defer close(apiDone)
		if err := api.Start(ctx, svc, apiNotifications); err != nil {
			log.Error().Err(err).Msg("API server stopped")
			cancel()
		}
	}()

	devicesDone := make(chan struct{})
	go func() {
		defer close(devicesDone)
		restoreKnownDevices(ctx, svc)
		if cfg.ScanOnStart() {
			scanOnStart(ctx, svc)
		}
		svc.Poller.Run(ctx)
	}()

	doneCh := make(chan struct{})
	go func() {
		<-ctx.Done()
		log.Info().Msg("service context cancelled, running cleanup")

		advert.Stop()
		for _, p := range activePublishers {
			p.Stop()
		}
		svc.Player.Stop()
		<-apiDone
		<-devicesDone
		<-notifBroker.Done()
		if err := known.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing device database")
		}

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	stop = func() error {
		cancel()
		<-doneCh
		return nil
	}
	return stop, doneCh, nil
}
