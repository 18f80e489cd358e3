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

// Package broker fans the bridge notification queue out to its consumers:
// the API sockets and any MQTT publishers.
package broker

import (
	"context"
	"sync/atomic"

	"github.com/framolux/framolux-core/pkg/api/models"
	"github.com/framolux/framolux-core/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Broker copies every notification from source to each subscriber. Sends
// never block: a subscriber with a full buffer misses the notification.
type Broker struct {
	source  <-chan models.Notification
	subs    map[int]chan models.Notification
	done    chan struct{}
	dropped atomic.Uint64
	mu      syncutil.RWMutex
	nextID  int
}

func New(source <-chan models.Notification) *Broker {
	return &Broker{
		source: source,
		subs:   make(map[int]chan models.Notification),
		done:   make(chan struct{}),
	}
}

// Start runs the broadcast loop until ctx is cancelled or source closes,
// then closes every subscriber channel.
func (b *Broker) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		defer b.closeAll()
		for {
			select {
			case <-ctx.Done():
				log.Debug().Msg("broker: context cancelled")
				return
			case notif, ok := <-b.source:
				if !ok {
					log.Debug().Msg("broker: source closed")
					return
				}
				b.broadcast(notif)
			}
		}
	}()
}

// Done is closed once the loop has exited and subscribers are closed.
func (b *Broker) Done() <-chan struct{} {
	return b.done
}

// Dropped counts notifications lost to full subscriber buffers.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

func (b *Broker) broadcast(notif models.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- notif:
		default:
			b.dropped.Add(1)
			// preview frames outrun slow consumers all the time
			ev := log.Warn()
			if notif.Method == models.NotificationPreviewFrame {
				ev = log.Trace()
			}
			ev.Int("subscriber", id).Str("method", notif.Method).Msg("subscriber full, dropping notification")
		}
	}
}

// Subscribe registers a consumer with the given buffer size.
func (b *Broker) Subscribe(buffer int) (<-chan models.Notification, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.Notification, buffer)
	b.subs[id] = ch
	log.Debug().Int("subscriber", id).Int("buffer", buffer).Msg("broker: subscribed")
	return ch, id
}

// Unsubscribe closes the consumer's channel. Unknown ids are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
