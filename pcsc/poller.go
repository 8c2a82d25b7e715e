// go-mfcverify
// Copyright (c) 2026 The Bandkit Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfcverify.
//
// go-mfcverify is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfcverify is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfcverify; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package pcsc

import (
	"context"
	"errors"
	"sync"

	mfcverify "github.com/bandkit/go-mfcverify"
)

// Poller watches the reader's field for a card and reports it as verifier
// events: CardDetected once the card is connected, then PollerDone. A
// status failure surfaces as PollerFailed. The event channel is closed
// when the poller has nothing further to say.
type Poller struct {
	device *Device

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewPoller creates a detection poller over the device
func NewPoller(device *Device) *Poller {
	return &Poller{device: device}
}

// Start begins card detection in the background
func (p *Poller) Start(ctx context.Context) (<-chan mfcverify.PollerEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil, errors.New("poller already started")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	events := make(chan mfcverify.PollerEvent, 2)
	done := make(chan struct{})

	p.cancel = cancel
	p.done = done
	p.started = true

	go func() {
		defer close(events)
		defer close(done)

		if err := p.device.waitForCard(pollCtx); err != nil {
			if pollCtx.Err() != nil {
				return // stopped, not failed
			}
			events <- mfcverify.PollerEvent{Type: mfcverify.EventPollerFailed, Err: err}
			return
		}

		events <- mfcverify.PollerEvent{Type: mfcverify.EventCardDetected}
		events <- mfcverify.PollerEvent{Type: mfcverify.EventPollerDone}
	}()

	return events, nil
}

// Stop cancels detection and waits for the background work to finish.
// Safe to call more than once, including before Start.
func (p *Poller) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	return nil
}
