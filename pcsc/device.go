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

// Package pcsc implements the mfcverify card reader and detection poller
// interfaces over a PC/SC smart card reader (ACR122 class), using the
// contactless storage card pseudo-APDUs from PC/SC part 3
package pcsc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ebfe/scard"

	mfcverify "github.com/bandkit/go-mfcverify"
)

// ErrNoReader indicates no PC/SC reader matched the requested name
var ErrNoReader = errors.New("no matching PC/SC reader")

// Device wraps one PC/SC reader and, once a card is in the field, the
// connected card handle. It implements mfcverify.CardReader.
//
// Device is not safe for concurrent use; the verification engine drives
// it from a single goroutine.
type Device struct {
	ctx    *scard.Context
	reader string

	mu   sync.Mutex
	card *scard.Card
}

// ListReaders returns the names of all attached PC/SC readers
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish PC/SC context: %w", err)
	}
	defer func() { _ = ctx.Release() }()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("failed to list readers: %w", err)
	}
	return readers, nil
}

// Open establishes a PC/SC context and selects a reader. An empty name
// selects the first attached reader; otherwise the first reader whose
// name contains the given substring is used. The card connection itself
// is made later, when the poller sees a card.
func Open(name string) (*Device, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		_ = ctx.Release()
		return nil, fmt.Errorf("failed to list readers: %w", err)
	}

	reader := ""
	for _, r := range readers {
		if name == "" || strings.Contains(r, name) {
			reader = r
			break
		}
	}
	if reader == "" {
		_ = ctx.Release()
		return nil, fmt.Errorf("%w: %q", ErrNoReader, name)
	}

	return &Device{ctx: ctx, reader: reader}, nil
}

// Reader returns the selected PC/SC reader name
func (d *Device) Reader() string {
	return d.reader
}

// Close disconnects any connected card and releases the PC/SC context
func (d *Device) Close() error {
	d.mu.Lock()
	card := d.card
	d.card = nil
	d.mu.Unlock()

	if card != nil {
		_ = card.Disconnect(scard.LeaveCard)
	}
	if err := d.ctx.Release(); err != nil {
		return fmt.Errorf("failed to release PC/SC context: %w", err)
	}
	return nil
}

// waitForCard blocks until a card is present in the reader's field, then
// connects to it. Cancellation is checked between status polls.
func (d *Device) waitForCard(ctx context.Context) error {
	states := []scard.ReaderState{{
		Reader:       d.reader,
		CurrentState: scard.StateUnaware,
	}}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := d.ctx.GetStatusChange(states, 250*time.Millisecond)
		if err != nil && !errors.Is(err, scard.ErrTimeout) {
			return fmt.Errorf("status change failed: %w", err)
		}
		states[0].CurrentState = states[0].EventState

		if states[0].EventState&scard.StatePresent != 0 {
			return d.connect()
		}
	}
}

// connect attaches to the card currently in the field
func (d *Device) connect() error {
	card, err := d.ctx.Connect(d.reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return fmt.Errorf("failed to connect to card: %w", err)
	}
	d.mu.Lock()
	d.card = card
	d.mu.Unlock()
	return nil
}

// transmit sends one APDU and splits the status word off the response
func (d *Device) transmit(apdu []byte) ([]byte, uint16, error) {
	d.mu.Lock()
	card := d.card
	d.mu.Unlock()

	if card == nil {
		return nil, 0, mfcverify.ErrCardNotPresent
	}

	resp, err := card.Transmit(apdu)
	if err != nil {
		return nil, 0, mapTransmitError(err)
	}

	data, sw, ok := splitResponse(resp)
	if !ok {
		return nil, 0, fmt.Errorf("short response: %d bytes", len(resp))
	}
	return data, sw, nil
}

// mapTransmitError folds card-gone conditions into the timeout class the
// engine's retry policy understands: a silent or removed card is "no
// response", everything else is a hard error
func mapTransmitError(err error) error {
	if errors.Is(err, scard.ErrTimeout) ||
		errors.Is(err, scard.ErrNoSmartcard) ||
		errors.Is(err, scard.ErrRemovedCard) {
		return fmt.Errorf("%w: %w", mfcverify.ErrReadTimeout, err)
	}
	return err
}

// Authenticate loads the key into the reader's volatile slot and runs the
// general authenticate command against the block's sector
func (d *Device) Authenticate(block int, key mfcverify.Key, keyType mfcverify.KeyType) (mfcverify.AuthContext, error) {
	_, sw, err := d.transmit(loadKeyAPDU(key))
	if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	if sw != swSuccess {
		return nil, fmt.Errorf("%w: load key status %04X", mfcverify.ErrAuthFailed, sw)
	}

	_, sw, err = d.transmit(authenticateAPDU(block, keyType))
	if err != nil {
		return nil, fmt.Errorf("authenticate block %d: %w", block, err)
	}
	if sw != swSuccess {
		return nil, fmt.Errorf("%w: block %d key %s status %04X", mfcverify.ErrAuthFailed, block, keyType, sw)
	}

	// The reader holds the authenticated session; no token to carry.
	return nil, nil
}

// ReadBlock reads one 16-byte block under the current authentication
func (d *Device) ReadBlock(block int, _ mfcverify.Key, _ mfcverify.KeyType, _ mfcverify.AuthContext) (mfcverify.Block, error) {
	var out mfcverify.Block

	data, sw, err := d.transmit(readBinaryAPDU(block))
	if err != nil {
		return out, fmt.Errorf("read block %d: %w", block, err)
	}
	if sw != swSuccess {
		return out, fmt.Errorf("read block %d: status %04X", block, sw)
	}
	if len(data) < mfcverify.BlockSize {
		return out, fmt.Errorf("read block %d: short payload %d bytes", block, len(data))
	}

	copy(out[:], data[:mfcverify.BlockSize])
	return out, nil
}
