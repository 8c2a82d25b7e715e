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

package mfcverify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mfcverify "github.com/bandkit/go-mfcverify"
	"github.com/bandkit/go-mfcverify/internal/cardtest"
)

// stubPoller replays a scripted event sequence. With hold set the channel
// stays open after the events, so Run blocks until canceled.
type stubPoller struct {
	startErr error
	events   []mfcverify.PollerEvent
	stops    int
	hold     bool
}

func (p *stubPoller) Start(context.Context) (<-chan mfcverify.PollerEvent, error) {
	if p.startErr != nil {
		return nil, p.startErr
	}
	ch := make(chan mfcverify.PollerEvent, len(p.events)+1)
	for _, e := range p.events {
		ch <- e
	}
	if !p.hold {
		close(ch)
	}
	return ch, nil
}

func (p *stubPoller) Stop() error {
	p.stops++
	return nil
}

func detectSequence() []mfcverify.PollerEvent {
	return []mfcverify.PollerEvent{
		{Type: mfcverify.EventCardDetected},
		{Type: mfcverify.EventPollerDone},
	}
}

func newVerifier(card *cardtest.VirtualCard, poller mfcverify.Poller, dump *mfcverify.CardImage) *mfcverify.Verifier {
	return mfcverify.NewVerifier(card, poller, dump,
		mfcverify.WithEngine(mfcverify.NewEngine(card, fastRetry())))
}

func TestVerifierRunVerified(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	card.FillData()
	poller := &stubPoller{events: detectSequence()}

	v := newVerifier(card, poller, card.ReferenceImage())

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, mfcverify.OutcomeVerified, outcome)
	assert.Equal(t, mfcverify.StateTerminal, v.State())
	assert.Equal(t, mfcverify.RouteLanding, v.Route())
	assert.Equal(t, 1, poller.stops)

	require.NotNil(t, v.Result())
	assert.True(t, v.Result().Verified())
	assert.Equal(t, 47, v.Result().BlocksCompared)

	snap := v.Session().Snapshot()
	assert.Equal(t, "All data matches", snap.CurrentOperation)
	assert.True(t, snap.ReadingComplete)
}

func TestVerifierRunMismatch(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	card.FillData()
	dump := card.ReferenceImage()
	dump.Blocks[5][3] ^= 0xFF
	dump.Blocks[22][0] ^= 0x01

	poller := &stubPoller{events: detectSequence()}
	v := newVerifier(card, poller, dump)

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, mfcverify.OutcomeMismatch, outcome)
	// Navigation is withheld until the user chooses exit or details
	assert.Equal(t, mfcverify.RouteNone, v.Route())
	require.NotNil(t, v.Result())
	assert.Equal(t, []int{5, 22}, v.Result().DifferentBlocks)

	require.NoError(t, v.HandleEvent(context.Background(), mfcverify.EventChoiceViewDetails))
	assert.Equal(t, mfcverify.RouteDiffViewer, v.Route())

	require.NoError(t, v.HandleEvent(context.Background(), mfcverify.EventChoiceExit))
	assert.Equal(t, mfcverify.RouteLanding, v.Route())
}

func TestVerifierRunReadFailed(t *testing.T) {
	t.Parallel()

	secret := mfcverify.Key{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}
	card := cardtest.New1K()
	card.SetSectorKeys(0, secret, secret)

	// Dump from a factory card: its keys no longer open sector 0
	dump := cardtest.New1K().ReferenceImage()

	poller := &stubPoller{events: detectSequence()}
	v := newVerifier(card, poller, dump)

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, mfcverify.OutcomeReadFailed, outcome)
	assert.Equal(t, mfcverify.RouteLanding, v.Route())
	assert.Nil(t, v.Result())
	assert.NotNil(t, v.Target()) // partial image kept for diagnostics

	snap := v.Session().Snapshot()
	assert.Equal(t, 1, snap.SectorsFailed)
	assert.Equal(t, "Cannot read card: check keys or position", snap.ErrorDetails)
}

func TestVerifierRunPollerFailed(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	poller := &stubPoller{events: []mfcverify.PollerEvent{
		{Type: mfcverify.EventPollerFailed, Err: errors.New("field collision")},
	}}
	v := newVerifier(card, poller, card.ReferenceImage())

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, mfcverify.OutcomeDetectionFailed, outcome)
	assert.Equal(t, mfcverify.RouteLanding, v.Route())
	assert.Empty(t, card.ReadCalls, "no read may happen without detection")
	assert.Equal(t, 1, poller.stops)
}

func TestVerifierRunPollerChannelClosed(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	poller := &stubPoller{} // closes the stream with no terminal event
	v := newVerifier(card, poller, card.ReferenceImage())

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, mfcverify.OutcomeDetectionFailed, outcome)
}

func TestVerifierStartError(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	poller := &stubPoller{startErr: errors.New("reader unavailable")}
	v := newVerifier(card, poller, card.ReferenceImage())

	outcome, err := v.Run(context.Background())
	require.ErrorIs(t, err, mfcverify.ErrDetectionFailed)
	assert.Equal(t, mfcverify.OutcomeDetectionFailed, outcome)
	assert.Equal(t, mfcverify.StateTerminal, v.State())
}

func TestVerifierBackAborts(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	poller := &stubPoller{hold: true}
	v := newVerifier(card, poller, card.ReferenceImage())

	require.NoError(t, v.Start(context.Background()))
	assert.Equal(t, mfcverify.StateCardSearch, v.State())

	require.NoError(t, v.HandleEvent(context.Background(), mfcverify.EventBack))
	assert.Equal(t, mfcverify.StateTerminal, v.State())
	assert.Equal(t, mfcverify.OutcomeAborted, v.Outcome())
	assert.Equal(t, mfcverify.RouteLanding, v.Route())
	assert.Equal(t, 1, poller.stops)
}

func TestVerifierRunCanceled(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	poller := &stubPoller{hold: true}
	v := newVerifier(card, poller, card.ReferenceImage())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := v.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, mfcverify.OutcomeAborted, outcome)
	assert.Equal(t, 1, poller.stops)
}

func TestVerifierUnexpectedEvent(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	poller := &stubPoller{hold: true}
	v := newVerifier(card, poller, card.ReferenceImage())
	require.NoError(t, v.Start(context.Background()))

	err := v.HandleEvent(context.Background(), mfcverify.EventChoiceExit)
	require.ErrorIs(t, err, mfcverify.ErrUnexpectedEvent)
	assert.Equal(t, mfcverify.StateCardSearch, v.State(), "state must not change")
	assert.Equal(t, mfcverify.OutcomePending, v.Outcome())
}

func TestVerifierChoiceGuardedToMismatch(t *testing.T) {
	t.Parallel()

	card := cardtest.New1K()
	card.FillData()
	poller := &stubPoller{events: detectSequence()}
	v := newVerifier(card, poller, card.ReferenceImage())

	outcome, err := v.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, mfcverify.OutcomeVerified, outcome)

	// Terminal accepts the choice events, but only a mismatch honors them
	err = v.HandleEvent(context.Background(), mfcverify.EventChoiceViewDetails)
	require.ErrorIs(t, err, mfcverify.ErrUnexpectedEvent)
	assert.Equal(t, mfcverify.RouteLanding, v.Route())
}
