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

package mfcverify

import (
	"context"
	"errors"
	"fmt"
)

// State is one of the verifier's four phases
type State int

const (
	// StateCardSearch waits for the detection poller to find a card
	StateCardSearch State = iota
	// StateReading covers detection confirmed through bulk sector read
	StateReading
	// StateComparison compares the freshly read image against the dump
	StateComparison
	// StateTerminal is reached for every outcome, pass or fail
	StateTerminal
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateCardSearch:
		return "CardSearch"
	case StateReading:
		return "Reading"
	case StateComparison:
		return "Comparison"
	case StateTerminal:
		return "Terminal"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventType enumerates everything that can happen to the verifier:
// poller-originated events and user choices
type EventType int

const (
	// EventCardDetected is emitted by the poller when a card enters the field
	EventCardDetected EventType = iota
	// EventPollerDone is emitted when the poller finished its detection
	// work and stopped on its own
	EventPollerDone
	// EventPollerFailed is emitted when detection fails outright
	EventPollerFailed
	// EventBack abandons the run and routes to the landing destination
	EventBack
	// EventChoiceExit resolves a mismatch outcome by leaving
	EventChoiceExit
	// EventChoiceViewDetails resolves a mismatch outcome by routing to the
	// diff detail view
	EventChoiceViewDetails
)

// String returns the event name
func (e EventType) String() string {
	switch e {
	case EventCardDetected:
		return "CardDetected"
	case EventPollerDone:
		return "PollerDone"
	case EventPollerFailed:
		return "PollerFailed"
	case EventBack:
		return "Back"
	case EventChoiceExit:
		return "ChoiceExit"
	case EventChoiceViewDetails:
		return "ChoiceViewDetails"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// Outcome is the terminal result of a verification run
type Outcome int

const (
	// OutcomePending means the run has not reached a terminal state yet
	OutcomePending Outcome = iota
	// OutcomeVerified means every compared block matched
	OutcomeVerified
	// OutcomeMismatch means at least one compared block differed. This is
	// a content divergence, not an engine failure.
	OutcomeMismatch
	// OutcomeReadFailed means at least one sector could not be read, so
	// comparison was skipped
	OutcomeReadFailed
	// OutcomeDetectionFailed means the poller failed before any read began
	OutcomeDetectionFailed
	// OutcomeAborted means the run was abandoned by the user or canceled
	OutcomeAborted
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "Pending"
	case OutcomeVerified:
		return "Verified"
	case OutcomeMismatch:
		return "Mismatch"
	case OutcomeReadFailed:
		return "ReadFailed"
	case OutcomeDetectionFailed:
		return "DetectionFailed"
	case OutcomeAborted:
		return "Aborted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Route tells the caller where to navigate after a terminal outcome
type Route int

const (
	// RouteNone means no navigation decision is pending
	RouteNone Route = iota
	// RouteLanding is the default landing destination
	RouteLanding
	// RouteDiffViewer is the mismatch detail view
	RouteDiffViewer
)

// PollerEvent is one asynchronous notification from the detection poller.
// Type is one of EventCardDetected, EventPollerDone, EventPollerFailed.
type PollerEvent struct {
	Err  error
	Type EventType
}

// Poller abstracts the external card detection collaborator. Start begins
// detection and returns the event stream; the channel is closed when the
// poller will emit nothing further. Stop releases the poller and is safe
// to call more than once.
type Poller interface {
	Start(ctx context.Context) (<-chan PollerEvent, error)
	Stop() error
}

// stateEvent keys the verifier's transition table
type stateEvent struct {
	state State
	event EventType
}

// Verifier is the top-level state machine driving one verification run:
// card detection, bulk sector read, comparison, outcome. It owns the
// session and the live read buffer for the run's duration.
type Verifier struct {
	engine      *Engine
	poller      Poller
	reference   *CardImage
	session     *Session
	target      *CardImage
	result      *ComparisonOutcome
	events      <-chan PollerEvent
	transitions map[stateEvent]func(context.Context) error
	state       State
	outcome     Outcome
	route       Route
	pollerUp    bool
}

// VerifierOption configures a Verifier
type VerifierOption func(*Verifier)

// WithEngine substitutes a pre-configured sector read engine
func WithEngine(engine *Engine) VerifierOption {
	return func(v *Verifier) {
		v.engine = engine
	}
}

// WithSession substitutes a caller-owned session, e.g. to install an
// OnProgress hook before the run starts
func WithSession(sess *Session) VerifierOption {
	return func(v *Verifier) {
		v.session = sess
	}
}

// NewVerifier creates a verifier over the given card reader, detection
// poller and reference dump
func NewVerifier(reader CardReader, poller Poller, reference *CardImage, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		poller:    poller,
		reference: reference,
		state:     StateCardSearch,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.engine == nil {
		v.engine = NewEngine(reader)
	}
	if v.session == nil {
		v.session = NewSession()
	}
	v.buildTransitions()
	return v
}

// buildTransitions installs the (state, event) table. Pairs absent from
// the table are rejected by HandleEvent, so a new event kind cannot be
// silently ignored.
func (v *Verifier) buildTransitions() {
	v.transitions = map[stateEvent]func(context.Context) error{
		{StateCardSearch, EventCardDetected}: v.onCardDetected,
		{StateCardSearch, EventPollerDone}:   v.onPollerDone,
		{StateCardSearch, EventPollerFailed}: v.onPollerFailed,
		{StateReading, EventPollerDone}:      v.onPollerDone,
		{StateReading, EventPollerFailed}:    v.onPollerFailed,

		{StateCardSearch, EventBack}: v.onBack,
		{StateReading, EventBack}:    v.onBack,
		{StateComparison, EventBack}: v.onBack,
		{StateTerminal, EventBack}:   v.onBack,

		{StateTerminal, EventChoiceExit}:        v.onChoiceExit,
		{StateTerminal, EventChoiceViewDetails}: v.onChoiceViewDetails,
	}
}

// Session returns the run's progress session
func (v *Verifier) Session() *Session {
	return v.session
}

// State returns the current machine state
func (v *Verifier) State() State {
	return v.state
}

// Outcome returns the terminal outcome, or OutcomePending before Terminal
func (v *Verifier) Outcome() Outcome {
	return v.outcome
}

// Route returns the pending navigation decision
func (v *Verifier) Route() Route {
	return v.route
}

// Result returns the comparison outcome, nil unless comparison ran
func (v *Verifier) Result() *ComparisonOutcome {
	return v.result
}

// Target returns the freshly read card image, nil until the read phase ran.
// It is diagnostic even when the read failed part way.
func (v *Verifier) Target() *CardImage {
	return v.target
}

// Start resets the session and launches the detection poller. The verifier
// enters CardSearch and waits for events.
func (v *Verifier) Start(ctx context.Context) error {
	v.session.Reset()
	v.session.setOperation("Place card near reader")
	v.state = StateCardSearch
	v.outcome = OutcomePending
	v.route = RouteNone
	v.result = nil
	v.target = nil

	events, err := v.poller.Start(ctx)
	if err != nil {
		v.state = StateTerminal
		v.outcome = OutcomeDetectionFailed
		v.route = RouteLanding
		v.session.setError("Card detection failed")
		return fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}
	v.events = events
	v.pollerUp = true
	return nil
}

// HandleEvent feeds one event through the transition table. An event with
// no transition from the current state returns ErrUnexpectedEvent and
// changes nothing.
func (v *Verifier) HandleEvent(ctx context.Context, event EventType) error {
	action, ok := v.transitions[stateEvent{v.state, event}]
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrUnexpectedEvent, event, v.state)
	}
	return action(ctx)
}

// Run drives a complete verification: Start, then the event loop until a
// terminal state. The poller is released on every exit path, including
// cancellation and handler errors.
func (v *Verifier) Run(ctx context.Context) (Outcome, error) {
	if err := v.Start(ctx); err != nil {
		return v.outcome, err
	}
	defer v.releasePoller()

	for v.state != StateTerminal {
		select {
		case <-ctx.Done():
			v.abort()
			return v.outcome, ctx.Err()
		case event, ok := <-v.events:
			if !ok {
				// Poller went away without a terminal event
				if err := v.HandleEvent(ctx, EventPollerFailed); err != nil {
					return v.outcome, err
				}
				continue
			}
			if err := v.HandleEvent(ctx, event.Type); err != nil {
				return v.outcome, err
			}
		}
	}

	return v.outcome, nil
}

// releasePoller stops the detection poller if it is still active. Exit
// paths must never leave the poller running past the run's teardown.
func (v *Verifier) releasePoller() {
	if v.pollerUp {
		_ = v.poller.Stop()
		v.pollerUp = false
	}
}

func (v *Verifier) abort() {
	v.releasePoller()
	v.state = StateTerminal
	v.outcome = OutcomeAborted
	v.route = RouteLanding
}

func (v *Verifier) onCardDetected(context.Context) error {
	v.state = StateReading
	v.session.setOperation("Card detected")
	return nil
}

// onPollerDone runs the whole read and comparison synchronously: the
// poller has finished detection work, so the card session is ours.
func (v *Verifier) onPollerDone(ctx context.Context) error {
	v.releasePoller()
	v.state = StateReading

	target, err := v.engine.ReadCard(ctx, v.reference, v.session)
	v.target = target
	if err != nil {
		if errors.Is(err, ErrSessionReadFailed) {
			v.state = StateTerminal
			v.outcome = OutcomeReadFailed
			v.route = RouteLanding
			v.session.setError("Cannot read card: check keys or position")
			return nil
		}
		// Cancellation or a dump geometry problem
		v.abort()
		return err
	}

	v.state = StateComparison
	v.session.setOperation("Comparing data")

	result, err := Compare(v.reference, target, v.session)
	if err != nil {
		v.state = StateTerminal
		v.outcome = OutcomeReadFailed
		v.route = RouteLanding
		v.session.setError("Comparison failed: %v", err)
		return nil
	}
	v.result = result

	v.state = StateTerminal
	if result.Verified() {
		v.outcome = OutcomeVerified
		v.route = RouteLanding
		v.session.setOperation("All data matches")
	} else {
		v.outcome = OutcomeMismatch
		v.route = RouteNone // awaiting the exit/details choice
		v.session.setOperation("%d data blocks differ from dump", result.BlocksDifferent)
	}
	return nil
}

func (v *Verifier) onPollerFailed(context.Context) error {
	v.releasePoller()
	v.state = StateTerminal
	v.outcome = OutcomeDetectionFailed
	v.route = RouteLanding
	v.session.setError("Card detection failed")
	return nil
}

func (v *Verifier) onBack(context.Context) error {
	if v.outcome == OutcomePending {
		v.abort()
		return nil
	}
	v.releasePoller()
	v.route = RouteLanding
	return nil
}

func (v *Verifier) onChoiceExit(context.Context) error {
	if v.outcome != OutcomeMismatch {
		return fmt.Errorf("%w: %s with outcome %s", ErrUnexpectedEvent, EventChoiceExit, v.outcome)
	}
	v.route = RouteLanding
	return nil
}

func (v *Verifier) onChoiceViewDetails(context.Context) error {
	if v.outcome != OutcomeMismatch {
		return fmt.Errorf("%w: %s with outcome %s", ErrUnexpectedEvent, EventChoiceViewDetails, v.outcome)
	}
	v.route = RouteDiffViewer
	return nil
}
