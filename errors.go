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
	"errors"
	"fmt"
)

// Card I/O errors reported by CardReader implementations
var (
	// ErrReadTimeout indicates the card did not respond in time. This is
	// the only error class the per-block retry policy retries.
	ErrReadTimeout = errors.New("card read timeout")
	// ErrAuthFailed indicates the card rejected an authentication attempt
	ErrAuthFailed = errors.New("authentication failed")
	// ErrCardNotPresent indicates no card is in the field
	ErrCardNotPresent = errors.New("card not present")
)

// Verification errors
var (
	// ErrAuthExhausted indicates no candidate key authenticated a sector
	ErrAuthExhausted = errors.New("no candidate key authenticated")
	// ErrReadExhausted indicates a sector authenticated but a block could
	// not be read after retries, or re-authentication failed mid-sector
	ErrReadExhausted = errors.New("block unreadable after retries")
	// ErrSessionReadFailed indicates at least one sector failed, so the
	// run cannot proceed to comparison
	ErrSessionReadFailed = errors.New("card read incomplete")
	// ErrDetectionFailed indicates the detection poller reported failure
	// before any read began
	ErrDetectionFailed = errors.New("card detection failed")
	// ErrCapacityMismatch indicates the two images being compared do not
	// declare the same capacity class
	ErrCapacityMismatch = errors.New("card capacity mismatch")
	// ErrUnexpectedEvent indicates an event that has no transition from
	// the verifier's current state
	ErrUnexpectedEvent = errors.New("unexpected event for state")
)

// SectorError records where in the card a per-sector failure happened
type SectorError struct {
	Err    error
	Sector int
	Block  int // -1 when the failure is not block specific
}

// Error implements the error interface
func (e *SectorError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("sector %d: %v", e.Sector, e.Err)
	}
	return fmt.Sprintf("sector %d block %d: %v", e.Sector, e.Block, e.Err)
}

// Unwrap returns the underlying cause
func (e *SectorError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient card I/O failure that the
// per-block retry policy may retry. Only timeout-class errors qualify; any
// other read error aborts the block immediately.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrReadTimeout)
}
