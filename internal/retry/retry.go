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

// Package retry provides a bounded retry helper with caller-supplied
// retryability classification
package retry

import "time"

// Policy configures retry behavior. The Retryable predicate decides which
// errors are worth another attempt; a nil predicate retries every error.
type Policy struct {
	Retryable   func(error) bool
	MaxAttempts int
	Delay       time.Duration
}

// Do executes op up to MaxAttempts times. The Delay is inserted before each
// attempt after the first, letting transient field conditions clear. A
// non-retryable error short-circuits immediately.
func Do[T any](policy Policy, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 && policy.Delay > 0 {
			time.Sleep(policy.Delay)
		}

		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if policy.Retryable != nil && !policy.Retryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}
