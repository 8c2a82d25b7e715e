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
	"fmt"
	"sync"
)

// Snapshot is a read-only copy of a session's progress state, safe to hand
// to a presentation layer
type Snapshot struct {
	CurrentOperation string
	LastResult       string
	ErrorDetails     string
	CurrentSector    int
	TotalSectors     int
	SectorsRead      int
	SectorsFailed    int
	AuthAttempts     int
	AuthSuccesses    int
	BlocksCompared   int
	BlocksDifferent  int
	ReadingComplete  bool
}

// Session tracks the progress of a single verification run: sector and
// authentication counters, comparison results, and free-text status for
// the presentation layer. Exactly one session exists per run; it is owned
// by the verifier and must not be shared across runs.
//
// The presentation layer reads state through Snapshot, never through the
// struct directly. If OnProgress is set it is invoked after each meaningful
// update with a fresh snapshot; refresh cadence is the callback's problem.
type Session struct {
	OnProgress func(Snapshot)

	mu   sync.Mutex
	snap Snapshot
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{}
}

// Snapshot returns a copy of the current progress state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Reset clears all counters and status text
func (s *Session) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()
}

// update applies fn under the lock, then fires the progress hook with the
// resulting snapshot outside it
func (s *Session) update(fn func(*Snapshot)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	fn(&s.snap)
	snap := s.snap
	hook := s.OnProgress
	s.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
}

func (s *Session) setOperation(format string, args ...any) {
	s.update(func(snap *Snapshot) {
		snap.CurrentOperation = fmt.Sprintf(format, args...)
	})
}

func (s *Session) setError(format string, args ...any) {
	s.update(func(snap *Snapshot) {
		snap.ErrorDetails = fmt.Sprintf(format, args...)
	})
}

func (s *Session) beginRead(totalSectors int) {
	s.update(func(snap *Snapshot) {
		snap.TotalSectors = totalSectors
		snap.CurrentOperation = "Initializing read"
	})
}

func (s *Session) startSector(sector int) {
	s.update(func(snap *Snapshot) {
		snap.CurrentSector = sector
		snap.CurrentOperation = fmt.Sprintf("Reading sector %d", sector)
	})
}

func (s *Session) sectorRead(sector int) {
	s.update(func(snap *Snapshot) {
		snap.SectorsRead++
		snap.LastResult = fmt.Sprintf("Sector %d OK", sector)
	})
}

func (s *Session) sectorFailed(sector int) {
	s.update(func(snap *Snapshot) {
		snap.SectorsFailed++
		snap.ErrorDetails = fmt.Sprintf("Sector %d failed", sector)
	})
}

func (s *Session) authAttempt() {
	s.update(func(snap *Snapshot) {
		snap.AuthAttempts++
	})
}

func (s *Session) authSuccess() {
	s.update(func(snap *Snapshot) {
		snap.AuthSuccesses++
	})
}

func (s *Session) finishRead(ok bool) {
	s.update(func(snap *Snapshot) {
		snap.CurrentSector = snap.TotalSectors
		snap.ReadingComplete = true
		if ok {
			snap.CurrentOperation = "Read complete"
			snap.LastResult = fmt.Sprintf("All %d sectors read", snap.SectorsRead)
		} else {
			snap.CurrentOperation = "Read incomplete"
			snap.LastResult = fmt.Sprintf("%d sectors failed", snap.SectorsFailed)
		}
	})
}

func (s *Session) blockCompared(different bool) {
	s.update(func(snap *Snapshot) {
		snap.BlocksCompared++
		if different {
			snap.BlocksDifferent++
		}
	})
}
