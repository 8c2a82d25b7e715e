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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionCounters(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	sess.beginRead(16)
	sess.startSector(0)
	sess.authAttempt()
	sess.authSuccess()
	sess.sectorRead(0)
	sess.startSector(1)
	sess.authAttempt()
	sess.sectorFailed(1)
	sess.finishRead(false)

	snap := sess.Snapshot()
	assert.Equal(t, 16, snap.TotalSectors)
	assert.Equal(t, 16, snap.CurrentSector) // pinned to total on completion
	assert.Equal(t, 1, snap.SectorsRead)
	assert.Equal(t, 1, snap.SectorsFailed)
	assert.Equal(t, 2, snap.AuthAttempts)
	assert.Equal(t, 1, snap.AuthSuccesses)
	assert.True(t, snap.ReadingComplete)
	assert.Equal(t, "Read incomplete", snap.CurrentOperation)
	assert.Equal(t, "1 sectors failed", snap.LastResult)
	assert.Equal(t, "Sector 1 failed", snap.ErrorDetails)
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	sess.beginRead(16)
	sess.authAttempt()
	sess.setError("boom")

	sess.Reset()
	assert.Equal(t, Snapshot{}, sess.Snapshot())
}

func TestSessionProgressHook(t *testing.T) {
	t.Parallel()

	var fired []Snapshot
	sess := NewSession()
	sess.OnProgress = func(snap Snapshot) {
		fired = append(fired, snap)
	}

	sess.beginRead(16)
	sess.startSector(3)
	sess.sectorRead(3)

	assert.Len(t, fired, 3)
	assert.Equal(t, 3, fired[1].CurrentSector)
	assert.Equal(t, 1, fired[2].SectorsRead)
	assert.Equal(t, "Sector 3 OK", fired[2].LastResult)
}

func TestSessionSnapshotIsolation(t *testing.T) {
	t.Parallel()

	sess := NewSession()
	sess.beginRead(16)

	snap := sess.Snapshot()
	snap.SectorsRead = 99

	assert.Equal(t, 0, sess.Snapshot().SectorsRead)
}

func TestSessionNilSafe(t *testing.T) {
	t.Parallel()

	var sess *Session
	sess.Reset()
	sess.beginRead(16)
	sess.authAttempt()
	sess.blockCompared(true)
}
