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

// Package mfcverify verifies that a write to a MIFARE Classic compatible
// tag succeeded, by re-reading the tag over the air and comparing it block
// by block against a reference dump.
//
// The package is built around three pieces:
//
//   - Engine: the sector authentication and read engine. For each sector
//     it tries the dump's Key A, the dump's Key B, then the factory
//     default key, re-authenticates every second block for protocol
//     stability, and retries timed-out block reads up to three times.
//
//   - Compare: the comparison policy. Block 0 (manufacturer block) and
//     every sector trailer (keys and access bytes) are excluded; all
//     other blocks are compared byte for byte.
//
//   - Verifier: the state machine sequencing card detection, bulk read,
//     comparison and outcome. It consumes events from a detection Poller
//     and exposes progress to the presentation layer through a Session
//     snapshot.
//
// Card I/O goes through the CardReader interface. The pcsc subpackage
// provides a PC/SC backed implementation for ACR122-class readers; the
// dump subpackage loads reference dumps in the Flipper .nfc text format.
//
// Basic usage:
//
//	file, err := dump.Load("band.nfc")
//	if err != nil { ... }
//
//	dev, err := pcsc.Open("")
//	if err != nil { ... }
//	defer dev.Close()
//
//	v := mfcverify.NewVerifier(dev, pcsc.NewPoller(dev), file.Card)
//	outcome, err := v.Run(ctx)
package mfcverify
