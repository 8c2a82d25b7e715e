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
	"encoding/hex"
	"strings"
)

// Key is a 6-byte MIFARE Classic sector key
type Key [KeySize]byte

// String returns the key as an upper-case hex string
func (k Key) String() string {
	return strings.ToUpper(hex.EncodeToString(k[:]))
}

// KeyType selects between the two independent sector credentials
type KeyType byte

// Key types, encoded as the card protocol expects them
const (
	KeyTypeA KeyType = 0x00
	KeyTypeB KeyType = 0x01
)

// String returns "A" or "B"
func (t KeyType) String() string {
	if t == KeyTypeB {
		return "B"
	}
	return "A"
}

// KeySource records where a candidate key came from
type KeySource int

const (
	// KeySourceDump means the key was taken from the reference dump's trailer
	KeySourceDump KeySource = iota
	// KeySourceFallback means the key is the hard-coded factory default
	KeySourceFallback
)

// DefaultKey is the factory transport key. Cards left in a pre-write or
// emulation state typically still open with it, which is why it is always
// the terminal candidate.
var DefaultKey = Key{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// KeyCandidate is one (key, type) pair to attempt against a sector.
// Ordering within a candidate list is significant.
type KeyCandidate struct {
	Key    Key
	Type   KeyType
	Source KeySource
}

// CandidateKeys returns the ordered list of keys to attempt for a sector:
// the dump's Key A if the dump records it as known, then the dump's Key B
// if known, then DefaultKey as the unconditional terminal fallback.
//
// Dump keys go first because after a successful write the card holds them;
// the fallback still opens a card the write never reached.
func CandidateKeys(dump *CardImage, sector int) ([]KeyCandidate, error) {
	tr, err := dump.Trailer(sector)
	if err != nil {
		return nil, err
	}

	candidates := make([]KeyCandidate, 0, 3)
	state := dump.Sectors[sector]

	if state.KeyAKnown {
		candidates = append(candidates, KeyCandidate{Key: tr.KeyA, Type: KeyTypeA, Source: KeySourceDump})
	}
	if state.KeyBKnown {
		candidates = append(candidates, KeyCandidate{Key: tr.KeyB, Type: KeyTypeB, Source: KeySourceDump})
	}
	candidates = append(candidates, KeyCandidate{Key: DefaultKey, Type: KeyTypeA, Source: KeySourceFallback})

	return candidates, nil
}
