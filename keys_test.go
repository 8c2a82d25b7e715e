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
	"github.com/stretchr/testify/require"
)

// dumpWithKeys builds a 1K dump whose sector 5 trailer holds the given
// keys, with knownness flags as requested
func dumpWithKeys(keyA, keyB Key, aKnown, bKnown bool) *CardImage {
	img := NewCardImage(Card1K)
	block := &img.Blocks[SectorTrailerBlock(5)]
	copy(block[0:6], keyA[:])
	copy(block[10:16], keyB[:])
	img.Sectors[5].KeyAKnown = aKnown
	img.Sectors[5].KeyBKnown = bKnown
	return img
}

func TestCandidateKeysFullOrder(t *testing.T) {
	t.Parallel()

	keyA := Key{0x10, 0x11, 0x12, 0x13, 0x14, 0x15}
	keyB := Key{0x20, 0x21, 0x22, 0x23, 0x24, 0x25}
	dump := dumpWithKeys(keyA, keyB, true, true)

	candidates, err := CandidateKeys(dump, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, KeyCandidate{Key: keyA, Type: KeyTypeA, Source: KeySourceDump}, candidates[0])
	assert.Equal(t, KeyCandidate{Key: keyB, Type: KeyTypeB, Source: KeySourceDump}, candidates[1])
	assert.Equal(t, KeyCandidate{Key: DefaultKey, Type: KeyTypeA, Source: KeySourceFallback}, candidates[2])
}

func TestCandidateKeysPartialKnowledge(t *testing.T) {
	t.Parallel()

	keyA := Key{0x10, 0x11, 0x12, 0x13, 0x14, 0x15}
	keyB := Key{0x20, 0x21, 0x22, 0x23, 0x24, 0x25}

	t.Run("OnlyKeyB", func(t *testing.T) {
		t.Parallel()
		dump := dumpWithKeys(keyA, keyB, false, true)
		candidates, err := CandidateKeys(dump, 5)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, KeyTypeB, candidates[0].Type)
		assert.Equal(t, keyB, candidates[0].Key)
		assert.Equal(t, KeySourceFallback, candidates[1].Source)
	})

	t.Run("NoKeysKnown", func(t *testing.T) {
		t.Parallel()
		dump := dumpWithKeys(keyA, keyB, false, false)
		candidates, err := CandidateKeys(dump, 5)
		require.NoError(t, err)
		// The fallback keeps the list non-empty unconditionally
		require.Len(t, candidates, 1)
		assert.Equal(t, DefaultKey, candidates[0].Key)
		assert.Equal(t, KeyTypeA, candidates[0].Type)
		assert.Equal(t, KeySourceFallback, candidates[0].Source)
	})
}

func TestCandidateKeysFallbackAlwaysLast(t *testing.T) {
	t.Parallel()

	dump := dumpWithKeys(DefaultKey, DefaultKey, true, true)
	candidates, err := CandidateKeys(dump, 5)
	require.NoError(t, err)

	last := candidates[len(candidates)-1]
	assert.Equal(t, KeySourceFallback, last.Source)
	assert.Equal(t, DefaultKey, last.Key)
}

func TestCandidateKeysBadSector(t *testing.T) {
	t.Parallel()

	dump := NewCardImage(Card1K)
	_, err := CandidateKeys(dump, 40)
	require.Error(t, err)
}

func TestKeyString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "FFFFFFFFFFFF", DefaultKey.String())
	assert.Equal(t, "A", KeyTypeA.String())
	assert.Equal(t, "B", KeyTypeB.String())
}
