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

// Package cardtest provides a simulated MIFARE Classic card for tests.
// The virtual card authenticates against the keys held in its own sector
// trailers and records every call, so tests can assert candidate order,
// re-authentication positions and retry counts. Scripted hooks inject
// failures before the default behavior runs.
package cardtest

import (
	"fmt"

	mfcverify "github.com/bandkit/go-mfcverify"
)

// AuthCall records one Authenticate invocation
type AuthCall struct {
	Block   int
	Key     mfcverify.Key
	KeyType mfcverify.KeyType
}

// VirtualCard simulates a live card behind the CardReader interface
type VirtualCard struct {
	// BeforeAuth, when set, runs before the key check; a non-nil error is
	// returned as the authentication result
	BeforeAuth func(call AuthCall) error
	// BeforeRead, when set, runs before the memory access; a non-nil
	// error is returned as the read result
	BeforeRead func(block int) error

	Memory []mfcverify.Block
	Type   mfcverify.CardType

	// Call logs, in order
	AuthCalls []AuthCall
	ReadCalls []int

	Present bool
}

// New1K creates a virtual 1K card with factory-default trailers and zeroed
// data blocks
func New1K() *VirtualCard {
	return newCard(mfcverify.Card1K)
}

// New4K creates a virtual 4K card with factory-default trailers
func New4K() *VirtualCard {
	return newCard(mfcverify.Card4K)
}

func newCard(t mfcverify.CardType) *VirtualCard {
	c := &VirtualCard{
		Type:    t,
		Memory:  make([]mfcverify.Block, t.TotalBlocks()),
		Present: true,
	}
	// Manufacturer block: UID, BCC, vendor filler
	c.Memory[0] = mfcverify.Block{
		0x04, 0x11, 0x22, 0x33, 0x04, 0x08, 0x04, 0x00,
		0x62, 0x63, 0x64, 0x65, 0x66, 0x67, 0x68, 0x69,
	}
	for sector := 0; sector < t.TotalSectors(); sector++ {
		c.SetSectorKeys(sector, mfcverify.DefaultKey, mfcverify.DefaultKey)
	}
	return c
}

// SetSectorKeys rewrites the sector's trailer with the given keys and
// transport access bytes
func (c *VirtualCard) SetSectorKeys(sector int, keyA, keyB mfcverify.Key) {
	trailer := mfcverify.SectorTrailerBlock(sector)
	var block mfcverify.Block
	copy(block[0:6], keyA[:])
	copy(block[6:10], []byte{0xFF, 0x07, 0x80, 0x69})
	copy(block[10:16], keyB[:])
	c.Memory[trailer] = block
}

// FillData writes a recognizable pattern into every data block, so
// comparison tests have non-zero content to diverge from
func (c *VirtualCard) FillData() {
	for block := 1; block < c.Type.TotalBlocks(); block++ {
		if mfcverify.IsSectorTrailer(block) {
			continue
		}
		for i := range c.Memory[block] {
			c.Memory[block][i] = byte(block ^ i)
		}
	}
}

// ReferenceImage builds the dump-side card image for this card: same
// contents, with both keys marked known for every sector
func (c *VirtualCard) ReferenceImage() *mfcverify.CardImage {
	img := mfcverify.NewCardImage(c.Type)
	copy(img.Blocks, c.Memory)
	for sector := range img.Sectors {
		img.Sectors[sector].KeyAKnown = true
		img.Sectors[sector].KeyBKnown = true
	}
	return img
}

// Authenticate checks the key against the sector trailer of the target
// block's sector
func (c *VirtualCard) Authenticate(block int, key mfcverify.Key, keyType mfcverify.KeyType) (mfcverify.AuthContext, error) {
	call := AuthCall{Block: block, Key: key, KeyType: keyType}
	c.AuthCalls = append(c.AuthCalls, call)

	if c.BeforeAuth != nil {
		if err := c.BeforeAuth(call); err != nil {
			return nil, err
		}
	}
	if !c.Present {
		return nil, mfcverify.ErrCardNotPresent
	}

	sector := mfcverify.SectorOfBlock(block)
	trailer := c.Memory[mfcverify.SectorTrailerBlock(sector)]

	var want mfcverify.Key
	if keyType == mfcverify.KeyTypeA {
		copy(want[:], trailer[0:6])
	} else {
		copy(want[:], trailer[10:16])
	}
	if key != want {
		return nil, fmt.Errorf("%w: sector %d key %s", mfcverify.ErrAuthFailed, sector, keyType)
	}
	return sector, nil
}

// ReadBlock returns the block contents. The auth token must match the
// block's sector, mirroring a real reader's session scoping.
func (c *VirtualCard) ReadBlock(block int, _ mfcverify.Key, _ mfcverify.KeyType, auth mfcverify.AuthContext) (mfcverify.Block, error) {
	c.ReadCalls = append(c.ReadCalls, block)

	if c.BeforeRead != nil {
		if err := c.BeforeRead(block); err != nil {
			return mfcverify.Block{}, err
		}
	}
	if !c.Present {
		return mfcverify.Block{}, fmt.Errorf("%w: card removed", mfcverify.ErrReadTimeout)
	}

	sector, ok := auth.(int)
	if !ok || sector != mfcverify.SectorOfBlock(block) {
		return mfcverify.Block{}, fmt.Errorf("not authenticated to sector %d (block %d)", mfcverify.SectorOfBlock(block), block)
	}
	return c.Memory[block], nil
}

// TimeoutTimes returns a BeforeRead hook that times out the first n reads
// of the given block
func TimeoutTimes(block, n int) func(int) error {
	remaining := n
	return func(b int) error {
		if b == block && remaining > 0 {
			remaining--
			return fmt.Errorf("%w: no response", mfcverify.ErrReadTimeout)
		}
		return nil
	}
}
