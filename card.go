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

import "fmt"

// MIFARE Classic memory structure
const (
	// BlockSize is the number of bytes in a single block
	BlockSize = 16
	// KeySize is the number of bytes in a sector key
	KeySize = 6
)

// Sector geometry. 1K cards use 4-block sectors throughout. 4K cards use
// 4-block sectors up to sector 31 and 16-block sectors from 32 to 39.
const (
	smallSectorBlocks     = 4
	largeSectorBlocks     = 16
	largeSectorFirst      = 32  // first sector with 16 blocks on 4K cards
	largeSectorBlockStart = 128 // absolute block index where 16-block sectors begin
)

// CardType identifies the MIFARE Classic capacity class
type CardType int

const (
	// Card1K is a MIFARE Classic 1K card: 16 sectors of 4 blocks
	Card1K CardType = iota
	// Card4K is a MIFARE Classic 4K card: 32 sectors of 4 blocks
	// followed by 8 sectors of 16 blocks
	Card4K
)

// String returns the human-readable capacity class name
func (t CardType) String() string {
	switch t {
	case Card1K:
		return "1K"
	case Card4K:
		return "4K"
	default:
		return fmt.Sprintf("CardType(%d)", int(t))
	}
}

// TotalSectors returns the number of sectors for the capacity class
func (t CardType) TotalSectors() int {
	if t == Card4K {
		return 40
	}
	return 16
}

// TotalBlocks returns the number of blocks for the capacity class
func (t CardType) TotalBlocks() int {
	if t == Card4K {
		return 256
	}
	return 64
}

// FirstBlockOfSector returns the absolute index of the sector's first block
func FirstBlockOfSector(sector int) int {
	if sector < largeSectorFirst {
		return sector * smallSectorBlocks
	}
	return largeSectorBlockStart + (sector-largeSectorFirst)*largeSectorBlocks
}

// BlocksInSector returns the number of blocks the sector holds
func BlocksInSector(sector int) int {
	if sector < largeSectorFirst {
		return smallSectorBlocks
	}
	return largeSectorBlocks
}

// SectorTrailerBlock returns the absolute index of the sector's trailer block
func SectorTrailerBlock(sector int) int {
	return FirstBlockOfSector(sector) + BlocksInSector(sector) - 1
}

// SectorOfBlock returns the sector that contains the given absolute block index
func SectorOfBlock(block int) int {
	if block < largeSectorBlockStart {
		return block / smallSectorBlocks
	}
	return largeSectorFirst + (block-largeSectorBlockStart)/largeSectorBlocks
}

// IsSectorTrailer reports whether the absolute block index is a sector trailer
func IsSectorTrailer(block int) bool {
	if block < largeSectorBlockStart {
		return block%smallSectorBlocks == smallSectorBlocks-1
	}
	return (block-largeSectorBlockStart)%largeSectorBlocks == largeSectorBlocks-1
}

// Block is a single 16-byte unit of card memory
type Block [BlockSize]byte

// SectorState carries per-sector bookkeeping alongside the block contents.
// KeyAKnown and KeyBKnown mirror the dump's key map; on a freshly read image
// both are set once the sector was read successfully, regardless of which
// key type actually opened it.
type SectorState struct {
	LastKey   *KeyCandidate
	KeyAKnown bool
	KeyBKnown bool
}

// CardImage is the complete in-memory representation of a card instance:
// every block plus per-sector key state
type CardImage struct {
	Blocks  []Block
	Sectors []SectorState
	Type    CardType
}

// NewCardImage creates a zeroed card image for the given capacity class
func NewCardImage(t CardType) *CardImage {
	return &CardImage{
		Type:    t,
		Blocks:  make([]Block, t.TotalBlocks()),
		Sectors: make([]SectorState, t.TotalSectors()),
	}
}

// Reset zeroes all blocks and sector state, keeping the capacity class
func (c *CardImage) Reset() {
	for i := range c.Blocks {
		c.Blocks[i] = Block{}
	}
	for i := range c.Sectors {
		c.Sectors[i] = SectorState{}
	}
}

// SectorTrailer is a decoded view of a sector's trailer block:
// Key A (6 bytes), access-condition bytes (4 bytes), Key B (6 bytes)
type SectorTrailer struct {
	KeyA   Key
	KeyB   Key
	Access [4]byte
}

// Trailer decodes the trailer block of the given sector
func (c *CardImage) Trailer(sector int) (SectorTrailer, error) {
	if sector < 0 || sector >= c.Type.TotalSectors() {
		return SectorTrailer{}, fmt.Errorf("sector %d out of range for %s card", sector, c.Type)
	}
	block := c.Blocks[SectorTrailerBlock(sector)]

	var tr SectorTrailer
	copy(tr.KeyA[:], block[0:6])
	copy(tr.Access[:], block[6:10])
	copy(tr.KeyB[:], block[10:16])
	return tr, nil
}

// UID returns the 4-byte UID stored in the manufacturer block
func (c *CardImage) UID() [4]byte {
	var uid [4]byte
	copy(uid[:], c.Blocks[0][0:4])
	return uid
}
