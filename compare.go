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

// ComparisonOutcome summarizes a block-by-block comparison of two card
// images. DifferentBlocks holds the absolute index of every mismatched
// block, in order, for a subsequent detail view.
type ComparisonOutcome struct {
	DifferentBlocks []int
	BlocksCompared  int
	BlocksDifferent int
}

// Verified reports whether the comparison found zero mismatched blocks
func (o *ComparisonOutcome) Verified() bool {
	return o.BlocksDifferent == 0
}

// Compare runs reference against target under the exclusion policy:
//
//   - Block 0 is skipped entirely. The manufacturer block carries UID and
//     BCC bytes a write never touches; it is excluded from accounting
//     rather than partially compared.
//   - Sector trailer blocks are skipped. Keys are intentionally not
//     comparable and the access bytes are artifacts of the card, not of
//     the write operation.
//   - Every other block is compared byte for byte.
//
// Excluded blocks do not count toward BlocksCompared. Both images must
// declare the same capacity class. A nil session is allowed.
func Compare(reference, target *CardImage, sess *Session) (*ComparisonOutcome, error) {
	if reference.Type != target.Type {
		return nil, ErrCapacityMismatch
	}

	outcome := &ComparisonOutcome{}
	totalBlocks := reference.Type.TotalBlocks()

	for block := 0; block < totalBlocks; block++ {
		if block == 0 || IsSectorTrailer(block) {
			continue
		}

		different := reference.Blocks[block] != target.Blocks[block]
		outcome.BlocksCompared++
		if different {
			outcome.BlocksDifferent++
			outcome.DifferentBlocks = append(outcome.DifferentBlocks, block)
		}
		sess.blockCompared(different)
	}

	return outcome, nil
}
