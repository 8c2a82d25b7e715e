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
	"context"
	"fmt"
	"time"

	"github.com/bandkit/go-mfcverify/internal/retry"
)

// AuthContext is an opaque token returned by a successful Authenticate call
// and passed back to subsequent ReadBlock calls. Readers that keep no
// per-session state may return nil.
type AuthContext any

// CardReader is the abstract card I/O surface the engine drives. Both calls
// block with bounded internal timeouts; the engine never issues them
// concurrently against the same card session.
//
// Authenticate targets a sector through its first block index. ReadBlock
// must report a missing or silent card as ErrReadTimeout (possibly wrapped)
// so the retry policy can distinguish it from hard protocol errors.
type CardReader interface {
	Authenticate(block int, key Key, keyType KeyType) (AuthContext, error)
	ReadBlock(block int, key Key, keyType KeyType, auth AuthContext) (Block, error)
}

// RetryPolicy controls per-block read retries. Only timeout-class errors
// (per IsRetryable) are retried; the delay is inserted before each attempt
// after the first.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy returns the stock per-block retry behavior:
// 3 attempts with a 50ms settle delay between them
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       50 * time.Millisecond,
	}
}

// defaultReauthEvery is the block-in-sector stride at which the engine
// refreshes authentication. Protocol sessions degrade over a multi-block
// exchange; re-authenticating every second block keeps them stable.
const defaultReauthEvery = 2

// Engine reads whole sectors from a live card using the key-fallback
// strategy: dump keys first, factory default last
type Engine struct {
	reader      CardReader
	retry       RetryPolicy
	reauthEvery int
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithRetryPolicy overrides the per-block read retry policy
func WithRetryPolicy(policy RetryPolicy) EngineOption {
	return func(e *Engine) {
		e.retry = policy
	}
}

// WithReauthInterval overrides the block stride between re-authentications
// within a sector
func WithReauthInterval(blocks int) EngineOption {
	return func(e *Engine) {
		if blocks > 0 {
			e.reauthEvery = blocks
		}
	}
}

// NewEngine creates a sector read engine over the given card reader
func NewEngine(reader CardReader, opts ...EngineOption) *Engine {
	engine := &Engine{
		reader:      reader,
		retry:       DefaultRetryPolicy(),
		reauthEvery: defaultReauthEvery,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// ReadSector reads every block of one sector into target, trying each key
// candidate from the dump in order. A candidate that fails initial
// authentication is skipped without retry. Once a candidate authenticates,
// any later failure (block read exhausted, re-authentication rejected)
// fails the whole sector; the remaining candidates are not tried.
//
// On success both key-known flags are set on the target sector. That
// records the sector as accessible, not which credential opened it.
func (e *Engine) ReadSector(dump, target *CardImage, sector int, sess *Session) error {
	candidates, err := CandidateKeys(dump, sector)
	if err != nil {
		return err
	}

	firstBlock := FirstBlockOfSector(sector)

	for _, candidate := range candidates {
		sess.authAttempt()
		auth, err := e.reader.Authenticate(firstBlock, candidate.Key, candidate.Type)
		if err != nil {
			continue // next candidate
		}
		sess.authSuccess()

		if err := e.readSectorBlocks(target, sector, candidate, auth, sess); err != nil {
			return err
		}

		used := candidate
		target.Sectors[sector].KeyAKnown = true
		target.Sectors[sector].KeyBKnown = true
		target.Sectors[sector].LastKey = &used
		return nil
	}

	return &SectorError{Sector: sector, Block: -1, Err: ErrAuthExhausted}
}

// readSectorBlocks reads the sector's blocks sequentially under an
// established authentication, refreshing it every reauthEvery blocks
func (e *Engine) readSectorBlocks(
	target *CardImage, sector int, candidate KeyCandidate, auth AuthContext, sess *Session,
) error {
	firstBlock := FirstBlockOfSector(sector)
	count := BlocksInSector(sector)

	for i := 0; i < count; i++ {
		block := firstBlock + i

		if i > 0 && i%e.reauthEvery == 0 {
			sess.authAttempt()
			refreshed, err := e.reader.Authenticate(firstBlock, candidate.Key, candidate.Type)
			if err != nil {
				return &SectorError{
					Sector: sector,
					Block:  block,
					Err:    fmt.Errorf("%w: re-authentication: %w", ErrReadExhausted, err),
				}
			}
			sess.authSuccess()
			auth = refreshed
		}

		data, err := retry.Do(retry.Policy{
			MaxAttempts: e.retry.MaxAttempts,
			Delay:       e.retry.Delay,
			Retryable:   IsRetryable,
		}, func() (Block, error) {
			return e.reader.ReadBlock(block, candidate.Key, candidate.Type, auth)
		})
		if err != nil {
			return &SectorError{
				Sector: sector,
				Block:  block,
				Err:    fmt.Errorf("%w: %w", ErrReadExhausted, err),
			}
		}

		target.Blocks[block] = data
	}

	return nil
}

// ReadCard reads all sectors of the dump's capacity class from the live
// card into a fresh image. Per-sector failures accumulate in the session
// and do not stop the loop; the error return is ErrSessionReadFailed if
// any sector failed. Cancellation is cooperative and checked between
// sectors only; an in-flight block read runs to completion first.
//
// The partially read image is returned even on failure, for diagnostics.
func (e *Engine) ReadCard(ctx context.Context, dump *CardImage, sess *Session) (*CardImage, error) {
	target := NewCardImage(dump.Type)
	totalSectors := dump.Type.TotalSectors()

	sess.beginRead(totalSectors)

	failed := 0
	for sector := 0; sector < totalSectors; sector++ {
		if err := ctx.Err(); err != nil {
			return target, err
		}

		sess.startSector(sector)

		if err := e.ReadSector(dump, target, sector, sess); err != nil {
			failed++
			sess.sectorFailed(sector)
			continue
		}
		sess.sectorRead(sector)
	}

	sess.finishRead(failed == 0)

	if failed > 0 {
		return target, fmt.Errorf("%w: %d of %d sectors failed", ErrSessionReadFailed, failed, totalSectors)
	}
	return target, nil
}
