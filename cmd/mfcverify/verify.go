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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mfcverify "github.com/bandkit/go-mfcverify"
	"github.com/bandkit/go-mfcverify/dump"
	"github.com/bandkit/go-mfcverify/pcsc"
)

func newVerifyCmd() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "verify <dump.nfc>",
		Short: "Read a card and compare it against a reference dump",
		Long: `verify waits for a card on the PC/SC reader, reads every sector using
the keys recorded in the dump (falling back to the factory default key),
and compares the card's data blocks against the dump.

The command exits 0 when all compared blocks match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0], details)
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "print a per-block hex diff on mismatch")

	return cmd
}

func runVerify(cmd *cobra.Command, dumpPath string, details bool) error {
	file, err := dump.Load(dumpPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s dump: UID %X, %d sectors\n",
		file.Card.Type, file.UID, file.Card.Type.TotalSectors())

	device, err := pcsc.Open(viper.GetString("reader"))
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()
	fmt.Fprintf(cmd.OutOrStdout(), "Using reader: %s\n", device.Reader())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := mfcverify.NewSession()
	session.OnProgress = progressPrinter(cmd)

	verifier := mfcverify.NewVerifier(device, pcsc.NewPoller(device), file.Card,
		mfcverify.WithSession(session))

	outcome, err := verifier.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("verification aborted")
		}
		return err
	}

	switch outcome {
	case mfcverify.OutcomeVerified:
		result := verifier.Result()
		fmt.Fprintf(cmd.OutOrStdout(), "VERIFIED: %d blocks match\n", result.BlocksCompared)
		return nil

	case mfcverify.OutcomeMismatch:
		// Resolve the pending choice the way an interactive user would
		choice := mfcverify.EventChoiceExit
		if details {
			choice = mfcverify.EventChoiceViewDetails
		}
		if err := verifier.HandleEvent(ctx, choice); err != nil {
			return err
		}

		result := verifier.Result()
		fmt.Fprintf(cmd.OutOrStdout(), "MISMATCH: %d of %d blocks differ\n",
			result.BlocksDifferent, result.BlocksCompared)
		if verifier.Route() == mfcverify.RouteDiffViewer {
			printDiff(cmd, file.Card, verifier.Target(), result.DifferentBlocks)
		}
		return errors.New("card does not match dump")

	case mfcverify.OutcomeReadFailed:
		snap := session.Snapshot()
		return fmt.Errorf("read failed: %d of %d sectors unreadable", snap.SectorsFailed, snap.TotalSectors)

	case mfcverify.OutcomeDetectionFailed:
		return errors.New("card detection failed")

	default:
		return fmt.Errorf("verification ended with outcome %s", outcome)
	}
}

// progressPrinter reports operation changes, skipping the per-counter churn
// the session hook also fires for
func progressPrinter(cmd *cobra.Command) func(mfcverify.Snapshot) {
	last := ""
	return func(snap mfcverify.Snapshot) {
		msg := snap.CurrentOperation
		if snap.ErrorDetails != "" {
			msg = snap.ErrorDetails
		}
		if msg == last {
			return
		}
		last = msg
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
}

// printDiff shows the differing blocks side by side, dump then card
func printDiff(cmd *cobra.Command, reference, target *mfcverify.CardImage, blocks []int) {
	out := cmd.OutOrStdout()
	for _, block := range blocks {
		fmt.Fprintf(out, "Block %3d (sector %d)\n", block, mfcverify.SectorOfBlock(block))
		fmt.Fprintf(out, "  dump: % X\n", reference.Blocks[block][:])
		fmt.Fprintf(out, "  card: % X\n", target.Blocks[block][:])
	}
}
