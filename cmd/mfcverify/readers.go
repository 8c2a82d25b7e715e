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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bandkit/go-mfcverify/pcsc"
)

func newReadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "List attached PC/SC readers",
		RunE: func(cmd *cobra.Command, args []string) error {
			readers, err := pcsc.ListReaders()
			if err != nil {
				return err
			}
			if len(readers) == 0 {
				return errors.New("no PC/SC readers attached")
			}
			for _, r := range readers {
				fmt.Fprintln(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}
}
