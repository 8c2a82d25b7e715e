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

// mfcverify verifies that a MIFARE Classic card matches a reference dump,
// reading the card through a PC/SC reader and comparing block by block.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev" // set by the linker

var cfgFile string

var rootCmd *cobra.Command

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd = newRootCmd()

	viper.SetDefault("reader", "")
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mfcverify",
		Short: "Verify MIFARE Classic cards against reference dumps",
		Long: `mfcverify reads a MIFARE Classic card through a PC/SC reader and
compares its contents block by block against a reference dump in the
Flipper NFC device format. The manufacturer block and sector trailers
are excluded from comparison; everything else must match.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newReadersCmd())

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mfcverify.yaml or ./.mfcverify.yaml)")
	cmd.PersistentFlags().StringP("reader", "r", "", "PC/SC reader name substring (default: first reader)")

	_ = viper.BindPFlag("reader", cmd.PersistentFlags().Lookup("reader"))

	return cmd
}

// initConfig reads the configuration file and environment variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mfcverify")
	}

	viper.SetEnvPrefix("MFCVERIFY")
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and flags cover everything
	_ = viper.ReadInConfig()
}
