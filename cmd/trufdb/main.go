// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nigdaemon/truffle/version"
)

const cmdName = "trufdb"

func main() {
	fmt.Println("Version: ", version.GetFullVersion())

	var configPath string
	rootCmd := &cobra.Command{
		Use:     cmdName,
		Version: version.GetFullVersion(),
	}
	rootCmd.AddCommand(
		migrateCommand(&configPath),
		networksCommand(&configPath),
		version.GetCommand(cmdName),
	)

	rootCmd.PersistentFlags().StringVarP(&configPath, configFlag, "c", "", "path to config")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cmdName, "execution failed:", err)
		os.Exit(1)
	}
}
