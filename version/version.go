// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version is release semver, set via ldflags.
	Version = "unset"
	// BuildNumber is CI build number, set via ldflags.
	BuildNumber = "unset"
	// BuildDate is build date, set via ldflags.
	BuildDate = "unset"
	// GitHash is short git commit hash, set via ldflags.
	GitHash = "unset"
)

// GetFullVersion returns multi line full version information.
func GetFullVersion() string {
	return fmt.Sprintf(`
 Version      : %s
 Build number : %s
 Build date   : %s
 Git hash     : %s
 Go version   : %s
`, Version, BuildNumber, BuildDate, GitHash, runtime.Version())
}

// GetCommand returns version command for the given binary.
func GetCommand(cmdName string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: fmt.Sprintf("Print version of %s", cmdName),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(GetFullVersion())
		},
	}
}
