package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Overridden at build time:
// -ldflags "-X main.version=... -X main.commit=... -X main.built=...".
var (
	version = "dev"
	commit  = "none"
	built   = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build metadata",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("statarb %s (commit %s, built %s, %s)\n", version, commit, built, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
