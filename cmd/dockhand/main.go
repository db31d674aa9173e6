// Command dockhand deploys a containerized application from a git
// repository to a remote host over SSH: provisions docker, compose and
// nginx, transfers the project tree, builds and starts the application,
// fronts it with a reverse-proxy fragment, and validates the result.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitInputError   = 2
	ExitConnectError = 3
	ExitStageError   = 4
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "dockhand",
		Short:         "Deploy a containerized application to a remote host",
		Long:          "dockhand drives a single remote host over SSH: it installs docker, compose and nginx if missing, ships your project tree, builds and starts it under the container runtime, and routes port 80 to it through nginx.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dockhand %s (built %s)\n", Version, BuildTime)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.AddCommand(versionCmd, deployCmd, teardownCmd, historyCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dockhand: %v\n", err)
		if code, ok := exitCodeFor(err); ok {
			return code
		}
		return ExitStageError
	}
	return ExitSuccess
}
