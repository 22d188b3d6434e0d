// Package cli implements the flagcheck command line tool.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/anime-shed/flag-inspector-go/internal/logger"
)

// Exit codes
const (
	ExitConforming    = 0
	ExitNonConforming = 1
	ExitAcquisition   = 2
	ExitUsage         = 3
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "dev"
	BuildDate = "unknown"
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	out     io.Writer
	errOut  io.Writer

	exitCode int

	// Global flags
	logLevel string
}

// New creates a CLI writing reports to out and logs and diagnostics to errOut.
func New(out, errOut io.Writer) *CLI {
	c := &CLI{out: out, errOut: errOut}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI with args and returns the process exit code.
func (c *CLI) Execute(args []string) int {
	c.exitCode = ExitConforming
	c.rootCmd.SetArgs(args)
	if err := c.rootCmd.Execute(); err != nil {
		c.errorf("flagcheck: %v\n", err)
		if c.exitCode == ExitConforming {
			return ExitUsage
		}
	}
	return c.exitCode
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flagcheck",
		Short: "Inspect images of the Indian national flag for conformance",
		Long: `flagcheck measures an image of the Indian national flag against its
construction rules: aspect ratio, band colors and proportions, and the
position, color and spoke count of the Ashoka Chakra.

Exit status is 0 when every flag conforms, 1 when any flag fails a check
and 2 when an image could not be acquired or decoded.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Configure(c.logLevel, c.errOut)
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)

	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(c.newInspectCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) errorf(format string, args ...interface{}) {
	fmt.Fprintf(c.errOut, format, args...)
}
