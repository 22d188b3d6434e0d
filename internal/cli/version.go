package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/anime-shed/flag-inspector-go/internal/strategy"
)

// VersionInfo represents version information for structured output.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
}

func (c *CLI) newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runVersion(format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "structured output format (json or yaml)")

	return cmd
}

func (c *CLI) runVersion(format string) error {
	if format == "" {
		fmt.Fprintln(c.out, GetVersionString())
		return nil
	}

	renderer, err := strategy.NewRenderStrategy(format)
	if err != nil {
		return err
	}
	return renderer.Render(c.out, VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	})
}

// SetVersionInfo overrides build information (called from main).
func SetVersionInfo(version, commit, date string) {
	if version != "" {
		Version = version
	}
	if commit != "" {
		GitCommit = commit
	}
	if date != "" {
		BuildDate = date
	}
}

// GetVersionString returns a formatted version string.
func GetVersionString() string {
	return fmt.Sprintf("flagcheck version %s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
