package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. It is
// called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the omero-isa CLI and returns an error if any command
// fails. The root command wires the import and pack subcommands and
// attaches a logger to the context; --verbose switches it to debug level.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "omero-isa",
		Short:        "Translate between ISA documents and an OMERO-style image database",
		Long:         `omero-isa imports ARC repositories (ISA investigation documents plus their image files) into a bio-image database and packs projects back into the same ARC layout.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("omero-isa %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newImportCmd())
	root.AddCommand(newPackCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}
