package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmohl2013/omero-isa/pkg/mapping"
	"github.com/cmohl2013/omero-isa/pkg/packer"
)

// packOpts holds the command-line flags for the pack command.
type packOpts struct {
	conn       connOpts
	vocabulary string // optional vocabulary override file
}

func newPackCmd() *cobra.Command {
	var opts packOpts

	cmd := &cobra.Command{
		Use:   "pack <Project:ID> <destination>",
		Short: "Export a project as an ARC repository",
		Long: `Export a project into an ARC directory: i_investigation.json, the
ISA-Tab file set, and per-assay folders holding the image files and
their ROI sidecars.

Examples:
  omero-isa pack Project:42 /path/to/arc
  omero-isa pack --vocabulary custom.toml Project:42 /path/to/arc`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return runPack(c.Context(), &opts, args[0], args[1])
		},
	}

	opts.conn.register(cmd)
	cmd.Flags().StringVar(&opts.vocabulary, "vocabulary", "", "annotation vocabulary TOML override")

	return cmd
}

func runPack(ctx context.Context, opts *packOpts, ref, dest string) error {
	logger := loggerFromContext(ctx)

	projectID, err := parseProjectRef(ref)
	if err != nil {
		failure("Validation Error", err)
		return err
	}

	vocab, err := loadVocabulary(opts.vocabulary)
	if err != nil {
		failure("Validation Error", err)
		return err
	}

	stage("Connecting to database %s", opts.conn.db)
	gw, err := opts.conn.connect()
	if err != nil {
		failure("Connection Error", err)
		return err
	}
	defer gw.Close()
	success("Connected")

	project, err := gw.GetProject(ctx, projectID)
	if err != nil {
		failure("Export Error", err)
		return err
	}

	stage("Packing project %d into %s", projectID, dest)
	prog := newProgress(logger)
	p := &packer.Packer{Gateway: gw, Vocab: vocab, DestDir: dest, Logger: logger}
	if err := p.Pack(ctx, project); err != nil {
		failure("Export Error", err)
		return err
	}
	prog.done("Export finished")

	success("Packed project %q", project.Name)
	return nil
}

// parseProjectRef parses an object reference of the form "Project:42".
func parseProjectRef(ref string) (int64, error) {
	const prefix = "Project:"
	if !strings.HasPrefix(ref, prefix) {
		return 0, fmt.Errorf("invalid object reference %q (want Project:<id>)", ref)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(ref, prefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project id in %q", ref)
	}
	return id, nil
}

func loadVocabulary(path string) (*mapping.Vocabulary, error) {
	if path != "" {
		return mapping.LoadVocabulary(path)
	}
	return mapping.DefaultVocabulary()
}
