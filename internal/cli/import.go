package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmohl2013/omero-isa/pkg/importer"
	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	conn     connOpts
	uploader string // "cli" (subprocess) or "direct" (gateway)
	binary   string // import executable for the cli uploader
}

func newImportCmd() *cobra.Command {
	opts := importOpts{uploader: "direct"}

	cmd := &cobra.Command{
		Use:   "import <project-name> <investigation.json>",
		Short: "Import an ARC repository into the database",
		Long: `Import an ARC repository described by an ISA investigation document.

The study becomes a project, each assay a dataset, each raw image data
file an uploaded image. Image paths inside the document resolve relative
to the directory containing the investigation file.

Examples:
  omero-isa import "My Project" /path/to/arc/i_investigation.json
  omero-isa import --uploader cli -s omero.example.org -p 4064 "My Project" i_investigation.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return runImport(c.Context(), &opts, args[0], args[1])
		},
	}

	opts.conn.register(cmd)
	cmd.Flags().StringVar(&opts.uploader, "uploader", opts.uploader, "image upload mechanism: cli or direct")
	cmd.Flags().StringVar(&opts.binary, "omero-bin", "omero", "import executable used by the cli uploader")

	return cmd
}

func runImport(ctx context.Context, opts *importOpts, projectName, investigationFile string) error {
	logger := loggerFromContext(ctx)

	stage("Validating investigation file %s", investigationFile)
	data, err := readInvestigation(investigationFile)
	if err != nil {
		failure("Validation Error", err)
		return err
	}
	success("Investigation file is valid")

	stage("Connecting to database %s", opts.conn.db)
	gw, err := opts.conn.connect()
	if err != nil {
		failure("Connection Error", err)
		return err
	}
	defer gw.Close()
	success("Connected")

	uploader, err := buildUploader(opts, gw)
	if err != nil {
		failure("Validation Error", err)
		return err
	}

	arcRoot := filepath.Dir(investigationFile)
	imp, err := importer.New(data, arcRoot, gw, uploader, importer.Options{
		ProjectName: projectName,
		Logger:      logger,
	})
	if err != nil {
		failure("Validation Error", err)
		return err
	}

	stage("Importing ARC repository")
	prog := newProgress(logger)
	project, err := imp.Save(ctx)
	if err != nil {
		failure("Import Error", err)
		return err
	}
	prog.done("Import finished")

	success("Imported ARC repository")
	detail("Project ID: %d", project.ID)
	detail("Project name: %s", project.Name)
	return nil
}

// readInvestigation validates the document path and parses the JSON. The
// decoder keeps numbers verbatim so annotation values round-trip without
// float formatting artifacts.
func readInvestigation(path string) (map[string]any, error) {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return nil, fmt.Errorf("investigation file must be JSON, got %s", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("investigation file not found: %s", path)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return data, nil
}

func buildUploader(opts *importOpts, gw omero.Gateway) (importer.Uploader, error) {
	switch opts.uploader {
	case "direct":
		return &importer.GatewayUploader{Gateway: gw}, nil
	case "cli":
		return &importer.CLIUploader{
			Gateway: gw,
			Host:    opts.conn.server,
			Port:    opts.conn.port,
			Binary:  opts.binary,
		}, nil
	default:
		return nil, fmt.Errorf("unknown uploader %q (want cli or direct)", opts.uploader)
	}
}
